package config

import "github.com/spf13/viper"

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Stripe struct {
		SecretKey     string `mapstructure:"secret_key"`
		WebhookSecret string `mapstructure:"webhook_secret"`
		Currency      string `mapstructure:"currency"`
		FrontendURL   string `mapstructure:"frontend_url"`
	} `mapstructure:"stripe"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Billing struct {
		MinMonthlyFee int64 `mapstructure:"min_monthly_fee"`
		MaxMonths     int   `mapstructure:"max_months"` // потолок месяцев за одну оплату
	} `mapstructure:"billing"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	// Секреты (stripe.*, telegram.token) переопределяются через ENV (APP_*)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	v.SetDefault("billing.min_monthly_fee", 50)
	v.SetDefault("billing.max_months", 24)
	v.SetDefault("stripe.currency", "jpy")

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
