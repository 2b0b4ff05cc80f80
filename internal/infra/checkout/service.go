package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"

	"github.com/Spok95/parking-rent/internal/domain/contractors"
	"github.com/Spok95/parking-rent/internal/infra/metrics"
)

var (
	ErrInvalidMonths = errors.New("checkout: months must be between 1 and the configured cap")
	// ErrFeeNotConfigured — месячная плата отсутствует или неположительная.
	// Дефолтной суммы нет: плата напрямую определяет списание.
	ErrFeeNotConfigured = errors.New("checkout: monthly fee is not configured")
	ErrProvider         = errors.New("checkout: payment provider error")
)

type Config struct {
	SecretKey   string
	Currency    string
	FrontendURL string
	MaxMonths   int
}

type contractorGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*contractors.Contractor, error)
}

// Service открывает hosted-checkout сессии Stripe.
type Service struct {
	contractors contractorGetter
	cfg         Config
	log         *slog.Logger
}

func NewService(cg contractorGetter, cfg Config, log *slog.Logger) *Service {
	stripe.Key = cfg.SecretKey
	return &Service{contractors: cg, cfg: cfg, log: log}
}

// CreateSession считает сумму (плата × месяцы) и открывает сессию оплаты.
// В metadata уходят contractor_id и months — единственный канал, по которому
// вебхук потом узнаёт, что именно покупалось.
func (s *Service) CreateSession(ctx context.Context, contractorID uuid.UUID, months int) (string, error) {
	if months < 1 || months > s.cfg.MaxMonths {
		return "", ErrInvalidMonths
	}

	c, err := s.contractors.Get(ctx, contractorID)
	if err != nil {
		return "", err
	}
	if c.MonthlyFee <= 0 {
		return "", ErrFeeNotConfigured
	}

	amount := c.MonthlyFee * int64(months)
	name := url.PathEscape(c.Name)
	successURL := fmt.Sprintf("%s/contractor/%s/payment/success?session_id={CHECKOUT_SESSION_ID}", s.cfg.FrontendURL, name)
	cancelURL := fmt.Sprintf("%s/contractor/%s", s.cfg.FrontendURL, name)

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.cfg.Currency),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("Аренда парковочного места, %d мес.", months)),
						Description: stripe.String(fmt.Sprintf("%s, место №%s", c.Name, c.ParkingNumber)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Context = ctx
	params.AddMetadata("contractor_id", contractorID.String())
	params.AddMetadata("months", fmt.Sprintf("%d", months))

	sess, err := session.New(params)
	if err != nil {
		s.log.Error("stripe session create failed", "contractor_id", contractorID, "err", err)
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}

	metrics.CheckoutSessionsCreated.Inc()
	s.log.Info("checkout session created",
		"contractor_id", contractorID,
		"months", months,
		"amount", amount,
		"session_id", sess.ID,
	)
	return sess.ID, nil
}
