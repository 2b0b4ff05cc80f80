package notify

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/parking-rent/internal/domain/billing"
)

// Telegram шлёт владельцу сообщение о разнесённой оплате.
// Уведомление необязательное: любые ошибки только логируются.
type Telegram struct {
	api    *tgbotapi.BotAPI
	log    *slog.Logger
	chatID int64
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{api: api, log: log, chatID: chatID}, nil
}

func (t *Telegram) PaymentReconciled(contractorName, parkingNumber string, months []billing.YearMonth, total int64) {
	labels := make([]string, 0, len(months))
	for _, ym := range months {
		labels = append(labels, fmt.Sprintf("%04d-%02d", ym.Year, ym.Month))
	}
	text := fmt.Sprintf(
		"Поступила оплата: %s (место №%s)\nМесяцы: %s\nСумма: %d",
		contractorName, parkingNumber, strings.Join(labels, ", "), total,
	)
	if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		t.log.Error("telegram notification failed", "err", err)
	}
}
