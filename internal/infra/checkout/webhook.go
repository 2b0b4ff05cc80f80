package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/Spok95/parking-rent/internal/domain/billing"
	"github.com/Spok95/parking-rent/internal/domain/contractors"
	"github.com/Spok95/parking-rent/internal/domain/payments"
	"github.com/Spok95/parking-rent/internal/infra/metrics"
)

const maxWebhookBody = 64 << 10

var (
	errMissingContractor = errors.New("checkout: contractor_id missing in session metadata")
	errBadMonths         = errors.New("checkout: invalid months in session metadata")
	// ErrNothingOwed — долг пуст, а оплата пришла. Повторная доставка или
	// гонка с другим событием; молча принимать такой платёж нельзя.
	ErrNothingOwed = errors.New("checkout: no unpaid months to apply the payment to")
)

type ledgerStore interface {
	ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]payments.Payment, error)
	ExistsBySessionID(ctx context.Context, sessionID string) (bool, error)
	InsertPaid(ctx context.Context, rows []payments.Payment) error
}

// Notifier уведомляет владельца о разнесённой оплате. Ошибки уведомления
// на результат обработки события не влияют.
type Notifier interface {
	PaymentReconciled(contractorName, parkingNumber string, months []billing.YearMonth, total int64)
}

// WebhookHandler принимает события Stripe и разносит оплату по леджеру.
// Доставка at-least-once: обработка обязана быть идемпотентной.
type WebhookHandler struct {
	log         *slog.Logger
	contractors contractorGetter
	ledger      ledgerStore
	notifier    Notifier
	secret      string
	frontendURL string
	now         func() time.Time
}

func NewWebhookHandler(log *slog.Logger, cg contractorGetter, ledger ledgerStore,
	notifier Notifier, secret, frontendURL string, now func() time.Time) *WebhookHandler {
	if now == nil {
		now = time.Now
	}
	return &WebhookHandler{
		log:         log,
		contractors: cg,
		ledger:      ledger,
		notifier:    notifier,
		secret:      secret,
		frontendURL: frontendURL,
		now:         now,
	}
}

type reconcileResult struct {
	duplicate     bool
	contractor    *contractors.Contractor
	months        []billing.YearMonth
	total         int64
	redirectURL   string
	sessionID     string
	paymentIntent string
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("error").Inc()
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	// Сначала подпись, потом всё остальное: неподписанному payload не верим.
	// api_version события не сверяем: вебхук аккаунта может жить на версии,
	// отличной от пина SDK, подпись при этом остаётся валидной.
	event, err := webhook.ConstructEventWithOptions(body, r.Header.Get("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		h.log.Warn("webhook signature verification failed", "err", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if event.Type != "checkout.session.completed" {
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		metrics.WebhookEvents.WithLabelValues("error").Inc()
		http.Error(w, "malformed event payload", http.StatusBadRequest)
		return
	}

	res, err := h.reconcile(ctx, &sess)
	if err != nil {
		h.fail(w, &sess, err)
		return
	}

	if res.duplicate {
		// Событие уже разнесено — подтверждаем без записи.
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		h.log.Info("duplicate webhook delivery ignored", "session_id", sess.ID)
		writeJSON(w, http.StatusOK, map[string]any{"received": true, "duplicate": true})
		return
	}

	metrics.WebhookEvents.WithLabelValues("ok").Inc()
	metrics.MonthsReconciled.Add(float64(len(res.months)))
	h.log.Info("payment reconciled",
		"contractor_id", res.contractor.ID,
		"session_id", res.sessionID,
		"payment_intent", res.paymentIntent,
		"months", len(res.months),
		"amount_total", res.total,
	)

	if h.notifier != nil {
		go h.notifier.PaymentReconciled(res.contractor.Name, res.contractor.ParkingNumber, res.months, res.total)
	}

	// Редирект информационный: на разнесённые платежи уже не влияет.
	writeJSON(w, http.StatusOK, map[string]any{"redirectUrl": res.redirectURL})
}

// reconcile выбирает из долга первые N месяцев (строго от старых к новым)
// и записывает оплаченные строки одной транзакцией.
func (h *WebhookHandler) reconcile(ctx context.Context, sess *stripe.CheckoutSession) (*reconcileResult, error) {
	contractorID := sess.Metadata["contractor_id"]
	if contractorID == "" {
		return nil, errMissingContractor
	}
	id, err := uuid.Parse(contractorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMissingContractor, err)
	}

	months := 1
	if raw := sess.Metadata["months"]; raw != "" {
		months, err = strconv.Atoi(raw)
		if err != nil || months < 1 {
			return nil, errBadMonths
		}
	}

	// session_id — ключ идемпотентности: по нему отсекаем повторные доставки,
	// иначе второй заход пометил бы оплаченными следующие месяцы долга.
	if exists, err := h.ledger.ExistsBySessionID(ctx, sess.ID); err != nil {
		return nil, err
	} else if exists {
		return &reconcileResult{duplicate: true}, nil
	}

	c, err := h.contractors.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := h.ledger.ListByContractor(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	nowTime := h.now()
	unpaid, err := billing.UnpaidMonths(c.ContractStart, c.ContractEnd, payments.PaidMonths(history), billing.FromTime(nowTime))
	if err != nil {
		return nil, err
	}
	if len(unpaid) == 0 {
		return nil, ErrNothingOwed
	}
	if months > len(unpaid) {
		months = len(unpaid)
	}
	selected := unpaid[:months]

	total := sess.AmountTotal
	rows, err := buildLedgerRows(c.ID, selected, total, sess, nowTime)
	if err != nil {
		return nil, err
	}
	if err := h.ledger.InsertPaid(ctx, rows); err != nil {
		return nil, err
	}

	return &reconcileResult{
		contractor:    c,
		months:        selected,
		total:         total,
		redirectURL:   fmt.Sprintf("%s/contractor/%s", h.frontendURL, url.PathEscape(c.Name)),
		sessionID:     sess.ID,
		paymentIntent: paymentIntentID(sess),
	}, nil
}

// buildLedgerRows делит итоговую сумму поровну целочисленно; остаток от
// деления целиком уходит в самый старый месяц, чтобы сумма строк сходилась
// с суммой списания.
func buildLedgerRows(contractorID uuid.UUID, selected []billing.YearMonth,
	total int64, sess *stripe.CheckoutSession, now time.Time) ([]payments.Payment, error) {
	if total <= 0 {
		return nil, fmt.Errorf("checkout: non-positive amount_total %d", total)
	}

	n := int64(len(selected))
	per := total / n
	remainder := total % n

	intentID := paymentIntentID(sess)
	rows := make([]payments.Payment, 0, len(selected))
	for i, ym := range selected {
		amount := per
		if i == 0 {
			amount += remainder
		}
		paidAt := now
		rows = append(rows, payments.Payment{
			ContractorID:          contractorID,
			Year:                  ym.Year,
			Month:                 ym.Month,
			Amount:                amount,
			PaidAt:                &paidAt,
			StripePaymentIntentID: intentID,
			StripeSessionID:       sess.ID,
		})
	}
	return rows, nil
}

func paymentIntentID(sess *stripe.CheckoutSession) string {
	if sess.PaymentIntent == nil {
		return ""
	}
	return sess.PaymentIntent.ID
}

func (h *WebhookHandler) fail(w http.ResponseWriter, sess *stripe.CheckoutSession, err error) {
	status := http.StatusInternalServerError
	outcome := "error"
	switch {
	case errors.Is(err, errMissingContractor), errors.Is(err, errBadMonths):
		status = http.StatusBadRequest
		outcome = "rejected"
	case errors.Is(err, contractors.ErrNotFound):
		status = http.StatusNotFound
		outcome = "rejected"
	case errors.Is(err, ErrNothingOwed), errors.Is(err, payments.ErrDuplicateMonth):
		// Конфликт: либо долг уже закрыт, либо конкурентная доставка успела
		// первой. Запись откачена целиком, ретрай безопасен.
		status = http.StatusConflict
		outcome = "rejected"
	}
	metrics.WebhookEvents.WithLabelValues(outcome).Inc()
	h.log.Error("webhook processing failed", "session_id", sess.ID, "err", err)
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
