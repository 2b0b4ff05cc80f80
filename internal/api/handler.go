package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/parking-rent/internal/domain/billing"
	"github.com/Spok95/parking-rent/internal/domain/contractors"
	"github.com/Spok95/parking-rent/internal/domain/payments"
	"github.com/Spok95/parking-rent/internal/infra/checkout"
	"github.com/Spok95/parking-rent/internal/infra/receipt"
	"github.com/Spok95/parking-rent/internal/infra/reports"
)

type contractorOps interface {
	Create(ctx context.Context, in contractors.CreateInput) (*contractors.Contractor, error)
	Get(ctx context.Context, id uuid.UUID) (*contractors.Contractor, error)
	List(ctx context.Context) ([]contractors.Contractor, error)
	Update(ctx context.Context, id uuid.UUID, in contractors.UpdateInput) (*contractors.Contractor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type checkoutStarter interface {
	CreateSession(ctx context.Context, contractorID uuid.UUID, months int) (string, error)
}

type ledgerReader interface {
	ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]payments.Payment, error)
	GetLedgerRow(ctx context.Context, id uuid.UUID) (*payments.LedgerRow, error)
	ListLedger(ctx context.Context) ([]payments.LedgerRow, error)
}

type Handler struct {
	log         *slog.Logger
	contractors contractorOps
	checkout    checkoutStarter
	ledger      ledgerReader
	now         func() time.Time
}

func New(log *slog.Logger, co contractorOps, cs checkoutStarter, ledger ledgerReader, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{log: log, contractors: co, checkout: cs, ledger: ledger, now: now}
}

// CreateContractor handles POST /api/contractors
func (h *Handler) CreateContractor(w http.ResponseWriter, r *http.Request) {
	var req contractorCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	c, err := h.contractors.Create(r.Context(), req.toInput())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.log.Info("contractor created", "id", c.ID, "parking_number", c.ParkingNumber)
	writeJSON(w, http.StatusCreated, toContractorJSON(c))
}

// ListContractors handles GET /api/contractors
func (h *Handler) ListContractors(w http.ResponseWriter, r *http.Request) {
	list, err := h.contractors.List(r.Context())
	if err != nil {
		h.log.Error("failed to list contractors", "err", err)
		writeError(w, http.StatusInternalServerError, "could not fetch contractors")
		return
	}

	out := make([]contractorJSON, 0, len(list))
	for i := range list {
		out = append(out, toContractorJSON(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetContractor handles GET /api/contractors/{id}:
// карточка контрагента вместе с историей платежей и текущим долгом.
func (h *Handler) GetContractor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	c, err := h.contractors.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	history, err := h.ledger.ListByContractor(r.Context(), id)
	if err != nil {
		h.log.Error("failed to fetch payments", "contractor_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "could not fetch payments")
		return
	}

	unpaid, err := billing.UnpaidMonths(c.ContractStart, c.ContractEnd,
		payments.PaidMonths(history), billing.FromTime(h.now()))
	if err != nil {
		h.log.Error("unpaid months resolution failed", "contractor_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "contract period is inconsistent")
		return
	}

	writeJSON(w, http.StatusOK, contractorDetailJSON{
		Contractor:   toContractorJSON(c),
		Payments:     toPaymentsJSON(history),
		UnpaidMonths: toMonthsJSON(unpaid),
	})
}

// UpdateContractor handles PATCH /api/contractors/{id}
func (h *Handler) UpdateContractor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req contractorUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c, err := h.contractors.Update(r.Context(), id, in)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractorJSON(c))
}

// DeleteContractor handles DELETE /api/contractors/{id}
func (h *Handler) DeleteContractor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.contractors.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.log.Info("contractor deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// UnpaidMonths handles GET /api/contractors/{id}/unpaid-months
func (h *Handler) UnpaidMonths(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	c, err := h.contractors.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	history, err := h.ledger.ListByContractor(r.Context(), id)
	if err != nil {
		h.log.Error("failed to fetch payments", "contractor_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "could not fetch payments")
		return
	}

	unpaid, err := billing.UnpaidMonths(c.ContractStart, c.ContractEnd,
		payments.PaidMonths(history), billing.FromTime(h.now()))
	if err != nil {
		h.log.Error("unpaid months resolution failed", "contractor_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "contract period is inconsistent")
		return
	}
	writeJSON(w, http.StatusOK, toMonthsJSON(unpaid))
}

// CreateCheckoutSession handles POST /api/checkout-sessions
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	id, err := uuid.Parse(req.ContractorID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "contractor_id must be a valid UUID")
		return
	}

	sessionID, err := h.checkout.CreateSession(r.Context(), id, req.Months)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": sessionID})
}

// PaymentReceipt handles GET /api/payments/{id}/receipt
func (h *Handler) PaymentReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	row, err := h.ledger.GetLedgerRow(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt_%04d_%02d.pdf"`, row.Year, row.Month))
	if err := receipt.Render(w, row, h.now()); err != nil {
		h.log.Error("receipt rendering failed", "payment_id", id, "err", err)
	}
}

// ExportPayments handles GET /api/reports/payments.xlsx
func (h *Handler) ExportPayments(w http.ResponseWriter, r *http.Request) {
	rows, err := h.ledger.ListLedger(r.Context())
	if err != nil {
		h.log.Error("failed to fetch ledger", "err", err)
		writeError(w, http.StatusInternalServerError, "could not fetch payments")
		return
	}

	buf, err := reports.PaymentsWorkbook(rows)
	if err != nil {
		h.log.Error("ledger export failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not build export")
		return
	}

	filename := fmt.Sprintf("payments_%s.xlsx", h.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var ve contractors.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Msg, Field: ve.Field})
	case errors.Is(err, contractors.ErrNotFound), errors.Is(err, payments.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, contractors.ErrSpaceOccupied):
		writeError(w, http.StatusConflict, "parking space already has an active contract")
	case errors.Is(err, contractors.ErrHasPayments):
		writeError(w, http.StatusConflict, "contractor has paid history and cannot be deleted")
	case errors.Is(err, checkout.ErrInvalidMonths):
		writeError(w, http.StatusUnprocessableEntity, "months is out of range")
	case errors.Is(err, checkout.ErrFeeNotConfigured):
		writeError(w, http.StatusInternalServerError, "monthly fee is not configured")
	case errors.Is(err, checkout.ErrProvider):
		writeError(w, http.StatusBadGateway, "payment provider rejected the request")
	default:
		h.log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
