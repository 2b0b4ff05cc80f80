package api

import (
	"errors"
	"time"

	"github.com/Spok95/parking-rent/internal/domain/billing"
	"github.com/Spok95/parking-rent/internal/domain/contractors"
	"github.com/Spok95/parking-rent/internal/domain/payments"
)

// JSON-поля повторяют схему хранилища: фронту так привычнее.
type contractorJSON struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ParkingNumber      string `json:"parking_number"`
	ContractStartYear  int    `json:"contract_start_year"`
	ContractStartMonth int    `json:"contract_start_month"`
	ContractEndYear    *int   `json:"contract_end_year"`
	ContractEndMonth   *int   `json:"contract_end_month"`
	MonthlyFee         int64  `json:"monthly_fee"`
	CreatedAt          string `json:"created_at"`
}

type monthJSON struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type paymentJSON struct {
	ID                    string     `json:"id"`
	ContractorID          string     `json:"contractor_id"`
	Year                  int        `json:"year"`
	Month                 int        `json:"month"`
	Amount                int64      `json:"amount"`
	PaidAt                *time.Time `json:"paid_at"`
	StripePaymentIntentID string     `json:"stripe_payment_intent_id"`
	StripeSessionID       string     `json:"stripe_session_id"`
}

type contractorDetailJSON struct {
	Contractor   contractorJSON `json:"contractor"`
	Payments     []paymentJSON  `json:"payments"`
	UnpaidMonths []monthJSON    `json:"unpaid_months"`
}

type contractorCreateRequest struct {
	Name               string `json:"name"`
	ParkingNumber      string `json:"parking_number"`
	ContractStartYear  int    `json:"contract_start_year"`
	ContractStartMonth int    `json:"contract_start_month"`
	ContractEndYear    *int   `json:"contract_end_year"`
	ContractEndMonth   *int   `json:"contract_end_month"`
	MonthlyFee         int64  `json:"monthly_fee"`
}

func (r *contractorCreateRequest) toInput() contractors.CreateInput {
	in := contractors.CreateInput{
		Name:          r.Name,
		ParkingNumber: r.ParkingNumber,
		ContractStart: billing.YearMonth{Year: r.ContractStartYear, Month: r.ContractStartMonth},
		MonthlyFee:    r.MonthlyFee,
	}
	if r.ContractEndYear != nil && r.ContractEndMonth != nil {
		in.ContractEnd = &billing.YearMonth{Year: *r.ContractEndYear, Month: *r.ContractEndMonth}
	}
	return in
}

type contractorUpdateRequest struct {
	Name             *string `json:"name"`
	ParkingNumber    *string `json:"parking_number"`
	ContractEndYear  *int    `json:"contract_end_year"`
	ContractEndMonth *int    `json:"contract_end_month"`
	ClearContractEnd bool    `json:"clear_contract_end"`
	MonthlyFee       *int64  `json:"monthly_fee"`
}

func (r *contractorUpdateRequest) toInput() (contractors.UpdateInput, error) {
	in := contractors.UpdateInput{
		Name:             r.Name,
		ParkingNumber:    r.ParkingNumber,
		ClearContractEnd: r.ClearContractEnd,
		MonthlyFee:       r.MonthlyFee,
	}
	// конец договора задаётся только парой год+месяц
	switch {
	case r.ContractEndYear != nil && r.ContractEndMonth != nil:
		in.ContractEnd = &billing.YearMonth{Year: *r.ContractEndYear, Month: *r.ContractEndMonth}
	case r.ContractEndYear != nil || r.ContractEndMonth != nil:
		return in, errors.New("contract_end_year and contract_end_month must be set together")
	}
	return in, nil
}

type checkoutRequest struct {
	ContractorID string `json:"contractor_id"`
	Months       int    `json:"months"`
}

func toContractorJSON(c *contractors.Contractor) contractorJSON {
	out := contractorJSON{
		ID:                 c.ID.String(),
		Name:               c.Name,
		ParkingNumber:      c.ParkingNumber,
		ContractStartYear:  c.ContractStart.Year,
		ContractStartMonth: c.ContractStart.Month,
		MonthlyFee:         c.MonthlyFee,
		CreatedAt:          c.CreatedAt.Format(time.RFC3339),
	}
	if c.ContractEnd != nil {
		out.ContractEndYear = &c.ContractEnd.Year
		out.ContractEndMonth = &c.ContractEnd.Month
	}
	return out
}

func toMonthsJSON(months []billing.YearMonth) []monthJSON {
	out := make([]monthJSON, 0, len(months))
	for _, ym := range months {
		out = append(out, monthJSON{Year: ym.Year, Month: ym.Month})
	}
	return out
}

func toPaymentsJSON(list []payments.Payment) []paymentJSON {
	out := make([]paymentJSON, 0, len(list))
	for i := range list {
		p := &list[i]
		out = append(out, paymentJSON{
			ID:                    p.ID.String(),
			ContractorID:          p.ContractorID.String(),
			Year:                  p.Year,
			Month:                 p.Month,
			Amount:                p.Amount,
			PaidAt:                p.PaidAt,
			StripePaymentIntentID: p.StripePaymentIntentID,
			StripeSessionID:       p.StripeSessionID,
		})
	}
	return out
}
