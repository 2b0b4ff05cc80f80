package contractors

import (
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/parking-rent/internal/domain/billing"
)

type Contractor struct {
	ID            uuid.UUID
	Name          string
	ParkingNumber string
	ContractStart billing.YearMonth
	ContractEnd   *billing.YearMonth // nil — бессрочный договор
	MonthlyFee    int64              // минорные единицы валюты
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ActiveAt: договор действует на месяц now (конца нет или конец не раньше now).
func (c *Contractor) ActiveAt(now billing.YearMonth) bool {
	return c.ContractEnd == nil || billing.Compare(*c.ContractEnd, now) >= 0
}

type CreateInput struct {
	Name          string
	ParkingNumber string
	ContractStart billing.YearMonth
	ContractEnd   *billing.YearMonth
	MonthlyFee    int64
}

// UpdateInput — частичное обновление. Начало договора не редактируется:
// это якорь истории платежей, поля для него здесь нет.
type UpdateInput struct {
	Name             *string
	ParkingNumber    *string
	ContractEnd      *billing.YearMonth
	ClearContractEnd bool // явно снять дату окончания (сделать договор бессрочным)
	MonthlyFee       *int64
}
