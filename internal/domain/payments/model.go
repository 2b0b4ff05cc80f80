package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/parking-rent/internal/domain/billing"
)

// Payment — строка леджера. Year/Month — оплачиваемый месяц обязательства,
// не дата транзакции. После записи строка не меняется.
type Payment struct {
	ID                    uuid.UUID
	ContractorID          uuid.UUID
	Year                  int
	Month                 int
	Amount                int64
	PaidAt                *time.Time // nil — заготовка, месяц не считается оплаченным
	StripePaymentIntentID string
	StripeSessionID       string
	CreatedAt             time.Time
}

func (p *Payment) Obligation() billing.YearMonth {
	return billing.YearMonth{Year: p.Year, Month: p.Month}
}

// PaidMonths собирает множество оплаченных месяцев для резолвера долга.
// Строка без paid_at оплатой не считается.
func PaidMonths(list []Payment) map[billing.YearMonth]struct{} {
	set := make(map[billing.YearMonth]struct{}, len(list))
	for i := range list {
		if list[i].PaidAt != nil {
			set[list[i].Obligation()] = struct{}{}
		}
	}
	return set
}

// LedgerRow — платёж вместе с данными контрагента для квитанций и выгрузок.
type LedgerRow struct {
	Payment
	ContractorName string
	ParkingNumber  string
}
