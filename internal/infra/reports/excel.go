package reports

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/parking-rent/internal/domain/payments"
)

// PaymentsWorkbook собирает xlsx с леджером платежей для владельца:
// одна строка на платёж, вместе с контрагентом и номером места.
func PaymentsWorkbook(rows []payments.LedgerRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"payment_id",
		"contractor_name",
		"parking_number",
		"year",
		"month",
		"amount",
		"paid_at",
		"stripe_payment_intent_id",
		"stripe_session_id",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	rowIdx := 2
	for _, r := range rows {
		paidAt := ""
		if r.PaidAt != nil {
			paidAt = r.PaidAt.Format("2006-01-02 15:04:05")
		}
		excelRow := []interface{}{
			r.ID.String(),
			r.ContractorName,
			r.ParkingNumber,
			r.Year,
			r.Month,
			r.Amount,
			paidAt,
			r.StripePaymentIntentID,
			r.StripeSessionID,
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, err
		}
		rowIdx++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
