package receipt

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/Spok95/parking-rent/internal/domain/payments"
)

// Render рисует квитанцию по строке леджера и пишет PDF в w.
// Квитанция информационная, на леджер не влияет.
func Render(w io.Writer, row *payments.LedgerRow, issued time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, "Parking Rent Receipt", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Issued: %s", issued.Format("2006-01-02")), "", 1, "R", false, 0, "")
	pdf.Ln(6)

	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(60, 9, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 9, value, "", 1, "L", false, 0, "")
	}

	line("Contractor", row.ContractorName)
	line("Parking space", row.ParkingNumber)
	line("Billing month", fmt.Sprintf("%04d-%02d", row.Year, row.Month))
	line("Amount", fmt.Sprintf("%d", row.Amount))
	if row.PaidAt != nil {
		line("Paid at", row.PaidAt.Format("2006-01-02 15:04"))
	}
	if row.StripePaymentIntentID != "" {
		line("Payment reference", row.StripePaymentIntentID)
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 8, fmt.Sprintf("Receipt ID: %s", row.ID), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}
