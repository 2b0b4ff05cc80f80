package receipt

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/parking-rent/internal/domain/payments"
)

func TestRender(t *testing.T) {
	paidAt := time.Date(2024, time.March, 10, 14, 30, 0, 0, time.UTC)
	issued := time.Date(2024, time.April, 15, 12, 0, 0, 0, time.UTC)
	row := &payments.LedgerRow{
		Payment: payments.Payment{
			ID:                    uuid.New(),
			ContractorID:          uuid.New(),
			Year:                  2024,
			Month:                 3,
			Amount:                10000,
			PaidAt:                &paidAt,
			StripePaymentIntentID: "pi_test_1",
		},
		ContractorName: "Иванов",
		ParkingNumber:  "7",
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, row, issued))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 500)
}
