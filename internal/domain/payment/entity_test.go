package payment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotals_Thousand(t *testing.T) {
	totals := ComputeTotals(dec("1000.00"))

	assert.Equal(t, "1000.00", totals.Base.StringFixed(2))
	assert.Equal(t, "180.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "1180.00", totals.GrandTotal.StringFixed(2))
}

func TestComputeTotals_Invariants(t *testing.T) {
	for _, raw := range []string{"1", "0.01", "99.99", "1234.56", "333.33", "750.5", "2999.995"} {
		totals := ComputeTotals(dec(raw))

		want := totals.Base.Mul(dec("1.18")).Round(2)
		assert.True(t, totals.GrandTotal.Equal(want), "grand total for %s", raw)
		assert.True(t, totals.Tax.Equal(totals.GrandTotal.Sub(totals.Base)), "tax for %s", raw)
	}
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount(" 1500.5 ")
	require.NoError(t, err)
	assert.True(t, v.Equal(dec("1500.5")))

	for _, bad := range []string{"", "abc", "NaN", "12abc", "0", "-10"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, shared.ErrInvalidInput, "input %q", bad)
	}
}

func TestNewReceipt(t *testing.T) {
	p := &Payment{
		ID:               17,
		FccID:            "1234200024",
		StudentName:      "Asha",
		PaymentMethod:    "UPI",
		PaymentStatus:    "Paid",
		MonthlyCycleDays: []int32{1, 15},
		PaymentDate:      time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
	}
	totals := ComputeTotals(dec("1000"))

	r := NewReceipt(p, totals, ReceiptPath(p.ID))

	assert.Equal(t, int64(17), r.PaymentID)
	assert.Equal(t, "receipts/receipt_17.pdf", r.ReceiptPath)
	assert.Equal(t, "1, 15", r.MonthlyCycleDays)
	assert.True(t, r.GrandTotal.Equal(dec("1180")))
	assert.True(t, r.GST.Equal(dec("180")))
}

func TestParseCycleDays(t *testing.T) {
	days, err := ParseCycleDays("1, 15,30")
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 15, 30}, days)

	days, err = ParseCycleDays("")
	require.NoError(t, err)
	assert.Nil(t, days)

	_, err = ParseCycleDays("1,x")
	assert.True(t, shared.IsValidation(err))

	_, err = ParseCycleDays("32")
	assert.Error(t, err)
}
