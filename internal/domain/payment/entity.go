// Package payment covers fee payments, their GST breakdown and receipts.
package payment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// GSTRate is the fixed tax rate applied to every payment.
var GSTRate = decimal.RequireFromString("0.18")

// moneyPlaces is the scale persisted for amounts.
const moneyPlaces = 2

// ══════════════════════════════════════════════════════════════════════════════
// TOTALS
// ══════════════════════════════════════════════════════════════════════════════

// Totals is the server-side breakdown of a payment.
type Totals struct {
	Base       decimal.Decimal `json:"base_amount"`
	Tax        decimal.Decimal `json:"gst"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// ComputeTotals derives tax and grand total from the base amount. The grand
// total is rounded to paise first and tax is taken as the difference, so
// Tax == GrandTotal - Base always holds exactly.
func ComputeTotals(base decimal.Decimal) Totals {
	base = base.Round(moneyPlaces)
	grand := base.Add(base.Mul(GSTRate)).Round(moneyPlaces)
	return Totals{
		Base:       base,
		Tax:        grand.Sub(base),
		GrandTotal: grand,
	}
}

// ParseAmount parses a submitted base amount. It accepts plain decimal
// strings and rejects empty, non-numeric, non-finite and non-positive values.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, shared.ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, shared.WrapError("payment", "ParseAmount", shared.ErrInvalidInput, "Invalid amount provided", err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, shared.ErrInvalidAmount
	}
	return amount, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Payment is a recorded fee payment. Amount holds the grand total.
type Payment struct {
	ID               int64           `json:"id"`
	FccID            shared.FccID    `json:"fcc_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentStatus    string          `json:"payment_status"`
	StudentName      string          `json:"student_name"`
	MonthlyCycleDays []int32         `json:"monthly_cycle_days"`
	PaymentDate      time.Time       `json:"payment_date"`
}

// Receipt duplicates the computed totals for one payment.
type Receipt struct {
	ID               int64           `json:"id"`
	PaymentID        int64           `json:"payment_id"`
	StudentName      string          `json:"student_name"`
	FccID            shared.FccID    `json:"fcc_id"`
	BaseAmount       decimal.Decimal `json:"base_amount"`
	GST              decimal.Decimal `json:"gst"`
	GrandTotal       decimal.Decimal `json:"grand_total"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentStatus    string          `json:"payment_status"`
	MonthlyCycleDays string          `json:"monthly_cycle_days"`
	PaymentDate      time.Time       `json:"payment_date"`
	ReceiptPath      string          `json:"receipt_path"`
}

// NewReceipt builds the receipt row for a stored payment.
func NewReceipt(p *Payment, t Totals, path string) *Receipt {
	return &Receipt{
		PaymentID:        p.ID,
		StudentName:      p.StudentName,
		FccID:            p.FccID,
		BaseAmount:       t.Base,
		GST:              t.Tax,
		GrandTotal:       t.GrandTotal,
		PaymentMethod:    p.PaymentMethod,
		PaymentStatus:    p.PaymentStatus,
		MonthlyCycleDays: JoinCycleDays(p.MonthlyCycleDays),
		PaymentDate:      p.PaymentDate,
		ReceiptPath:      path,
	}
}

// ReceiptPath is the public path of the receipt PDF for a payment.
func ReceiptPath(paymentID int64) string {
	return fmt.Sprintf("receipts/receipt_%d.pdf", paymentID)
}

// JoinCycleDays renders billing-cycle days as "1, 15".
func JoinCycleDays(days []int32) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ", ")
}

// ParseCycleDays parses a comma separated list of days of month.
func ParseCycleDays(csv string) ([]int32, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	var out []int32
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 1 || d > 31 {
			return nil, shared.NewDomainError("payment", "ParseCycleDays", shared.ErrInvalidInput,
				fmt.Sprintf("invalid monthly cycle day %q", part))
		}
		out = append(out, int32(d))
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// Filter narrows payment listings. Zero values mean no filter.
type Filter struct {
	FccID         string
	PaymentStatus string
	PaymentMethod string
	From          *time.Time
	To            *time.Time
	CycleDays     []int32 // matches payments sharing any of these days
}

// ReceiptDocument is what the renderer needs to draw a receipt.
type ReceiptDocument struct {
	Payment   Payment
	Totals    Totals
	QRPayload string
}

// Artifact points at the files produced for one receipt.
type Artifact struct {
	PDFPath string
	QRPath  string
}
