package receipt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fccthegurukul/gurukul-hub/config"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/payment"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

func testDocument(id int64) payment.ReceiptDocument {
	totals := payment.ComputeTotals(decimal.NewFromInt(1000))
	return payment.ReceiptDocument{
		Payment: payment.Payment{
			ID:               id,
			FccID:            shared.FccID("1234200024"),
			Amount:           totals.GrandTotal,
			PaymentMethod:    "UPI",
			PaymentStatus:    "Paid",
			StudentName:      "Ravi Kumar",
			MonthlyCycleDays: []int32{1, 15},
			PaymentDate:      time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
		},
		Totals:    totals,
		QRPayload: "https://fccthegurukul.in/student/1234200024",
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	return NewRenderer(config.ReceiptConfig{Dir: t.TempDir(), MaxConcurrency: 2}, logger.Nop())
}

func TestRenderer_RenderWritesArtifacts(t *testing.T) {
	r := newTestRenderer(t)

	art, err := r.Render(context.Background(), testDocument(42))
	require.NoError(t, err)

	assert.Equal(t, "receipt_42.pdf", filepath.Base(art.PDFPath))
	assert.Equal(t, "qr_42.png", filepath.Base(art.QRPath))

	pdf, err := os.ReadFile(art.PDFPath)
	require.NoError(t, err)
	assert.True(t, len(pdf) > 4 && string(pdf[:4]) == "%PDF")

	png, err := os.ReadFile(art.QRPath)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	entries, err := os.ReadDir(r.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files left behind")
}

func TestRenderer_Discard(t *testing.T) {
	r := newTestRenderer(t)

	art, err := r.Render(context.Background(), testDocument(7))
	require.NoError(t, err)

	r.Discard(art)

	_, err = os.Stat(art.PDFPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(art.QRPath)
	assert.True(t, os.IsNotExist(err))

	// second discard is a no-op
	r.Discard(art)
}

func TestRenderer_CancelledContext(t *testing.T) {
	r := newTestRenderer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, testDocument(9))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrReceiptRender)

	entries, err := os.ReadDir(r.Dir())
	if err == nil {
		assert.Empty(t, entries)
	}
}
