// Package receipt renders fee receipts as a PDF with an embedded QR code
// that links to the student's public page.
package receipt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/fccthegurukul/gurukul-hub/config"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/payment"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
	"github.com/fccthegurukul/gurukul-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LETTERHEAD
// ══════════════════════════════════════════════════════════════════════════════

// Letterhead is the fixed text printed on every receipt.
type Letterhead struct {
	Name    string
	Address string
	Contact string
	Footer  []string
}

// DefaultLetterhead returns the centre's letterhead.
func DefaultLetterhead() Letterhead {
	return Letterhead{
		Name:    "FCC The Gurukul",
		Address: "Motisabad Mugaon, Buxar, Bihar - 802126",
		Contact: "Contact: 9135365331 | Email: fccthegurukul@gmail.com",
		Footer: []string{
			"This receipt is system-generated and does not require a signature.",
			"GST is included in fees but is not paid to the government due to low turnover.",
		},
	}
}

const (
	qrSizePx = 256
	qrWidth  = 35.0 // mm
	margin   = 15.0
)

// ══════════════════════════════════════════════════════════════════════════════
// RENDERER
// ══════════════════════════════════════════════════════════════════════════════

// Renderer implements payment.ReceiptRenderer on the local filesystem.
// Artifacts are written under temporary names and renamed into place, so a
// cancelled render never leaves a partial receipt_{id}.pdf behind.
type Renderer struct {
	dir  string
	head Letterhead
	sem  *semaphore.Weighted
	log  *logger.Logger
}

// NewRenderer creates a renderer writing into cfg.Dir.
func NewRenderer(cfg config.ReceiptConfig, log *logger.Logger) *Renderer {
	if log == nil {
		log = logger.Default()
	}
	limit := cfg.MaxConcurrency
	if limit <= 0 {
		limit = 1
	}
	return &Renderer{
		dir:  cfg.Dir,
		head: DefaultLetterhead(),
		sem:  semaphore.NewWeighted(limit),
		log:  log.With(logger.Component("receipt")),
	}
}

// Dir is the directory artifacts are written to.
func (r *Renderer) Dir() string {
	return r.dir
}

// Render draws the receipt for doc and writes receipt_{id}.pdf and
// qr_{id}.png.
func (r *Renderer) Render(ctx context.Context, doc payment.ReceiptDocument) (payment.Artifact, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return payment.Artifact{}, renderError(err)
	}
	defer r.sem.Release(1)

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return payment.Artifact{}, renderError(err)
	}

	id := doc.Payment.ID
	art := payment.Artifact{
		PDFPath: filepath.Join(r.dir, fmt.Sprintf("receipt_%d.pdf", id)),
		QRPath:  filepath.Join(r.dir, fmt.Sprintf("qr_%d.png", id)),
	}

	var (
		qrPNG []byte
		pdf   *fpdf.Fpdf
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		png, err := qrcode.Encode(doc.QRPayload, qrcode.Medium, qrSizePx)
		if err != nil {
			return fmt.Errorf("encode qr: %w", err)
		}
		qrPNG = png
		return r.writeFile(gctx, art.QRPath, png)
	})
	g.Go(func() error {
		pdf = r.layout(doc)
		return pdf.Error()
	})

	if err := g.Wait(); err != nil {
		r.Discard(art)
		return payment.Artifact{}, renderError(err)
	}

	r.placeQR(pdf, doc, qrPNG)
	r.footer(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		r.Discard(art)
		return payment.Artifact{}, renderError(err)
	}
	if err := r.writeFile(ctx, art.PDFPath, buf.Bytes()); err != nil {
		r.Discard(art)
		return payment.Artifact{}, renderError(err)
	}

	r.log.Debug("receipt rendered", logger.PaymentID(id), logger.String("path", art.PDFPath))
	return art, nil
}

// Discard removes the artifact files. Missing files are ignored.
func (r *Renderer) Discard(a payment.Artifact) {
	for _, p := range []string{a.PDFPath, a.QRPath} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			r.log.Warn("failed to remove receipt artifact", logger.String("path", p), logger.Err(err))
		}
	}
}

// writeFile writes data next to path and renames it into place.
func (r *Renderer) writeFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp := filepath.Join(r.dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func renderError(err error) error {
	return shared.WrapError("payment", "RenderReceipt", shared.ErrReceiptRender, "Failed to generate receipt", err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Layout
// ─────────────────────────────────────────────────────────────────────────────

func (r *Renderer) layout(doc payment.ReceiptDocument) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin+5, margin+5, margin+5)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	w, h := pdf.GetPageSize()
	pdf.SetDrawColor(0, 102, 204)
	pdf.SetLineWidth(0.8)
	pdf.Rect(margin, margin, w-2*margin, h-2*margin, "D")

	content := w - 2*(margin+5)

	// Header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0, 102, 204)
	pdf.CellFormat(content, 10, tr(r.head.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(content, 5, tr(r.head.Address), "", 1, "C", false, 0, "")
	pdf.CellFormat(content, 5, tr(r.head.Contact), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 153, 51)
	pdf.CellFormat(content, 8, "Fee Payment Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 11)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(content, 6, "Thank you for your payment!", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	p := doc.Payment
	section(pdf, content, "Student Details:")
	row(pdf, tr, "Student Name", p.StudentName)
	row(pdf, tr, "FCC ID", p.FccID.String())
	pdf.Ln(4)

	section(pdf, content, "Payment Details:")
	row(pdf, tr, "Base Amount", "Rs. "+doc.Totals.Base.StringFixed(2))
	row(pdf, tr, "GST (18%)", "Rs. "+doc.Totals.Tax.StringFixed(2))
	y := pdf.GetY() + 1
	pdf.SetDrawColor(180, 180, 180)
	pdf.SetLineWidth(0.2)
	pdf.Line(margin+5, y, margin+5+content, y)
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	row(pdf, tr, "Total Amount", "Rs. "+doc.Totals.GrandTotal.StringFixed(2))
	row(pdf, tr, "Payment Method", p.PaymentMethod)
	row(pdf, tr, "Payment Status", p.PaymentStatus)
	row(pdf, tr, "Monthly Cycle Days", payment.JoinCycleDays(p.MonthlyCycleDays))
	row(pdf, tr, "Payment Date", timeutil.FormatReceipt(p.PaymentDate))
	row(pdf, tr, "Payment Receipt Code", fmt.Sprintf("#%d", p.ID))
	pdf.Ln(6)

	return pdf
}

func section(pdf *fpdf.Fpdf, width float64, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(0, 102, 204)
	pdf.CellFormat(width, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(30, 30, 30)
}

func row(pdf *fpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.CellFormat(55, 7, tr(label+":"), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(value), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func (r *Renderer) placeQR(pdf *fpdf.Fpdf, doc payment.ReceiptDocument, png []byte) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w, _ := pdf.GetPageSize()
	content := w - 2*(margin+5)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	caption := fmt.Sprintf("QR code ko scan karke %s, ke pdhai bare me sabkuchh jane", doc.Payment.StudentName)
	pdf.MultiCell(content, 5, tr(caption), "", "C", false)
	pdf.Ln(2)

	name := fmt.Sprintf("qr_%d", doc.Payment.ID)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, (w-qrWidth)/2, pdf.GetY(), qrWidth, qrWidth, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + qrWidth + 6)
}

func (r *Renderer) footer(pdf *fpdf.Fpdf) {
	w, h := pdf.GetPageSize()
	content := w - 2*(margin+5)

	pdf.SetY(h - margin - 5 - 5*float64(len(r.head.Footer)))
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(110, 110, 110)
	for _, line := range r.head.Footer {
		pdf.CellFormat(content, 5, line, "", 1, "C", false, 0, "")
	}
}
