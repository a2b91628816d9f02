package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/payment"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/async"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD PAYMENT COMMAND
// Payment row, rendered receipt and receipt row succeed or fail together.
// ══════════════════════════════════════════════════════════════════════════════

// RecordPaymentCommand contains a submitted payment.
type RecordPaymentCommand struct {
	FccID            shared.FccID
	Amount           string // base amount before tax
	PaymentMethod    string
	PaymentStatus    string
	StudentName      string
	MonthlyCycleDays []int32
}

// Validate validates the command.
func (c RecordPaymentCommand) Validate() error {
	if c.FccID.IsEmpty() {
		return shared.ErrFccIDRequired
	}
	if _, err := payment.ParseAmount(c.Amount); err != nil {
		return err
	}
	for _, d := range c.MonthlyCycleDays {
		if d < 1 || d > 31 {
			return shared.NewDomainError("payment", "Validate", shared.ErrValueOutOfRange,
				fmt.Sprintf("invalid monthly cycle day %d", d))
		}
	}
	return nil
}

// RecordPaymentResult is returned after the payment commits.
type RecordPaymentResult struct {
	Payment     *payment.Payment
	Receipt     *payment.Receipt
	Totals      payment.Totals
	ReceiptPath string
}

// RecordPaymentHandler handles RecordPaymentCommand.
type RecordPaymentHandler struct {
	tx            shared.Transactor
	payments      payment.Repository
	renderer      payment.ReceiptRenderer
	publisher     shared.EventPublisher
	clock         shared.Clock
	qrPrefix      string
	renderTimeout time.Duration
}

// RecordPaymentHandlerConfig contains configuration for the handler.
type RecordPaymentHandlerConfig struct {
	// StudentURLPrefix is joined with the fcc_id to form the QR payload.
	StudentURLPrefix string

	// RenderTimeout bounds receipt rendering.
	RenderTimeout time.Duration
}

// NewRecordPaymentHandler creates a new RecordPaymentHandler.
func NewRecordPaymentHandler(
	tx shared.Transactor,
	payments payment.Repository,
	renderer payment.ReceiptRenderer,
	publisher shared.EventPublisher,
	clock shared.Clock,
	config RecordPaymentHandlerConfig,
) *RecordPaymentHandler {
	if config.RenderTimeout <= 0 {
		config.RenderTimeout = 10 * time.Second
	}
	return &RecordPaymentHandler{
		tx:            tx,
		payments:      payments,
		renderer:      renderer,
		publisher:     publisher,
		clock:         clockOrDefault(clock),
		qrPrefix:      config.StudentURLPrefix,
		renderTimeout: config.RenderTimeout,
	}
}

// Handle stores the payment, renders its receipt and stores the receipt row
// in one transaction. Artifacts of a rolled back payment are removed.
func (h *RecordPaymentHandler) Handle(ctx context.Context, cmd RecordPaymentCommand) (*RecordPaymentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	base, _ := payment.ParseAmount(cmd.Amount)
	totals := payment.ComputeTotals(base)

	var (
		res      RecordPaymentResult
		artifact payment.Artifact
	)

	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		p := &payment.Payment{
			FccID:            cmd.FccID,
			Amount:           totals.GrandTotal,
			PaymentMethod:    cmd.PaymentMethod,
			PaymentStatus:    cmd.PaymentStatus,
			StudentName:      cmd.StudentName,
			MonthlyCycleDays: cmd.MonthlyCycleDays,
			PaymentDate:      h.clock(),
		}
		if err := h.payments.Insert(ctx, p); err != nil {
			return err
		}

		doc := payment.ReceiptDocument{
			Payment:   *p,
			Totals:    totals,
			QRPayload: h.qrPayload(p.FccID),
		}
		render := async.Go(ctx, func(ctx context.Context) (payment.Artifact, error) {
			return h.renderer.Render(ctx, doc)
		})
		rendered := render.Await(ctx, h.renderTimeout)
		if rendered.Err != nil {
			h.discardLate(ctx, render)
			if errors.Is(rendered.Err, async.ErrTimeout) {
				return shared.WrapError("payment", "RenderReceipt", shared.ErrTimeout, "Receipt rendering timed out", rendered.Err)
			}
			return rendered.Err
		}
		artifact = rendered.Value

		path := payment.ReceiptPath(p.ID)
		receipt := payment.NewReceipt(p, totals, path)
		if err := h.payments.InsertReceipt(ctx, receipt); err != nil {
			return err
		}

		res = RecordPaymentResult{Payment: p, Receipt: receipt, Totals: totals, ReceiptPath: path}
		return nil
	})
	if err != nil {
		if artifact != (payment.Artifact{}) {
			h.renderer.Discard(artifact)
		}
		logger.FromContext(ctx).Error("payment rolled back",
			logger.FccID(cmd.FccID.String()),
			logger.Err(err))
		return nil, fmt.Errorf("record_payment: %w", err)
	}

	logger.FromContext(ctx).Info("payment recorded",
		logger.PaymentID(res.Payment.ID),
		logger.FccID(cmd.FccID.String()),
		logger.String("grand_total", totals.GrandTotal.StringFixed(2)))

	publish(ctx, h.publisher, shared.NewPaymentRecordedEvent(
		res.Payment.ID, cmd.FccID.String(), totals.GrandTotal.StringFixed(2), res.ReceiptPath, h.clock()))
	return &res, nil
}

// discardLate removes the artifact of a render that finishes after Await
// gave up on it, since no receipt row will ever reference it.
func (h *RecordPaymentHandler) discardLate(ctx context.Context, render *async.Future[payment.Artifact]) {
	log := logger.FromContext(ctx)
	go func() {
		<-render.Done()
		late := render.Await(context.Background(), 0)
		if late.Err != nil || late.Value == (payment.Artifact{}) {
			return
		}
		h.renderer.Discard(late.Value)
		log.Warn("discarded receipt rendered after timeout", logger.String("pdf_path", late.Value.PDFPath))
	}()
}

func (h *RecordPaymentHandler) qrPayload(fccID shared.FccID) string {
	prefix := h.qrPrefix
	if prefix == "" {
		prefix = "https://fccthegurukul.in/student/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + fccID.String()
}
