package payment

import (
	"context"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// Repository stores payments and receipts.
// Implementations join the transaction carried by ctx when there is one.
type Repository interface {
	// Insert stores the payment and sets ID and PaymentDate.
	Insert(ctx context.Context, p *Payment) error

	// InsertReceipt stores the receipt and sets its ID.
	InsertReceipt(ctx context.Context, r *Receipt) error

	// List returns payments matching the filter, newest first.
	List(ctx context.Context, f Filter) ([]Payment, error)

	// UpdateStatusByFccID sets the status on every payment of the student and
	// returns the number of rows touched.
	UpdateStatusByFccID(ctx context.Context, fccID shared.FccID, status string) (int64, error)
}

// ReceiptRenderer produces the receipt artifact for a payment.
type ReceiptRenderer interface {
	Render(ctx context.Context, doc ReceiptDocument) (Artifact, error)

	// Discard removes artifacts of a payment whose transaction rolled back.
	Discard(a Artifact)
}
