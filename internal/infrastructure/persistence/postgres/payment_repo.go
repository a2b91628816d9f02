package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/payment"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// PaymentRepository implements payment.Repository for PostgreSQL.
type PaymentRepository struct {
	conn *Connection
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(conn *Connection) *PaymentRepository {
	return &PaymentRepository{conn: conn}
}

// Insert stores a payment.
func (r *PaymentRepository) Insert(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (fcc_id, amount, payment_method, payment_status, student_name, monthly_cycle_days)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, payment_date
	`

	days := p.MonthlyCycleDays
	if days == nil {
		days = []int32{}
	}

	err := r.conn.QueryRow(ctx, query,
		p.FccID.String(), p.Amount, p.PaymentMethod, p.PaymentStatus, p.StudentName, days,
	).Scan(&p.ID, &p.PaymentDate)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// InsertReceipt stores the receipt of a payment.
func (r *PaymentRepository) InsertReceipt(ctx context.Context, rc *payment.Receipt) error {
	query := `
		INSERT INTO receipts (
			payment_id, student_name, fcc_id, base_amount, gst, grand_total,
			payment_method, payment_status, monthly_cycle_days, payment_date, receipt_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.conn.QueryRow(ctx, query,
		rc.PaymentID, rc.StudentName, rc.FccID.String(), rc.BaseAmount, rc.GST, rc.GrandTotal,
		rc.PaymentMethod, rc.PaymentStatus, rc.MonthlyCycleDays, rc.PaymentDate, rc.ReceiptPath,
	).Scan(&rc.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("payment", "InsertReceipt", shared.ErrAlreadyExists, "receipt already recorded", err)
		}
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

// List returns payments matching f, newest first. Cycle days match when the
// stored array overlaps the requested ones.
func (r *PaymentRepository) List(ctx context.Context, f payment.Filter) ([]payment.Payment, error) {
	var where whereList
	if f.FccID != "" {
		where.add("fcc_id = ?", f.FccID)
	}
	if f.PaymentStatus != "" {
		where.add("payment_status = ?", f.PaymentStatus)
	}
	if f.PaymentMethod != "" {
		where.add("payment_method = ?", f.PaymentMethod)
	}
	if f.From != nil {
		where.add("payment_date >= ?", *f.From)
	}
	if f.To != nil {
		where.add("payment_date <= ?", *f.To)
	}
	if len(f.CycleDays) > 0 {
		where.add("monthly_cycle_days && ?::int[]", f.CycleDays)
	}

	query := `
		SELECT id, fcc_id, amount, payment_method, payment_status, student_name, monthly_cycle_days, payment_date
		FROM payments` + where.String() + `
		ORDER BY payment_date DESC, id DESC`

	rows, err := r.conn.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (payment.Payment, error) {
		var p payment.Payment
		var fccID string
		err := row.Scan(&p.ID, &fccID, &p.Amount, &p.PaymentMethod, &p.PaymentStatus,
			&p.StudentName, &p.MonthlyCycleDays, &p.PaymentDate)
		if err != nil {
			return p, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.FccID = shared.FccID(fccID)
		return p, nil
	})
}

// UpdateStatusByFccID sets the status on all of the student's payments.
func (r *PaymentRepository) UpdateStatusByFccID(ctx context.Context, fccID shared.FccID, status string) (int64, error) {
	tag, err := r.conn.Exec(ctx, `UPDATE payments SET payment_status = $1 WHERE fcc_id = $2`, status, fccID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to update payment status: %w", err)
	}
	return tag.RowsAffected(), nil
}
