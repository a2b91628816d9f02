package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/document"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// DocumentRepository implements document.Repository for PostgreSQL.
type DocumentRepository struct {
	conn *Connection
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(conn *Connection) *DocumentRepository {
	return &DocumentRepository{conn: conn}
}

// Insert stores the file content as bytea.
func (r *DocumentRepository) Insert(ctx context.Context, f *document.File) error {
	query := `
		INSERT INTO files (filename, filetype, filedata, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, uploaded_at
	`

	if err := r.conn.QueryRow(ctx, query, f.Filename, f.Filetype, f.Data, f.Description).Scan(&f.ID, &f.UploadedAt); err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}
	return nil
}

// List returns file metadata, newest first. Search is a case-insensitive
// substring match on filename or description.
func (r *DocumentRepository) List(ctx context.Context, f document.Filter) ([]document.Meta, error) {
	var where whereList
	if f.From != nil {
		where.add("uploaded_at >= ?", *f.From)
	}
	if f.To != nil {
		where.add("uploaded_at <= ?", *f.To)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		where.add("(filename ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}

	query := `SELECT id, filename, filetype, description, uploaded_at FROM files` +
		where.String() + ` ORDER BY uploaded_at DESC, id DESC`

	rows, err := r.conn.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (document.Meta, error) {
		var m document.Meta
		if err := row.Scan(&m.ID, &m.Filename, &m.Filetype, &m.Description, &m.UploadedAt); err != nil {
			return m, fmt.Errorf("failed to scan file: %w", err)
		}
		return m, nil
	})
}

// Get returns a file with its content.
func (r *DocumentRepository) Get(ctx context.Context, id int64) (*document.File, error) {
	query := `SELECT id, filename, filetype, description, uploaded_at, filedata FROM files WHERE id = $1`

	var f document.File
	err := r.conn.QueryRow(ctx, query, id).Scan(&f.ID, &f.Filename, &f.Filetype, &f.Description, &f.UploadedAt, &f.Data)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &f, nil
}
