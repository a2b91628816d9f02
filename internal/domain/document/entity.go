// Package document is the center's file archive.
package document

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// File is an uploaded document with its content.
type File struct {
	Meta
	Data []byte `json:"-"`
}

// Meta is the listing shape of a file.
type Meta struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	Filetype    string    `json:"filetype"`
	Description string    `json:"description"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// NewFile validates an upload. The filename is reduced to its base name.
func NewFile(filename, filetype, description string, data []byte) (*File, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == "/" || name == "" || len(data) == 0 {
		return nil, shared.ErrFileRequired
	}
	if filetype == "" {
		filetype = "application/octet-stream"
	}
	return &File{
		Meta: Meta{Filename: name, Filetype: filetype, Description: description},
		Data: data,
	}, nil
}

// Filter narrows listings. Search matches filename or description.
type Filter struct {
	From   *time.Time
	To     *time.Time
	Search string
}

// Repository stores archive files.
type Repository interface {
	// Insert stores f and fills ID and UploadedAt.
	Insert(ctx context.Context, f *File) error

	// List returns metadata newest first.
	List(ctx context.Context, f Filter) ([]Meta, error)

	// Get returns shared.ErrFileNotFound when absent.
	Get(ctx context.Context, id int64) (*File, error)
}
