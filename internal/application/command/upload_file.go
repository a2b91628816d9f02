package command

import (
	"context"
	"fmt"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/document"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// UploadFileCommand stores a document in the archive.
type UploadFileCommand struct {
	Filename    string
	Filetype    string
	Description string
	Data        []byte
}

// UploadFileHandler handles UploadFileCommand.
type UploadFileHandler struct {
	files document.Repository
}

// NewUploadFileHandler creates a new UploadFileHandler.
func NewUploadFileHandler(files document.Repository) *UploadFileHandler {
	return &UploadFileHandler{files: files}
}

// Handle validates and stores the file.
func (h *UploadFileHandler) Handle(ctx context.Context, cmd UploadFileCommand) (*document.Meta, error) {
	f, err := document.NewFile(cmd.Filename, cmd.Filetype, cmd.Description, cmd.Data)
	if err != nil {
		return nil, err
	}
	if err := h.files.Insert(ctx, f); err != nil {
		return nil, fmt.Errorf("upload_file: %w", err)
	}

	logger.FromContext(ctx).Info("file uploaded",
		logger.Int64("file_id", f.ID),
		logger.String("filename", f.Filename),
		logger.Int("size", len(f.Data)))
	return &f.Meta, nil
}
