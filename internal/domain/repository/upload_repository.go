package repository

import (
	"context"

	"github.com/upcastmedia/vodpipe/internal/domain/entity"
)

// UploadRepository stores advisory upload records. The core never depends on
// it for correctness; a missing or failing record store degrades to warnings.
type UploadRepository interface {
	// Get the upload record by its ID; not-found when absent.
	GetByID(ctx context.Context, id string) (*entity.Upload, error)
	// Save an upload record.
	Save(ctx context.Context, up *entity.Upload) error
	// Delete an upload record by its ID.
	Delete(ctx context.Context, id string) error
}
