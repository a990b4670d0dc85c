package repository

import (
	"context"

	"github.com/upcastmedia/vodpipe/internal/domain/entity"
)

// Transcoder submits and inspects jobs on the external transcoding engine.
// The engine owns all job state; this interface is a stateless view.
type Transcoder interface {
	// Submit one job producing every requested rendition. Fails with an
	// invalid-argument error for empty, duplicate or unsupported outputs.
	Submit(ctx context.Context, inputKey string, outputs []entity.Output) (*entity.TranscodeJob, error)
	// Status reads one job; not-found when the engine has no such job.
	Status(ctx context.Context, jobID string) (*entity.TranscodeJob, error)
	// ListRecent returns jobs in the engine's descending creation order.
	ListRecent(ctx context.Context, maxResults int64) ([]*entity.TranscodeJob, error)
}
