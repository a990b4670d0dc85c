package repository

import (
	"context"

	"github.com/upcastmedia/vodpipe/internal/domain/entity"
)

// ObjectStore issues time-limited capabilities against the backing object
// store and owns the multipart session lifecycle. Presign operations are
// local signing work; operations taking a context perform network calls.
type ObjectStore interface {
	// Issue a single-part write capability for key. No existence check:
	// keys are write-once intent, not validated against prior state.
	PresignUpload(key, contentType string) (*entity.SignedURL, error)
	// Initiate a multipart upload and issue exactly partCount part URLs.
	OpenMultipart(ctx context.Context, key string, partCount int64, contentType string) (*entity.MultipartSession, error)
	// List parts the store has received. Empty when none uploaded yet.
	ListParts(ctx context.Context, key, uploadID string) ([]*entity.UploadedPart, error)
	// Issue the terminal complete capability for a session.
	PresignComplete(key, uploadID string, parts []*entity.Part) (*entity.SignedURL, error)
	// Issue the terminal abort capability for a session.
	PresignAbort(key, uploadID string) (*entity.SignedURL, error)
	// List one page of stored objects. Truncation is not followed here.
	ListObjects(ctx context.Context, prefix string, maxKeys int64) ([]*entity.ObjectInfo, error)
}
