package entity

import "time"

// SignedURL is a freshly derived, time-limited capability against the store
// or the delivery layer. Signed URLs are never persisted; re-signing after a
// credential rotation must stay possible without invalidation bookkeeping.
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// PartHandle is a one-time write capability for a single multipart part.
// Each handle expires independently from its own issuance time.
type PartHandle struct {
	PartNumber int64
	URL        string
	ExpiresAt  time.Time
}

// MultipartSession is an open multipart upload: the backend-issued upload id,
// the derived key, and exactly partCount handles numbered 1..n ascending.
// Once a complete or abort URL has been issued the session is terminal and
// callers must not request further part URLs; the backing store is the source
// of truth for terminality.
type MultipartSession struct {
	UploadID string
	Key      string
	Parts    []*PartHandle
}

// Part identifies an uploaded part when completing a multipart upload.
type Part struct {
	ETag       string
	PartNumber int64
}

// UploadedPart describes a part the store has already received.
type UploadedPart struct {
	PartNumber int64
	ETag       string
	Size       int64
}

// ObjectInfo describes one stored object in a listing page.
type ObjectInfo struct {
	Key          string
	LastModified time.Time
	ETag         string
	Size         int64
	StorageClass string
}
