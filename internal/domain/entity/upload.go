package entity

// Upload is the advisory record of a multipart upload intent. It exists so
// operators can answer "what was upload X" after the fact; no core operation
// depends on it.
type Upload struct {
	ID          string
	Key         string
	UploadID    string
	Title       string
	Description string
	Tags        []string
	ContentType string
	PartCount   int64
	CreatedAt   int64 // unix seconds
}

// NewUpload builds a record for a freshly opened multipart session.
func NewUpload(id, key, uploadID, contentType string, partCount, createdAt int64) *Upload {
	return &Upload{
		ID:          id,
		Key:         key,
		UploadID:    uploadID,
		ContentType: contentType,
		PartCount:   partCount,
		CreatedAt:   createdAt,
	}
}
