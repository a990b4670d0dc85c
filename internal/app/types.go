package app

import "time"

type UploadURLRequest struct {
	EntityType    string `json:"entityType"`
	EntityID      string `json:"entityId"`
	MediaType     string `json:"mediaType"`
	FileExtension string `json:"fileExtension"`
	ContentType   string `json:"contentType,omitempty"`
}

type UploadURLResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type MultipartURLsRequest struct {
	EntityType    string   `json:"entityType"`
	EntityID      string   `json:"entityId"`
	MediaType     string   `json:"mediaType"`
	FileExtension string   `json:"fileExtension"`
	ContentType   string   `json:"contentType,omitempty"`
	PartCount     int64    `json:"partCount"`
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

type PartURL struct {
	PartNumber int64  `json:"partNumber"`
	URL        string `json:"url"`
}

type MultipartURLsResponse struct {
	UploadID string    `json:"uploadId"`
	Key      string    `json:"key"`
	PartURLs []PartURL `json:"partUrls"`
	RecordID string    `json:"recordId,omitempty"`
}

type UploadedPartResponse struct {
	PartNumber int64  `json:"partNumber"`
	ETag       string `json:"eTag"`
	Size       int64  `json:"size"`
}

type CompletedPartRequest struct {
	PartNumber int64  `json:"partNumber"`
	ETag       string `json:"eTag"`
}

type CompleteMultipartRequest struct {
	Key      string                  `json:"key"`
	UploadID string                  `json:"uploadId"`
	Parts    []*CompletedPartRequest `json:"parts"`
}

type AbortMultipartRequest struct {
	Key      string `json:"key"`
	UploadID string `json:"uploadId"`
}

type URLResponse struct {
	URL string `json:"url"`
}

type ObjectResponse struct {
	Key          string    `json:"key"`
	LastModified time.Time `json:"lastModified"`
	ETag         string    `json:"eTag"`
	Size         int64     `json:"size"`
	StorageClass string    `json:"storageClass,omitempty"`
}

type SignURLRequest struct {
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expiresIn,omitempty"` // seconds
}

type SignURLResponse struct {
	SignedURL string `json:"signedUrl"`
}

type RenditionURLsRequest struct {
	Key       string   `json:"key"`
	Qualities []string `json:"qualities,omitempty"`
	Format    string   `json:"format,omitempty"`
}

type RenditionURLsResponse struct {
	MP4 map[string]string `json:"mp4,omitempty"`
	HLS map[string]string `json:"hls,omitempty"`
}

type TranscodeOutputRequest struct {
	Format  string `json:"format"`
	Quality string `json:"quality"`
}

type TranscodeRequest struct {
	InputKey string                    `json:"inputKey"`
	Outputs  []*TranscodeOutputRequest `json:"outputs"`
}

type TranscodeResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

type JobStatusResponse struct {
	JobID        string     `json:"jobId"`
	Status       string     `json:"status"`
	Progress     *int64     `json:"progress,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

type UploadRecordResponse struct {
	ID          string   `json:"id"`
	Key         string   `json:"key"`
	UploadID    string   `json:"uploadId"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ContentType string   `json:"contentType,omitempty"`
	PartCount   int64    `json:"partCount"`
	CreatedAt   int64    `json:"createdAt"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
