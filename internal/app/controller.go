package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/upcastmedia/vodpipe/internal/apperr"
	"github.com/upcastmedia/vodpipe/internal/domain/entity"
	"github.com/upcastmedia/vodpipe/internal/domain/repository"
	"github.com/upcastmedia/vodpipe/internal/mediakey"
)

const (
	// Signed read URL lifetime bounds, in seconds.
	minReadTTL     = 60
	maxReadTTL     = 86400
	defaultReadTTL = 3600
)

// Controller wires the HTTP surface to the domain interfaces. All fields are
// set once at startup and shared read-only by concurrent requests.
type Controller struct {
	store      repository.ObjectStore
	signer     repository.DeliverySigner
	transcoder repository.Transcoder
	uploads    repository.UploadRepository // nil when the record store is off

	env    mediakey.Environment
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func NewController(store repository.ObjectStore, signer repository.DeliverySigner, transcoder repository.Transcoder, uploads repository.UploadRepository, env mediakey.Environment, logger zerolog.Logger) *Controller {
	return &Controller{
		store:      store,
		signer:     signer,
		transcoder: transcoder,
		uploads:    uploads,
		env:        env,
		logger:     logger.With().Str("component", "app").Logger(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Issue a presigned single-part upload URL for a freshly derived key.
func (c *Controller) issueUploadURL(w http.ResponseWriter, r *http.Request) error {
	var data UploadURLRequest
	if err := parseJSON(r, &data); err != nil {
		return err
	}
	key, err := c.deriveKey(data.EntityType, data.EntityID, data.MediaType, data.FileExtension)
	if err != nil {
		return err
	}
	signed, err := c.store.PresignUpload(key, data.ContentType)
	if err != nil {
		return err
	}
	return replyJSON(w, UploadURLResponse{URL: signed.URL, Key: key}, http.StatusOK)
}

// Open a multipart session and issue one presigned URL per part. The advisory
// upload record is best effort: a record store failure is logged, never
// surfaced, since the session is already open and usable.
func (c *Controller) issueMultipartURLs(w http.ResponseWriter, r *http.Request) error {
	var data MultipartURLsRequest
	if err := parseJSON(r, &data); err != nil {
		return err
	}
	key, err := c.deriveKey(data.EntityType, data.EntityID, data.MediaType, data.FileExtension)
	if err != nil {
		return err
	}
	sess, err := c.store.OpenMultipart(r.Context(), key, data.PartCount, data.ContentType)
	if err != nil {
		return err
	}

	resp := MultipartURLsResponse{
		UploadID: sess.UploadID,
		Key:      sess.Key,
		PartURLs: make([]PartURL, 0, len(sess.Parts)),
	}
	for _, p := range sess.Parts {
		resp.PartURLs = append(resp.PartURLs, PartURL{PartNumber: p.PartNumber, URL: p.URL})
	}

	if c.uploads != nil {
		up := entity.NewUpload(c.newID(), sess.Key, sess.UploadID, data.ContentType, data.PartCount, c.now().Unix())
		up.Title = data.Title
		up.Description = data.Description
		up.Tags = data.Tags
		if err := c.uploads.Save(r.Context(), up); err != nil {
			c.logger.Warn().Err(err).Str("key", sess.Key).Msg("failed to save upload record")
		} else {
			resp.RecordID = up.ID
		}
	}
	return replyJSON(w, resp, http.StatusOK)
}

// List the parts the store has received for an open multipart session.
func (c *Controller) listUploadedParts(w http.ResponseWriter, r *http.Request) error {
	key := r.URL.Query().Get("key")
	uploadID := r.URL.Query().Get("uploadId")
	if key == "" || uploadID == "" {
		return apperr.New(apperr.InvalidArgument, "key and uploadId must be provided")
	}
	parts, err := c.store.ListParts(r.Context(), key, uploadID)
	if err != nil {
		return err
	}
	resp := make([]UploadedPartResponse, 0, len(parts))
	for _, p := range parts {
		resp = append(resp, UploadedPartResponse{PartNumber: p.PartNumber, ETag: p.ETag, Size: p.Size})
	}
	return replyJSON(w, resp, http.StatusOK)
}

// Issue the presigned URL that completes a multipart session.
func (c *Controller) completeMultipart(w http.ResponseWriter, r *http.Request) error {
	var data CompleteMultipartRequest
	if err := parseJSON(r, &data); err != nil {
		return err
	}
	if data.Key == "" || data.UploadID == "" {
		return apperr.New(apperr.InvalidArgument, "key and uploadId must be provided")
	}
	if len(data.Parts) == 0 {
		return apperr.New(apperr.InvalidArgument, "parts must not be empty")
	}
	parts := make([]*entity.Part, 0, len(data.Parts))
	for _, p := range data.Parts {
		if p.PartNumber < 1 || p.ETag == "" {
			return apperr.New(apperr.InvalidArgument, "every part needs a positive partNumber and an eTag")
		}
		parts = append(parts, &entity.Part{ETag: p.ETag, PartNumber: p.PartNumber})
	}
	signed, err := c.store.PresignComplete(data.Key, data.UploadID, parts)
	if err != nil {
		return err
	}
	return replyJSON(w, URLResponse{URL: signed.URL}, http.StatusOK)
}

// Issue the presigned URL that aborts a multipart session.
func (c *Controller) abortMultipart(w http.ResponseWriter, r *http.Request) error {
	var data AbortMultipartRequest
	if err := parseJSON(r, &data); err != nil {
		return err
	}
	if data.Key == "" || data.UploadID == "" {
		return apperr.New(apperr.InvalidArgument, "key and uploadId must be provided")
	}
	signed, err := c.store.PresignAbort(data.Key, data.UploadID)
	if err != nil {
		return err
	}
	return replyJSON(w, URLResponse{URL: signed.URL}, http.StatusOK)
}

// List one page of stored objects.
func (c *Controller) listObjects(w http.ResponseWriter, r *http.Request) error {
	var maxKeys int64
	if raw := r.URL.Query().Get("maxKeys"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			return apperr.Newf(apperr.InvalidArgument, "invalid maxKeys %q", raw)
		}
		maxKeys = n
	}
	objects, err := c.store.ListObjects(r.Context(), r.URL.Query().Get("prefix"), maxKeys)
	if err != nil {
		return err
	}
	resp := make([]ObjectResponse, 0, len(objects))
	for _, o := range objects {
		resp = append(resp, ObjectResponse{
			Key:          o.Key,
			LastModified: o.LastModified,
			ETag:         o.ETag,
			Size:         o.Size,
			StorageClass: o.StorageClass,
		})
	}
	return replyJSON(w, resp, http.StatusOK)
}

// Sign a read URL for an arbitrary stored object.
func (c *Controller) signURL(w http.ResponseWriter, r *http.Request) error {
	var data SignURLRequest
	if err := parseJSON(r, &data); err != nil {
		return err
	}
	if data.Key == "" {
		return apperr.New(apperr.InvalidArgument, "key must be provided")
	}
	expiresIn := data.ExpiresIn
	if expiresIn == 0 {
		expiresIn = defaultReadTTL
	}
	if expiresIn < minReadTTL || expiresIn > maxReadTTL {
		return apperr.Newf(apperr.InvalidArgument, "expiresIn must be between %d and %d seconds", minReadTTL, maxReadTTL)
	}
	signed, err := c.signer.Sign(data.Key, time.Duration(expiresIn)*time.Second)
	if err != nil {
		return err
	}
	return replyJSON(w, SignURLResponse{SignedURL: signed.URL}, http.StatusOK)
}

// Sign read URLs for the transcoded renditions of an input key. Omitted
// qualities default to medium and an omitted format to both; the defaults
// live here and nowhere else.
func (c *Controller) renditionURLs(w http.ResponseWriter, r *http.Request) error {
	var data RenditionURLsRequest
	if err := parseJSON(r, &data); err != nil {
		return err
	}
	if data.Key == "" {
		return apperr.New(apperr.InvalidArgument, "key must be provided")
	}

	qualities := []mediakey.Quality{mediakey.QualityMedium}
	if len(data.Qualities) > 0 {
		qualities = qualities[:0]
		seen := make(map[mediakey.Quality]struct{}, len(data.Qualities))
		for _, raw := range data.Qualities {
			q, err := mediakey.ParseQuality(raw)
			if err != nil {
				return err
			}
			if _, ok := seen[q]; ok {
				continue
			}
			seen[q] = struct{}{}
			qualities = append(qualities, q)
		}
	}
	filter := mediakey.FilterBoth
	if data.Format != "" {
		var err error
		if filter, err = mediakey.ParseRenditionFilter(data.Format); err != nil {
			return err
		}
	}

	urls, err := c.signer.SignRenditions(data.Key, qualities, filter)
	if err != nil {
		return err
	}
	resp := RenditionURLsResponse{}
	if urls.MP4 != nil {
		resp.MP4 = make(map[string]string, len(urls.MP4))
		for q, u := range urls.MP4 {
			resp.MP4[string(q)] = u.URL
		}
	}
	if urls.HLS != nil {
		resp.HLS = make(map[string]string, len(urls.HLS))
		for q, u := range urls.HLS {
			resp.HLS[string(q)] = u.URL
		}
	}
	return replyJSON(w, resp, http.StatusOK)
}

// Submit a transcoding job for the requested renditions.
func (c *Controller) submitTranscode(w http.ResponseWriter, r *http.Request) error {
	var data TranscodeRequest
	if err := parseJSON(r, &data); err != nil {
		return err
	}
	if data.InputKey == "" {
		return apperr.New(apperr.InvalidArgument, "inputKey must be provided")
	}
	outputs := make([]entity.Output, 0, len(data.Outputs))
	for _, o := range data.Outputs {
		f, err := mediakey.ParseFormat(o.Format)
		if err != nil {
			return err
		}
		q, err := mediakey.ParseQuality(o.Quality)
		if err != nil {
			return err
		}
		outputs = append(outputs, entity.Output{Format: f, Quality: q})
	}
	job, err := c.transcoder.Submit(r.Context(), data.InputKey, outputs)
	if err != nil {
		return err
	}
	return replyJSON(w, TranscodeResponse{JobID: job.ID, Status: string(job.State)}, http.StatusOK)
}

// Read the state of one transcoding job.
func (c *Controller) jobStatus(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["jobId"]
	if id == "" {
		return apperr.New(apperr.InvalidArgument, "job ID must be provided")
	}
	job, err := c.transcoder.Status(r.Context(), id)
	if err != nil {
		return err
	}
	return replyJSON(w, jobResponse(job), http.StatusOK)
}

// List recent transcoding jobs in descending creation order.
func (c *Controller) listJobs(w http.ResponseWriter, r *http.Request) error {
	var maxResults int64
	if raw := r.URL.Query().Get("maxResults"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			return apperr.Newf(apperr.InvalidArgument, "invalid maxResults %q", raw)
		}
		maxResults = n
	}
	jobs, err := c.transcoder.ListRecent(r.Context(), maxResults)
	if err != nil {
		return err
	}
	resp := make([]JobStatusResponse, 0, len(jobs))
	for _, j := range jobs {
		resp = append(resp, jobResponse(j))
	}
	return replyJSON(w, resp, http.StatusOK)
}

// Fetch an advisory upload record.
func (c *Controller) getUpload(w http.ResponseWriter, r *http.Request) error {
	if c.uploads == nil {
		return apperr.New(apperr.Unavailable, "upload record store is not configured")
	}
	id := mux.Vars(r)["id"]
	up, err := c.uploads.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	return replyJSON(w, UploadRecordResponse{
		ID:          up.ID,
		Key:         up.Key,
		UploadID:    up.UploadID,
		Title:       up.Title,
		Description: up.Description,
		Tags:        up.Tags,
		ContentType: up.ContentType,
		PartCount:   up.PartCount,
		CreatedAt:   up.CreatedAt,
	}, http.StatusOK)
}

func (c *Controller) deriveKey(entityType, entityID, mediaType, ext string) (string, error) {
	if entityType == "" || entityID == "" || mediaType == "" || ext == "" {
		return "", apperr.New(apperr.InvalidArgument, "entityType, entityId, mediaType and fileExtension must be provided")
	}
	return mediakey.DeriveKey(string(c.env), entityType, entityID, mediaType, ext, c.now())
}

func jobResponse(j *entity.TranscodeJob) JobStatusResponse {
	return JobStatusResponse{
		JobID:        j.ID,
		Status:       string(j.State),
		Progress:     j.Progress,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt,
	}
}
