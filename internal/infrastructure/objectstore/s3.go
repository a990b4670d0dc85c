// Package objectstore issues time-limited write and read capabilities
// against AWS S3 and coordinates multipart upload sessions. It never carries
// file bytes; clients talk to the store directly through presigned URLs.
package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/upcastmedia/vodpipe/internal/apperr"
	"github.com/upcastmedia/vodpipe/internal/domain/entity"
	"github.com/upcastmedia/vodpipe/internal/infrastructure/awsx"
	"github.com/upcastmedia/vodpipe/internal/retry"
)

const (
	// URLTTL is the fixed expiry of every issued capability.
	URLTTL = time.Hour
	// DefaultMaxKeys bounds a single object-listing page.
	DefaultMaxKeys = 1000

	listAttempts = 3
	retryDelay   = 200 * time.Millisecond
)

// Gateway issues presigned S3 URLs and multipart primitives against one
// bucket. Safe for concurrent use; construct once at startup.
type Gateway struct {
	s3              s3iface.S3API
	bucket          string
	timeout         time.Duration
	partConcurrency int
	logger          zerolog.Logger
	now             func() time.Time
}

// NewGateway wraps a shared S3 client handle.
func NewGateway(api s3iface.S3API, bucket string, timeout time.Duration, partConcurrency int, logger zerolog.Logger) *Gateway {
	if partConcurrency < 1 {
		partConcurrency = 8
	}
	return &Gateway{
		s3:              api,
		bucket:          bucket,
		timeout:         timeout,
		partConcurrency: partConcurrency,
		logger:          logger.With().Str("component", "objectstore").Logger(),
		now:             time.Now,
	}
}

// PresignUpload issues a single-part write capability for key. The key is
// write-once intent; no existence check is performed.
func (g *Gateway) PresignUpload(key, contentType string) (*entity.SignedURL, error) {
	req, _ := g.s3.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		ContentType: optString(contentType),
	})
	url, err := req.Presign(URLTTL)
	if err != nil {
		return nil, awsx.WrapUpstream("presign upload", err)
	}
	g.logger.Debug().Str("key", key).Msg("issued upload url")
	return &entity.SignedURL{URL: url, ExpiresAt: g.now().Add(URLTTL)}, nil
}

// OpenMultipart initiates a multipart upload and issues exactly partCount
// part URLs, numbered 1..partCount ascending. Part URLs are signed
// concurrently under a bounded group; a single failure fails the whole call
// so callers never see a partial part list.
func (g *Gateway) OpenMultipart(ctx context.Context, key string, partCount int64, contentType string) (*entity.MultipartSession, error) {
	if partCount < 1 {
		return nil, apperr.Newf(apperr.InvalidArgument, "partCount must be at least 1, got %d", partCount)
	}
	cctx, cancel := g.withTimeout(ctx)
	defer cancel()
	out, err := g.s3.CreateMultipartUploadWithContext(cctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		ContentType: optString(contentType),
	})
	if err != nil {
		// No upload id was allocated, so the caller must restart the
		// upload flow; timeouts keep their own classification.
		werr := awsx.WrapUpstream("create multipart upload", err)
		if apperr.IsKind(werr, apperr.UpstreamTimeout) {
			return nil, werr
		}
		return nil, apperr.Wrap(apperr.Unavailable, "create multipart upload", err)
	}
	if aws.StringValue(out.UploadId) == "" {
		return nil, apperr.New(apperr.Unavailable, "store returned no upload id")
	}
	uploadID := aws.StringValue(out.UploadId)

	// Each slot is owned by exactly one goroutine, so the slice is ordered
	// by part number no matter how the signing calls complete.
	parts := make([]*entity.PartHandle, partCount)
	eg := new(errgroup.Group)
	eg.SetLimit(g.partConcurrency)
	for n := int64(1); n <= partCount; n++ {
		n := n
		eg.Go(func() error {
			req, _ := g.s3.UploadPartRequest(&s3.UploadPartInput{
				Bucket:     aws.String(g.bucket),
				Key:        aws.String(key),
				PartNumber: aws.Int64(n),
				UploadId:   aws.String(uploadID),
			})
			url, err := req.Presign(URLTTL)
			if err != nil {
				return awsx.WrapUpstream(fmt.Sprintf("presign part %d", n), err)
			}
			parts[n-1] = &entity.PartHandle{PartNumber: n, URL: url, ExpiresAt: g.now().Add(URLTTL)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	g.logger.Info().Str("key", key).Int64("parts", partCount).Msg("opened multipart session")
	return &entity.MultipartSession{UploadID: uploadID, Key: key, Parts: parts}, nil
}

// ListParts returns the parts the store has received so far, ascending by
// part number. An upload with no parts yet yields an empty slice.
func (g *Gateway) ListParts(ctx context.Context, key, uploadID string) ([]*entity.UploadedPart, error) {
	parts := []*entity.UploadedPart{}
	err := retry.Do(ctx, listAttempts, retryDelay, func() error {
		cctx, cancel := g.withTimeout(ctx)
		defer cancel()
		out, err := g.s3.ListPartsWithContext(cctx, &s3.ListPartsInput{
			Bucket:   aws.String(g.bucket),
			Key:      aws.String(key),
			UploadId: aws.String(uploadID),
		})
		if err != nil {
			return awsx.WrapUpstream("list parts", err)
		}
		parts = parts[:0]
		for _, p := range out.Parts {
			parts = append(parts, &entity.UploadedPart{
				PartNumber: aws.Int64Value(p.PartNumber),
				ETag:       aws.StringValue(p.ETag),
				Size:       aws.Int64Value(p.Size),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(parts, func(a, b *entity.UploadedPart) int {
		return int(a.PartNumber - b.PartNumber)
	})
	return parts, nil
}

// PresignComplete issues the terminal completion capability for a session.
// The caller must treat the session as terminal once this URL exists.
func (g *Gateway) PresignComplete(key, uploadID string, parts []*entity.Part) (*entity.SignedURL, error) {
	completed := make([]*s3.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, &s3.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int64(p.PartNumber),
		})
	}
	req, _ := g.s3.CompleteMultipartUploadRequest(&s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(g.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &s3.CompletedMultipartUpload{Parts: completed},
	})
	url, err := req.Presign(URLTTL)
	if err != nil {
		return nil, awsx.WrapUpstream("presign complete multipart upload", err)
	}
	return &entity.SignedURL{URL: url, ExpiresAt: g.now().Add(URLTTL)}, nil
}

// PresignAbort issues the terminal abort capability for a session.
func (g *Gateway) PresignAbort(key, uploadID string) (*entity.SignedURL, error) {
	req, _ := g.s3.AbortMultipartUploadRequest(&s3.AbortMultipartUploadInput{
		Bucket:   aws.String(g.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	url, err := req.Presign(URLTTL)
	if err != nil {
		return nil, awsx.WrapUpstream("presign abort multipart upload", err)
	}
	return &entity.SignedURL{URL: url, ExpiresAt: g.now().Add(URLTTL)}, nil
}

// ListObjects returns one listing page. Truncation is signalled by the store
// and deliberately not followed here; callers re-query when they need more.
func (g *Gateway) ListObjects(ctx context.Context, prefix string, maxKeys int64) ([]*entity.ObjectInfo, error) {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	objects := []*entity.ObjectInfo{}
	err := retry.Do(ctx, listAttempts, retryDelay, func() error {
		cctx, cancel := g.withTimeout(ctx)
		defer cancel()
		out, err := g.s3.ListObjectsV2WithContext(cctx, &s3.ListObjectsV2Input{
			Bucket:  aws.String(g.bucket),
			Prefix:  optString(prefix),
			MaxKeys: aws.Int64(maxKeys),
		})
		if err != nil {
			return awsx.WrapUpstream("list objects", err)
		}
		objects = objects[:0]
		for _, o := range out.Contents {
			objects = append(objects, &entity.ObjectInfo{
				Key:          aws.StringValue(o.Key),
				LastModified: aws.TimeValue(o.LastModified),
				ETag:         aws.StringValue(o.ETag),
				Size:         aws.Int64Value(o.Size),
				StorageClass: aws.StringValue(o.StorageClass),
			})
		}
		if aws.BoolValue(out.IsTruncated) {
			g.logger.Debug().Str("prefix", prefix).Msg("object listing truncated")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
