package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/mediaconvert"
	"github.com/rs/zerolog"

	"github.com/upcastmedia/vodpipe/internal/apperr"
	"github.com/upcastmedia/vodpipe/internal/domain/entity"
	"github.com/upcastmedia/vodpipe/internal/infrastructure/transcoding"
	"github.com/upcastmedia/vodpipe/internal/mediakey"
)

const requestTimeout = 30 * time.Second

// Built once at cold start and shared across invocations.
var (
	logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "vodpipe-batch-transcode").Logger()
	mc     = mediaconvert.New(
		session.Must(session.NewSession(&aws.Config{MaxRetries: aws.Int(0)})),
		aws.NewConfig().WithEndpoint(os.Getenv("AWS_VOD_MEDIACONVERT_URL")))
)

// Parse the rendition matrix from a comma-separated list of format:quality
// pairs, e.g. "hls:medium,mp4:high". Empty input falls back to hls:medium.
func parseOutputs(raw string) ([]entity.Output, error) {
	if raw == "" {
		return []entity.Output{{Format: mediakey.FormatHLS, Quality: mediakey.QualityMedium}}, nil
	}
	var outputs []entity.Output
	for _, pair := range strings.Split(raw, ",") {
		f, q, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, apperr.Newf(apperr.Configuration, "invalid output %q, want format:quality", pair)
		}
		format, err := mediakey.ParseFormat(f)
		if err != nil {
			return nil, err
		}
		quality, err := mediakey.ParseQuality(q)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, entity.Output{Format: format, Quality: quality})
	}
	return outputs, nil
}

// Submit a transcoding job for every object in the event.
func handler(ctx context.Context, event events.S3Event) error {
	outputs, err := parseOutputs(os.Getenv("VOD_DEFAULT_OUTPUTS"))
	if err != nil {
		return err
	}
	for _, record := range event.Records {
		bucket := record.S3.Bucket.Name
		key := record.S3.Object.Key
		orchestrator := transcoding.NewOrchestrator(mc, bucket, os.Getenv("AWS_VOD_ROLE_ARN"), requestTimeout, logger)
		job, err := orchestrator.Submit(ctx, key, outputs)
		if err != nil {
			logger.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("failed to submit transcode job")
			return err
		}
		logger.Info().Str("key", key).Str("jobId", job.ID).Msg("transcode job submitted")
	}
	return nil
}

func main() {
	lambda.Start(handler)
}
