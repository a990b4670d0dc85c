// Package transcoding maps transcode requests onto MediaConvert jobs. The
// engine is the sole source of job state; this package is a stateless
// translator with no local registry or persistence.
package transcoding

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/mediaconvert"
	"github.com/aws/aws-sdk-go/service/mediaconvert/mediaconvertiface"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/upcastmedia/vodpipe/internal/apperr"
	"github.com/upcastmedia/vodpipe/internal/domain/entity"
	"github.com/upcastmedia/vodpipe/internal/infrastructure/awsx"
	"github.com/upcastmedia/vodpipe/internal/mediakey"
	"github.com/upcastmedia/vodpipe/internal/retry"
)

const (
	// DefaultMaxResults bounds a job listing when the caller does not.
	DefaultMaxResults = 20

	hlsSegmentLength = 10
	gopSizeFrames    = 90

	// Audio is fixed regardless of quality: AAC 128 kbps, 48 kHz, stereo.
	audioBitrate    = 128_000
	audioSampleRate = 48_000

	readAttempts = 3
	retryDelay   = 200 * time.Millisecond
)

// Orchestrator submits and inspects MediaConvert jobs against one bucket.
// Safe for concurrent use; construct once at startup.
type Orchestrator struct {
	mc      mediaconvertiface.MediaConvertAPI
	bucket  string
	roleARN string
	timeout time.Duration
	logger  zerolog.Logger

	// newToken mints the client request token protecting submissions
	// against transport-level retry duplication.
	newToken func() string
}

// NewOrchestrator wraps a shared MediaConvert client handle.
func NewOrchestrator(api mediaconvertiface.MediaConvertAPI, bucket, roleARN string, timeout time.Duration, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		mc:       api,
		bucket:   bucket,
		roleARN:  roleARN,
		timeout:  timeout,
		logger:   logger.With().Str("component", "transcoding").Logger(),
		newToken: uuid.NewString,
	}
}

// Submit creates one job producing every requested rendition. The returned
// job id is backend-assigned and opaque; the idempotency token is a fresh
// UUID distinct from it. Submission failures are never retried here.
func (o *Orchestrator) Submit(ctx context.Context, inputKey string, outputs []entity.Output) (*entity.TranscodeJob, error) {
	groups, err := buildOutputGroups(o.bucket, inputKey, outputs)
	if err != nil {
		return nil, err
	}
	cctx, cancel := o.withTimeout(ctx)
	defer cancel()
	out, err := o.mc.CreateJobWithContext(cctx, &mediaconvert.CreateJobInput{
		ClientRequestToken: aws.String(o.newToken()),
		Role:               aws.String(o.roleARN),
		Settings: &mediaconvert.JobSettings{
			Inputs: []*mediaconvert.Input{{
				FileInput: aws.String(s3URI(o.bucket, inputKey)),
				AudioSelectors: map[string]*mediaconvert.AudioSelector{
					"Audio Selector 1": {
						DefaultSelection: aws.String(mediaconvert.AudioDefaultSelectionDefault),
					},
				},
				VideoSelector: &mediaconvert.VideoSelector{},
			}},
			OutputGroups: groups,
		},
	})
	if err != nil {
		return nil, awsx.WrapUpstream("create transcoding job", err)
	}
	job, err := fromEngineJob(out.Job)
	if err != nil {
		return nil, err
	}
	o.logger.Info().Str("job_id", job.ID).Str("input", inputKey).Int("outputs", len(outputs)).Msg("submitted transcoding job")
	return job, nil
}

// Status reads one job from the engine. Pure passthrough.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (*entity.TranscodeJob, error) {
	if jobID == "" {
		return nil, apperr.New(apperr.InvalidArgument, "job id must not be empty")
	}
	var job *entity.TranscodeJob
	err := retry.Do(ctx, readAttempts, retryDelay, func() error {
		cctx, cancel := o.withTimeout(ctx)
		defer cancel()
		out, err := o.mc.GetJobWithContext(cctx, &mediaconvert.GetJobInput{Id: aws.String(jobID)})
		if err != nil {
			if awsx.HasCode(err, mediaconvert.ErrCodeNotFoundException) {
				return apperr.Newf(apperr.NotFound, "no transcoding job %q", jobID)
			}
			return awsx.WrapUpstream("get transcoding job", err)
		}
		job, err = fromEngineJob(out.Job)
		return err
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListRecent returns jobs in the engine's descending creation order. The
// ordering guarantee is the engine's, not recomputed locally.
func (o *Orchestrator) ListRecent(ctx context.Context, maxResults int64) ([]*entity.TranscodeJob, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	jobs := []*entity.TranscodeJob{}
	err := retry.Do(ctx, readAttempts, retryDelay, func() error {
		cctx, cancel := o.withTimeout(ctx)
		defer cancel()
		out, err := o.mc.ListJobsWithContext(cctx, &mediaconvert.ListJobsInput{
			MaxResults: aws.Int64(maxResults),
			Order:      aws.String(mediaconvert.OrderDescending),
		})
		if err != nil {
			return awsx.WrapUpstream("list transcoding jobs", err)
		}
		jobs = jobs[:0]
		for _, j := range out.Jobs {
			job, err := fromEngineJob(j)
			if err != nil {
				return err
			}
			jobs = append(jobs, job)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// buildOutputGroups derives one output group per requested rendition.
// Destinations come from the canonical rendition derivation in mediakey.
func buildOutputGroups(bucket, inputKey string, outputs []entity.Output) ([]*mediaconvert.OutputGroup, error) {
	if len(outputs) == 0 {
		return nil, apperr.New(apperr.InvalidArgument, "outputs must not be empty")
	}
	seen := make(map[entity.Output]struct{}, len(outputs))
	groups := make([]*mediaconvert.OutputGroup, 0, len(outputs))
	for i, out := range outputs {
		if _, dup := seen[out]; dup {
			return nil, apperr.Newf(apperr.InvalidArgument, "duplicate output %s-%s", out.Format, out.Quality)
		}
		seen[out] = struct{}{}
		base := mediakey.RenditionBase(inputKey, out.Format, out.Quality)
		switch out.Format {
		case mediakey.FormatMP4:
			groups = append(groups, mp4Group(i, bucket, base, out.Quality))
		case mediakey.FormatHLS:
			groups = append(groups, hlsGroup(i, bucket, base, out.Quality))
		default:
			return nil, apperr.Newf(apperr.InvalidArgument, "unsupported output format %q", out.Format)
		}
	}
	return groups, nil
}

func mp4Group(i int, bucket, base string, q mediakey.Quality) *mediaconvert.OutputGroup {
	return &mediaconvert.OutputGroup{
		Name: aws.String(fmt.Sprintf("MP4_%d", i)),
		OutputGroupSettings: &mediaconvert.OutputGroupSettings{
			Type: aws.String(mediaconvert.OutputGroupTypeFileGroupSettings),
			FileGroupSettings: &mediaconvert.FileGroupSettings{
				Destination: aws.String(s3URI(bucket, base)),
			},
		},
		Outputs: []*mediaconvert.Output{videoOutput(q, &mediaconvert.ContainerSettings{
			Container:   aws.String(mediaconvert.ContainerTypeMp4),
			Mp4Settings: &mediaconvert.Mp4Settings{},
		})},
	}
}

func hlsGroup(i int, bucket, base string, q mediakey.Quality) *mediaconvert.OutputGroup {
	return &mediaconvert.OutputGroup{
		Name: aws.String(fmt.Sprintf("HLS_%d", i)),
		OutputGroupSettings: &mediaconvert.OutputGroupSettings{
			Type: aws.String(mediaconvert.OutputGroupTypeHlsGroupSettings),
			HlsGroupSettings: &mediaconvert.HlsGroupSettings{
				Destination:      aws.String(s3URI(bucket, base) + "/"),
				SegmentLength:    aws.Int64(hlsSegmentLength),
				MinSegmentLength: aws.Int64(0),
			},
		},
		Outputs: []*mediaconvert.Output{videoOutput(q, &mediaconvert.ContainerSettings{
			Container: aws.String(mediaconvert.ContainerTypeM3u8),
		})},
	}
}

func videoOutput(q mediakey.Quality, cs *mediaconvert.ContainerSettings) *mediaconvert.Output {
	res := q.Resolution()
	br := q.Bitrate()
	return &mediaconvert.Output{
		VideoDescription: &mediaconvert.VideoDescription{
			Width:  aws.Int64(res.Width),
			Height: aws.Int64(res.Height),
			CodecSettings: &mediaconvert.VideoCodecSettings{
				Codec: aws.String(mediaconvert.VideoCodecH264),
				H264Settings: &mediaconvert.H264Settings{
					RateControlMode: aws.String(mediaconvert.H264RateControlModeCbr),
					Bitrate:         aws.Int64(br.Target),
					MaxBitrate:      aws.Int64(br.Max),
					GopSize:         aws.Float64(gopSizeFrames),
					GopSizeUnits:    aws.String(mediaconvert.H264GopSizeUnitsFrames),
				},
			},
		},
		AudioDescriptions: []*mediaconvert.AudioDescription{{
			CodecSettings: &mediaconvert.AudioCodecSettings{
				Codec: aws.String(mediaconvert.AudioCodecAac),
				AacSettings: &mediaconvert.AacSettings{
					Bitrate:    aws.Int64(audioBitrate),
					CodingMode: aws.String(mediaconvert.AacCodingModeCodingMode20),
					SampleRate: aws.Int64(audioSampleRate),
				},
			},
		}},
		ContainerSettings: cs,
	}
}

// fromEngineJob maps an engine job onto the closed five-state view. An
// unrecognized engine state is an upstream fault, never passed through.
func fromEngineJob(j *mediaconvert.Job) (*entity.TranscodeJob, error) {
	if j == nil {
		return nil, apperr.New(apperr.Upstream, "engine returned no job")
	}
	status := aws.StringValue(j.Status)
	if status == "" {
		status = string(entity.JobSubmitted)
	}
	state, ok := entity.JobStateFromEngine(status)
	if !ok {
		return nil, apperr.Newf(apperr.Upstream, "engine reported unknown job state %q", status)
	}
	job := &entity.TranscodeJob{
		ID:           aws.StringValue(j.Id),
		State:        state,
		Progress:     j.JobPercentComplete,
		ErrorMessage: aws.StringValue(j.ErrorMessage),
		CreatedAt:    j.CreatedAt,
	}
	return job, nil
}

// Get URI path for a file stored in an S3 bucket.
func s3URI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}
