// Package persistence stores advisory upload records in DynamoDB. The core
// upload and transcoding flows never depend on these records; they exist for
// after-the-fact diagnostics.
package persistence

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/rs/zerolog"

	"github.com/upcastmedia/vodpipe/internal/apperr"
	"github.com/upcastmedia/vodpipe/internal/domain/entity"
	"github.com/upcastmedia/vodpipe/internal/infrastructure/awsx"
	"github.com/upcastmedia/vodpipe/internal/retry"
)

const (
	readAttempts = 3
	retryDelay   = 200 * time.Millisecond
)

// UploadRepository persists upload records keyed by upload record ID.
type UploadRepository struct {
	db      dynamodbiface.DynamoDBAPI
	table   string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewUploadRepository wraps a shared DynamoDB client handle.
func NewUploadRepository(api dynamodbiface.DynamoDBAPI, table string, timeout time.Duration, logger zerolog.Logger) *UploadRepository {
	return &UploadRepository{
		db:      api,
		table:   table,
		timeout: timeout,
		logger:  logger.With().Str("component", "persistence").Logger(),
	}
}

// GetByID returns the upload record, or not-found when absent.
func (r *UploadRepository) GetByID(ctx context.Context, id string) (*entity.Upload, error) {
	var up *entity.Upload
	err := retry.Do(ctx, readAttempts, retryDelay, func() error {
		cctx, cancel := r.withTimeout(ctx)
		defer cancel()
		out, err := r.db.GetItemWithContext(cctx, &dynamodb.GetItemInput{
			Key:       map[string]*dynamodb.AttributeValue{"ID": {S: aws.String(id)}},
			TableName: aws.String(r.table),
		})
		if err != nil {
			return awsx.WrapUpstream("get upload record", err)
		}
		if len(out.Item) == 0 {
			return apperr.Newf(apperr.NotFound, "no upload record %q", id)
		}
		if err := dynamodbattribute.UnmarshalMap(out.Item, &up); err != nil {
			return apperr.Wrap(apperr.Upstream, "unmarshal upload record", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return up, nil
}

// Save writes the upload record.
func (r *UploadRepository) Save(ctx context.Context, up *entity.Upload) error {
	av, err := dynamodbattribute.MarshalMap(up)
	if err != nil {
		return apperr.Wrap(apperr.Upstream, "marshal upload record", err)
	}
	cctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.db.PutItemWithContext(cctx, &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(r.table),
	}); err != nil {
		return awsx.WrapUpstream("save upload record", err)
	}
	r.logger.Debug().Str("id", up.ID).Msg("saved upload record")
	return nil
}

// Delete removes the upload record by its ID.
func (r *UploadRepository) Delete(ctx context.Context, id string) error {
	cctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.db.DeleteItemWithContext(cctx, &dynamodb.DeleteItemInput{
		Key:       map[string]*dynamodb.AttributeValue{"ID": {S: aws.String(id)}},
		TableName: aws.String(r.table),
	}); err != nil {
		return awsx.WrapUpstream("delete upload record", err)
	}
	return nil
}

func (r *UploadRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
