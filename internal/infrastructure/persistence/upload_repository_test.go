package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upcastmedia/vodpipe/internal/apperr"
	"github.com/upcastmedia/vodpipe/internal/domain/entity"
)

type fakeDynamoDB struct {
	dynamodbiface.DynamoDBAPI

	getOut *dynamodb.GetItemOutput
	getErr error
	getIn  *dynamodb.GetItemInput
	gets   int

	putErr error
	putIn  *dynamodb.PutItemInput

	delErr error
	delIn  *dynamodb.DeleteItemInput
}

func (f *fakeDynamoDB) GetItemWithContext(ctx aws.Context, in *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	f.gets++
	f.getIn = in
	return f.getOut, f.getErr
}

func (f *fakeDynamoDB) PutItemWithContext(ctx aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.putIn = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamoDB) DeleteItemWithContext(ctx aws.Context, in *dynamodb.DeleteItemInput, _ ...request.Option) (*dynamodb.DeleteItemOutput, error) {
	f.delIn = in
	return &dynamodb.DeleteItemOutput{}, f.delErr
}

func newRepo(db *fakeDynamoDB) *UploadRepository {
	return NewUploadRepository(db, "vod-uploads", time.Second, zerolog.Nop())
}

func TestUploadRepositoryGetByID(t *testing.T) {
	want := &entity.Upload{
		ID:          "u-1",
		Key:         "d/course/c1/video_1712.mp4",
		UploadID:    "mp-1",
		ContentType: "video/mp4",
		PartCount:   5,
		CreatedAt:   1712000000,
	}
	item, err := dynamodbattribute.MarshalMap(want)
	require.NoError(t, err)

	db := &fakeDynamoDB{getOut: &dynamodb.GetItemOutput{Item: item}}
	got, err := newRepo(db).GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "vod-uploads", aws.StringValue(db.getIn.TableName))
	assert.Equal(t, "u-1", aws.StringValue(db.getIn.Key["ID"].S))
}

func TestUploadRepositoryGetByIDNotFound(t *testing.T) {
	db := &fakeDynamoDB{getOut: &dynamodb.GetItemOutput{}}
	_, err := newRepo(db).GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
	// Absence is a definitive answer, not a transient fault.
	assert.Equal(t, 1, db.gets)
}

func TestUploadRepositoryGetByIDRetriesUpstream(t *testing.T) {
	db := &fakeDynamoDB{getErr: errors.New("throttled")}
	_, err := newRepo(db).GetByID(context.Background(), "u-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Upstream))
	assert.Equal(t, 3, db.gets)
}

func TestUploadRepositorySave(t *testing.T) {
	db := &fakeDynamoDB{}
	up := entity.NewUpload("u-2", "d/course/c2/video_1713.mp4", "mp-2", "video/mp4", 3, 1713000000)
	require.NoError(t, newRepo(db).Save(context.Background(), up))
	require.NotNil(t, db.putIn)
	assert.Equal(t, "vod-uploads", aws.StringValue(db.putIn.TableName))
	assert.Equal(t, "u-2", aws.StringValue(db.putIn.Item["ID"].S))
	assert.Equal(t, "mp-2", aws.StringValue(db.putIn.Item["UploadID"].S))
}

func TestUploadRepositorySaveUpstreamError(t *testing.T) {
	db := &fakeDynamoDB{putErr: errors.New("table missing")}
	err := newRepo(db).Save(context.Background(), entity.NewUpload("u-3", "k", "mp", "video/mp4", 1, 0))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Upstream))
}

func TestUploadRepositoryDelete(t *testing.T) {
	db := &fakeDynamoDB{}
	require.NoError(t, newRepo(db).Delete(context.Background(), "u-4"))
	require.NotNil(t, db.delIn)
	assert.Equal(t, "u-4", aws.StringValue(db.delIn.Key["ID"].S))
}
