package objectstore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upcastmedia/vodpipe/internal/apperr"
	"github.com/upcastmedia/vodpipe/internal/domain/entity"
)

// fakeS3 overrides the network calls of a real client. Presign request
// builders fall through to the embedded client: signing is local work, so the
// resulting URLs are real without any network.
type fakeS3 struct {
	*s3.S3

	createIn  *s3.CreateMultipartUploadInput
	createOut *s3.CreateMultipartUploadOutput
	createErr error

	listPartsOut *s3.ListPartsOutput
	listPartsErr error

	listObjectsIn  *s3.ListObjectsV2Input
	listObjectsOut *s3.ListObjectsV2Output
	listObjectsErr error

	// When non-zero, presigning this part number fails.
	failPartNumber int64
}

func (f *fakeS3) UploadPartRequest(in *s3.UploadPartInput) (*request.Request, *s3.UploadPartOutput) {
	req, out := f.S3.UploadPartRequest(in)
	if f.failPartNumber != 0 && aws.Int64Value(in.PartNumber) == f.failPartNumber {
		req.Error = errors.New("signing key unavailable")
	}
	return req, out
}

func (f *fakeS3) CreateMultipartUploadWithContext(_ aws.Context, in *s3.CreateMultipartUploadInput, _ ...request.Option) (*s3.CreateMultipartUploadOutput, error) {
	f.createIn = in
	return f.createOut, f.createErr
}

func (f *fakeS3) ListPartsWithContext(_ aws.Context, _ *s3.ListPartsInput, _ ...request.Option) (*s3.ListPartsOutput, error) {
	return f.listPartsOut, f.listPartsErr
}

func (f *fakeS3) ListObjectsV2WithContext(_ aws.Context, in *s3.ListObjectsV2Input, _ ...request.Option) (*s3.ListObjectsV2Output, error) {
	f.listObjectsIn = in
	return f.listObjectsOut, f.listObjectsErr
}

func newFake(t *testing.T) *fakeS3 {
	t.Helper()
	sess := session.Must(session.NewSession(aws.NewConfig().
		WithRegion("eu-central-1").
		WithCredentials(credentials.NewStaticCredentials("AKID", "SECRET", ""))))
	return &fakeS3{S3: s3.New(sess)}
}

func newGateway(t *testing.T, f *fakeS3) *Gateway {
	t.Helper()
	return NewGateway(f, "vod-input", time.Second, 4, zerolog.Nop())
}

func TestPresignUpload(t *testing.T) {
	g := newGateway(t, newFake(t))
	u, err := g.PresignUpload("d/user/u1/video_1.mp4", "video/mp4")
	require.NoError(t, err)
	assert.Contains(t, u.URL, "vod-input")
	assert.Contains(t, u.URL, "d/user/u1/video_1.mp4")
	assert.Contains(t, u.URL, "X-Amz-Signature=")
	assert.WithinDuration(t, time.Now().Add(URLTTL), u.ExpiresAt, time.Minute)
}

func TestOpenMultipart(t *testing.T) {
	f := newFake(t)
	f.createOut = &s3.CreateMultipartUploadOutput{UploadId: aws.String("upl-1")}
	g := newGateway(t, f)

	sess, err := g.OpenMultipart(context.Background(), "d/user/u1/video_1.mp4", 5, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "upl-1", sess.UploadID)
	assert.Equal(t, "d/user/u1/video_1.mp4", sess.Key)
	require.Len(t, sess.Parts, 5)
	for i, p := range sess.Parts {
		assert.Equal(t, int64(i+1), p.PartNumber)
		assert.Contains(t, p.URL, "partNumber="+strconv.Itoa(i+1))
		assert.Contains(t, p.URL, "uploadId=upl-1")
	}
	assert.Equal(t, "video/mp4", aws.StringValue(f.createIn.ContentType))
}

func TestOpenMultipartRejectsBadPartCount(t *testing.T) {
	for _, n := range []int64{0, -1} {
		f := newFake(t)
		g := newGateway(t, f)
		sess, err := g.OpenMultipart(context.Background(), "k", n, "")
		assert.Nil(t, sess)
		assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
		// No backend allocation may leak for an invalid request.
		assert.Nil(t, f.createIn)
	}
}

func TestOpenMultipartPartPresignFailure(t *testing.T) {
	f := newFake(t)
	f.createOut = &s3.CreateMultipartUploadOutput{UploadId: aws.String("upl-1")}
	f.failPartNumber = 2
	g := newGateway(t, f)

	// One failed part URL aborts the whole response; a caller must never
	// see a partial part list.
	sess, err := g.OpenMultipart(context.Background(), "d/user/u1/video_1.mp4", 4, "video/mp4")
	require.Error(t, err)
	assert.Nil(t, sess)
	assert.True(t, apperr.IsKind(err, apperr.Upstream))
	assert.Contains(t, err.Error(), "presign part 2")
}

func TestOpenMultipartAllocationFailure(t *testing.T) {
	f := newFake(t)
	f.createErr = errors.New("503 slow down")
	g := newGateway(t, f)
	sess, err := g.OpenMultipart(context.Background(), "k", 2, "")
	assert.Nil(t, sess)
	// A session that never got an upload id means the caller restarts
	// the upload flow, distinct from a plain upstream fault.
	assert.True(t, apperr.IsKind(err, apperr.Unavailable))
}

func TestOpenMultipartNoUploadID(t *testing.T) {
	f := newFake(t)
	f.createOut = &s3.CreateMultipartUploadOutput{}
	g := newGateway(t, f)
	_, err := g.OpenMultipart(context.Background(), "k", 2, "")
	assert.True(t, apperr.IsKind(err, apperr.Unavailable))
}

func TestListPartsEmpty(t *testing.T) {
	f := newFake(t)
	f.listPartsOut = &s3.ListPartsOutput{}
	g := newGateway(t, f)
	parts, err := g.ListParts(context.Background(), "k", "upl-1")
	require.NoError(t, err)
	assert.NotNil(t, parts)
	assert.Empty(t, parts)
}

func TestListPartsOrdered(t *testing.T) {
	f := newFake(t)
	f.listPartsOut = &s3.ListPartsOutput{Parts: []*s3.Part{
		{PartNumber: aws.Int64(3), ETag: aws.String(`"c"`), Size: aws.Int64(30)},
		{PartNumber: aws.Int64(1), ETag: aws.String(`"a"`), Size: aws.Int64(10)},
		{PartNumber: aws.Int64(2), ETag: aws.String(`"b"`), Size: aws.Int64(20)},
	}}
	g := newGateway(t, f)
	parts, err := g.ListParts(context.Background(), "k", "upl-1")
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, []*entity.UploadedPart{
		{PartNumber: 1, ETag: `"a"`, Size: 10},
		{PartNumber: 2, ETag: `"b"`, Size: 20},
		{PartNumber: 3, ETag: `"c"`, Size: 30},
	}, parts)
}

func TestPresignCompleteAndAbort(t *testing.T) {
	g := newGateway(t, newFake(t))
	u, err := g.PresignComplete("k", "upl-1", []*entity.Part{{ETag: `"a"`, PartNumber: 1}})
	require.NoError(t, err)
	assert.Contains(t, u.URL, "uploadId=upl-1")

	u, err = g.PresignAbort("k", "upl-1")
	require.NoError(t, err)
	assert.Contains(t, u.URL, "uploadId=upl-1")
}

func TestListObjects(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	f := newFake(t)
	f.listObjectsOut = &s3.ListObjectsV2Output{Contents: []*s3.Object{{
		Key:          aws.String("d/user/u1/video_1.mp4"),
		LastModified: aws.Time(now),
		ETag:         aws.String(`"e1"`),
		Size:         aws.Int64(42),
		StorageClass: aws.String("STANDARD"),
	}}}
	g := newGateway(t, f)

	objects, err := g.ListObjects(context.Background(), "d/user/", 0)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "d/user/u1/video_1.mp4", objects[0].Key)
	assert.Equal(t, now, objects[0].LastModified)
	assert.Equal(t, int64(42), objects[0].Size)
	assert.Equal(t, "STANDARD", objects[0].StorageClass)

	// maxKeys defaults to one full page.
	assert.Equal(t, int64(DefaultMaxKeys), aws.Int64Value(f.listObjectsIn.MaxKeys))
	assert.Equal(t, "d/user/", aws.StringValue(f.listObjectsIn.Prefix))
}

func TestListObjectsUpstreamFailure(t *testing.T) {
	f := newFake(t)
	f.listObjectsErr = errors.New("connection reset")
	g := newGateway(t, f)
	_, err := g.ListObjects(context.Background(), "", 10)
	assert.True(t, apperr.IsKind(err, apperr.Upstream))
	assert.True(t, strings.Contains(err.Error(), "list objects"))
}

func TestUploadKeyRoundTrip(t *testing.T) {
	f := newFake(t)
	g := newGateway(t, f)

	const key = "d/course/c1/video_1712.mp4"
	u, err := g.PresignUpload(key, "video/mp4")
	require.NoError(t, err)
	assert.Contains(t, u.URL, key)

	// Simulate the client having written through the presigned URL.
	f.listObjectsOut = &s3.ListObjectsV2Output{
		Contents: []*s3.Object{{Key: aws.String(key), Size: aws.Int64(1)}},
	}
	objects, err := g.ListObjects(context.Background(), key, 0)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, key, objects[0].Key)
}
