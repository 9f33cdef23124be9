package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruralsite/internal/apperrors"
	"ruralsite/internal/config"
	console "ruralsite/internal/utils/logger"
)

type fakeS3 struct {
	puts      []*s3.PutObjectInput
	bodies    [][]byte
	deletes   []string
	putErr    error
	deleteErr error
	block     bool
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	body, _ := io.ReadAll(in.Body)
	f.bodies = append(f.bodies, body)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, *in.Key)
	return &s3.DeleteObjectOutput{}, f.deleteErr
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func newTestStore(t *testing.T, client *fakeS3) *S3Store {
	t.Helper()
	restore := console.Discard()
	t.Cleanup(restore)

	store := NewS3StoreWithClient(client, config.LoadTestConfig().Storage)
	store.newID = func() string { return "fixed-id" }
	return store
}

func TestS3UploadReturnsURLAndHandle(t *testing.T) {
	client := &fakeS3{}
	store := newTestStore(t, client)

	asset, err := store.Upload(context.Background(), &Upload{Filename: "Jaggery.PNG", ContentType: "image/png", Data: []byte("png")}, "products")
	require.NoError(t, err)

	assert.Equal(t, "products/fixed-id.png", asset.Handle)
	assert.Equal(t, "https://cdn.example.test/products/fixed-id.png", asset.URL)
	assert.Equal(t, "image/png", asset.ContentType)
	assert.EqualValues(t, 3, asset.Size)

	require.Len(t, client.puts, 1)
	assert.Equal(t, "test-bucket", *client.puts[0].Bucket)
	assert.Equal(t, "products/fixed-id.png", *client.puts[0].Key)
	assert.Equal(t, []byte("png"), client.bodies[0])
}

func TestS3UploadFailureIsUploadError(t *testing.T) {
	client := &fakeS3{putErr: errors.New("connection reset")}
	store := newTestStore(t, client)

	_, err := store.Upload(context.Background(), &Upload{Filename: "a.png", Data: []byte("x")}, "blog")

	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "blog/fixed-id.png", upErr.Handle)
	assert.ErrorIs(t, err, apperrors.ErrUpload)
}

func TestS3UploadTimesOut(t *testing.T) {
	client := &fakeS3{block: true}
	store := newTestStore(t, client)
	store.timeout = 20 * time.Millisecond

	start := time.Now()
	_, err := store.Upload(context.Background(), &Upload{Filename: "a.png", Data: []byte("x")}, "blog")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestS3DeleteIsIdempotent(t *testing.T) {
	client := &fakeS3{deleteErr: &types.NoSuchKey{}}
	store := newTestStore(t, client)

	assert.NoError(t, store.Delete(context.Background(), "blog/gone.png"))
	assert.NoError(t, store.Delete(context.Background(), ""))
	assert.Equal(t, []string{"blog/gone.png"}, client.deletes)
}

func TestS3DeleteFailure(t *testing.T) {
	client := &fakeS3{deleteErr: errors.New("503 slow down")}
	store := newTestStore(t, client)

	err := store.Delete(context.Background(), "blog/a.png")
	assert.ErrorIs(t, err, apperrors.ErrUpload)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.org", PublicBaseURL(config.S3Config{PublicBaseURL: "https://cdn.example.org/"}))
	assert.Equal(t, "https://minio.local:9000/media", PublicBaseURL(config.S3Config{Endpoint: "minio.local:9000", BucketName: "media"}))
	assert.Equal(t, "http://localhost:9000/media", PublicBaseURL(config.S3Config{Endpoint: "http://localhost:9000", BucketName: "media"}))
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com", PublicBaseURL(config.S3Config{BucketName: "media", Region: "eu-west-1"}))
}
