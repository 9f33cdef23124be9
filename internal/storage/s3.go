package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"ruralsite/internal/config"
	"ruralsite/internal/models"
	"ruralsite/internal/utils/logger"
)

// S3API is the subset of *s3.Client the store calls.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store keeps assets in an S3 compatible bucket (AWS, R2, MinIO).
type S3Store struct {
	client     S3API
	bucketName string
	baseURL    string
	timeout    time.Duration
	acl        types.ObjectCannedACL
	newID      func() string
	logger     *logger.Logger
}

var _ AssetStore = (*S3Store)(nil)

// NewS3Store builds the SDK client from configuration. Retries are bounded
// by MaxAttempts and each call is cut off after Timeout.
func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	log := logger.New("S3")

	if cfg.S3.AccessKey == "" || cfg.S3.SecretKey == "" {
		return nil, log.Error("S3 credentials are empty", fmt.Errorf("accessKey or secretKey is empty"))
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3.AccessKey,
			cfg.S3.SecretKey,
			"",
		)),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
		awsconfig.WithRetryMaxAttempts(maxAttempts),
	)
	if err != nil {
		return nil, log.Error("Unable to load SDK config", err)
	}

	endpoint := endpointURL(cfg.S3.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	})

	store := NewS3StoreWithClient(client, cfg)
	log.Success("S3 store initialized for bucket %s", cfg.S3.BucketName)
	return store, nil
}

// NewS3StoreWithClient wires a store around an existing client.
func NewS3StoreWithClient(client S3API, cfg config.StorageConfig) *S3Store {
	var acl types.ObjectCannedACL
	if cfg.Provider == "r2" {
		acl = types.ObjectCannedACLPublicRead
	}
	return &S3Store{
		client:     client,
		bucketName: cfg.S3.BucketName,
		baseURL:    PublicBaseURL(cfg.S3),
		timeout:    cfg.Timeout,
		acl:        acl,
		newID:      uuid.NewString,
		logger:     logger.New("S3"),
	}
}

// PublicBaseURL is the prefix every public asset URL starts with.
func PublicBaseURL(cfg config.S3Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s", strings.TrimRight(endpointURL(cfg.Endpoint), "/"), cfg.BucketName)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.BucketName, cfg.Region)
	}
}

func endpointURL(endpoint string) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "https://" + endpoint
}

// BaseURL is the public URL prefix of stored objects.
func (s *S3Store) BaseURL() string {
	return s.baseURL
}

// Upload stores up under folder. The key is chosen once, so SDK retries
// overwrite the same object instead of creating a second one.
func (s *S3Store) Upload(ctx context.Context, up *Upload, folder string) (models.ManagedAsset, error) {
	key := ObjectKey(folder, s.newID(), strings.ToLower(filepath.Ext(up.Filename)))

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	s.logger.Debug("Uploading %s (%d bytes)", key, up.Size())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(up.Data),
		ContentLength: aws.Int64(up.Size()),
		ContentType:   aws.String(up.ContentType),
		ACL:           s.acl,
	})
	if err != nil {
		return models.ManagedAsset{}, &UploadError{Op: "upload", Handle: key, Err: s.logger.Error("Failed to upload %s", err, key)}
	}

	asset := models.ManagedAsset{
		URL:         s.baseURL + "/" + key,
		Handle:      key,
		ContentType: up.ContentType,
		Size:        up.Size(),
	}
	s.logger.Info("Uploaded %s", asset.URL)
	return asset, nil
}

// Delete removes the object behind handle. A missing object counts as deleted.
func (s *S3Store) Delete(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(handle),
	})
	if err != nil && !isNotFound(err) {
		return &UploadError{Op: "delete", Handle: handle, Err: err}
	}
	s.logger.Info("Deleted %s", handle)
	return nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (s *S3Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	return err
}

func (s *S3Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
