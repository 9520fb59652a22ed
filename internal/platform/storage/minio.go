package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/phrazzld/scry-worker/internal/config"
	"github.com/phrazzld/scry-worker/internal/generation"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
)

// minioAPI is the part of *minio.Client the store uses.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(
		ctx context.Context,
		bucketName, objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
}

// MinIOStore stores artifacts in an S3-compatible bucket.
type MinIOStore struct {
	client  minioAPI
	bucket  string
	baseURL string
	logger  *slog.Logger

	mu           sync.Mutex
	bucketExists bool
}

var _ generation.ArtifactStore = (*MinIOStore)(nil)

// NewMinIOStore connects to cfg.Endpoint with static credentials. The bucket
// is created on first use when missing.
func NewMinIOStore(cfg config.StorageConfig, logger *slog.Logger) (*MinIOStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return newMinIOStore(client, cfg, logger)
}

func newMinIOStore(client minioAPI, cfg config.StorageConfig, logger *slog.Logger) (*MinIOStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		u, err := joinURL(scheme+"://"+cfg.Endpoint, cfg.Bucket)
		if err != nil {
			return nil, err
		}
		baseURL = u
	}
	return &MinIOStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		logger:  logger.With("component", "minio_store", "bucket", cfg.Bucket),
	}, nil
}

// Put uploads data under key, overwriting any previous object, and returns
// its public URL.
func (s *MinIOStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.ensureBucket(ctx); err != nil {
		return "", wrapPut(BackendMinIO, key, err)
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", wrapPut(BackendMinIO, key, err)
	}

	u, err := joinURL(s.baseURL, keySegments(key)...)
	if err != nil {
		return "", wrapPut(BackendMinIO, key, err)
	}

	log.DebugContext(ctx, "artifact stored", "key", key, "size", info.Size, "etag", info.ETag)
	return u, nil
}

func (s *MinIOStore) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bucketExists {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "bucket created")
	}
	s.bucketExists = true
	return nil
}
