package storage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/phrazzld/scry-worker/internal/config"
	"github.com/phrazzld/scry-worker/internal/generation"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
)

// azureAPI is the part of *azblob.Client the store uses.
type azureAPI interface {
	UploadBuffer(
		ctx context.Context,
		containerName, blobName string,
		buffer []byte,
		o *azblob.UploadBufferOptions,
	) (azblob.UploadBufferResponse, error)
	URL() string
}

// AzureStore stores artifacts as block blobs in one container.
type AzureStore struct {
	client    azureAPI
	container string
	baseURL   string
	logger    *slog.Logger
}

var _ generation.ArtifactStore = (*AzureStore)(nil)

// NewAzureStore authenticates with the default Azure credential chain
// (environment, workload identity, managed identity, CLI).
func NewAzureStore(cfg config.StorageConfig, logger *slog.Logger) (*AzureStore, error) {
	if cfg.AzureAccountURL == "" {
		return nil, errors.New("azure account URL is required")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	client, err := azblob.NewClient(cfg.AzureAccountURL, cred, nil)
	if err != nil {
		return nil, err
	}
	return newAzureStore(client, cfg, logger)
}

func newAzureStore(client azureAPI, cfg config.StorageConfig, logger *slog.Logger) (*AzureStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("container is required")
	}
	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		u, err := joinURL(client.URL(), cfg.Bucket)
		if err != nil {
			return nil, err
		}
		baseURL = u
	}
	return &AzureStore{
		client:    client,
		container: cfg.Bucket,
		baseURL:   baseURL,
		logger:    logger.With("component", "azure_store", "container", cfg.Bucket),
	}, nil
}

// Put uploads data as a block blob named key and returns its URL.
func (s *AzureStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ct := contentType
	_, err := s.client.UploadBuffer(ctx, s.container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
	})
	if err != nil {
		return "", wrapPut(BackendAzure, key, err)
	}

	u, err := joinURL(s.baseURL, keySegments(key)...)
	if err != nil {
		return "", wrapPut(BackendAzure, key, err)
	}

	log.DebugContext(ctx, "artifact stored", "key", key, "size", len(data))
	return u, nil
}
