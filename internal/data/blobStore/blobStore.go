// Package blobStore reads documents by key from a local directory tree or an S3 bucket.
package blobStore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/customHttpClient"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/pkg/logger_i"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var logger = logger_i.NewLogger("blobStore")

// Store opens a document by its slash-separated key. A missing key yields ragErrors.ErrMissingResource.
type Store interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (f *FileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(f.root, filepath.FromSlash(key))
	file, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ragErrors.ErrMissingResource, p)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioStore connects to the S3 endpoint in settings. Keys are resolved under prefix.
func NewMinioStore(settings config.Settings, bucket, prefix string) (*MinioStore, error) {
	if settings.S3Endpoint == "" {
		return nil, errors.New("S3_ENDPOINT is required for the object store")
	}
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	client, err := minio.New(settings.S3Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(settings.S3AccessKey, settings.S3SecretKey, ""),
		Secure:    settings.S3UseSSL,
		Region:    settings.S3Region,
		Transport: customHttpClient.Transport(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	logger.Info("Object store ready", "endpoint", settings.S3Endpoint, "bucket", bucket, "prefix", prefix)
	return &MinioStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (m *MinioStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey := path.Join(m.prefix, key)
	// GetObject is lazy, so stat first to surface a missing key here
	if _, err := m.client.StatObject(ctx, m.bucket, objectKey, minio.StatObjectOptions{}); err != nil {
		return nil, classify(err, objectKey)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(err, objectKey)
	}
	return obj, nil
}

func classify(err error, key string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ragErrors.ErrMissingResource, key)
	}
	return fmt.Errorf("object %s: %w", key, err)
}
