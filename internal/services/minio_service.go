package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gruntek/audit-intake/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioService issues scoped, time-limited upload capabilities against the
// configured bucket. Write credentials never leave this process; clients
// only ever see a presigned URL for a single object key.
type MinioService struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinioService creates a new MinIO-backed signing service.
func NewMinioService(config *config.Config) (*MinioService, error) {
	client, err := minio.New(config.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.MinioAccessKey, config.MinioSecretKey, ""),
		Secure: config.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	service := &MinioService{
		client: client,
		bucket: config.MinioBucket,
		expiry: config.PresignExpiry,
	}

	if err := service.ensureBucket(); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

// ensureBucket creates the bucket if it doesn't exist.
func (m *MinioService) ensureBucket() error {
	ctx := context.Background()

	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("error checking if bucket exists: %w", err)
	}

	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("error creating bucket: %w", err)
		}
	}

	return nil
}

// Bucket returns the configured bucket name.
func (m *MinioService) Bucket() string {
	return m.bucket
}

// PresignUpload returns a write-capable URL for exactly one object key. The
// signature covers the declared content type, so a client cannot swap it
// after the fact, and the URL expires after the configured window.
func (m *MinioService) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	headers := http.Header{}
	headers.Set("Content-Type", contentType)

	signed, err := m.client.PresignHeader(ctx, http.MethodPut, m.bucket, key, m.expiry, url.Values{}, headers)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}

	return signed.String(), nil
}
