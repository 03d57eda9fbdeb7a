package main

import (
	"context"

	"github.com/gruntek/audit-intake/internal/upstream"
)

// UploadURLSigner issues presigned, single-object write URLs.
type UploadURLSigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	Bucket() string
}

// ReportForwarder relays analysis payloads to the external engine and
// returns the upstream status with the classified body.
type ReportForwarder interface {
	Forward(ctx context.Context, url string, payload []byte) (int, upstream.Body, error)
}
