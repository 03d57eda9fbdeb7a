package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const presignPath = "/api/s3/presign"

// UploadFile is one attachment queued for upload.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// PresignResponse is the presign endpoint's reply.
type PresignResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	Error     string `json:"error,omitempty"`
}

// Uploader pushes attachments to object storage: one presign request per
// file, then a direct PUT of the raw bytes to the signed URL.
type Uploader struct {
	baseURL    string
	httpClient *http.Client
}

// NewUploader creates an uploader against the server at baseURL.
func NewUploader(baseURL string) *Uploader {
	return &Uploader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

// WithHTTPClient overrides the transport, mainly for tests.
func (u *Uploader) WithHTTPClient(httpClient *http.Client) *Uploader {
	u.httpClient = httpClient
	return u
}

// UploadBatch uploads files strictly in order, one full request/response
// cycle at a time, and returns the storage keys in selection order. The
// batch is fail-fast: the first failure aborts the remaining files, but keys
// already uploaded are still returned alongside the error — there is no
// rollback.
func (u *Uploader) UploadBatch(ctx context.Context, sessionID string, files []UploadFile) ([]string, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id not initialized")
	}

	var keys []string
	for _, file := range files {
		key, err := u.uploadOne(ctx, sessionID, file)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (u *Uploader) uploadOne(ctx context.Context, sessionID string, file UploadFile) (string, error) {
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	presign, err := u.requestPresign(ctx, sessionID, file.Name, contentType)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presign.UploadURL, bytes.NewReader(file.Data))
	if err != nil {
		return "", fmt.Errorf("failed to build storage request for %s: %w", file.Name, err)
	}
	req.Header.Set("Content-Type", contentType)

	res, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", file.Name, err)
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("storage error %d for %s", res.StatusCode, file.Name)
	}

	return presign.Key, nil
}

func (u *Uploader) requestPresign(ctx context.Context, sessionID, filename, contentType string) (*PresignResponse, error) {
	query := url.Values{}
	query.Set("filename", filename)
	query.Set("type", contentType)
	query.Set("sessionId", sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+presignPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build presign request for %s: %w", filename, err)
	}

	res, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get signed URL for %s: %w", filename, err)
	}
	defer res.Body.Close()

	var presign PresignResponse
	if err := json.NewDecoder(res.Body).Decode(&presign); err != nil {
		return nil, fmt.Errorf("invalid presign response for %s: %w", filename, err)
	}

	if presign.UploadURL == "" || presign.Key == "" {
		if presign.Error != "" {
			return nil, fmt.Errorf("failed to get upload URL for %s: %s", filename, presign.Error)
		}
		return nil, fmt.Errorf("failed to get upload URL for %s", filename)
	}

	return &presign, nil
}
