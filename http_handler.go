package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gruntek/audit-intake/internal/config"
	"github.com/gruntek/audit-intake/internal/services"
	"go.uber.org/zap"
)

// HTTPHandler handles HTTP requests and responses.
type HTTPHandler struct {
	configs   *config.ConfigManager
	signer    UploadURLSigner
	forwarder ReportForwarder
	logger    *zap.Logger
	now       func() time.Time
}

// NewHTTPHandler creates a new HTTP handler with dependencies.
func NewHTTPHandler(
	configs *config.ConfigManager,
	signer UploadURLSigner,
	forwarder ReportForwarder,
	logger *zap.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		configs:   configs,
		signer:    signer,
		forwarder: forwarder,
		logger:    logger,
		now:       time.Now,
	}
}

// ReportHandler proxies analysis requests to the external engine. The
// upstream is externally operated and can answer with plain text or HTML
// error pages, so its body is relayed as-is with the original status code
// instead of being assumed to be JSON.
func (h *HTTPHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "content-type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"ok":    false,
			"error": "Method not allowed",
		})
		return
	}

	upstreamURL := strings.TrimSpace(h.configs.GetConfig().LambdaURL)
	if upstreamURL == "" {
		h.logger.Error("report request rejected: LAMBDA_URL not configured")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":    false,
			"error": "Missing LAMBDA_URL on server.",
		})
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err == nil && !json.Valid(payload) {
		err = errInvalidJSON
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"ok":    false,
			"error": "Invalid JSON payload.",
		})
		return
	}
	defer r.Body.Close()

	status, body, err := h.forwarder.Forward(r.Context(), upstreamURL, payload)
	if err != nil {
		h.logger.Error("upstream request failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	h.logger.Info("report relayed",
		zap.Int("upstream_status", status),
		zap.Bool("json_body", body.IsJSON()),
		zap.Int("payload_size", len(payload)))

	if body.IsJSON() {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain")
	}
	w.WriteHeader(status)
	w.Write(body.Raw)
}

// PresignHandler hands out a time-limited write URL for exactly one object
// key under the caller's session prefix.
func (h *HTTPHandler) PresignHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Method not allowed"})
		return
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing filename"})
		return
	}

	if h.signer.Bucket() == "" {
		h.logger.Error("presign request rejected: bucket not configured")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Missing MINIO_BUCKET on server."})
		return
	}

	contentType := r.URL.Query().Get("type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID != "" && !services.IsSessionID(sessionID) {
		// Accepted anyway; the namespace is opaque to storage.
		h.logger.Debug("presign request with non-standard session namespace",
			zap.String("sessionId", sessionID))
	}

	key := services.BuildObjectKey(sessionID, filename, h.now())

	uploadURL, err := h.signer.PresignUpload(r.Context(), key, contentType)
	if err != nil {
		h.logger.Error("failed to presign upload", zap.String("key", key), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	h.logger.Info("presigned upload",
		zap.String("key", key),
		zap.String("content_type", contentType))

	writeJSON(w, http.StatusOK, map[string]any{
		"uploadUrl": uploadURL,
		"key":       key,
	})
}

var errInvalidJSON = invalidJSONError{}

type invalidJSONError struct{}

func (invalidJSONError) Error() string { return "invalid JSON payload" }

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
