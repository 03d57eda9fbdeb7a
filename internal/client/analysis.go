// Package client is the consumer side of the intake service: the analysis
// call with its outcome normalization, and the attachment upload
// orchestrator. Every network failure mode is folded into plain result
// values; nothing in this package panics or lets an error escape raw to a
// caller that just wants a status message.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gruntek/audit-intake/internal/upstream"
)

// ApiResponse is the uniform result of an analysis run. Exactly one of the
// success fields (Analysis/Metrics) or Error is meaningful, gated by OK.
// Status echoes the HTTP status of the outcome, or 0 for client-side
// failures (timeout, network error).
type ApiResponse struct {
	OK       bool           `json:"ok"`
	Analysis string         `json:"analysis,omitempty"`
	Metrics  map[string]any `json:"metrics,omitempty"`
	Error    string         `json:"error,omitempty"`
	Status   int            `json:"status,omitempty"`
}

// DefaultTimeout bounds a single analysis request so a stuck upstream cannot
// hang the caller forever.
const DefaultTimeout = 30 * time.Second

const reportPath = "/api/get-report"

// AnalysisClient calls the intake server's report proxy.
type AnalysisClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewAnalysisClient creates a client for the server at baseURL.
func NewAnalysisClient(baseURL string) *AnalysisClient {
	return &AnalysisClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
	}
}

// WithHTTPClient overrides the transport, mainly for tests.
func (c *AnalysisClient) WithHTTPClient(httpClient *http.Client) *AnalysisClient {
	c.httpClient = httpClient
	return c
}

// WithTimeout overrides the per-request timeout.
func (c *AnalysisClient) WithTimeout(timeout time.Duration) *AnalysisClient {
	c.timeout = timeout
	return c
}

// RunAnalysis POSTs the payload and normalizes every possible outcome into
// an ApiResponse. It never returns an error: success, upstream failure,
// non-JSON bodies, network errors, and timeouts all come back as values.
func (c *AnalysisClient) RunAnalysis(ctx context.Context, payload any) ApiResponse {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ApiResponse{OK: false, Error: fmt.Sprintf("failed to encode payload: %v", err), Status: 0}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+reportPath, bytes.NewReader(raw))
	if err != nil {
		return ApiResponse{OK: false, Error: err.Error(), Status: 0}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return failureResponse(err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return failureResponse(err)
	}

	body := upstream.Classify(resBody)
	if !body.IsJSON() {
		errMsg := strings.TrimSpace(body.Text())
		if errMsg == "" {
			errMsg = fmt.Sprintf("API returned non-JSON response (status %d).", res.StatusCode)
		}
		return ApiResponse{OK: false, Error: errMsg, Status: res.StatusCode}
	}

	// A decode failure here means valid JSON that isn't an object (a bare
	// number or array); treat it like an object with no fields.
	var parsed map[string]any
	_ = body.Decode(&parsed)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		errMsg, _ := parsed["error"].(string)
		if errMsg == "" {
			errMsg, _ = parsed["message"].(string)
		}
		if errMsg == "" {
			errMsg = fmt.Sprintf("API error (status %d).", res.StatusCode)
		}
		return ApiResponse{OK: false, Error: errMsg, Status: res.StatusCode}
	}

	// If the engine already speaks our result shape, trust it verbatim.
	if _, hasOK := parsed["ok"].(bool); hasOK {
		var out ApiResponse
		if err := body.Decode(&out); err == nil {
			return out
		}
	}

	out := ApiResponse{OK: true}
	out.Analysis, _ = parsed["analysis"].(string)
	out.Metrics, _ = parsed["metrics"].(map[string]any)
	return out
}

func failureResponse(err error) ApiResponse {
	if errors.Is(err, context.DeadlineExceeded) {
		return ApiResponse{OK: false, Error: "Request timed out", Status: 0}
	}
	return ApiResponse{OK: false, Error: err.Error(), Status: 0}
}
