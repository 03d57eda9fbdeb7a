// Package upstream talks to the external analysis engine. The engine is an
// externally operated service whose responses can degrade to plain-text or
// HTML error pages, so every body that comes back is classified once and
// handled as an explicit JSON-or-text value rather than assumed to parse.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// BodyKind tags what an upstream response body turned out to be.
type BodyKind int

const (
	JSONBody BodyKind = iota
	TextBody
)

// Body is the classified form of a response body. Raw always holds the
// original bytes; Kind says whether they are valid JSON.
type Body struct {
	Kind BodyKind
	Raw  []byte
}

// Classify inspects a response body once and tags it.
func Classify(raw []byte) Body {
	if json.Valid(raw) && len(bytes.TrimSpace(raw)) > 0 {
		return Body{Kind: JSONBody, Raw: raw}
	}
	return Body{Kind: TextBody, Raw: raw}
}

// IsJSON reports whether the body parsed as JSON.
func (b Body) IsJSON() bool {
	return b.Kind == JSONBody
}

// Text returns the body as a string.
func (b Body) Text() string {
	return string(b.Raw)
}

// Decode unmarshals a JSON body into v. Calling it on a text body is an
// error, not a panic.
func (b Body) Decode(v any) error {
	if b.Kind != JSONBody {
		return fmt.Errorf("cannot decode non-JSON body")
	}
	return json.Unmarshal(b.Raw, v)
}

// Forwarder relays analysis payloads to the engine.
type Forwarder struct {
	client *http.Client
}

// NewForwarder creates a forwarder. A nil client falls back to the default
// transport; the caller owns timeout policy via the request context.
func NewForwarder(client *http.Client) *Forwarder {
	if client == nil {
		client = http.DefaultClient
	}
	return &Forwarder{client: client}
}

// Forward POSTs the payload to url and returns the upstream status code with
// the classified body. A non-nil error means the engine was unreachable or
// the response could not be read; HTTP-level failures are not errors here,
// they come back as status + body for the caller to relay.
func (f *Forwarder) Forward(ctx context.Context, url string, payload []byte) (int, Body, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, Body{}, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return 0, Body{}, fmt.Errorf("upstream request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, Body{}, fmt.Errorf("failed to read upstream response: %w", err)
	}

	return res.StatusCode, Classify(raw), nil
}
