package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sessionPrefix = "sess_"

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// DefaultSessionIDGenerator produces opaque session tokens used to namespace
// uploaded objects. Tokens are uuid-derived, alphanumeric-only, and bounded
// in length so they stay safe inside object keys.
type DefaultSessionIDGenerator struct{}

// NewDefaultSessionIDGenerator creates a new session ID generator.
func NewDefaultSessionIDGenerator() *DefaultSessionIDGenerator {
	return &DefaultSessionIDGenerator{}
}

// Generate creates a fresh session token.
func (g *DefaultSessionIDGenerator) Generate() string {
	raw := nonAlphanumeric.ReplaceAllString(uuid.NewString(), "")
	if len(raw) > 24 {
		raw = raw[:24]
	}
	if raw == "" {
		// uuid should never sanitize to empty, but the token must not be.
		raw = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return sessionPrefix + raw
}

// IsSessionID reports whether s looks like a token from Generate.
func IsSessionID(s string) bool {
	rest, ok := strings.CutPrefix(s, sessionPrefix)
	return ok && rest != "" && !nonAlphanumeric.MatchString(rest)
}

// BuildObjectKey derives the storage key for one upload. The millisecond
// timestamp gives per-session uniqueness without a coordination service;
// two uploads of the same filename in the same millisecond would collide,
// which is accepted at this granularity.
func BuildObjectKey(sessionID, filename string, now time.Time) string {
	if sessionID == "" {
		sessionID = "misc"
	}
	return fmt.Sprintf("%s/%d_%s", sessionID, now.UnixMilli(), filename)
}
