package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AuthError means the session is unusable: no credential was available for a
// request that needed one, or the refresh exchange itself was rejected.
// Callers must treat it as session-ending.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError is a precondition failure the client detected before any
// network call was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports that a named upstream resource does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// UpstreamError is any authority rejection other than an authorization
// failure the pipeline could recover. The decoded error envelope rides along
// so callers can surface the most specific message available.
type UpstreamError struct {
	Status   int
	Body     string
	Envelope Envelope
}

func (e *UpstreamError) Error() string {
	if msg := e.Envelope.Message(); msg != "" {
		return fmt.Sprintf("upstream %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("upstream %d", e.Status)
}

// Envelope is the authority's error body. Which fields are populated depends
// on the endpoint: field-level serializer errors arrive as string lists,
// everything else as one of the scalar fields.
type Envelope struct {
	Detail   string   `json:"detail"`
	Err      string   `json:"error"`
	Msg      string   `json:"message"`
	Username []string `json:"username"`
	Email    []string `json:"email"`
	Password []string `json:"password"`
}

// extractors are tried in priority order: field-level messages beat the
// general detail, which beats the catch-all fields.
var extractors = []func(Envelope) string{
	func(e Envelope) string { return first(e.Username) },
	func(e Envelope) string { return first(e.Email) },
	func(e Envelope) string { return first(e.Password) },
	func(e Envelope) string { return e.Detail },
	func(e Envelope) string { return e.Err },
	func(e Envelope) string { return e.Msg },
}

// Message returns the most specific message in the envelope, or "".
func (e Envelope) Message() string {
	for _, extract := range extractors {
		if msg := extract(e); msg != "" {
			return msg
		}
	}
	return ""
}

func first(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

// ErrorMessage resolves a user-facing message for err, falling back to
// fallback when the error carries nothing more specific.
func ErrorMessage(err error, fallback string) string {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		if msg := upstream.Envelope.Message(); msg != "" {
			return msg
		}
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}
	return fallback
}

// IsSessionExpired classifies err as session-ending: an AuthError, an
// upstream 401, or an upstream detail that talks about a token.
func IsSessionExpired(err error) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return true
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		if upstream.Status == http.StatusUnauthorized {
			return true
		}
		if strings.Contains(strings.ToLower(upstream.Envelope.Detail), "token") {
			return true
		}
	}
	return false
}
