package authclient

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	// TextCodeNotAuthenticated marks the collapsed verification failure signal.
	TextCodeNotAuthenticated = "NOT_AUTHENTICATED"
	// TextCodeMissingCredentials marks a login rejected before any network call.
	TextCodeMissingCredentials = "MISSING_CREDENTIALS"
	// TextCodeUnexpectedResponse marks a non-JSON body where JSON was required.
	TextCodeUnexpectedResponse = "UNEXPECTED_RESPONSE"
	// TextCodeSessionNotEstablished marks a 2xx login that produced no session.
	TextCodeSessionNotEstablished = "SESSION_NOT_ESTABLISHED"
	// TextCodeInvalidCreds marks credentials the server rejected.
	TextCodeInvalidCreds = "INVALID_CREDENTIALS"
	// TextCodeServerUnreachable marks transport-level login failures.
	TextCodeServerUnreachable = "SERVER_UNREACHABLE"
)

// ErrNotAuthenticated is the single typed signal every verification failure
// collapses to: credential rejected, server unreachable, or unusable body.
// The store reads it as "definitely logged out".
var ErrNotAuthenticated = errors.New("not authenticated", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrMissingCredentials is returned when email or password is empty. The
// server stays authoritative for everything beyond presence.
var ErrMissingCredentials = errors.New("email and password are required", errors.CategoryValidation).
	WithTextCode(TextCodeMissingCredentials).
	WithCode(errors.CodeBadRequest)

// ErrUnexpectedResponse is returned when the backend answers with something
// other than JSON, usually a misconfigured base URL returning HTML.
var ErrUnexpectedResponse = errors.New("unexpected server response, verify the backend URL", errors.CategoryBadInput).
	WithTextCode(TextCodeUnexpectedResponse).
	WithCode(errors.CodeBadRequest)

// ErrSessionNotEstablished is returned when login got a 2xx but neither the
// response nor a follow-up verification produced a user. The backend accepted
// the credentials without establishing a session; this is a login failure.
var ErrSessionNotEstablished = errors.New("login succeeded but no session was established", errors.CategoryAuth).
	WithTextCode(TextCodeSessionNotEstablished).
	WithCode(errors.CodeUnauthorized)

// IsNotAuthenticatedError checks for the collapsed verification failure.
func IsNotAuthenticatedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeNotAuthenticated
	}
	return strings.Contains(err.Error(), "not authenticated")
}

// IsValidationError checks for errors raised before any network call.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Category == errors.CategoryValidation
	}
	return false
}

// ErrorMessage resolves the human-readable message for an operation error:
// server-provided message first, then the error's own message, then fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		if msg, ok := richErr.Metadata["server_message"].(string); ok && msg != "" {
			return msg
		}
		if richErr.Message != "" {
			return richErr.Message
		}
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// serverMessage extracts the backend's message field from a decoded payload:
// "message" first, then "error" (plain string or {message} object).
func serverMessage(payload map[string]any) (string, bool) {
	if payload == nil {
		return "", false
	}

	if msg, ok := payload["message"].(string); ok && msg != "" {
		return msg, true
	}

	switch v := payload["error"].(type) {
	case string:
		if v != "" {
			return v, true
		}
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg, true
		}
	}

	return "", false
}
