// Package auth authenticates callers of the JCC admin API and writes the
// JSON error bodies shared by every admin endpoint.
package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Realm is advertised in WWW-Authenticate challenges.
const Realm = "jcc-admin"

// Token extraction failures. They are for logs, not for response bodies.
var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthScheme = errors.New("invalid authorization scheme: expected Bearer")
	ErrEmptyToken        = errors.New("empty bearer token")
)

// ExtractBearerToken returns the credential from an "Authorization: Bearer
// <token>" header. The scheme is matched case-insensitively.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingAuthHeader
	}

	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidAuthScheme
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// ErrorType classifies an error response for clients.
type ErrorType string

const (
	TypeAuthentication ErrorType = "authentication_error"
	TypeInvalidRequest ErrorType = "invalid_request"
	TypeNotFound       ErrorType = "not_found"
	TypeConflict       ErrorType = "conflict"
	TypeServer         ErrorType = "server_error"
)

// TypeForStatus picks the error type that matches an HTTP status.
func TypeForStatus(status int) ErrorType {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return TypeAuthentication
	case status == http.StatusNotFound:
		return TypeNotFound
	case status == http.StatusConflict:
		return TypeConflict
	case status >= 500:
		return TypeServer
	default:
		return TypeInvalidRequest
	}
}

// APIError is the body of every admin error response.
type APIError struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the message and its type.
type ErrorDetail struct {
	Message string    `json:"message"`
	Type    ErrorType `json:"type,omitempty"`
}

// WriteJSONError writes {"error": {"message": ..., "type": ...}} with status.
func WriteJSONError(w http.ResponseWriter, status int, message string, errType ErrorType) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := APIError{Error: ErrorDetail{Message: message, Type: errType}}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write JSON error response", "error", err)
	}
}

// WriteUnauthorized challenges a request with no usable credentials.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="`+Realm+`"`)
	WriteJSONError(w, http.StatusUnauthorized, "unauthorized", TypeAuthentication)
}

// WriteForbidden rejects a well-formed credential that no token store accepts.
func WriteForbidden(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusForbidden, "forbidden", TypeAuthentication)
}
