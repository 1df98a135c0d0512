// Package errors renders application errors as HTTP JSON responses.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/3leaps/davgallery/pkg/provider"
)

// Error codes used in HTTP responses.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccessDenied       = "ACCESS_DENIED"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeParse              = "PARSE_ERROR"
	CodeTimeout            = "TIMEOUT"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// HTTPError is the body of an error response.
type HTTPError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// HTTPErrorResponse wraps HTTPError under an "error" key.
type HTTPErrorResponse struct {
	Error HTTPError `json:"error"`
}

// StatusError carries an explicit HTTP status and code.
type StatusError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// BadRequest builds a 400 StatusError.
func BadRequest(message string, err error) *StatusError {
	return &StatusError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: message, Err: err}
}

type requestIDKey struct{}

// WithRequestID stores a request id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Classify maps err to an HTTP status and error code.
//
// Upstream 404, 401 and 403 pass through. Every other upstream failure
// is a 502, except deadline expiry which is a 504.
func Classify(err error) (int, string) {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return se.Status, se.Code
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	case provider.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound
	case provider.IsInvalidCredentials(err):
		return http.StatusUnauthorized, CodeInvalidCredentials
	case provider.IsAccessDenied(err):
		return http.StatusForbidden, CodeAccessDenied
	case provider.IsParse(err):
		return http.StatusBadGateway, CodeParse
	case provider.IsTransport(err):
		return http.StatusBadGateway, CodeUpstream
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// RespondWithError writes err as a JSON error response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Classify(err)

	body := HTTPError{
		Code:      code,
		Message:   err.Error(),
		RequestID: RequestIDFromContext(r.Context()),
	}

	var se *StatusError
	if errors.As(err, &se) && se.Details != nil {
		body.Details = se.Details
	}
	if upstream := provider.StatusCode(err); upstream != 0 {
		if body.Details == nil {
			body.Details = map[string]any{}
		}
		body.Details["upstream_status"] = upstream
	}

	WriteJSON(w, status, HTTPErrorResponse{Error: body})
}

// WriteError writes a JSON error response with an explicit status and code.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	var reqID string
	if r != nil {
		reqID = RequestIDFromContext(r.Context())
	}
	WriteJSON(w, status, HTTPErrorResponse{Error: HTTPError{
		Code:      code,
		Message:   message,
		RequestID: reqID,
		Details:   details,
	}})
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
