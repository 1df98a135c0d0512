package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for provider operations.
var (
	// ErrNotFound indicates the requested path does not exist.
	ErrNotFound = errors.New("path not found")

	// ErrAccessDenied indicates insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProviderUnavailable indicates the remote service is unavailable.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrThrottled indicates the request was rate limited by the server.
	ErrThrottled = errors.New("request throttled")

	// ErrUnexpectedStatus indicates any other non-success status.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// TransportError reports a failed request: a non-success status, or a
// network failure (StatusCode == 0).
type TransportError struct {
	// Op is the operation that failed (e.g., "List", "Stat").
	Op string

	// Path is the queried path.
	Path string

	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int

	// Err is the mapped sentinel error or the network cause.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError reports a response body that is not a well-formed multi-status document.
type ParseError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: parse response: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewStatusError builds a TransportError for a non-success HTTP status,
// mapping well-known codes to sentinel errors.
func NewStatusError(op, path string, status int) *TransportError {
	return &TransportError{Op: op, Path: path, StatusCode: status, Err: StatusSentinel(status)}
}

// StatusSentinel maps an HTTP status to the matching sentinel error.
func StatusSentinel(status int) error {
	switch {
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnauthorized:
		return ErrInvalidCredentials
	case status == http.StatusForbidden:
		return ErrAccessDenied
	case status == http.StatusTooManyRequests:
		return ErrThrottled
	case status >= 500:
		return ErrProviderUnavailable
	default:
		return ErrUnexpectedStatus
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

// IsTransport returns true if the error is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsParse returns true if the error is a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsNotFound returns true if the error indicates a path was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAccessDenied returns true if the error indicates insufficient permissions.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidCredentials returns true if the error indicates authentication failed.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

// IsProviderUnavailable returns true if the error indicates the remote service is unavailable.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// IsThrottled returns true if the error indicates the request was rate limited.
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}
