// Package output provides JSONL output for gallery listings.
//
// Output is structured as typed record envelopes containing the queried
// folder, its entries, errors, and a final summary. Each line is a
// self-contained JSON object that can be parsed independently.
package output

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/3leaps/davgallery/pkg/gallery"
	"github.com/3leaps/davgallery/pkg/provider"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: davgallery.<type>.v<version>
const (
	// TypeFolder identifies the record for the queried folder itself.
	TypeFolder = "davgallery.folder.v1"

	// TypeEntry identifies child folder and file records.
	TypeEntry = "davgallery.entry.v1"

	// TypeError identifies error records.
	TypeError = "davgallery.error.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "davgallery.summary.v1"
)

// Record is the envelope for all JSONL output.
//
// Each line of JSONL output contains a Record with a type-specific
// payload in the Data field.
type Record struct {
	// Type identifies the record type (e.g., "davgallery.entry.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// JobID is the correlation ID for this command run.
	JobID string `json:"job_id"`

	// Provider identifies the storage provider (e.g., "webdav").
	Provider string `json:"provider"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// EntryRecord is the data payload for folder and entry records.
type EntryRecord struct {
	gallery.Entry

	// Modified is the parsed modification time, omitted when unknown.
	Modified *time.Time `json:"modified,omitempty"`
}

// NewEntryRecord builds the record payload for an entry.
func NewEntryRecord(e gallery.Entry) *EntryRecord {
	rec := &EntryRecord{Entry: e}
	if !e.ModTime.IsZero() {
		t := e.ModTime
		rec.Modified = &t
	}
	return rec
}

// ErrorRecord is the data payload for errors.
//
// Errors are emitted as records rather than failing the whole run,
// allowing partial results when some paths fail.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Path is the gallery path related to this error.
	Path string `json:"path,omitempty"`

	// Status is the upstream HTTP status, when one was received.
	Status int `json:"status,omitempty"`

	// Details contains additional error context.
	Details any `json:"details,omitempty"`
}

// Error codes for ErrorRecord.
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAccessDenied       = "ACCESS_DENIED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeThrottled          = "THROTTLED"
	ErrCodeUnavailable        = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstream           = "UPSTREAM_ERROR"
	ErrCodeParse              = "PARSE_ERROR"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeCancelled          = "CANCELLED"
	ErrCodeInternal           = "INTERNAL"
)

// ErrorCode maps a provider error to its record code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		return ErrCodeCancelled
	case provider.IsNotFound(err):
		return ErrCodeNotFound
	case provider.IsAccessDenied(err):
		return ErrCodeAccessDenied
	case provider.IsInvalidCredentials(err):
		return ErrCodeInvalidCredentials
	case provider.IsThrottled(err):
		return ErrCodeThrottled
	case provider.IsProviderUnavailable(err):
		return ErrCodeUnavailable
	case provider.IsParse(err):
		return ErrCodeParse
	case provider.IsTransport(err):
		return ErrCodeUpstream
	default:
		return ErrCodeInternal
	}
}

// NewErrorRecord builds an error record for a failed path.
func NewErrorRecord(path string, err error) *ErrorRecord {
	return &ErrorRecord{
		Code:    ErrorCode(err),
		Message: err.Error(),
		Path:    path,
		Status:  provider.StatusCode(err),
	}
}

// SummaryRecord is the data payload for final summaries.
type SummaryRecord struct {
	// Paths lists the paths that were requested.
	Paths []string `json:"paths,omitempty"`

	// Folders is the number of child folder records emitted.
	Folders int64 `json:"folders"`

	// Files is the number of file records emitted.
	Files int64 `json:"files"`

	// BytesTotal is the cumulative size of emitted files in bytes.
	BytesTotal int64 `json:"bytes_total"`

	// Duration is the total run duration.
	Duration time.Duration `json:"duration_ns"`

	// DurationHuman is a human-readable duration string.
	DurationHuman string `json:"duration"`

	// Errors is the count of errors encountered.
	Errors int64 `json:"errors"`
}

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps errors that occur during write operations.
type WriteError struct {
	Op  string // Operation that failed (e.g., "marshal_data", "write")
	Err error  // Underlying error
}

func (e *WriteError) Error() string {
	return "output: " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
