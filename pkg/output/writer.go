package output

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/3leaps/davgallery/pkg/gallery"
)

// Writer outputs JSONL records for listing and stat results.
//
// Implementations must be safe for concurrent use from multiple
// goroutines. Each Write* method emits a complete record as a
// single line of JSON followed by a newline.
type Writer interface {
	// WriteFolder emits the record for the queried folder.
	WriteFolder(ctx context.Context, e *gallery.Entry) error

	// WriteEntry emits a child folder or file record.
	WriteEntry(ctx context.Context, e *gallery.Entry) error

	// WriteError emits an error record.
	WriteError(ctx context.Context, err *ErrorRecord) error

	// WriteSummary emits a summary record.
	WriteSummary(ctx context.Context, sum *SummaryRecord) error

	// Close flushes any buffered output and releases resources.
	Close() error
}

// JSONLWriter writes records as newline-delimited JSON to an io.Writer.
//
// JSONLWriter is safe for concurrent use. Writes are serialized using
// a mutex so lines never interleave.
type JSONLWriter struct {
	w        io.Writer
	jobID    string
	provider string
	mu       sync.Mutex

	closed bool
}

// NewJSONLWriter creates a new JSONL writer.
//
// Parameters:
//   - w: The underlying writer (stdout, file, etc.)
//   - jobID: Correlation ID for this run
//   - provider: Storage provider identifier (e.g., "webdav")
func NewJSONLWriter(w io.Writer, jobID, provider string) *JSONLWriter {
	return &JSONLWriter{
		w:        w,
		jobID:    jobID,
		provider: provider,
	}
}

// WriteFolder emits the record for the queried folder.
func (jw *JSONLWriter) WriteFolder(ctx context.Context, e *gallery.Entry) error {
	return jw.writeRecord(ctx, TypeFolder, NewEntryRecord(*e))
}

// WriteEntry emits a child folder or file record.
func (jw *JSONLWriter) WriteEntry(ctx context.Context, e *gallery.Entry) error {
	return jw.writeRecord(ctx, TypeEntry, NewEntryRecord(*e))
}

// WriteError emits an error record.
func (jw *JSONLWriter) WriteError(ctx context.Context, err *ErrorRecord) error {
	return jw.writeRecord(ctx, TypeError, err)
}

// WriteSummary emits a summary record.
func (jw *JSONLWriter) WriteSummary(ctx context.Context, sum *SummaryRecord) error {
	return jw.writeRecord(ctx, TypeSummary, sum)
}

// Close marks the writer as closed.
//
// The underlying writer is NOT closed; it belongs to the caller.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	jw.closed = true
	return nil
}

// writeRecord marshals data and writes a complete record line while
// holding the mutex.
func (jw *JSONLWriter) writeRecord(ctx context.Context, recordType string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return &WriteError{Op: "marshal_data", Err: err}
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return ErrWriterClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	record := Record{
		Type:     recordType,
		TS:       time.Now().UTC(),
		JobID:    jw.jobID,
		Provider: jw.provider,
		Data:     dataBytes,
	}

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return &WriteError{Op: "marshal_record", Err: err}
	}

	// io.Writer may return n < len(p) with a nil error; a truncated line
	// would corrupt the stream.
	recordBytes = append(recordBytes, '\n')
	if err := writeAll(jw.w, recordBytes); err != nil {
		return &WriteError{Op: "write", Err: err}
	}

	return nil
}

// writeAll writes all bytes to w, looping over short writes.
func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// WriteListing emits the folder record (when present) followed by one
// entry record per child folder and file. It returns the number of
// folders, files and file bytes written.
func WriteListing(ctx context.Context, w Writer, l *gallery.Listing) (folders, files, bytes int64, err error) {
	if l.HasFolder() {
		if err := w.WriteFolder(ctx, &l.Folder); err != nil {
			return folders, files, bytes, err
		}
	}
	for i := range l.Folders {
		if err := w.WriteEntry(ctx, &l.Folders[i]); err != nil {
			return folders, files, bytes, err
		}
		folders++
	}
	for i := range l.Files {
		if err := w.WriteEntry(ctx, &l.Files[i]); err != nil {
			return folders, files, bytes, err
		}
		files++
		bytes += l.Files[i].Size
	}
	return folders, files, bytes, nil
}

var _ Writer = (*JSONLWriter)(nil)
