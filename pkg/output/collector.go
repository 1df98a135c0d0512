package output

import (
	"context"
	"sync"

	"github.com/3leaps/davgallery/pkg/gallery"
)

// ListingCollector accumulates streamed records into a gallery.Listing so
// a walk can be rendered by the non-streaming formats.
type ListingCollector struct {
	mu      sync.Mutex
	listing gallery.Listing
	errors  []*ErrorRecord
	summary *SummaryRecord
}

// NewListingCollector returns an empty collector.
func NewListingCollector() *ListingCollector {
	return &ListingCollector{
		listing: gallery.Listing{
			Folder:  gallery.Entry{ID: gallery.NoID},
			Folders: []gallery.Entry{},
			Files:   []gallery.Entry{},
		},
	}
}

// WriteFolder records e as the listed folder.
func (c *ListingCollector) WriteFolder(ctx context.Context, e *gallery.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listing.Folder = *e
	return nil
}

// WriteEntry files e under Folders or Files by its type.
func (c *ListingCollector) WriteEntry(ctx context.Context, e *gallery.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.IsDir() {
		c.listing.Folders = append(c.listing.Folders, *e)
	} else {
		c.listing.Files = append(c.listing.Files, *e)
	}
	return nil
}

// WriteError appends rec to the collected errors.
func (c *ListingCollector) WriteError(ctx context.Context, rec *ErrorRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, rec)
	return nil
}

// WriteSummary stores sum, replacing any earlier summary.
func (c *ListingCollector) WriteSummary(ctx context.Context, sum *SummaryRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = sum
	return nil
}

// Close is a no-op; collected results stay readable.
func (c *ListingCollector) Close() error { return nil }

// Listing returns the collected listing.
func (c *ListingCollector) Listing() *gallery.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.listing
	return &l
}

// Errors returns the collected error records.
func (c *ListingCollector) Errors() []*ErrorRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ErrorRecord(nil), c.errors...)
}

// Summary returns the summary record, or nil if none was written.
func (c *ListingCollector) Summary() *SummaryRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

var _ Writer = (*ListingCollector)(nil)
