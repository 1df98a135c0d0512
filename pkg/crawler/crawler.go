// Package crawler walks a remote folder tree one Depth: 1 listing at a
// time.
//
// Many servers refuse Depth: infinity (Nextcloud disables it by default),
// so a full gallery tree is built by listing each folder and descending
// into its subfolders. The crawler coordinates two stages:
//   - Listers: list folders with bounded concurrency and optional rate limit
//   - Writer: emits folder and entry records in arrival order
//
// A bounded channel between the stages provides backpressure.
package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/3leaps/davgallery/pkg/gallery"
	"github.com/3leaps/davgallery/pkg/match"
	"github.com/3leaps/davgallery/pkg/multistatus"
	"github.com/3leaps/davgallery/pkg/output"
	"github.com/3leaps/davgallery/pkg/provider"
)

// Config configures crawler behavior.
type Config struct {
	// Concurrency is the number of folders listed in parallel.
	// Default: 4
	Concurrency int

	// ChannelBuffer is the size of the channel between listers and writer.
	// Default: 1000
	ChannelBuffer int

	// RateLimit is the maximum list requests per second.
	// Zero means unlimited.
	RateLimit float64

	// MaxDepth bounds how many levels below the root are listed.
	// Zero means unlimited; 1 lists the root only.
	MaxDepth int
}

// DefaultConfig returns the default crawler configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:   4,
		ChannelBuffer: 1000,
	}
}

// Summary contains aggregate statistics from a completed walk.
type Summary struct {
	// Root is the folder the walk started from.
	Root string

	// FoldersListed is the number of successful folder listings.
	FoldersListed int64

	// Folders is the number of subfolder records emitted.
	Folders int64

	// FilesListed is the number of displayable files seen.
	FilesListed int64

	// FilesMatched is the number of file records emitted.
	FilesMatched int64

	// BytesTotal is the cumulative size of emitted files.
	BytesTotal int64

	// Duration is the total time spent walking.
	Duration time.Duration

	// FoldersPruned is the number of subfolders not listed because no
	// include pattern can reach below them.
	FoldersPruned int64

	// Errors is the count of folders that could not be listed.
	Errors int64
}

// Crawler walks a folder tree through a provider.
//
// Crawler is safe for single use only. Create a new Crawler for each walk.
type Crawler struct {
	provider provider.Provider
	matcher  *match.Matcher
	filter   *match.CompositeFilter
	writer   output.Writer
	config   Config

	limiter *rate.Limiter
	sem     chan struct{}

	foldersListed atomic.Int64
	folders       atomic.Int64
	filesListed   atomic.Int64
	filesMatched  atomic.Int64
	bytesTotal    atomic.Int64
	foldersPruned atomic.Int64
	errorCount    atomic.Int64
}

// New creates a crawler. Zero config values take their defaults.
func New(p provider.Provider, m *match.Matcher, w output.Writer, cfg Config) *Crawler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = DefaultConfig().ChannelBuffer
	}
	if m == nil {
		m, _ = match.New(match.Config{})
	}

	c := &Crawler{
		provider: p,
		matcher:  m,
		writer:   w,
		config:   cfg,
		sem:      make(chan struct{}, cfg.Concurrency),
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c
}

// WithFilter sets an optional metadata filter applied to files after glob
// matching. Returns the crawler for method chaining.
func (c *Crawler) WithFilter(f *match.CompositeFilter) *Crawler {
	c.filter = f
	return c
}

// record is one item flowing to the writer.
type record struct {
	entry  gallery.Entry
	folder bool
}

// Run walks the tree below root and writes a folder record for root
// followed by entry records for every kept subfolder and file, then a
// summary record.
//
// Failure to list root is fatal. Subfolders that cannot be listed
// (not found, access denied, throttled, unavailable, unparsable) become
// error records and the walk continues. Cancellation returns a partial
// summary together with the context error.
func (c *Crawler) Run(ctx context.Context, root string) (*Summary, error) {
	start := time.Now()
	root = multistatus.NormalizePath(root)

	pipeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Root is listed synchronously so its failure is reported directly.
	rootListing, err := c.list(pipeCtx, root)
	if err != nil {
		return nil, err
	}

	recCh := make(chan record, c.config.ChannelBuffer)
	errCh := make(chan error, 1)
	fail := func(err error) {
		select {
		case errCh <- err:
		default:
		}
		cancel()
	}

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		if err := c.runWriter(pipeCtx, recCh); err != nil {
			fail(err)
		}
	}()

	var listWG sync.WaitGroup
	if rootListing.HasFolder() {
		c.send(pipeCtx, recCh, record{entry: rootListing.Folder, folder: true})
	}
	c.expand(pipeCtx, rootListing, 1, recCh, &listWG, fail)

	listWG.Wait()
	close(recCh)
	writerWG.Wait()

	summary := c.buildSummary(root, time.Since(start))

	select {
	case err := <-errCh:
		return summary, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if err := c.writeSummary(ctx, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// expand emits the kept children of l and schedules listings of its
// subfolders. depth is the level of l below the root, starting at 1.
func (c *Crawler) expand(ctx context.Context, l *gallery.Listing, depth int, out chan<- record, wg *sync.WaitGroup, fail func(error)) {
	for _, f := range l.Files {
		c.filesListed.Add(1)
		if !c.matcher.Match(f.Filename) || !c.filter.Match(&f) {
			continue
		}
		c.filesMatched.Add(1)
		c.bytesTotal.Add(f.Size)
		if !c.send(ctx, out, record{entry: f}) {
			return
		}
	}

	for _, sub := range l.Folders {
		if !c.matcher.MatchDir(sub.Filename) {
			continue
		}
		c.folders.Add(1)
		if !c.send(ctx, out, record{entry: sub}) {
			return
		}
		if c.config.MaxDepth > 0 && depth >= c.config.MaxDepth {
			continue
		}
		if !c.matcher.Descend(sub.Filename) {
			c.foldersPruned.Add(1)
			continue
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			child, err := c.list(ctx, path)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !nonFatal(err) {
					fail(err)
					return
				}
				c.writeError(ctx, path, err)
				return
			}
			c.expand(ctx, child, depth+1, out, wg, fail)
		}(sub.Filename)
	}
}

// list performs one Depth: 1 listing under the concurrency and rate limits.
func (c *Crawler) list(ctx context.Context, path string) (*gallery.Listing, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case c.sem <- struct{}{}:
	}
	defer func() { <-c.sem }()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	l, err := c.provider.List(ctx, path, provider.ListOptions{})
	if err != nil {
		return nil, err
	}
	c.foldersListed.Add(1)
	return l, nil
}

// send forwards rec to the writer. Returns false on cancellation.
func (c *Crawler) send(ctx context.Context, out chan<- record, rec record) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- rec:
		return true
	}
}

func (c *Crawler) runWriter(ctx context.Context, in <-chan record) error {
	for rec := range in {
		if ctx.Err() != nil {
			continue // drain
		}
		var err error
		if rec.folder {
			err = c.writer.WriteFolder(ctx, &rec.entry)
		} else {
			err = c.writer.WriteEntry(ctx, &rec.entry)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// nonFatal reports listing failures that skip a subtree rather than
// aborting the walk.
func nonFatal(err error) bool {
	return provider.IsNotFound(err) ||
		provider.IsAccessDenied(err) ||
		provider.IsThrottled(err) ||
		provider.IsProviderUnavailable(err) ||
		provider.IsParse(err)
}

// writeError emits an error record and increments the error counter.
func (c *Crawler) writeError(ctx context.Context, path string, err error) {
	c.errorCount.Add(1)
	// Best effort: a failed error record does not fail the walk.
	_ = c.writer.WriteError(ctx, output.NewErrorRecord(path, err))
}

func (c *Crawler) buildSummary(root string, d time.Duration) *Summary {
	return &Summary{
		Root:          root,
		FoldersListed: c.foldersListed.Load(),
		Folders:       c.folders.Load(),
		FilesListed:   c.filesListed.Load(),
		FilesMatched:  c.filesMatched.Load(),
		BytesTotal:    c.bytesTotal.Load(),
		Duration:      d,
		FoldersPruned: c.foldersPruned.Load(),
		Errors:        c.errorCount.Load(),
	}
}

func (c *Crawler) writeSummary(ctx context.Context, s *Summary) error {
	return c.writer.WriteSummary(ctx, &output.SummaryRecord{
		Paths:         []string{s.Root},
		Folders:       s.Folders,
		Files:         s.FilesMatched,
		BytesTotal:    s.BytesTotal,
		Duration:      s.Duration,
		DurationHuman: s.Duration.Round(time.Millisecond).String(),
		Errors:        s.Errors,
	})
}

