package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/davgallery/internal/config"
	"github.com/3leaps/davgallery/internal/observability"
	"github.com/3leaps/davgallery/pkg/crawler"
	"github.com/3leaps/davgallery/pkg/gallery"
	"github.com/3leaps/davgallery/pkg/match"
	"github.com/3leaps/davgallery/pkg/output"
	"github.com/3leaps/davgallery/pkg/provider"
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a remote folder as a gallery",
	Long: `List a remote folder: the folder itself, its subfolders and the files
whose MIME type is accepted (image/jpeg unless gallery.mimes says otherwise).

With --deep the whole subtree is requested in one PROPFIND (Depth: infinity);
subfolders at every level and files at every level are returned.

--include/--exclude globs and the size/date/type/regex filters narrow the
file list after the listing is fetched. Patterns containing a slash match the
filename relative to the remote path; others match the basename. Subfolders
are only filtered for hidden names.

With --walk the tree is built from one Depth: 1 listing per folder instead,
for servers that refuse Depth: infinity. Folders are listed --concurrency at
a time (default: workers from config), optionally capped at --rate requests
per second, down to --max-depth levels (0 = unlimited). A subfolder that
cannot be listed becomes an error record and the walk continues.

Examples:
  davgallery ls /Photos
  davgallery ls /Photos --deep --include 'Photos/2020/**' --exclude '*-thumb.jpg'
  davgallery ls /Photos --min-size 1MiB --after 2024-01-01 --format table
  davgallery ls /Photos --walk --max-depth 3 --rate 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

var (
	lsDeep          bool
	lsIncludes      []string
	lsExcludes      []string
	lsIncludeHidden bool
	lsMinSize       string
	lsMaxSize       string
	lsAfter         string
	lsBefore        string
	lsContentTypes  []string
	lsNameRegex     string
	lsFormat        string
	lsWalk          bool
	lsMaxDepth      int
	lsConcurrency   int
	lsRate          float64
)

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().BoolVarP(&lsDeep, "deep", "r", false, "List the whole subtree (Depth: infinity)")
	lsCmd.Flags().StringArrayVar(&lsIncludes, "include", nil, "Include glob pattern for files (repeatable)")
	lsCmd.Flags().StringArrayVar(&lsExcludes, "exclude", nil, "Exclude glob pattern for files (repeatable)")
	lsCmd.Flags().BoolVar(&lsIncludeHidden, "include-hidden", false, "Keep entries with a path segment starting with '.'")
	lsCmd.Flags().StringVar(&lsMinSize, "min-size", "", "Minimum file size (e.g. 100KB, 1MiB)")
	lsCmd.Flags().StringVar(&lsMaxSize, "max-size", "", "Maximum file size")
	lsCmd.Flags().StringVar(&lsAfter, "after", "", "Keep files modified at or after this date (YYYY-MM-DD or RFC3339)")
	lsCmd.Flags().StringVar(&lsBefore, "before", "", "Keep files modified before this date")
	lsCmd.Flags().StringSliceVar(&lsContentTypes, "content-type", nil, "Keep files with these MIME types (comma separated)")
	lsCmd.Flags().StringVar(&lsNameRegex, "name-regex", "", "Keep files whose filename matches this regex")
	lsCmd.Flags().StringVarP(&lsFormat, "format", "o", "jsonl", "Output format (jsonl|json|yaml|table)")
	lsCmd.Flags().BoolVar(&lsWalk, "walk", false, "Walk the subtree with one Depth: 1 listing per folder")
	lsCmd.Flags().IntVar(&lsMaxDepth, "max-depth", 0, "Levels listed by --walk (0 = unlimited)")
	lsCmd.Flags().IntVar(&lsConcurrency, "concurrency", 0, "Folders listed in parallel by --walk (0 = workers from config)")
	lsCmd.Flags().Float64Var(&lsRate, "rate", 0, "Max list requests per second for --walk (0 = unlimited)")
	lsCmd.MarkFlagsMutuallyExclusive("deep", "walk")
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := "/"
	if len(args) == 1 {
		path = args[0]
	}

	format, err := output.ParseFormat(lsFormat)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid --format value", err)
	}

	matcher, err := match.New(match.Config{
		Includes:      lsIncludes,
		Excludes:      lsExcludes,
		IncludeHidden: lsIncludeHidden,
	})
	if err != nil {
		observability.CLILogger.Error("Failed to create matcher", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid match patterns", err)
	}

	filter, err := match.NewFilterFromConfig(lsFilterConfig())
	if err != nil {
		observability.CLILogger.Error("Invalid filters", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid filters", err)
	}

	if lsMaxDepth < 0 || lsConcurrency < 0 || lsRate < 0 {
		return exitError(foundry.ExitInvalidArgument, "Invalid walk settings",
			errors.New("--max-depth, --concurrency and --rate must not be negative"))
	}

	cfg, prov, err := setupProvider(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = prov.Close() }()

	if lsWalk {
		return runLsWalk(cmd, cfg, prov, path, format, matcher, filter)
	}

	observability.CLILogger.Debug("Listing folder",
		zap.String("path", path),
		zap.Bool("deep", lsDeep),
		zap.String("remote_path", prov.RemotePath()),
		zap.Stringer("filter", filter))

	start := time.Now()
	listing, err := prov.List(ctx, path, provider.ListOptions{Deep: lsDeep})
	if err != nil {
		observability.CLILogger.Error("List failed",
			zap.String("path", path),
			zap.Int("upstream_status", provider.StatusCode(err)),
			zap.Error(err))
		return exitError(upstreamExitCode(ctx, err), "List failed", err)
	}
	if !listing.HasFolder() {
		observability.CLILogger.Warn("Response has no entry for the queried folder", zap.String("path", path))
	}

	filterListing(listing, matcher, filter)

	if format != output.FormatJSONL {
		if err := output.RenderListing(cmd.OutOrStdout(), format, listing); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
		}
		return nil
	}

	w := output.NewJSONLWriter(cmd.OutOrStdout(), uuid.New().String(), provider.ProviderWebDAV.String())
	defer func() { _ = w.Close() }()

	folders, files, bytes, err := output.WriteListing(ctx, w, listing)
	if err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
	}

	elapsed := time.Since(start)
	if err := w.WriteSummary(ctx, &output.SummaryRecord{
		Paths:         []string{path},
		Folders:       folders,
		Files:         files,
		BytesTotal:    bytes,
		Duration:      elapsed,
		DurationHuman: elapsed.Round(time.Millisecond).String(),
	}); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write summary", err)
	}

	observability.CLILogger.Debug("Listing complete",
		zap.Int64("folders", folders),
		zap.Int64("files", files),
		zap.String("bytes", match.FormatSize(bytes)),
		zap.Duration("duration", elapsed))
	return nil
}

// lsFilterConfig builds the metadata filter config from flags.
func lsFilterConfig() *match.FilterConfig {
	cfg := &match.FilterConfig{
		ContentType: lsContentTypes,
		NameRegex:   lsNameRegex,
	}
	if lsMinSize != "" || lsMaxSize != "" {
		cfg.Size = &match.SizeFilterConfig{Min: lsMinSize, Max: lsMaxSize}
	}
	if lsAfter != "" || lsBefore != "" {
		cfg.Modified = &match.DateFilterConfig{After: lsAfter, Before: lsBefore}
	}
	return cfg
}

// filterListing narrows l in place. Files must pass both the glob matcher
// and the metadata filter; folders are only dropped when hidden.
func filterListing(l *gallery.Listing, m *match.Matcher, f *match.CompositeFilter) {
	folders := l.Folders[:0]
	for _, e := range l.Folders {
		if m.MatchDir(e.Filename) {
			folders = append(folders, e)
		}
	}
	l.Folders = folders

	files := l.Files[:0]
	for i := range l.Files {
		if m.Match(l.Files[i].Filename) && f.Match(&l.Files[i]) {
			files = append(files, l.Files[i])
		}
	}
	l.Files = files
}

// runLsWalk lists path folder by folder through the crawler.
func runLsWalk(cmd *cobra.Command, cfg *config.Config, prov provider.Provider, path string, format output.Format, m *match.Matcher, f *match.CompositeFilter) error {
	ctx := cmd.Context()

	ccfg := crawler.DefaultConfig()
	ccfg.Concurrency = cfg.Workers
	if lsConcurrency > 0 {
		ccfg.Concurrency = lsConcurrency
	}
	ccfg.RateLimit = lsRate
	ccfg.MaxDepth = lsMaxDepth

	var w output.Writer
	var collector *output.ListingCollector
	if format == output.FormatJSONL {
		w = output.NewJSONLWriter(cmd.OutOrStdout(), uuid.New().String(), provider.ProviderWebDAV.String())
	} else {
		collector = output.NewListingCollector()
		w = collector
	}
	defer func() { _ = w.Close() }()

	observability.CLILogger.Debug("Walking folder",
		zap.String("path", path),
		zap.Int("concurrency", ccfg.Concurrency),
		zap.Float64("rate", ccfg.RateLimit),
		zap.Int("max_depth", ccfg.MaxDepth))

	sum, err := crawler.New(prov, m, w, ccfg).WithFilter(f).Run(ctx, path)
	if err != nil {
		observability.CLILogger.Error("Walk failed", zap.String("path", path), zap.Error(err))
		return exitError(walkExitCode(ctx, err), "Walk failed", err)
	}

	if collector != nil {
		for _, rec := range collector.Errors() {
			observability.CLILogger.Warn("Folder skipped",
				zap.String("path", rec.Path),
				zap.String("code", rec.Code),
				zap.String("message", rec.Message))
		}
		if err := output.RenderListing(cmd.OutOrStdout(), format, collector.Listing()); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
		}
	}

	observability.CLILogger.Debug("Walk complete",
		zap.Int64("folders_listed", sum.FoldersListed),
		zap.Int64("files", sum.FilesMatched),
		zap.String("bytes", match.FormatSize(sum.BytesTotal)),
		zap.Int64("folders_pruned", sum.FoldersPruned),
		zap.Int64("errors", sum.Errors),
		zap.Duration("duration", sum.Duration))
	return nil
}

// walkExitCode separates output failures from upstream ones.
func walkExitCode(ctx context.Context, err error) int {
	var we *output.WriteError
	if errors.As(err, &we) || errors.Is(err, output.ErrWriterClosed) {
		return foundry.ExitFileWriteError
	}
	return upstreamExitCode(ctx, err)
}
