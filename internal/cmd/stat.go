package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/3leaps/davgallery/internal/observability"
	"github.com/3leaps/davgallery/pkg/gallery"
	"github.com/3leaps/davgallery/pkg/output"
	"github.com/3leaps/davgallery/pkg/provider"
)

var statCmd = &cobra.Command{
	Use:   "stat <path>... | --stdin",
	Short: "Show the normalized entry for one or more paths",
	Long: `Stat issues one Depth: 0 PROPFIND per path and prints the normalized entry.

Paths are read from arguments, or one per line from stdin with --stdin
(blank lines and lines starting with '#' are skipped). Up to --concurrency
requests run at once; --rate caps requests per second.

A failed path does not stop the others: in jsonl output it becomes a
davgallery.error.v1 record. Results are printed in input order.

Examples:
  davgallery stat /Photos/a.jpg /Photos/b.jpg
  davgallery stat /
  cat paths.txt | davgallery stat --stdin --concurrency 8 --rate 20`,
	RunE: runStat,
}

var (
	statStdin       bool
	statConcurrency int
	statRate        float64
	statFormat      string
)

func init() {
	rootCmd.AddCommand(statCmd)

	statCmd.Flags().BoolVar(&statStdin, "stdin", false, "Read paths from stdin (one per line)")
	statCmd.Flags().IntVar(&statConcurrency, "concurrency", 0, "Max concurrent requests (0 uses the workers setting)")
	statCmd.Flags().Float64Var(&statRate, "rate", 0, "Max requests per second (0 = unlimited)")
	statCmd.Flags().StringVarP(&statFormat, "format", "o", "jsonl", "Output format (jsonl|json|yaml|table)")
}

// statResult holds the outcome for one input path.
type statResult struct {
	path  string
	entry *gallery.Entry
	err   error
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := output.ParseFormat(statFormat)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid --format value", err)
	}
	if statConcurrency < 0 {
		return exitError(foundry.ExitInvalidArgument, "Invalid --concurrency value", fmt.Errorf("concurrency must be >= 0"))
	}
	if statRate < 0 {
		return exitError(foundry.ExitInvalidArgument, "Invalid --rate value", fmt.Errorf("rate must be >= 0"))
	}

	inputs := append([]string{}, args...)
	if statStdin {
		if len(args) > 0 {
			return exitError(foundry.ExitInvalidArgument, "Paths and --stdin are mutually exclusive", fmt.Errorf("got %d path arguments", len(args)))
		}
		lines, err := readPathLines(cmd.InOrStdin())
		if err != nil {
			return exitError(foundry.ExitInvalidArgument, "Failed to read stdin", err)
		}
		inputs = lines
	}
	if len(inputs) == 0 {
		if statStdin {
			return nil
		}
		return exitError(foundry.ExitInvalidArgument, "No paths given", fmt.Errorf("pass at least one path or use --stdin"))
	}

	cfg, prov, err := setupProvider(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = prov.Close() }()

	concurrency := statConcurrency
	if concurrency == 0 {
		concurrency = cfg.Workers
	}

	var limiter *rate.Limiter
	if statRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(statRate), 1)
	}

	start := time.Now()
	results := make([]statResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range inputs {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			entry, err := prov.Stat(gctx, p)
			results[i] = statResult{path: p, entry: entry, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil || ctx.Err() != nil {
		if err == nil {
			err = ctx.Err()
		}
		return exitError(foundry.ExitSignalInt, "stat cancelled", err)
	}

	var errCount, notFound int64
	for _, r := range results {
		if r.err == nil {
			continue
		}
		errCount++
		if provider.IsNotFound(r.err) {
			notFound++
		}
		observability.CLILogger.Debug("Stat failed",
			zap.String("path", r.path),
			zap.Int("upstream_status", provider.StatusCode(r.err)),
			zap.Error(r.err))
	}

	if format == output.FormatJSONL {
		if err := writeStatJSONL(cmd, results, errCount, time.Since(start)); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
		}
	} else {
		entries := make([]gallery.Entry, 0, len(results))
		for _, r := range results {
			if r.err != nil {
				observability.CLILogger.Error("Stat failed", zap.String("path", r.path), zap.Error(r.err))
				continue
			}
			entries = append(entries, *r.entry)
		}
		if err := output.RenderEntries(cmd.OutOrStdout(), format, entries); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
		}
	}

	switch {
	case errCount == 0:
		return nil
	case notFound == errCount:
		return exitError(foundry.ExitFileNotFound, "stat completed with missing paths", fmt.Errorf("not_found=%d", notFound))
	default:
		return exitError(foundry.ExitExternalServiceUnavailable, "stat completed with errors", fmt.Errorf("errors=%d", errCount))
	}
}

func writeStatJSONL(cmd *cobra.Command, results []statResult, errCount int64, elapsed time.Duration) error {
	ctx := cmd.Context()
	w := output.NewJSONLWriter(cmd.OutOrStdout(), uuid.New().String(), provider.ProviderWebDAV.String())
	defer func() { _ = w.Close() }()

	sum := &output.SummaryRecord{Errors: errCount}
	for _, r := range results {
		sum.Paths = append(sum.Paths, r.path)
		if r.err != nil {
			if err := w.WriteError(ctx, output.NewErrorRecord(r.path, r.err)); err != nil {
				return err
			}
			continue
		}
		if err := w.WriteEntry(ctx, r.entry); err != nil {
			return err
		}
		if r.entry.IsDir() {
			sum.Folders++
		} else {
			sum.Files++
			sum.BytesTotal += r.entry.Size
		}
	}

	sum.Duration = elapsed
	sum.DurationHuman = elapsed.Round(time.Millisecond).String()
	return w.WriteSummary(ctx, sum)
}

// readPathLines reads one path per line, skipping blanks and comments.
func readPathLines(r io.Reader) ([]string, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)

	var out []string
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
