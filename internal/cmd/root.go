// Package cmd implements the davgallery command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/davgallery/internal/config"
	"github.com/3leaps/davgallery/internal/observability"
	"github.com/3leaps/davgallery/pkg/provider"
	"github.com/3leaps/davgallery/pkg/provider/webdav"
)

const binaryName = "davgallery"

var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "unknown",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata injected by the linker.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var (
	cfgFile        string
	verbose        bool
	rootEndpoint   string
	rootRemotePath string
	rootTimeout    time.Duration
	rootHeaders    []string
)

var rootCmd = &cobra.Command{
	Use:   binaryName,
	Short: "Browse WebDAV folders as photo galleries",
	Long: `davgallery lists WebDAV folders (Nextcloud, ownCloud, generic servers)
and normalizes each PROPFIND multi-status response into a gallery model:
the folder itself, its subfolders and its displayable image files.

Connection settings come from a config file, DAVGALLERY_* environment
variables, or the flags below, in increasing precedence.

Examples:
  davgallery ls /Photos --endpoint https://cloud.example.com \
    --remote-path /remote.php/dav/files/alice -H "Authorization: Basic ..."
  davgallery ls /Photos --deep --include '*.jpg' --format table
  davgallery stat /Photos/a.jpg /Photos/b.jpg
  davgallery serve --port 8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		observability.InitCLILogger(binaryName, verbose)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: <user config dir>/davgallery/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&rootEndpoint, "endpoint", "", "WebDAV server base URL")
	pf.StringVar(&rootRemotePath, "remote-path", "", "Remote base path all paths are relative to")
	pf.DurationVar(&rootTimeout, "timeout", 0, "Per-request timeout (0 keeps the configured value)")
	pf.StringArrayVarP(&rootHeaders, "header", "H", nil, "Extra request header 'Name: value' (repeatable)")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	observability.Sync()
	return err
}

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %v (exit code %d)", e.Message, e.Err, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return &ExitError{Code: code, Message: message, Err: err}
}

// ExitCode returns the exit code carried by err, 1 for other errors and
// 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}

// upstreamExitCode picks the exit code for a failed provider call.
func upstreamExitCode(ctx context.Context, err error) int {
	switch {
	case ctx.Err() != nil:
		return foundry.ExitSignalInt
	case provider.IsNotFound(err):
		return foundry.ExitFileNotFound
	default:
		return foundry.ExitExternalServiceUnavailable
	}
}

// loadConfig loads configuration with the persistent connection flags
// applied on top.
func loadConfig(cmd *cobra.Command, overrides ...map[string]any) (*config.Config, error) {
	config.SetConfigFile(cfgFile)

	webdavOverrides := map[string]any{}
	if rootEndpoint != "" {
		webdavOverrides["endpoint"] = rootEndpoint
	}
	if rootRemotePath != "" {
		webdavOverrides["remote_path"] = rootRemotePath
	}
	if rootTimeout > 0 {
		webdavOverrides["timeout"] = rootTimeout
	}
	if len(webdavOverrides) > 0 {
		overrides = append(overrides, map[string]any{"webdav": webdavOverrides})
	}

	cfg, err := config.Load(cmd.Context(), overrides...)
	if err != nil {
		return nil, err
	}

	headers, err := parseHeaders(rootHeaders)
	if err != nil {
		return nil, err
	}
	if len(headers) > 0 {
		if cfg.WebDAV.Headers == nil {
			cfg.WebDAV.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			for existing := range cfg.WebDAV.Headers {
				if strings.EqualFold(existing, k) {
					delete(cfg.WebDAV.Headers, existing)
				}
			}
			cfg.WebDAV.Headers[k] = v
		}
	}
	return cfg, nil
}

// parseHeaders parses "Name: value" flag values.
func parseHeaders(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, raw := range values {
		name, value, ok := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (expected 'Name: value')", raw)
		}
		out[http.CanonicalHeaderKey(name)] = strings.TrimSpace(value)
	}
	return out, nil
}

// newProvider builds the WebDAV provider for cfg.
func newProvider(cfg *config.Config) (*webdav.Provider, error) {
	pc := cfg.ProviderConfig()
	pc.HTTPClient = &http.Client{Timeout: cfg.WebDAV.Timeout}
	return webdav.New(pc)
}

// setupProvider loads config and builds the provider, mapping failures
// to exit codes.
func setupProvider(cmd *cobra.Command) (*config.Config, *webdav.Provider, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		observability.CLILogger.Error("Failed to load config", zap.Error(err))
		return nil, nil, exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}
	prov, err := newProvider(cfg)
	if err != nil {
		return nil, nil, exitError(foundry.ExitInvalidArgument, "Invalid WebDAV settings", err)
	}
	return cfg, prov, nil
}
