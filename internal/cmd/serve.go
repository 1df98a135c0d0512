package cmd

import (
	"context"
	"errors"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/davgallery/internal/config"
	"github.com/3leaps/davgallery/internal/observability"
	"github.com/3leaps/davgallery/internal/server"
	"github.com/3leaps/davgallery/internal/server/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve gallery listings over HTTP",
	Long: `Start the HTTP API.

Endpoints:
  GET /api/v1/list?path=/Photos&deep=true   folder model (folder, folders, files)
  GET /api/v1/stat?path=/Photos/a.jpg       single normalized entry
  GET /health, /health/live, /health/ready, /health/startup
  GET /version

Upstream 404, 401 and 403 are passed through; other upstream failures
return 502, and an expired upstream deadline returns 504.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	overrides := map[string]any{}
	if serveHost != "" {
		overrides["host"] = serveHost
	}
	if servePort != 0 {
		overrides["port"] = servePort
	}

	cfg, err := loadConfig(cmd, map[string]any{"server": overrides})
	if err != nil {
		observability.CLILogger.Error("Failed to load config", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}
	observability.InitServerLogger(binaryName, cfg.Logging.Level, cfg.Logging.Profile)

	prov, err := newProvider(cfg)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid WebDAV settings", err)
	}
	defer func() { _ = prov.Close() }()

	handlers.InitHealthManager(versionInfo.Version)
	hm := handlers.GetHealthManager()
	hm.RegisterChecker("config", configHealthChecker{})
	hm.RegisterChecker("webdav", handlers.NewGalleryHandler(prov))

	srv := server.New(cfg.Server.Host, cfg.Server.Port,
		server.WithProvider(prov),
		server.WithVersion(handlers.VersionInfo{
			Version:   versionInfo.Version,
			Commit:    versionInfo.Commit,
			BuildDate: versionInfo.BuildDate,
		}),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout, cfg.Server.ShutdownTimeout),
	)

	observability.CLILogger.Info("Starting davgallery server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", srv.Port()),
		zap.String("endpoint", cfg.WebDAV.Endpoint),
		zap.String("remote_path", prov.RemotePath()),
		zap.Strings("mimes", cfg.Gallery.Mimes))

	if err := srv.Start(ctx); err != nil {
		observability.CLILogger.Error("Server failed", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
	}
	observability.CLILogger.Info("Server stopped")
	return nil
}

// configHealthChecker reports whether a usable configuration is loaded.
type configHealthChecker struct{}

func (configHealthChecker) CheckHealth(ctx context.Context) error {
	cfg := config.GetConfig()
	if cfg == nil {
		return errors.New("configuration not loaded")
	}
	if cfg.WebDAV.Endpoint == "" {
		return errors.New("webdav endpoint not configured")
	}
	return nil
}
