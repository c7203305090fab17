package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ontogate/ontogate/internal/app"
	"github.com/ontogate/ontogate/internal/cli/ui"
)

var servePort int

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		Long: `Start the HTTP gateway and serve until interrupted.

On SIGINT or SIGTERM in-flight requests are drained within
server.shutdown_timeout, then the cache, event bus and stored query
database are closed.

Examples:
  ontogate serve
  ontogate serve --port 9090
  ONTOGATE_CACHE_ENABLED=true ontogate serve`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides server.port)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := app.Build(ctx, cfg, app.BuildInfo{Version: Version, Commit: GitCommit}, logger)
	if err != nil {
		return err
	}

	logger.Info("starting ontogate",
		zap.String("version", Version),
		zap.String("addr", cfg.Server.Address()),
		zap.String("triplestore", cfg.Triplestore.URL),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("events", cfg.Events.Enabled))

	if err := gateway.Run(ctx); err != nil {
		return err
	}
	cmd.Println(ui.FormatSuccess("ontogate stopped", noColor))
	return nil
}
