// Command mock-backend serves the stand-in invitation generator over HTTP
// so that the server's "http" backend can be exercised end to end. Every
// generated invitation is recorded in the configured store.
//
// Configuration is read like the server's (see pkg/config); the backend
// section supplies latency and response keys, the storage section selects
// the record store, and backend.api_key, when set, is required as a bearer
// token on the generation API. The listen port comes from MOCK_PORT (default: 9090).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rhuss/soiree/pkg/app"
	"github.com/rhuss/soiree/pkg/backend/standin"
	"github.com/rhuss/soiree/pkg/config"
	"github.com/rhuss/soiree/pkg/debug"
	"github.com/rhuss/soiree/pkg/observability"
	transporthttp "github.com/rhuss/soiree/pkg/transport/http"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("mock backend failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		port       string
	)

	cmd := &cobra.Command{
		Use:           "mock-backend",
		Short:         "Serve deterministic invitation artifacts over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			debug.Setup(os.Stderr, debug.Options{
				Level:      cfg.Logging.Level,
				Format:     cfg.Logging.Format,
				Categories: cfg.Logging.Debug,
			})
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return run(ctx, cfg, port)
		},
	}

	defaultPort := os.Getenv("MOCK_PORT")
	if defaultPort == "" {
		defaultPort = "9090"
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML config file")
	cmd.Flags().StringVar(&port, "port", defaultPort, "Listen port")
	return cmd
}

func run(parent context.Context, cfg *config.Config, port string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	table, err := cfg.Backend.Table()
	if err != nil {
		return err
	}

	store, err := app.NewStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("storage enabled", "type", cfg.Storage.Type)

	h := newHandler(
		standin.New(standin.WithLatency(cfg.Backend.Latency), standin.WithTable(table)),
		store,
		cfg.Backend.APIKey,
		logger,
	)

	srv := transporthttp.NewServer(observability.TraceHandler(h.routes(), "soiree.mock-backend"),
		transporthttp.WithAddr(":"+port),
		transporthttp.WithLogger(logger),
	)
	return srv.Run(ctx)
}
