// Command server runs the soiree session API.
//
// Configuration is read from a YAML file and SOIREE_* environment
// variables (see pkg/config). The most common overrides:
//
//	SOIREE_CONFIG        - Path to the config file
//	SOIREE_PORT          - Listen port (default: 8080)
//	SOIREE_BACKEND       - Backend type: "http" or "standin" (default: "standin")
//	SOIREE_BACKEND_URL   - Generation service URL (required for "http")
//	SOIREE_OTLP_ENDPOINT - Enables trace export to this OTLP/HTTP endpoint
//	SOIREE_LOG_LEVEL     - TRACE, DEBUG, INFO, WARN or ERROR (default: INFO)
//	SOIREE_DEBUG         - Debug categories: backend, submission, mapping, transport, storage, all
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rhuss/soiree/pkg/app"
	"github.com/rhuss/soiree/pkg/backend"
	"github.com/rhuss/soiree/pkg/config"
	"github.com/rhuss/soiree/pkg/debug"
	"github.com/rhuss/soiree/pkg/observability"
	"github.com/rhuss/soiree/pkg/transport"
	transporthttp "github.com/rhuss/soiree/pkg/transport/http"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve the soiree invitation session API",
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
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML config file")
	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	if cfg.Observability.Tracing.Enabled {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing.ServiceName, cfg.Observability.Tracing.Endpoint)
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("tracing shutdown failed", "error", err)
			}
		}()
		logger.Info("tracing enabled", "endpoint", cfg.Observability.Tracing.Endpoint)
	}

	b, err := app.NewBackend(cfg.Backend)
	if err != nil {
		return fmt.Errorf("creating backend: %w", err)
	}

	factory, err := app.ControllerFactory(b, cfg, logger)
	if err != nil {
		return err
	}
	sessions := transport.NewSessionRegistry(factory, cfg.Server.MaxSessions)
	defer sessions.Close()

	adapterCfg := transporthttp.DefaultConfig()
	adapterCfg.MetricsPath = ""
	adapterCfg.MaxWait = transporthttp.MaxWaitFor(cfg.Server.WriteTimeout)
	if cfg.Observability.Metrics.Enabled {
		adapterCfg.MetricsPath = cfg.Observability.Metrics.Path
	}
	adapter := transporthttp.NewAdapter(sessions, adapterCfg, logger)

	srv := transporthttp.NewServer(adapter.Handler(),
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithLogger(logger),
	)

	logger.Info("soiree server configured",
		"port", cfg.Server.Port,
		"backend", backend.NameOf(b),
		"max_sessions", cfg.Server.MaxSessions,
		"enforce_rsvp_deadline", cfg.Validation.EnforceRSVPDeadline,
	)
	return srv.Run(ctx)
}
