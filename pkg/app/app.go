// Package app builds soiree components from a loaded configuration. The
// commands under cmd/ share it so that the server, the mock backend and
// the CLI select backends and stores the same way.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhuss/soiree/pkg/backend"
	"github.com/rhuss/soiree/pkg/backend/httpclient"
	"github.com/rhuss/soiree/pkg/backend/standin"
	"github.com/rhuss/soiree/pkg/config"
	"github.com/rhuss/soiree/pkg/storage"
	"github.com/rhuss/soiree/pkg/storage/memory"
	"github.com/rhuss/soiree/pkg/storage/postgres"
	"github.com/rhuss/soiree/pkg/submission"
	"github.com/rhuss/soiree/pkg/transport"
)

// NewBackend returns the generation backend selected by cfg.
func NewBackend(cfg config.BackendConfig) (backend.Backend, error) {
	table, err := cfg.Table()
	if err != nil {
		return nil, fmt.Errorf("response keys: %w", err)
	}

	switch cfg.Type {
	case config.BackendHTTP:
		hc := httpclient.DefaultConfig(cfg.URL)
		hc.APIKey = cfg.APIKey
		if cfg.Timeout > 0 {
			hc.Timeout = cfg.Timeout
		}
		client, err := httpclient.New(hc)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendStandIn:
		return standin.New(standin.WithLatency(cfg.Latency), standin.WithTable(table)), nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
}

// NewStore opens the record store selected by cfg.
func NewStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(cfg.MaxSize), nil
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			ConnectTimeout: cfg.Postgres.ConnectTimeout,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// ControllerFactory returns a factory creating one controller per session,
// all sharing b and the configured validation policy and mapping table.
func ControllerFactory(b backend.Backend, cfg *config.Config, logger *slog.Logger) (transport.ControllerFactory, error) {
	table, err := cfg.Backend.Table()
	if err != nil {
		return nil, fmt.Errorf("response keys: %w", err)
	}
	policy := cfg.Validation.Policy()

	return func() (*submission.Controller, error) {
		return submission.New(b,
			submission.WithLogger(logger),
			submission.WithValidationConfig(policy),
			submission.WithTable(table),
		)
	}, nil
}
