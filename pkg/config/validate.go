package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rhuss/soiree/pkg/debug"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}
	if c.Server.MaxSessions <= 0 {
		errs = append(errs, fmt.Errorf("server.max_sessions must be > 0, got %d", c.Server.MaxSessions))
	}

	switch c.Backend.Type {
	case BackendHTTP:
		if c.Backend.URL == "" {
			errs = append(errs, fmt.Errorf("backend.url is required when backend.type is %q", BackendHTTP))
		} else if !strings.HasPrefix(c.Backend.URL, "http://") && !strings.HasPrefix(c.Backend.URL, "https://") {
			errs = append(errs, fmt.Errorf("backend.url must be an http(s) URL, got %q", c.Backend.URL))
		}
	case BackendStandIn:
		if c.Backend.Latency < 0 {
			errs = append(errs, fmt.Errorf("backend.latency must be >= 0, got %s", c.Backend.Latency))
		}
	default:
		errs = append(errs, fmt.Errorf("backend.type must be %q or %q, got %q", BackendHTTP, BackendStandIn, c.Backend.Type))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("backend.timeout must be > 0, got %s", c.Backend.Timeout))
	}
	if _, err := c.Backend.Table(); err != nil {
		errs = append(errs, fmt.Errorf("backend.response_keys: %w", err))
	}

	if c.Validation.MaxGuests < 0 {
		errs = append(errs, fmt.Errorf("validation.max_guests must be >= 0, got %d", c.Validation.MaxGuests))
	}

	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
		if c.Storage.Postgres.ConnectTimeout < 0 {
			errs = append(errs, fmt.Errorf("storage.postgres.connect_timeout must be >= 0, got %s", c.Storage.Postgres.ConnectTimeout))
		}
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}
	if c.Observability.Tracing.Enabled {
		if ep := c.Observability.Tracing.Endpoint; ep == "" {
			errs = append(errs, fmt.Errorf("observability.tracing.endpoint is required when tracing is enabled"))
		} else if u, err := url.Parse(ep); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("observability.tracing.endpoint must be an http(s) URL, got %q", ep))
		}
	}

	if _, ok := debug.LookupLevel(c.Logging.Level); !ok {
		errs = append(errs, fmt.Errorf("logging.level must be one of TRACE, DEBUG, INFO, WARN, ERROR, got %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
