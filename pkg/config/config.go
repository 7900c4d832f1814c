// Package config provides unified configuration for the soiree services.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (SOIREE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/rhuss/soiree/pkg/artifact"
	"github.com/rhuss/soiree/pkg/invitation"
)

// Config holds all configuration for the soiree services.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Backend       BackendConfig       `yaml:"backend"`
	Validation    ValidationConfig    `yaml:"validation"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 60s
	MaxSessions  int           `yaml:"max_sessions"`  // default: 1000
}

// Backend types.
const (
	BackendHTTP    = "http"
	BackendStandIn = "standin"
)

// BackendConfig selects and configures the generation backend.
type BackendConfig struct {
	Type       string        `yaml:"type"`         // "http" or "standin", default: "standin"
	URL        string        `yaml:"url"`          // required for type=http
	APIKey     string        `yaml:"api_key"`      // optional
	APIKeyFile string        `yaml:"api_key_file"` // _file variant for api_key
	Timeout    time.Duration `yaml:"timeout"`      // default: 60s
	Latency    time.Duration `yaml:"latency"`      // stand-in only, default: 1.5s

	// ResponseKeys overrides opaque response keys by artifact field name,
	// e.g. {"imageUrl": "9a0c..."}.
	ResponseKeys map[string]string `yaml:"response_keys"`
}

// ValidationConfig holds request validation policy.
type ValidationConfig struct {
	EnforceRSVPDeadline bool `yaml:"enforce_rsvp_deadline"` // default: true
	DedupeGuests        bool `yaml:"dedupe_guests"`         // default: false
	MaxGuests           int  `yaml:"max_guests"`            // 0 means unlimited
}

// StorageConfig holds settings for the stand-in backend's invitation records.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "memory" or "postgres", default: "memory"
	MaxSize  int            `yaml:"max_size"` // for memory store, default: 10000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string        `yaml:"dsn"`
	DSNFile        string        `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32         `yaml:"max_conns"`        // default: 25
	ConnectTimeout time.Duration `yaml:"connect_timeout"`  // default: 10s
	MigrateOnStart bool          `yaml:"migrate_on_start"` // default: false
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// TracingConfig holds OpenTelemetry trace export settings.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`      // default: false
	Endpoint    string `yaml:"endpoint"`     // OTLP/HTTP endpoint URL, e.g. "http://localhost:4318"
	ServiceName string `yaml:"service_name"` // default: "soiree"
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // TRACE, DEBUG, INFO, WARN, ERROR; default: INFO
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // debug categories, e.g. "backend,mapping"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxSessions:  1000,
		},
		Backend: BackendConfig{
			Type:    BackendStandIn,
			Timeout: 60 * time.Second,
			Latency: 1500 * time.Millisecond,
		},
		Validation: ValidationConfig{
			EnforceRSVPDeadline: true,
		},
		Storage: StorageConfig{
			Type:    "memory",
			MaxSize: 10000,
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
			Tracing: TracingConfig{
				ServiceName: "soiree",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// Policy converts the validation section into the invitation package's
// validation policy.
func (v ValidationConfig) Policy() invitation.ValidationConfig {
	return invitation.ValidationConfig{
		EnforceRSVPDeadline: v.EnforceRSVPDeadline,
		DedupeGuests:        v.DedupeGuests,
		MaxGuests:           v.MaxGuests,
	}
}

// Table returns the artifact mapping table with any configured key
// overrides applied.
func (b BackendConfig) Table() (*artifact.Table, error) {
	if len(b.ResponseKeys) == 0 {
		return artifact.DefaultTable(), nil
	}
	overrides := make(map[artifact.Field]string, len(b.ResponseKeys))
	for field, key := range b.ResponseKeys {
		overrides[artifact.Field(field)] = key
	}
	return artifact.DefaultTable().WithKeys(overrides)
}
