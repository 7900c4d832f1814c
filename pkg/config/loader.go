package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, SOIREE_CONFIG env, ./config.yaml, /etc/soiree/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. SOIREE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/soiree/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("SOIREE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/soiree/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps SOIREE_* environment variables to config fields.
// Malformed numeric, boolean and duration values are reported rather than
// silently ignored.
func applyEnvOverrides(cfg *Config) error {
	e := envReader{}

	e.integer("SOIREE_PORT", &cfg.Server.Port)
	e.integer("SOIREE_MAX_SESSIONS", &cfg.Server.MaxSessions)

	e.str("SOIREE_BACKEND", &cfg.Backend.Type)
	e.str("SOIREE_BACKEND_URL", &cfg.Backend.URL)
	e.str("SOIREE_API_KEY", &cfg.Backend.APIKey)
	e.duration("SOIREE_BACKEND_TIMEOUT", &cfg.Backend.Timeout)
	e.duration("SOIREE_BACKEND_LATENCY", &cfg.Backend.Latency)

	// SOIREE_RESPONSE_KEYS: JSON object of artifact field to opaque key.
	if v := os.Getenv("SOIREE_RESPONSE_KEYS"); v != "" {
		keys, err := parseResponseKeysJSON(v)
		if err != nil {
			e.errs = append(e.errs, err)
		} else {
			cfg.Backend.ResponseKeys = keys
		}
	}

	e.boolean("SOIREE_ENFORCE_RSVP_DEADLINE", &cfg.Validation.EnforceRSVPDeadline)
	e.boolean("SOIREE_DEDUPE_GUESTS", &cfg.Validation.DedupeGuests)
	e.integer("SOIREE_MAX_GUESTS", &cfg.Validation.MaxGuests)

	e.str("SOIREE_STORAGE", &cfg.Storage.Type)
	e.integer("SOIREE_STORAGE_SIZE", &cfg.Storage.MaxSize)
	e.str("SOIREE_POSTGRES_DSN", &cfg.Storage.Postgres.DSN)

	e.boolean("SOIREE_METRICS_ENABLED", &cfg.Observability.Metrics.Enabled)
	if v := os.Getenv("SOIREE_OTLP_ENDPOINT"); v != "" {
		cfg.Observability.Tracing.Endpoint = v
		cfg.Observability.Tracing.Enabled = true
	}

	e.str("SOIREE_LOG_LEVEL", &cfg.Logging.Level)
	e.str("SOIREE_LOG_FORMAT", &cfg.Logging.Format)
	e.str("SOIREE_DEBUG", &cfg.Logging.Debug)

	return e.err()
}

type envReader struct {
	errs []error
}

func (e *envReader) str(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func (e *envReader) integer(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not an integer", name, v))
		return
	}
	*dst = n
}

func (e *envReader) boolean(name string, dst *bool) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a boolean", name, v))
		return
	}
	*dst = b
}

func (e *envReader) duration(name string, dst *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a duration", name, v))
		return
	}
	*dst = d
}

func (e *envReader) err() error {
	return errors.Join(e.errs...)
}

// parseResponseKeysJSON parses a JSON object mapping artifact fields to keys.
func parseResponseKeysJSON(jsonStr string) (map[string]string, error) {
	var keys map[string]string
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing SOIREE_RESPONSE_KEYS JSON: %w", err)
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// backend.api_key_file -> backend.api_key
	if cfg.Backend.APIKeyFile != "" && cfg.Backend.APIKey == "" {
		val, err := readSecretFile(cfg.Backend.APIKeyFile)
		if err != nil {
			return fmt.Errorf("backend.api_key_file: %w", err)
		}
		cfg.Backend.APIKey = val
	}

	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
