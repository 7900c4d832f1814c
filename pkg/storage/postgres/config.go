package postgres

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config describes how the record store reaches PostgreSQL.
type Config struct {
	// DSN is a libpq connection string or URL. Required.
	DSN string

	// Pool bounds. Zero selects the package default.
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration

	// ConnectTimeout bounds each dial, including the startup ping.
	ConnectTimeout time.Duration

	// MigrateOnStart applies pending record schema migrations in New.
	MigrateOnStart bool
}

const (
	defaultMaxConns        = 25
	defaultMinConns        = 2
	defaultMaxConnLifetime = 5 * time.Minute
	defaultConnectTimeout  = 10 * time.Second
)

var errNoDSN = errors.New("postgres: DSN is required")

// resolve fills unset fields and rejects pool bounds that pgxpool would
// otherwise accept silently.
func (c Config) resolve() (Config, error) {
	if strings.TrimSpace(c.DSN) == "" {
		return c, errNoDSN
	}
	if c.MaxConns < 0 || c.MinConns < 0 {
		return c, fmt.Errorf("postgres: negative pool size (max %d, min %d)", c.MaxConns, c.MinConns)
	}
	if c.MaxConns == 0 {
		c.MaxConns = defaultMaxConns
	}
	if c.MinConns == 0 {
		c.MinConns = min(defaultMinConns, c.MaxConns)
	}
	if c.MinConns > c.MaxConns {
		return c, fmt.Errorf("postgres: min conns %d exceeds max conns %d", c.MinConns, c.MaxConns)
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = defaultMaxConnLifetime
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	return c, nil
}
