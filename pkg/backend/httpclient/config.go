package httpclient

import (
	"net/http"
	"time"
)

// Config holds configuration for the HTTP backend client.
type Config struct {
	// BaseURL is the generation service URL (e.g., "http://localhost:9000").
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout for individual HTTP requests. Defaults to 60s.
	Timeout time.Duration

	// Transport overrides the underlying round tripper. The client wraps it
	// with OpenTelemetry instrumentation. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 60 * time.Second,
	}
}
