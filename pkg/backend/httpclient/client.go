package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/soiree/pkg/backend"
	"github.com/rhuss/soiree/pkg/debug"
	"github.com/rhuss/soiree/pkg/invitation"
	"github.com/rhuss/soiree/pkg/observability"
)

// InvitationsPath is the generation endpoint relative to the base URL.
const InvitationsPath = "/v1/invitations"

// maxResponseBytes bounds the size of a generation response body.
const maxResponseBytes = 1 << 20

// Client submits invitation requests to a remote generation service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

var _ backend.Backend = (*Client)(nil)

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("httpclient: base URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: observability.TraceTransport(cfg.Transport),
		},
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
	}, nil
}

// Name returns "http".
func (c *Client) Name() string {
	return "http"
}

// SubmitInvitation posts req to the generation service and returns the
// decoded response object.
func (c *Client) SubmitInvitation(ctx context.Context, req *invitation.Request) (backend.RawResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+InvitationsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	debug.Log(debug.Backend, "backend request", "url", httpReq.URL.String(), "guests", len(req.GuestList))
	debug.Trace(debug.Backend, "backend request body", "body", string(body))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, backend.NewNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var raw backend.RawResponse
	dec := json.NewDecoder(http.MaxBytesReader(nil, httpResp.Body, maxResponseBytes))
	if err := dec.Decode(&raw); err != nil {
		return nil, &backend.TransportError{
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("failed to parse backend response: %s", err.Error()),
			Err:        err,
		}
	}
	if raw == nil {
		return nil, &backend.TransportError{
			StatusCode: httpResp.StatusCode,
			Message:    "backend response is not a JSON object",
		}
	}

	debug.Log(debug.Backend, "backend response", "status", httpResp.StatusCode, "keys", len(raw))
	return raw, nil
}
