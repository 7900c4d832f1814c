package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/soiree/pkg/backend"
	"github.com/rhuss/soiree/pkg/backend/standin"
	"github.com/rhuss/soiree/pkg/invitation"
	"github.com/rhuss/soiree/pkg/submission"
	"github.com/rhuss/soiree/pkg/transport"
)

func validFields() invitation.Fields {
	return invitation.Fields{
		EventType:    "wedding",
		HostNames:    "Alice & Bob",
		EventDate:    "2025-06-01",
		EventTime:    "18:00",
		Venue:        "Garden Hall",
		RSVPDeadline: "2025-05-01",
		GuestList:    "a@x.com, b@y.com",
	}
}

// newTestAdapter builds an adapter whose sessions submit to b.
func newTestAdapter(t *testing.T, b backend.Backend, maxSessions int) *httptest.Server {
	t.Helper()
	return newTestAdapterConfig(t, b, maxSessions, DefaultConfig())
}

func newTestAdapterConfig(t *testing.T, b backend.Backend, maxSessions int, cfg Config) *httptest.Server {
	t.Helper()
	registry := transport.NewSessionRegistry(func() (*submission.Controller, error) {
		return submission.New(b)
	}, maxSessions)
	t.Cleanup(registry.Close)

	srv := httptest.NewServer(NewAdapter(registry, cfg, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

// gatedBackend blocks until release is closed.
func gatedBackend(release <-chan struct{}) backend.Backend {
	return backend.Func(func(ctx context.Context, req *invitation.Request) (backend.RawResponse, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return standin.New(standin.WithLatency(0)).SubmitInvitation(ctx, req)
	})
}

type sessionBody struct {
	ID    string `json:"id"`
	State struct {
		Status   string          `json:"status"`
		Artifact json.RawMessage `json:"artifact"`
		Error    json.RawMessage `json:"error"`
	} `json:"state"`
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	} else {
		r = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeSession(t *testing.T, resp *http.Response) sessionBody {
	t.Helper()
	var s sessionBody
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return s
}

func decodeError(t *testing.T, resp *http.Response) transport.APIError {
	t.Helper()
	var body transport.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Error == nil {
		t.Fatal("error body missing")
	}
	return *body.Error
}

func createSession(t *testing.T, base string) string {
	t.Helper()
	resp := do(t, http.MethodPost, base+"/v1/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	s := decodeSession(t, resp)
	if got := resp.Header.Get("Location"); got != "/v1/sessions/"+s.ID {
		t.Errorf("Location = %q, want %q", got, "/v1/sessions/"+s.ID)
	}
	if s.State.Status != "idle" {
		t.Errorf("new session status = %q, want idle", s.State.Status)
	}
	return s.ID
}

func waitForStatus(t *testing.T, url, want string) sessionBody {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		s := decodeSession(t, do(t, http.MethodGet, url, nil))
		if s.State.Status == want {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("status = %q, want %q", s.State.Status, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCreateAndGetSession(t *testing.T) {
	srv := newTestAdapter(t, standin.New(standin.WithLatency(0)), 0)
	id := createSession(t, srv.URL)

	resp := do(t, http.MethodGet, srv.URL+"/v1/sessions/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if s := decodeSession(t, resp); s.ID != id {
		t.Errorf("id = %q, want %q", s.ID, id)
	}
}

func TestGetUnknownSession(t *testing.T) {
	srv := newTestAdapter(t, standin.New(standin.WithLatency(0)), 0)

	resp := do(t, http.MethodGet, srv.URL+"/v1/sessions/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if e := decodeError(t, resp); e.Type != transport.ErrorTypeNotFound {
		t.Errorf("type = %q, want %q", e.Type, transport.ErrorTypeNotFound)
	}
}

func TestSessionLimit(t *testing.T) {
	srv := newTestAdapter(t, standin.New(standin.WithLatency(0)), 1)
	createSession(t, srv.URL)

	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestSubmitWait(t *testing.T) {
	srv := newTestAdapter(t, standin.New(standin.WithLatency(0)), 0)
	id := createSession(t, srv.URL)

	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+id+"/submit?wait=true", validFields())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	s := decodeSession(t, resp)
	if s.State.Status != "succeeded" {
		t.Fatalf("status = %q, want succeeded", s.State.Status)
	}

	var art struct {
		Text    string `json:"invitationText"`
		Receipt struct {
			Labels []string `json:"labels"`
		} `json:"deliveryReceipt"`
	}
	if err := json.Unmarshal(s.State.Artifact, &art); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if !strings.Contains(art.Text, "Alice & Bob") {
		t.Errorf("artifact text %q does not name the hosts", art.Text)
	}
}

func TestSubmitAsync(t *testing.T) {
	release := make(chan struct{})
	srv := newTestAdapter(t, gatedBackend(release), 0)
	id := createSession(t, srv.URL)
	url := srv.URL + "/v1/sessions/" + id

	resp := do(t, http.MethodPost, url+"/submit", validFields())
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	if s := decodeSession(t, resp); s.State.Status != "submitting" {
		t.Errorf("status = %q, want submitting", s.State.Status)
	}

	// A second submit while in flight is rejected.
	resp = do(t, http.MethodPost, url+"/submit", validFields())
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second submit status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	if e := decodeError(t, resp); e.Type != transport.ErrorTypeConflict {
		t.Errorf("type = %q, want %q", e.Type, transport.ErrorTypeConflict)
	}

	close(release)
	waitForStatus(t, url, "succeeded")

	// Succeeded requires a reset before the next submit.
	resp = do(t, http.MethodPost, url+"/submit", validFields())
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("submit after success status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	resp = do(t, http.MethodPost, url+"/reset", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if s := decodeSession(t, resp); s.State.Status != "idle" {
		t.Errorf("status after reset = %q, want idle", s.State.Status)
	}
}

func TestResetWhileSubmitting(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	srv := newTestAdapter(t, gatedBackend(release), 0)
	id := createSession(t, srv.URL)
	url := srv.URL + "/v1/sessions/" + id

	if resp := do(t, http.MethodPost, url+"/submit", validFields()); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	resp := do(t, http.MethodPost, url+"/reset", nil)
	if s := decodeSession(t, resp); s.State.Status != "idle" {
		t.Errorf("status after reset = %q, want idle", s.State.Status)
	}
}

func TestSubmitValidationError(t *testing.T) {
	srv := newTestAdapter(t, standin.New(standin.WithLatency(0)), 0)
	id := createSession(t, srv.URL)

	f := validFields()
	f.GuestList = "a@x.com, not-an-email, b@"
	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+id+"/submit", f)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	e := decodeError(t, resp)
	if e.Kind != invitation.KindMalformedAddress {
		t.Errorf("kind = %q, want %q", e.Kind, invitation.KindMalformedAddress)
	}
	if len(e.Offenders) != 2 || e.Offenders[0] != "not-an-email" || e.Offenders[1] != "b@" {
		t.Errorf("offenders = %v, want [not-an-email b@]", e.Offenders)
	}

	// The session stays idle and can be submitted again.
	s := decodeSession(t, do(t, http.MethodGet, srv.URL+"/v1/sessions/"+id, nil))
	if s.State.Status != "idle" {
		t.Errorf("status = %q, want idle", s.State.Status)
	}
}

func TestSubmitBackendFailure(t *testing.T) {
	failing := backend.Func(func(context.Context, *invitation.Request) (backend.RawResponse, error) {
		return nil, &backend.TransportError{StatusCode: http.StatusBadGateway, Message: "upstream down"}
	})
	srv := newTestAdapter(t, failing, 0)
	id := createSession(t, srv.URL)

	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+id+"/submit?wait=true", validFields())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	s := decodeSession(t, resp)
	if s.State.Status != "failed" {
		t.Fatalf("status = %q, want failed", s.State.Status)
	}
	var f struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(s.State.Error, &f); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if f.Kind != string(submission.FailureBackendUnavailable) {
		t.Errorf("kind = %q, want %q", f.Kind, submission.FailureBackendUnavailable)
	}
}

func TestSubmitBadRequests(t *testing.T) {
	srv := newTestAdapter(t, standin.New(standin.WithLatency(0)), 0)
	id := createSession(t, srv.URL)
	url := srv.URL + "/v1/sessions/" + id + "/submit"

	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		want        int
	}{
		{"invalid JSON", url, "application/json", "{not json", http.StatusBadRequest},
		{"wrong content type", url, "text/plain", "{}", http.StatusUnsupportedMediaType},
		{"malformed content type", url, "application/json; charset", "{}", http.StatusUnsupportedMediaType},
		{"json with other subtype", url, "application/jsonp", "{}", http.StatusUnsupportedMediaType},
		{"bad wait flag", url + "?wait=maybe", "application/json", "{}", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestSubmitContentTypeParameters(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
	}{
		{"charset", "application/json; charset=utf-8"},
		{"upper case", "Application/JSON"},
		{"absent", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestAdapter(t, standin.New(standin.WithLatency(0)), 0)
			id := createSession(t, srv.URL)

			data, _ := json.Marshal(validFields())
			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/sessions/"+id+"/submit", bytes.NewReader(data))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusAccepted {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
			}
		})
	}
}

func TestSubmitWaitBounded(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	cfg := DefaultConfig()
	cfg.MaxWait = 50 * time.Millisecond
	srv := newTestAdapterConfig(t, gatedBackend(release), 0, cfg)
	id := createSession(t, srv.URL)

	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+id+"/submit?wait=true", validFields())
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	if s := decodeSession(t, resp); s.State.Status != "submitting" {
		t.Errorf("status = %q, want submitting", s.State.Status)
	}
}

func TestMaxWaitFor(t *testing.T) {
	tests := []struct {
		name  string
		write time.Duration
		want  time.Duration
	}{
		{"default write timeout", 60 * time.Second, 55 * time.Second},
		{"short write timeout", 4 * time.Second, 2 * time.Second},
		{"no write timeout", 0, 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxWaitFor(tt.write)
			if got != tt.want {
				t.Errorf("MaxWaitFor(%s) = %s, want %s", tt.write, got, tt.want)
			}
			if tt.write > 0 && got >= tt.write {
				t.Errorf("MaxWaitFor(%s) = %s, not below the write timeout", tt.write, got)
			}
		})
	}

	if got := DefaultConfig().MaxWait; got >= DefaultServerConfig().WriteTimeout {
		t.Errorf("default MaxWait %s is not below default write timeout %s", got, DefaultServerConfig().WriteTimeout)
	}
}

func TestSubmitBodyTooLarge(t *testing.T) {
	registry := transport.NewSessionRegistry(func() (*submission.Controller, error) {
		return submission.New(standin.New(standin.WithLatency(0)))
	}, 0)
	cfg := DefaultConfig()
	cfg.MaxBodySize = 16
	srv := httptest.NewServer(NewAdapter(registry, cfg, nil).Handler())
	defer srv.Close()

	id := createSession(t, srv.URL)
	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+id+"/submit", validFields())
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newTestAdapter(t, standin.New(standin.WithLatency(0)), 0)
	id := createSession(t, srv.URL)

	resp := do(t, http.MethodDelete, srv.URL+"/v1/sessions/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp = do(t, http.MethodGet, srv.URL+"/v1/sessions/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp = do(t, http.MethodDelete, srv.URL+"/v1/sessions/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestRoutingErrors(t *testing.T) {
	srv := newTestAdapter(t, standin.New(standin.WithLatency(0)), 0)

	resp := do(t, http.MethodGet, srv.URL+"/v1/unknown", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	resp = do(t, http.MethodPut, srv.URL+"/v1/sessions", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("wrong method status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestAdapter(t, standin.New(standin.WithLatency(0)), 0)
	createSession(t, srv.URL)

	resp := do(t, http.MethodGet, srv.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var health struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Sessions != 1 {
		t.Errorf("health = %+v, want ok with 1 session", health)
	}

	resp = do(t, http.MethodGet, srv.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "soiree_sessions_active") {
		t.Error("metrics output missing soiree_sessions_active")
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestAdapter(t, standin.New(standin.WithLatency(0)), 0)

	resp := do(t, http.MethodGet, srv.URL+"/healthz", nil)
	if resp.Header.Get(transport.RequestIDHeader) == "" {
		t.Errorf("%s header not set", transport.RequestIDHeader)
	}
}
