package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/soiree/pkg/artifact"
	"github.com/rhuss/soiree/pkg/backend"
	"github.com/rhuss/soiree/pkg/invitation"
)

func testRequest(t *testing.T) *invitation.Request {
	t.Helper()
	req, err := invitation.Build(invitation.Fields{
		EventType:    "birthday",
		HostNames:    "Dana",
		EventDate:    "2025-09-20",
		EventTime:    "19:30",
		Venue:        "Rooftop Bar",
		RSVPDeadline: "2025-09-01",
		GuestList:    "a@x.com,b@y.com",
	}, invitation.DefaultValidationConfig())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return req
}

func TestSubmitInvitation_Success(t *testing.T) {
	want := artifact.DefaultTable().Encode(&artifact.Invitation{
		Text:          "Happy birthday",
		VenueLocation: &artifact.Location{Latitude: 40.7, Longitude: -74},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != InvitationsPath {
			t.Errorf("expected path %s, got %s", InvitationsPath, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if body["eventType"] != "birthday" || body["rsvpDeadline"] != "2025-09-01" {
			t.Errorf("unexpected request body %v", body)
		}
		if guests, _ := body["guestList"].([]any); len(guests) != 2 {
			t.Errorf("guestList = %v, want 2 entries", body["guestList"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL + "/")
	cfg.APIKey = "sk-test"
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if c.Name() != "http" {
		t.Errorf("Name() = %q, want \"http\"", c.Name())
	}

	raw, err := c.SubmitInvitation(context.Background(), testRequest(t))
	if err != nil {
		t.Fatalf("SubmitInvitation() error: %v", err)
	}

	inv, err := artifact.Adapt(raw)
	if err != nil {
		t.Fatalf("Adapt() error: %v", err)
	}
	if inv.Text != "Happy birthday" || inv.VenueLocation.Latitude != 40.7 {
		t.Errorf("artifact = %+v", inv)
	}
}

func TestSubmitInvitation_NoAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want none", got)
		}
		w.Write([]byte(`{"output":"hi"}`))
	}))
	defer srv.Close()

	c, err := New(DefaultConfig(srv.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := c.SubmitInvitation(context.Background(), testRequest(t)); err != nil {
		t.Fatalf("SubmitInvitation() error: %v", err)
	}
}

func TestSubmitInvitation_HTTPErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "service message", status: 503, body: `{"error":{"message":"pipeline overloaded"}}`, wantMessage: "pipeline overloaded"},
		{name: "bad request default", status: 400, wantMessage: "invalid request to backend"},
		{name: "unauthorized", status: 401, wantMessage: "backend authentication failed"},
		{name: "forbidden", status: 403, wantMessage: "backend authentication failed"},
		{name: "not found", status: 404, wantMessage: "backend endpoint not found"},
		{name: "rate limited", status: 429, wantMessage: "backend rate limit exceeded"},
		{name: "server error", status: 500, body: "<html>oops</html>", wantMessage: "backend server error (HTTP 500)"},
		{name: "unexpected", status: 302, wantMessage: "unexpected backend status (HTTP 302)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, _ := New(DefaultConfig(srv.URL))
			_, err := c.SubmitInvitation(context.Background(), testRequest(t))

			var tErr *backend.TransportError
			if !errors.As(err, &tErr) {
				t.Fatalf("error = %v, want *TransportError", err)
			}
			if tErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", tErr.StatusCode, tt.status)
			}
			if tErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", tErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestSubmitInvitation_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "generated!"},
		{name: "array", body: `[{"output":"hi"}]`},
		{name: "null", body: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, _ := New(DefaultConfig(srv.URL))
			_, err := c.SubmitInvitation(context.Background(), testRequest(t))

			var tErr *backend.TransportError
			if !errors.As(err, &tErr) || tErr.StatusCode != http.StatusOK {
				t.Errorf("error = %v, want TransportError with status 200", err)
			}
		})
	}
}

func TestSubmitInvitation_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := New(DefaultConfig(url))
	_, err := c.SubmitInvitation(context.Background(), testRequest(t))

	var tErr *backend.TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if tErr.StatusCode != 0 || !strings.Contains(tErr.Message, "backend connection error") {
		t.Errorf("TransportError = %+v", tErr)
	}
}

func TestSubmitInvitation_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := New(DefaultConfig(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.SubmitInvitation(ctx, testRequest(t))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() with empty base URL should fail")
	}
}

func TestMapHTTPError_ParsesMessage(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusBadRequest,
		Body:       io.NopCloser(bytes.NewBufferString(`{"error":{"message":"venue too long","type":"invalid_request"}}`)),
	}
	tErr := mapHTTPError(resp)
	if tErr.Message != "venue too long" {
		t.Errorf("Message = %q, want parsed message", tErr.Message)
	}
}
