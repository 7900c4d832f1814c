package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/soiree/pkg/invitation"
	"github.com/rhuss/soiree/pkg/observability"
	"github.com/rhuss/soiree/pkg/submission"
	"github.com/rhuss/soiree/pkg/transport"
)

// Adapter serves the session API over HTTP.
type Adapter struct {
	sessions *transport.SessionRegistry
	router   chi.Router
	config   Config
	logger   *slog.Logger
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64

	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath string

	// MaxWait bounds how long a ?wait=true submit blocks. It must stay
	// below the server write timeout or the 202 fallback is never written.
	MaxWait time.Duration
}

// writeMargin is the time reserved for writing a response after a wait ends.
const writeMargin = 5 * time.Second

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20, // 1 MB
		MetricsPath: "/metrics",
		MaxWait:     MaxWaitFor(DefaultServerConfig().WriteTimeout),
	}
}

// MaxWaitFor returns a MaxWait that fits under the given server write
// timeout. A non-positive timeout means writes never expire.
func MaxWaitFor(writeTimeout time.Duration) time.Duration {
	switch {
	case writeTimeout <= 0:
		return 2 * time.Minute
	case writeTimeout > 2*writeMargin:
		return writeTimeout - writeMargin
	default:
		return writeTimeout / 2
	}
}

// sessionView is the JSON representation of a session.
type sessionView struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"createdAt"`
	State     submission.State `json:"state"`
}

// NewAdapter creates the session API router.
func NewAdapter(sessions *transport.SessionRegistry, cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapter{
		sessions: sessions,
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
	}

	a.router.Use(
		transport.RequestID,
		transport.Recovery(logger),
		transport.Logging(logger),
		observability.MetricsMiddleware,
	)

	a.router.Get("/healthz", a.handleHealth)
	if cfg.MetricsPath != "" {
		a.router.Method(http.MethodGet, cfg.MetricsPath, promhttp.Handler())
	}

	a.router.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", a.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.handleGetSession)
			r.Delete("/", a.handleDeleteSession)
			r.Post("/submit", a.handleSubmit)
			r.Post("/reset", a.handleReset)
		})
	})

	a.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteErrorResponse(w,
			&transport.APIError{Type: transport.ErrorTypeNotFound, Message: "no route for " + r.URL.Path},
			http.StatusNotFound,
		)
	})
	a.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteErrorResponse(w,
			transport.NewInvalidRequestError("", fmt.Sprintf("method %s not allowed", r.Method)),
			http.StatusMethodNotAllowed,
		)
	})

	return a
}

// Handler returns the http.Handler for this adapter, wrapped with
// OpenTelemetry server instrumentation.
func (a *Adapter) Handler() http.Handler {
	return observability.TraceHandler(a.router, "soiree.sessions")
}

func (a *Adapter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	transport.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": a.sessions.Len(),
	})
}

// handleCreateSession handles POST /v1/sessions.
func (a *Adapter) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Create()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+s.ID)
	transport.WriteJSON(w, http.StatusCreated, view(s))
}

// handleGetSession handles GET /v1/sessions/{id}.
func (a *Adapter) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, view(s))
}

// handleDeleteSession handles DELETE /v1/sessions/{id}.
func (a *Adapter) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmit handles POST /v1/sessions/{id}/submit. The body is the raw
// form input. Without ?wait=true the reply is 202 with the Submitting
// state. With it, the reply is 200 with the terminal state, or 202 if the
// wait ends first.
func (a *Adapter) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if !isJSON(r.Header.Get("Content-Type")) {
		transport.WriteErrorResponse(w,
			transport.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	wait := false
	if v := r.URL.Query().Get("wait"); v != "" {
		wait, err = strconv.ParseBool(v)
		if err != nil {
			transport.WriteErrorResponse(w,
				transport.NewInvalidRequestError("wait", "wait must be a boolean"),
				http.StatusBadRequest,
			)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var fields invitation.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				transport.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			transport.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	// The submission outlives this request; clients cancel with reset.
	if err := s.Controller.Submit(context.WithoutCancel(r.Context()), fields); err != nil {
		a.writeError(w, r, err)
		return
	}
	if !wait {
		transport.WriteJSON(w, http.StatusAccepted, view(s))
		return
	}

	ctx := r.Context()
	if a.config.MaxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.MaxWait)
		defer cancel()
	}
	if _, err := s.Controller.Wait(ctx); err != nil {
		a.logger.Warn("wait for submission ended early",
			slog.String("session", s.ID),
			slog.String("error", err.Error()),
		)
		transport.WriteJSON(w, http.StatusAccepted, view(s))
		return
	}
	transport.WriteJSON(w, http.StatusOK, view(s))
}

// handleReset handles POST /v1/sessions/{id}/reset.
func (a *Adapter) handleReset(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	s.Controller.Reset()
	transport.WriteJSON(w, http.StatusOK, view(s))
}

// isJSON reports whether a request Content-Type names JSON. An absent header
// is accepted; parameters such as charset are ignored.
func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

func (a *Adapter) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, status := transport.APIErrorFrom(err)
	if status >= http.StatusInternalServerError {
		a.logger.LogAttrs(r.Context(), slog.LevelError, "request error",
			slog.String("request_id", transport.RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	transport.WriteErrorResponse(w, apiErr, status)
}

func view(s *transport.Session) sessionView {
	return sessionView{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		State:     s.Controller.State(),
	}
}
