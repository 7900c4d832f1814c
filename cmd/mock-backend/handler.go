package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/soiree/pkg/backend/httpclient"
	"github.com/rhuss/soiree/pkg/backend/standin"
	"github.com/rhuss/soiree/pkg/debug"
	"github.com/rhuss/soiree/pkg/invitation"
	"github.com/rhuss/soiree/pkg/observability"
	"github.com/rhuss/soiree/pkg/storage"
	"github.com/rhuss/soiree/pkg/transport"
)

const maxBodySize = 1 << 20

// handler serves the generation API consumed by httpclient.
type handler struct {
	gen    *standin.Backend
	store  storage.Store
	apiKey string
	logger *slog.Logger
}

func newHandler(gen *standin.Backend, store storage.Store, apiKey string, logger *slog.Logger) *handler {
	return &handler{gen: gen, store: store, apiKey: apiKey, logger: logger}
}

func (h *handler) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		transport.RequestID,
		transport.Recovery(h.logger),
		transport.Logging(h.logger),
		observability.MetricsMiddleware,
		requireAPIKey(h.apiKey, h.logger),
	)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post(httpclient.InvitationsPath, h.handleCreate)
	r.Get(httpclient.InvitationsPath, h.handleList)
	r.Get(httpclient.InvitationsPath+"/{id}", h.handleGet)
	r.Delete(httpclient.InvitationsPath+"/{id}", h.handleDelete)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	return r
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// handleCreate generates an invitation and replies with the raw opaque-key
// response, exactly what a real generation pipeline returns.
func (h *handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req invitation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	raw, err := h.gen.SubmitInvitation(r.Context(), &req)
	if err != nil {
		// The client went away during the simulated latency.
		h.logger.Debug("generation abandoned", "error", err)
		return
	}

	rec := &storage.Record{
		ID:        uuid.NewString(),
		Request:   &req,
		Response:  raw,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Save(r.Context(), rec); err != nil {
		h.logger.Error("saving invitation record", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "could not record invitation")
		return
	}

	debug.Log(debug.Storage, "invitation record saved", "id", rec.ID)
	h.logger.Info("invitation generated",
		"id", rec.ID,
		"event_type", string(req.EventType),
		"guests", len(req.GuestList),
	)
	w.Header().Set("Location", httpclient.InvitationsPath+"/"+rec.ID)
	transport.WriteJSON(w, http.StatusOK, raw)
}

func (h *handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, rec)
}

func (h *handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleList handles GET /v1/invitations?limit=&after=&event_type=.
func (h *handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := storage.ListOptions{After: q.Get("after")}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_error", "limit must be an integer")
			return
		}
		opts.Limit = n
	}
	if v := q.Get("event_type"); v != "" {
		et, ok := invitation.ParseEventType(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_request_error", "unknown event type "+strconv.Quote(v))
			return
		}
		opts.EventType = et
	}

	list, err := h.store.List(r.Context(), opts)
	if err != nil {
		h.storeError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	h.logger.Error("store error", "error", err)
	writeError(w, http.StatusInternalServerError, "server_error", "internal server error")
}

// writeError writes the {"error": {"message", "type"}} body httpclient
// understands.
func writeError(w http.ResponseWriter, status int, errType, message string) {
	transport.WriteJSON(w, status, map[string]any{
		"error": map[string]string{
			"message": message,
			"type":    errType,
		},
	})
}
