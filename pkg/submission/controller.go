package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rhuss/soiree/pkg/artifact"
	"github.com/rhuss/soiree/pkg/backend"
	"github.com/rhuss/soiree/pkg/debug"
	"github.com/rhuss/soiree/pkg/invitation"
	"github.com/rhuss/soiree/pkg/observability"
)

// Observer receives terminal states. reset returns the controller to Idle
// and may be called from any goroutine.
type Observer interface {
	Observe(state State, reset func())
}

// ObserverFunc adapts an ordinary function to the Observer interface.
type ObserverFunc func(state State, reset func())

// Observe calls f(state, reset).
func (f ObserverFunc) Observe(state State, reset func()) {
	f(state, reset)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithValidationConfig sets the request validation policy.
func WithValidationConfig(cfg invitation.ValidationConfig) Option {
	return func(c *Controller) { c.validation = cfg }
}

// WithTable sets the artifact mapping table used to decode responses.
func WithTable(t *artifact.Table) Option {
	return func(c *Controller) { c.table = t }
}

// WithObserver registers an observer for terminal states.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// Controller owns the submission state machine for one form session.
// All methods are safe for concurrent use.
type Controller struct {
	backend     backend.Backend
	backendName string
	table       *artifact.Table
	validation  invitation.ValidationConfig
	logger      *slog.Logger
	observers   []Observer

	mu    sync.Mutex
	state State
	// gen identifies the current submission; results carrying an older
	// generation are dropped.
	gen    uint64
	cancel context.CancelFunc
	// done is closed when the current submission leaves Submitting. It is
	// nil while Idle.
	done chan struct{}
}

// New creates a Controller in the Idle state that submits to b.
func New(b backend.Backend, opts ...Option) (*Controller, error) {
	if b == nil {
		return nil, fmt.Errorf("submission: backend is required")
	}

	c := &Controller{
		backend:     b,
		backendName: backend.NameOf(b),
		table:       artifact.DefaultTable(),
		validation:  invitation.DefaultValidationConfig(),
		logger:      slog.Default(),
		state:       State{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns a snapshot of the current state. The snapshot owns its
// request and artifact; changing them does not affect the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Submit validates the form input and, when valid, starts the backend call
// and transitions to Submitting. It does not wait for the backend; use Wait
// or an Observer for the outcome.
//
// Submit is accepted from Idle and from Failed (a retry). It returns
// ErrAlreadyInProgress while Submitting and ErrResetRequired after
// Succeeded. Invalid input returns the *invitation.ValidationError and
// leaves the state unchanged.
//
// Cancelling ctx while Submitting moves the controller to Failed with
// FailureCancelled.
func (c *Controller) Submit(ctx context.Context, fields invitation.Fields) error {
	c.mu.Lock()

	switch c.state.Status {
	case StatusSubmitting:
		c.mu.Unlock()
		observability.SubmissionsTotal.WithLabelValues(observability.OutcomeRejected).Inc()
		return ErrAlreadyInProgress
	case StatusSucceeded:
		c.mu.Unlock()
		observability.SubmissionsTotal.WithLabelValues(observability.OutcomeRejected).Inc()
		return ErrResetRequired
	}

	req, err := invitation.Build(fields, c.validation)
	if err != nil {
		c.mu.Unlock()
		observability.SubmissionsTotal.WithLabelValues(observability.OutcomeInvalid).Inc()
		c.logger.Debug("submission rejected", slog.String("error", err.Error()))
		return err
	}

	c.gen++
	gen := c.gen
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.state = State{Status: StatusSubmitting, Request: req.Clone()}
	c.mu.Unlock()

	c.logger.Info("submission started",
		slog.Uint64("generation", gen),
		slog.String("event_type", string(req.EventType)),
		slog.Int("guests", len(req.GuestList)),
		slog.String("backend", c.backendName),
	)

	go c.run(runCtx, gen, req)
	return nil
}

// Wait blocks until the current submission leaves Submitting and its
// observers have returned, or until ctx is done, then returns the state.
// While Idle it returns immediately. Observers must not call Wait.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return c.State(), nil
	}

	select {
	case <-done:
		return c.State(), nil
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}

// Reset returns the controller to Idle. It is always permitted; resetting
// while Submitting abandons the in-flight call and its result is dropped.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status == StatusSubmitting {
		c.cancel()
		close(c.done)
		c.logger.Info("in-flight submission abandoned", slog.Uint64("generation", c.gen))
	}

	c.gen++
	c.cancel = nil
	c.done = nil
	c.state = State{Status: StatusIdle}
}

// run performs the single backend call for generation gen.
func (c *Controller) run(ctx context.Context, gen uint64, req *invitation.Request) {
	ctx, span := observability.Tracer().Start(ctx, "submission.submit",
		trace.WithAttributes(
			attribute.String("invitation.event_type", string(req.EventType)),
			attribute.Int("invitation.guests", len(req.GuestList)),
			attribute.String("backend.name", c.backendName),
		),
	)
	defer span.End()

	type result struct {
		raw backend.RawResponse
		err error
	}
	resCh := make(chan result, 1)
	start := time.Now()

	go func() {
		raw, err := c.backend.SubmitInvitation(ctx, req)
		resCh <- result{raw: raw, err: err}
	}()

	var next State
	select {
	case <-ctx.Done():
		next = failed(FailureCancelled, "submission cancelled", ctx.Err())
	case r := <-resCh:
		next = c.resolve(ctx, r.raw, r.err, time.Since(start))
	}

	if next.Failure != nil {
		span.SetStatus(codes.Error, next.Failure.Error())
	}

	c.finish(gen, next, time.Since(start))
}

// resolve turns a backend result into the next terminal state.
func (c *Controller) resolve(ctx context.Context, raw backend.RawResponse, err error, latency time.Duration) State {
	observability.BackendLatency.WithLabelValues(c.backendName).Observe(latency.Seconds())

	if err != nil {
		observability.BackendRequestsTotal.WithLabelValues(c.backendName, "error").Inc()
		if ctx.Err() != nil {
			return failed(FailureCancelled, "submission cancelled", ctx.Err())
		}
		return failed(FailureBackendUnavailable, err.Error(), err)
	}
	observability.BackendRequestsTotal.WithLabelValues(c.backendName, "ok").Inc()

	inv, err := c.table.Adapt(raw)
	if err != nil {
		var mErr *artifact.MappingError
		if errors.As(err, &mErr) {
			observability.MappingFailuresTotal.WithLabelValues(string(mErr.Field)).Inc()
		}
		if debug.Enabled(debug.Mapping) {
			debug.Log(debug.Mapping, "response did not match mapping table",
				"error", err.Error(),
				"keys", slices.Sorted(maps.Keys(raw)),
			)
		}
		return failed(FailureMalformedResponse, err.Error(), err)
	}

	return State{Status: StatusSucceeded, Artifact: inv}
}

// finish applies a terminal state unless generation gen was superseded by
// Reset, then notifies observers.
func (c *Controller) finish(gen uint64, next State, elapsed time.Duration) {
	c.mu.Lock()
	if gen != c.gen || c.state.Status != StatusSubmitting {
		c.mu.Unlock()
		c.logger.Debug("dropping stale submission result", slog.Uint64("generation", gen))
		return
	}
	c.state = next
	c.cancel()
	c.cancel = nil
	done := c.done
	c.mu.Unlock()

	// Wait returns only once metrics, logs and observers are done.
	defer close(done)

	attrs := []slog.Attr{
		slog.Uint64("generation", gen),
		slog.String("status", string(next.Status)),
		slog.Duration("duration", elapsed),
	}
	if next.Failure != nil {
		observability.SubmissionsTotal.WithLabelValues(string(next.Failure.Kind)).Inc()
		attrs = append(attrs, slog.String("error", next.Failure.Error()))
		c.logger.LogAttrs(context.Background(), slog.LevelWarn, "submission failed", attrs...)
	} else {
		observability.SubmissionsTotal.WithLabelValues(observability.OutcomeSucceeded).Inc()
		c.logger.LogAttrs(context.Background(), slog.LevelInfo, "submission succeeded", attrs...)
	}

	for _, o := range c.observers {
		o.Observe(next.clone(), c.Reset)
	}
}

func failed(kind FailureKind, message string, err error) State {
	return State{
		Status:  StatusFailed,
		Failure: &Failure{Kind: kind, Message: message, Err: err},
	}
}
