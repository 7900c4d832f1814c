package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rhuss/soiree/pkg/observability"
	"github.com/rhuss/soiree/pkg/submission"
)

var (
	// ErrSessionNotFound is returned for unknown or deleted session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionLimit is returned when the registry is full.
	ErrSessionLimit = errors.New("session limit reached")
)

// ControllerFactory creates the controller for a new session.
type ControllerFactory func() (*submission.Controller, error)

// Session is one form session.
type Session struct {
	ID         string
	Controller *submission.Controller
	CreatedAt  time.Time
}

// SessionRegistry maps session IDs to their controllers.
//
// All methods are safe for concurrent access.
type SessionRegistry struct {
	newController ControllerFactory
	maxSessions   int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry creates an empty registry. maxSessions <= 0 means
// unlimited.
func NewSessionRegistry(factory ControllerFactory, maxSessions int) *SessionRegistry {
	return &SessionRegistry{
		newController: factory,
		maxSessions:   maxSessions,
		sessions:      make(map[string]*Session),
	}
}

// Create opens a new session in the Idle state.
func (r *SessionRegistry) Create() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		return nil, ErrSessionLimit
	}

	ctrl, err := r.newController()
	if err != nil {
		return nil, fmt.Errorf("creating controller: %w", err)
	}

	s := &Session{
		ID:         uuid.NewString(),
		Controller: ctrl,
		CreatedAt:  time.Now().UTC(),
	}
	r.sessions[s.ID] = s
	observability.SessionsActive.Set(float64(len(r.sessions)))
	return s, nil
}

// Get returns the session with the given ID.
func (r *SessionRegistry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session, abandoning any in-flight submission.
func (r *SessionRegistry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		observability.SessionsActive.Set(float64(len(r.sessions)))
	}
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Controller.Reset()
	return nil
}

// Len returns the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close abandons every session. Used during shutdown.
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	observability.SessionsActive.Set(0)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Controller.Reset()
	}
}
