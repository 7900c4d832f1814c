package storage

import (
	"context"
	"time"

	"github.com/rhuss/soiree/pkg/backend"
	"github.com/rhuss/soiree/pkg/invitation"
)

// Record is one generated invitation: the validated request and the raw
// response returned for it.
type Record struct {
	ID        string              `json:"id"`
	Request   *invitation.Request `json:"request"`
	Response  backend.RawResponse `json:"response"`
	CreatedAt time.Time           `json:"createdAt"`
}

// ListOptions controls pagination and filtering for List. Results are
// ordered newest first.
type ListOptions struct {
	// Limit caps the page size. Defaults to 20, maximum 100.
	Limit int

	// After is the ID of the last record of the previous page.
	After string

	// EventType filters by event type when set.
	EventType invitation.EventType
}

// RecordList is one page of records.
type RecordList struct {
	Data    []*Record `json:"data"`
	HasMore bool      `json:"hasMore"`
}

// Store persists generated invitation records.
type Store interface {
	// Save persists a record. Returns ErrConflict if the ID is taken.
	Save(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns a page of records.
	List(ctx context.Context, opts ListOptions) (*RecordList, error)

	// Delete removes a record by ID. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// HealthCheck verifies the store is usable.
	HealthCheck(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// PageLimit normalizes a requested page size.
func PageLimit(n int) int {
	switch {
	case n <= 0:
		return 20
	case n > 100:
		return 100
	default:
		return n
	}
}
