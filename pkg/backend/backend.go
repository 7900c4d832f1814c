package backend

import (
	"context"

	"github.com/rhuss/soiree/pkg/invitation"
)

// RawResponse is a backend response body: opaque key to JSON-decoded value
// (string, float64, bool, nil, []any or map[string]any).
type RawResponse map[string]any

// Backend generates an invitation artifact for a validated request.
//
// Implementations must be safe for concurrent use and must honor context
// cancellation. Transport-level failures are returned as *TransportError.
type Backend interface {
	SubmitInvitation(ctx context.Context, req *invitation.Request) (RawResponse, error)
}

// Func adapts an ordinary function to the Backend interface.
type Func func(ctx context.Context, req *invitation.Request) (RawResponse, error)

// SubmitInvitation calls f(ctx, req).
func (f Func) SubmitInvitation(ctx context.Context, req *invitation.Request) (RawResponse, error) {
	return f(ctx, req)
}

// Named is implemented by backends that report an identifier for metrics
// and logs.
type Named interface {
	Name() string
}

// NameOf returns the backend's name, or "custom" when it does not report one.
func NameOf(b Backend) string {
	if n, ok := b.(Named); ok {
		return n.Name()
	}
	return "custom"
}
