package backend

import "fmt"

// TransportError describes a failure to obtain a response from the backend:
// network errors, timeouts and non-2xx HTTP statuses. StatusCode is 0 when
// no HTTP response was received.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return "backend error: " + e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps a connection-level failure.
func NewNetworkError(err error) *TransportError {
	return &TransportError{
		Message: fmt.Sprintf("backend connection error: %s", err.Error()),
		Err:     err,
	}
}
