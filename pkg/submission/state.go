package submission

import (
	"encoding/json"
	"errors"

	"github.com/rhuss/soiree/pkg/artifact"
	"github.com/rhuss/soiree/pkg/invitation"
)

// Status identifies the active variant of a State.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// State is a snapshot of the submission state machine. Exactly one payload
// is set, matching Status: Request while Submitting, Artifact when
// Succeeded, Failure when Failed.
type State struct {
	Status   Status
	Request  *invitation.Request
	Artifact *artifact.Invitation
	Failure  *Failure
}

// clone returns a copy that shares no mutable data with s.
func (s State) clone() State {
	if s.Request != nil {
		s.Request = s.Request.Clone()
	}
	if s.Artifact != nil {
		s.Artifact = s.Artifact.Clone()
	}
	if s.Failure != nil {
		f := *s.Failure
		s.Failure = &f
	}
	return s
}

// IsTerminal reports whether the state is Succeeded or Failed.
func (s State) IsTerminal() bool {
	return s.Status == StatusSucceeded || s.Status == StatusFailed
}

type stateJSON struct {
	Status   Status               `json:"status"`
	Request  *invitation.Request  `json:"request,omitempty"`
	Artifact *artifact.Invitation `json:"artifact,omitempty"`
	Error    *Failure             `json:"error,omitempty"`
}

// MarshalJSON renders the state for presentation clients.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		Status:   s.Status,
		Request:  s.Request,
		Artifact: s.Artifact,
		Error:    s.Failure,
	})
}

// FailureKind categorizes a failed submission.
type FailureKind string

const (
	// FailureMalformedResponse means the backend answered but its response
	// violated the artifact mapping table. Resubmitting the same request is
	// unlikely to help.
	FailureMalformedResponse FailureKind = "malformed_response"

	// FailureBackendUnavailable means the backend could not be reached or
	// reported an error. Resubmitting the same request is safe.
	FailureBackendUnavailable FailureKind = "backend_unavailable"

	// FailureCancelled means the caller cancelled the in-flight submission.
	FailureCancelled FailureKind = "cancelled"
)

// Failure is the payload of the Failed state.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

// Unwrap returns the underlying cause (*artifact.MappingError,
// *backend.TransportError, context.Canceled, ...).
func (f *Failure) Unwrap() error {
	return f.Err
}

type failureJSON struct {
	Kind    FailureKind            `json:"kind"`
	Message string                 `json:"message"`
	Mapping *artifact.MappingError `json:"mapping,omitempty"`
}

// MarshalJSON renders the failure with mapping details when present.
func (f *Failure) MarshalJSON() ([]byte, error) {
	out := failureJSON{Kind: f.Kind, Message: f.Message}
	var mErr *artifact.MappingError
	if errors.As(f.Err, &mErr) {
		out.Mapping = mErr
	}
	return json.Marshal(out)
}
