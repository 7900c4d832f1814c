package invitation

import (
	"fmt"
	"strings"
)

// ValidationKind categorizes a user input problem.
type ValidationKind string

const (
	KindEmptyList          ValidationKind = "empty_list"
	KindMalformedAddress   ValidationKind = "malformed_address"
	KindUnknownEventType   ValidationKind = "unknown_event_type"
	KindMissingField       ValidationKind = "missing_field"
	KindMalformedField     ValidationKind = "malformed_field"
	KindDeadlineAfterEvent ValidationKind = "deadline_after_event"
	KindTooManyGuests      ValidationKind = "too_many_guests"
)

// ValidationError describes why user input could not become a Request.
// It is recoverable in place: the user corrects the field and resubmits.
type ValidationError struct {
	Kind      ValidationKind `json:"kind"`
	Field     string         `json:"field,omitempty"`
	Offenders []string       `json:"offenders,omitempty"`
	Message   string         `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Field != "" {
		fmt.Fprintf(&b, " (field: %s)", e.Field)
	}
	if len(e.Offenders) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Offenders, ", "))
	}
	return b.String()
}

// NewMissingFieldError reports a required field left blank.
func NewMissingFieldError(field string) *ValidationError {
	return &ValidationError{
		Kind:    KindMissingField,
		Field:   field,
		Message: field + " is required",
	}
}

// NewMalformedFieldError reports a field whose value cannot be parsed.
func NewMalformedFieldError(field, message string) *ValidationError {
	return &ValidationError{
		Kind:    KindMalformedField,
		Field:   field,
		Message: message,
	}
}
