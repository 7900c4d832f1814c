package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rhuss/soiree/pkg/invitation"
	"github.com/rhuss/soiree/pkg/submission"
)

// Error types carried in JSON error bodies.
const (
	ErrorTypeInvalidRequest = "invalid_request"
	ErrorTypeConflict       = "conflict"
	ErrorTypeNotFound       = "not_found"
	ErrorTypeUnavailable    = "unavailable"
	ErrorTypeServerError    = "server_error"
)

// APIError is the error object of an ErrorResponse.
type APIError struct {
	Type      string                    `json:"type"`
	Message   string                    `json:"message"`
	Field     string                    `json:"field,omitempty"`
	Kind      invitation.ValidationKind `json:"kind,omitempty"`
	Offenders []string                  `json:"offenders,omitempty"`
}

// ErrorResponse wraps an APIError for serialization.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError returns an invalid_request error for a field.
func NewInvalidRequestError(field, message string) *APIError {
	return &APIError{Type: ErrorTypeInvalidRequest, Field: field, Message: message}
}

// APIErrorFrom converts a domain error into an APIError and HTTP status.
func APIErrorFrom(err error) (*APIError, int) {
	var vErr *invitation.ValidationError
	switch {
	case errors.As(err, &vErr):
		return &APIError{
			Type:      ErrorTypeInvalidRequest,
			Message:   vErr.Message,
			Field:     vErr.Field,
			Kind:      vErr.Kind,
			Offenders: vErr.Offenders,
		}, http.StatusBadRequest
	case errors.Is(err, submission.ErrAlreadyInProgress), errors.Is(err, submission.ErrResetRequired):
		return &APIError{Type: ErrorTypeConflict, Message: err.Error()}, http.StatusConflict
	case errors.Is(err, ErrSessionNotFound):
		return &APIError{Type: ErrorTypeNotFound, Message: err.Error()}, http.StatusNotFound
	case errors.Is(err, ErrSessionLimit):
		return &APIError{Type: ErrorTypeUnavailable, Message: err.Error()}, http.StatusServiceUnavailable
	default:
		return &APIError{Type: ErrorTypeServerError, Message: "internal server error"}, http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error body with the given status.
func WriteErrorResponse(w http.ResponseWriter, apiErr *APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: apiErr})
}

// WriteError maps err with APIErrorFrom and writes it.
func WriteError(w http.ResponseWriter, err error) {
	apiErr, status := APIErrorFrom(err)
	WriteErrorResponse(w, apiErr, status)
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
