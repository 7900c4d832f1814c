package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rhuss/soiree/pkg/backend"
)

// errorResponse is the error body returned by the generation service.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type,omitempty"`
	} `json:"error"`
}

// mapHTTPError converts a non-2xx response into a TransportError, using the
// service's error message when the body carries one.
func mapHTTPError(resp *http.Response) *backend.TransportError {
	message := extractErrorMessage(resp.Body)

	if message == "" {
		switch {
		case resp.StatusCode == http.StatusBadRequest:
			message = "invalid request to backend"
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			message = "backend authentication failed"
		case resp.StatusCode == http.StatusNotFound:
			message = "backend endpoint not found"
		case resp.StatusCode == http.StatusTooManyRequests:
			message = "backend rate limit exceeded"
		case resp.StatusCode >= http.StatusInternalServerError:
			message = fmt.Sprintf("backend server error (HTTP %d)", resp.StatusCode)
		default:
			message = fmt.Sprintf("unexpected backend status (HTTP %d)", resp.StatusCode)
		}
	}

	return &backend.TransportError{StatusCode: resp.StatusCode, Message: message}
}

// extractErrorMessage parses the body as an errorResponse and returns its
// message, or "" when the body has none.
func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	return ""
}
