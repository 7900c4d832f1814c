package artifact

import (
	"encoding/json"
	"fmt"
)

// MappingError reports a backend response that violates the mapping table:
// a mandatory field is absent or a payload has the wrong shape.
type MappingError struct {
	Field         Field  `json:"field"`
	Key           string `json:"key"`
	ExpectedShape Shape  `json:"expectedShape"`
	// ActualValue is the offending payload, nil when the key was absent.
	ActualValue any  `json:"actualValue"`
	Missing     bool `json:"missing,omitempty"`
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	if e.Missing {
		return fmt.Sprintf("artifact field %s: key %q missing, expected %s", e.Field, e.Key, e.ExpectedShape)
	}
	return fmt.Sprintf("artifact field %s: key %q expected %s, got %s", e.Field, e.Key, e.ExpectedShape, describe(e.ActualValue))
}

// describe renders a payload compactly for error messages.
func describe(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	const limit = 120
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
