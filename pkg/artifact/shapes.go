package artifact

import (
	"encoding/json"
	"math"
	"slices"
)

// decodeOutput accepts {output: string}.
func decodeOutput(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := m["output"].(string)
	return s, ok
}

// decodeGeo accepts {latitude: number, longitude: number} with coordinates
// inside their valid ranges.
func decodeGeo(v any) (*Location, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	lat, ok := number(m["latitude"])
	if !ok || lat < -90 || lat > 90 {
		return nil, false
	}
	lon, ok := number(m["longitude"])
	if !ok || lon < -180 || lon > 180 {
		return nil, false
	}
	return &Location{Latitude: lat, Longitude: lon}, true
}

// decodeDelivery accepts {id: string, threadId: string, labelIds: [string]}.
func decodeDelivery(v any) (*Receipt, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	id, ok := m["id"].(string)
	if !ok {
		return nil, false
	}
	threadID, ok := m["threadId"].(string)
	if !ok {
		return nil, false
	}
	labels, ok := stringSet(m["labelIds"])
	if !ok {
		return nil, false
	}
	return &Receipt{MessageID: id, ThreadID: threadID, Labels: labels}, true
}

// number accepts the numeric representations a decoded payload may carry.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// stringSet accepts a list of strings and returns it sorted and deduplicated.
func stringSet(v any) ([]string, bool) {
	var out []string
	switch l := v.(type) {
	case []string:
		out = slices.Clone(l)
	case []any:
		out = make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
	default:
		return nil, false
	}
	slices.Sort(out)
	return slices.Compact(out), true
}
