package invitation

import (
	"strings"
	"unicode"
)

// ValidateGuestList parses a comma-separated list of guest addresses.
// Segments are trimmed and empty segments (from trailing or doubled commas)
// are dropped. The returned addresses keep their input order, duplicates
// included.
//
// Every segment that fails the address grammar is reported in a single
// KindMalformedAddress error, in input order.
func ValidateGuestList(raw string) ([]string, error) {
	var addrs []string
	for _, seg := range strings.Split(raw, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		addrs = append(addrs, seg)
	}

	if len(addrs) == 0 {
		return nil, &ValidationError{
			Kind:    KindEmptyList,
			Field:   FieldGuestList,
			Message: "guest list must contain at least one email address",
		}
	}

	var offenders []string
	for _, a := range addrs {
		if !IsValidAddress(a) {
			offenders = append(offenders, a)
		}
	}
	if len(offenders) > 0 {
		return nil, &ValidationError{
			Kind:      KindMalformedAddress,
			Field:     FieldGuestList,
			Offenders: offenders,
			Message:   "please enter valid email addresses separated by commas",
		}
	}

	return addrs, nil
}

// IsValidAddress applies the conservative local@domain.tld grammar: a local
// part and a domain with no whitespace and no further '@', where the domain
// has a '.' with at least one character on both sides.
func IsValidAddress(addr string) bool {
	if strings.IndexFunc(addr, unicode.IsSpace) >= 0 {
		return false
	}

	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return false
	}

	// Index 0 and the last index cannot hold the separating dot.
	for i := 1; i < len(domain)-1; i++ {
		if domain[i] == '.' {
			return true
		}
	}
	return false
}
