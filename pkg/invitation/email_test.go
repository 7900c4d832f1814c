package invitation

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestValidateGuestListAccepts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "single", raw: "a@x.com", want: []string{"a@x.com"}},
		{name: "two with space", raw: "a@x.com, b@y.com", want: []string{"a@x.com", "b@y.com"}},
		{name: "surrounding whitespace", raw: "  a@x.com\t,\n b@y.org  ", want: []string{"a@x.com", "b@y.org"}},
		{name: "trailing comma", raw: "a@x.com,", want: []string{"a@x.com"}},
		{name: "double comma", raw: "a@x.com,,b@y.com", want: []string{"a@x.com", "b@y.com"}},
		{name: "order preserved", raw: "z@z.io,a@a.io,m@m.io", want: []string{"z@z.io", "a@a.io", "m@m.io"}},
		{name: "duplicates kept", raw: "a@x.com,a@x.com", want: []string{"a@x.com", "a@x.com"}},
		{name: "subdomain", raw: "first.last+tag@mail.example.co.uk", want: []string{"first.last+tag@mail.example.co.uk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateGuestList(tt.raw)
			if err != nil {
				t.Fatalf("ValidateGuestList(%q) error: %v", tt.raw, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ValidateGuestList(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidateGuestListEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", ",", " , ,, "} {
		_, err := ValidateGuestList(raw)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("ValidateGuestList(%q) error = %v, want *ValidationError", raw, err)
		}
		if vErr.Kind != KindEmptyList {
			t.Errorf("ValidateGuestList(%q) kind = %q, want %q", raw, vErr.Kind, KindEmptyList)
		}
	}
}

func TestValidateGuestListReportsAllOffenders(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		offenders []string
	}{
		{name: "missing at", raw: "bad, b@y.com", offenders: []string{"bad"}},
		{name: "missing dot", raw: "a@localhost", offenders: []string{"a@localhost"}},
		{name: "every offender", raw: "one, a@x.com, two@nodot, three@x.", offenders: []string{"one", "two@nodot", "three@x."}},
		{name: "empty local part", raw: "@x.com", offenders: []string{"@x.com"}},
		{name: "double at", raw: "a@b@x.com", offenders: []string{"a@b@x.com"}},
		{name: "inner whitespace", raw: "a b@x.com", offenders: []string{"a b@x.com"}},
		{name: "leading dot only", raw: "a@.com", offenders: []string{"a@.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateGuestList(tt.raw)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if vErr.Kind != KindMalformedAddress {
				t.Errorf("kind = %q, want %q", vErr.Kind, KindMalformedAddress)
			}
			if !slices.Equal(vErr.Offenders, tt.offenders) {
				t.Errorf("offenders = %v, want %v", vErr.Offenders, tt.offenders)
			}
			if vErr.Field != FieldGuestList {
				t.Errorf("field = %q, want %q", vErr.Field, FieldGuestList)
			}
		})
	}
}

func TestValidateGuestListDeterministic(t *testing.T) {
	raw := "a@x.com, bad, c@z.net"
	_, first := ValidateGuestList(raw)
	for i := 0; i < 10; i++ {
		_, err := ValidateGuestList(raw)
		if err.Error() != first.Error() {
			t.Fatalf("run %d: error %q differs from first %q", i, err, first)
		}
	}
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"a@x.co", true},
		{"a@x..y", true},
		{"a@.x.y", true},
		{"a@x", false},
		{"a@x.", false},
		{"ax.com", false},
		{"", false},
		{"a@x.c\tm", false},
	}
	for _, tt := range tests {
		if got := IsValidAddress(tt.addr); got != tt.want {
			t.Errorf("IsValidAddress(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	_, err := ValidateGuestList("bad, worse")
	msg := err.Error()
	if !strings.Contains(msg, "malformed_address") || !strings.Contains(msg, "bad, worse") {
		t.Errorf("error message %q lacks kind or offenders", msg)
	}
}
