package invitation

import (
	"fmt"
	"strings"
	"time"
)

// ValidationConfig holds the policy knobs for request validation.
type ValidationConfig struct {
	// EnforceRSVPDeadline rejects requests whose RSVP deadline falls after
	// the event date.
	EnforceRSVPDeadline bool

	// DedupeGuests drops repeated guest addresses (case-insensitive),
	// keeping the first occurrence.
	DedupeGuests bool

	// MaxGuests caps the guest list size. 0 means unlimited.
	MaxGuests int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		EnforceRSVPDeadline: true,
		DedupeGuests:        false,
		MaxGuests:           0,
	}
}

// Build validates raw form input and returns a ready-to-submit Request.
// Required fields are checked in form order and the first blank one is
// reported. Guest list errors from ValidateGuestList are returned unchanged.
func Build(f Fields, cfg ValidationConfig) (*Request, error) {
	required := []struct {
		name  string
		value string
	}{
		{FieldEventType, f.EventType},
		{FieldHostNames, f.HostNames},
		{FieldEventDate, f.EventDate},
		{FieldEventTime, f.EventTime},
		{FieldVenue, f.Venue},
		{FieldRSVPDeadline, f.RSVPDeadline},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, NewMissingFieldError(r.name)
		}
	}

	eventType, ok := ParseEventType(f.EventType)
	if !ok {
		return nil, &ValidationError{
			Kind:    KindUnknownEventType,
			Field:   FieldEventType,
			Message: fmt.Sprintf("unknown event type %q", strings.TrimSpace(f.EventType)),
		}
	}

	eventDate, err := time.Parse(DateLayout, strings.TrimSpace(f.EventDate))
	if err != nil {
		return nil, NewMalformedFieldError(FieldEventDate, "event date must be formatted as YYYY-MM-DD")
	}

	eventTime, err := ParseTimeOfDay(strings.TrimSpace(f.EventTime))
	if err != nil {
		return nil, NewMalformedFieldError(FieldEventTime, "event time must be formatted as HH:MM")
	}

	deadline, err := time.Parse(DateLayout, strings.TrimSpace(f.RSVPDeadline))
	if err != nil {
		return nil, NewMalformedFieldError(FieldRSVPDeadline, "RSVP deadline must be formatted as YYYY-MM-DD")
	}

	if cfg.EnforceRSVPDeadline && deadline.After(eventDate) {
		return nil, &ValidationError{
			Kind:    KindDeadlineAfterEvent,
			Field:   FieldRSVPDeadline,
			Message: "RSVP deadline must not be after the event date",
		}
	}

	guests, err := ValidateGuestList(f.GuestList)
	if err != nil {
		return nil, err
	}

	if cfg.DedupeGuests {
		guests = Dedupe(guests)
	}

	if cfg.MaxGuests > 0 && len(guests) > cfg.MaxGuests {
		return nil, &ValidationError{
			Kind:    KindTooManyGuests,
			Field:   FieldGuestList,
			Message: fmt.Sprintf("guest list exceeds maximum of %d addresses", cfg.MaxGuests),
		}
	}

	return &Request{
		EventType:     eventType,
		HostNames:     strings.TrimSpace(f.HostNames),
		EventDate:     eventDate,
		EventTime:     eventTime,
		Venue:         strings.TrimSpace(f.Venue),
		RSVPDeadline:  deadline,
		CustomMessage: strings.TrimSpace(f.CustomMessage),
		GuestList:     guests,
	}, nil
}

// Dedupe drops repeated addresses, compared case-insensitively, keeping
// the first occurrence.
func Dedupe(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		key := strings.ToLower(a)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
