package invitation

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Wire names of the request fields. ValidationError.Field uses them.
const (
	FieldEventType     = "eventType"
	FieldHostNames     = "hostNames"
	FieldEventDate     = "eventDate"
	FieldEventTime     = "eventTime"
	FieldVenue         = "venue"
	FieldRSVPDeadline  = "rsvpDeadline"
	FieldCustomMessage = "customMessage"
	FieldGuestList     = "guestList"
)

const (
	// DateLayout is the calendar date format used on the wire and in forms.
	DateLayout = "2006-01-02"
	// TimeLayout is the time-of-day format used on the wire and in forms.
	TimeLayout = "15:04"
)

// EventType is the kind of event being announced.
type EventType string

const (
	EventTypeWedding     EventType = "wedding"
	EventTypeBirthday    EventType = "birthday"
	EventTypeCorporate   EventType = "corporate"
	EventTypeAnniversary EventType = "anniversary"
	EventTypeGraduation  EventType = "graduation"
)

// EventTypes lists the recognized event types in display order.
func EventTypes() []EventType {
	return []EventType{
		EventTypeWedding,
		EventTypeBirthday,
		EventTypeCorporate,
		EventTypeAnniversary,
		EventTypeGraduation,
	}
}

// eventTypeLabels maps display labels shown by forms to their event type.
var eventTypeLabels = map[string]EventType{
	"corporate event": EventTypeCorporate,
}

// ParseEventType normalizes a user-supplied value (case and surrounding
// whitespace are ignored, form labels are accepted) to an EventType.
func ParseEventType(s string) (EventType, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if et, ok := eventTypeLabels[v]; ok {
		return et, true
	}
	et := EventType(v)
	if slices.Contains(EventTypes(), et) {
		return et, true
	}
	return "", false
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an HH:MM value.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return TimeOfDay{}, err
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Fields is the raw, unvalidated form input. Every value is free text,
// including the guest list, which is a comma-separated string.
type Fields struct {
	EventType     string `json:"eventType"`
	HostNames     string `json:"hostNames"`
	EventDate     string `json:"eventDate"`
	EventTime     string `json:"eventTime"`
	Venue         string `json:"venue"`
	RSVPDeadline  string `json:"rsvpDeadline"`
	CustomMessage string `json:"customMessage"`
	GuestList     string `json:"guestList"`
}

// Request is a validated invitation request. Build is the only constructor
// that guarantees the invariants; treat a Request as immutable once built.
type Request struct {
	EventType     EventType
	HostNames     string
	EventDate     time.Time
	EventTime     TimeOfDay
	Venue         string
	RSVPDeadline  time.Time
	CustomMessage string
	GuestList     []string
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	c := *r
	c.GuestList = slices.Clone(r.GuestList)
	return &c
}

// wireRequest is the backend JSON body.
type wireRequest struct {
	EventType     string   `json:"eventType"`
	HostNames     string   `json:"hostNames"`
	EventDate     string   `json:"eventDate"`
	EventTime     string   `json:"eventTime"`
	Venue         string   `json:"venue"`
	RSVPDeadline  string   `json:"rsvpDeadline"`
	CustomMessage string   `json:"customMessage"`
	GuestList     []string `json:"guestList"`
}

// MarshalJSON encodes the request in the backend wire format.
func (r Request) MarshalJSON() ([]byte, error) {
	guests := r.GuestList
	if guests == nil {
		guests = []string{}
	}
	return json.Marshal(wireRequest{
		EventType:     string(r.EventType),
		HostNames:     r.HostNames,
		EventDate:     r.EventDate.Format(DateLayout),
		EventTime:     r.EventTime.String(),
		Venue:         r.Venue,
		RSVPDeadline:  r.RSVPDeadline.Format(DateLayout),
		CustomMessage: r.CustomMessage,
		GuestList:     guests,
	})
}

// UnmarshalJSON decodes a wire-format request and re-validates its
// structure: required fields, formats, event type and addresses. Policy
// checks (deadline ordering, guest limits) are left to the submitter, so a
// request built under a relaxed policy still decodes.
func (r *Request) UnmarshalJSON(data []byte) error {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	built, err := Build(Fields{
		EventType:     w.EventType,
		HostNames:     w.HostNames,
		EventDate:     w.EventDate,
		EventTime:     w.EventTime,
		Venue:         w.Venue,
		RSVPDeadline:  w.RSVPDeadline,
		CustomMessage: w.CustomMessage,
		GuestList:     strings.Join(w.GuestList, ","),
	}, ValidationConfig{})
	if err != nil {
		return err
	}
	*r = *built
	return nil
}
