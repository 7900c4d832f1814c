package artifact

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rhuss/soiree/pkg/backend"
)

// Field names a semantic artifact field.
type Field string

const (
	FieldInvitationText  Field = "invitationText"
	FieldAudioURL        Field = "audioUrl"
	FieldImageURL        Field = "imageUrl"
	FieldVenueLocation   Field = "venueLocation"
	FieldDeliveryReceipt Field = "deliveryReceipt"
)

// Shape is the structural type a payload must have.
type Shape string

const (
	ShapeString   Shape = "string"
	ShapeOutput   Shape = "{output: string}"
	ShapeGeo      Shape = "{latitude: number, longitude: number}"
	ShapeDelivery Shape = "{id: string, threadId: string, labelIds: [string]}"
)

// fieldShapes fixes the shape each semantic field is decoded with.
var fieldShapes = map[Field]Shape{
	FieldInvitationText:  ShapeString,
	FieldAudioURL:        ShapeOutput,
	FieldImageURL:        ShapeString,
	FieldVenueLocation:   ShapeGeo,
	FieldDeliveryReceipt: ShapeDelivery,
}

// fieldOrder is the order fields are checked in, which makes Adapt's result
// independent of map iteration order.
var fieldOrder = []Field{
	FieldInvitationText,
	FieldAudioURL,
	FieldImageURL,
	FieldVenueLocation,
	FieldDeliveryReceipt,
}

// Entry binds a semantic field to the opaque key it appears under.
type Entry struct {
	Field    Field
	Key      string
	Shape    Shape
	Required bool
}

// Table is the declarative mapping from semantic fields to opaque keys.
// A Table is immutable and safe for concurrent use.
type Table struct {
	entries []Entry
}

// defaultKeys are the opaque keys emitted by the current generation
// pipeline.
var defaultKeys = map[Field]string{
	FieldInvitationText:  "output",
	FieldAudioURL:        "output_1732498863574",
	FieldImageURL:        "19f72370-d1ab-4b25-832f-cfeccedcadec",
	FieldVenueLocation:   "1f4b5b22-0469-4d68-9250-ea81f8c0be03",
	FieldDeliveryReceipt: "5817d4b1-0134-4a52-96d9-7ff0b391b32b",
}

var defaultTable = mustTable(defaultKeys)

// DefaultTable returns the table for the current generation pipeline.
func DefaultTable() *Table {
	return defaultTable
}

// NewTable builds a table from one opaque key per semantic field. Every
// field must be present exactly once with a distinct, non-empty key.
func NewTable(keys map[Field]string) (*Table, error) {
	var errs []error
	seen := make(map[string]Field, len(keys))

	for f := range keys {
		if _, ok := fieldShapes[f]; !ok {
			errs = append(errs, fmt.Errorf("unknown artifact field %q", f))
		}
	}

	entries := make([]Entry, 0, len(fieldOrder))
	for _, f := range fieldOrder {
		key, ok := keys[f]
		if !ok || key == "" {
			errs = append(errs, fmt.Errorf("no opaque key for field %s", f))
			continue
		}
		if other, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("opaque key %q used by both %s and %s", key, other, f))
			continue
		}
		seen[key] = f
		entries = append(entries, Entry{
			Field:    f,
			Key:      key,
			Shape:    fieldShapes[f],
			Required: f == FieldInvitationText,
		})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Table{entries: entries}, nil
}

func mustTable(keys map[Field]string) *Table {
	t, err := NewTable(keys)
	if err != nil {
		panic("artifact: invalid mapping table: " + err.Error())
	}
	return t
}

// WithKeys returns a copy of the table with the given fields rebound to new
// opaque keys. Fields not in overrides keep their current key.
func (t *Table) WithKeys(overrides map[Field]string) (*Table, error) {
	keys := make(map[Field]string, len(t.entries))
	for _, e := range t.entries {
		keys[e.Field] = e.Key
	}
	for f, k := range overrides {
		keys[f] = k
	}
	return NewTable(keys)
}

// Entries returns the table rows in check order.
func (t *Table) Entries() []Entry {
	return slices.Clone(t.entries)
}

// Key returns the opaque key bound to a field.
func (t *Table) Key(f Field) (string, bool) {
	for _, e := range t.entries {
		if e.Field == f {
			return e.Key, true
		}
	}
	return "", false
}

// Adapt decodes a raw backend response with the default table.
func Adapt(raw backend.RawResponse) (*Invitation, error) {
	return DefaultTable().Adapt(raw)
}

// Adapt decodes a raw backend response into an Invitation. Keys not named
// by the table are ignored. The first violation in table order is returned.
func (t *Table) Adapt(raw backend.RawResponse) (*Invitation, error) {
	inv := &Invitation{}

	for _, e := range t.entries {
		v, present := raw[e.Key]
		if !present || v == nil {
			if e.Required {
				return nil, &MappingError{Field: e.Field, Key: e.Key, ExpectedShape: e.Shape, Missing: true}
			}
			continue
		}

		if err := decodeInto(inv, e, v); err != nil {
			return nil, err
		}
	}

	return inv, nil
}

// decodeInto validates v against the entry's shape and stores the result
// in the invitation field the entry names.
func decodeInto(inv *Invitation, e Entry, v any) error {
	mismatch := &MappingError{Field: e.Field, Key: e.Key, ExpectedShape: e.Shape, ActualValue: v}

	switch e.Field {
	case FieldInvitationText:
		s, ok := v.(string)
		if !ok || s == "" {
			return mismatch
		}
		inv.Text = s
	case FieldAudioURL:
		s, ok := decodeOutput(v)
		if !ok {
			return mismatch
		}
		inv.AudioURL = s
	case FieldImageURL:
		s, ok := v.(string)
		if !ok {
			return mismatch
		}
		inv.ImageURL = s
	case FieldVenueLocation:
		loc, ok := decodeGeo(v)
		if !ok {
			return mismatch
		}
		inv.VenueLocation = loc
	case FieldDeliveryReceipt:
		r, ok := decodeDelivery(v)
		if !ok {
			return mismatch
		}
		inv.DeliveryReceipt = r
	}
	return nil
}

// Encode renders an Invitation as a raw backend response using the table's
// keys. Absent optional fields are omitted.
func (t *Table) Encode(inv *Invitation) backend.RawResponse {
	raw := backend.RawResponse{}
	for _, e := range t.entries {
		switch e.Field {
		case FieldInvitationText:
			raw[e.Key] = inv.Text
		case FieldAudioURL:
			if inv.AudioURL != "" {
				raw[e.Key] = map[string]any{"output": inv.AudioURL}
			}
		case FieldImageURL:
			if inv.ImageURL != "" {
				raw[e.Key] = inv.ImageURL
			}
		case FieldVenueLocation:
			if inv.VenueLocation != nil {
				raw[e.Key] = map[string]any{
					"latitude":  inv.VenueLocation.Latitude,
					"longitude": inv.VenueLocation.Longitude,
				}
			}
		case FieldDeliveryReceipt:
			if r := inv.DeliveryReceipt; r != nil {
				labels := make([]any, len(r.Labels))
				for i, l := range r.Labels {
					labels[i] = l
				}
				raw[e.Key] = map[string]any{
					"id":       r.MessageID,
					"threadId": r.ThreadID,
					"labelIds": labels,
				}
			}
		}
	}
	return raw
}
