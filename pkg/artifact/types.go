package artifact

import "slices"

// Invitation is the normalized result of a successful generation request.
// Optional string fields are empty when the backend did not provide them.
type Invitation struct {
	// Text is the human-readable front/back invitation copy.
	Text            string    `json:"invitationText"`
	AudioURL        string    `json:"audioUrl,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	VenueLocation   *Location `json:"venueLocation,omitempty"`
	DeliveryReceipt *Receipt  `json:"deliveryReceipt,omitempty"`
}

// Clone returns a deep copy of the invitation.
func (inv *Invitation) Clone() *Invitation {
	c := *inv
	if inv.VenueLocation != nil {
		loc := *inv.VenueLocation
		c.VenueLocation = &loc
	}
	if inv.DeliveryReceipt != nil {
		r := *inv.DeliveryReceipt
		r.Labels = slices.Clone(r.Labels)
		c.DeliveryReceipt = &r
	}
	return &c
}

// Location is the geocoded venue.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Receipt acknowledges delivery of the invitation email. Labels is a set,
// kept sorted and free of duplicates.
type Receipt struct {
	MessageID string   `json:"messageId"`
	ThreadID  string   `json:"threadId"`
	Labels    []string `json:"labels"`
}
