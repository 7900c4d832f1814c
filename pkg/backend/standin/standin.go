package standin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rhuss/soiree/pkg/artifact"
	"github.com/rhuss/soiree/pkg/backend"
	"github.com/rhuss/soiree/pkg/invitation"
)

// DefaultLatency is the simulated generation time.
const DefaultLatency = 1500 * time.Millisecond

// Fixed media and location returned for every generated invitation.
const (
	AudioURL  = "https://replicate.delivery/yhqm/wtnHXFrV2mZpJ5ix6pky02hc7eWN8tDhCFM5W3E2ew7YlY0TA/out.wav"
	ImageURL  = "https://replicate.delivery/czjl/Bp2KtYSGOx5cGRijBFIKCz4DJ3bREGLYXzzMhPgQG4TLJG9E/tmpoxy_fc0m.png"
	Latitude  = 42.088313
	Longitude = -72.57835589999999
)

// Backend generates invitations in-process.
type Backend struct {
	latency time.Duration
	table   *artifact.Table
	newID   func() string
}

var _ backend.Backend = (*Backend)(nil)

// Option configures a stand-in Backend.
type Option func(*Backend)

// WithLatency sets the simulated generation time. Zero disables the delay.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) { b.latency = d }
}

// WithTable sets the table used to encode responses.
func WithTable(t *artifact.Table) Option {
	return func(b *Backend) { b.table = t }
}

// WithIDGenerator sets the function producing delivery message ids.
func WithIDGenerator(fn func() string) Option {
	return func(b *Backend) { b.newID = fn }
}

// New creates a stand-in backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		latency: DefaultLatency,
		table:   artifact.DefaultTable(),
		newID:   newMessageID,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns "standin".
func (b *Backend) Name() string {
	return "standin"
}

// SubmitInvitation waits for the configured latency, then returns the
// encoded invitation for req. It returns ctx.Err() if ctx is done first.
func (b *Backend) SubmitInvitation(ctx context.Context, req *invitation.Request) (backend.RawResponse, error) {
	if b.latency > 0 {
		timer := time.NewTimer(b.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	return b.table.Encode(b.Generate(req)), nil
}

// Generate builds the invitation for req without delay.
func (b *Backend) Generate(req *invitation.Request) *artifact.Invitation {
	id := b.newID()
	return &artifact.Invitation{
		Text:     RenderText(req),
		AudioURL: AudioURL,
		ImageURL: ImageURL,
		VenueLocation: &artifact.Location{
			Latitude:  Latitude,
			Longitude: Longitude,
		},
		DeliveryReceipt: &artifact.Receipt{
			MessageID: id,
			ThreadID:  id,
			Labels:    []string{"SENT"},
		},
	}
}

// RenderText renders the front and back copy of the invitation card.
func RenderText(req *invitation.Request) string {
	var sb strings.Builder

	sb.WriteString("Front of the Invitation:\n\n")
	sb.WriteString("Together with their families\n\n")
	fmt.Fprintf(&sb, "**%s**\n\n", req.HostNames)
	fmt.Fprintf(&sb, "request the honour of your presence at their %s\n\n\n", req.EventType)

	sb.WriteString("Back of the Invitation:\n\n")
	fmt.Fprintf(&sb, "**Date:** %s\n\n", req.EventDate.Format(invitation.DateLayout))
	fmt.Fprintf(&sb, "**Time:** %s\n\n", req.EventTime)
	fmt.Fprintf(&sb, "**Venue:** %s\n\n\n", req.Venue)
	sb.WriteString("Reception to follow\n\n\n")
	fmt.Fprintf(&sb, "Kindly RSVP by %s", req.RSVPDeadline.Format(invitation.DateLayout))

	if req.CustomMessage != "" {
		sb.WriteString("\n\n\n")
		sb.WriteString(req.CustomMessage)
	}

	return sb.String()
}

// newMessageID returns a 16 hex digit id in the style of mail provider
// message ids.
func newMessageID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
