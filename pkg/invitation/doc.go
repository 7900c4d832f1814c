// Package invitation defines the event description a user submits for
// invitation generation and the validation that turns free-form form input
// into a well-formed [Request].
//
// The package performs no I/O. [ValidateGuestList] parses the comma-separated
// guest field, [Build] checks every other field and returns an immutable,
// ready-to-submit [Request]. All failures are reported as [*ValidationError]
// values so callers can highlight every problem in place.
//
// Wire format:
//
// A [Request] marshals to the JSON body expected by generation backends:
// camelCase keys, dates as YYYY-MM-DD, times as HH:MM and the guest list as
// an array of addresses (never the raw comma string).
package invitation
