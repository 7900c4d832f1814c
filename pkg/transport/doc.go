// Package transport holds the protocol-independent pieces of the session
// API: the session registry that owns one submission.Controller per form
// session, the mapping from domain errors to HTTP statuses and JSON error
// bodies, and the HTTP middleware shared by the soiree servers (request
// IDs, panic recovery, structured request logging).
//
// Routing lives in the http subpackage.
package transport
