// Package httpclient implements backend.Backend against a remote invitation
// generation service. It posts the validated request as JSON to
// {base}/v1/invitations, returns the decoded response body as a raw
// opaque-key map, and maps HTTP and network failures to
// *backend.TransportError.
package httpclient
