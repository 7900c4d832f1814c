// Package standin implements a deterministic backend.Backend that fabricates
// invitation artifacts locally after a simulated generation latency. It is
// used for development, demos and the mock generation service, and encodes
// its output through an artifact.Table so the raw response carries the same
// opaque keys a real pipeline would.
package standin
