// Package backend defines the capability a generation backend offers to
// the submission controller: accept a validated invitation request and
// return a raw, loosely-typed response. Adapters (httpclient, standin)
// handle their own transport internally.
//
// A RawResponse is keyed by opaque, backend-generated identifiers. Only the
// artifact package knows how to decode it; nothing here inspects its keys.
package backend
