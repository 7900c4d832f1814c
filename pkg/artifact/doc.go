// Package artifact normalizes raw generation-backend responses into a
// canonical, strongly-typed [Invitation].
//
// Backends key their response fields by opaque, per-pipeline identifiers
// instead of stable names. The [Table] is the single place those keys are
// recorded: each semantic field is bound to its opaque key and the shape
// its payload must have. When a backend redeployment changes its keys, the
// table (or its configured overrides) is the only thing that changes.
//
// Adaptation is all-or-nothing. A missing mandatory field or any shape
// mismatch yields a [*MappingError]; a partially decoded Invitation is never
// returned.
package artifact
