// Package storage defines the invitation record store used by the mock
// generation service, together with its sentinel errors.
//
// Adapters live in subpackages: memory (LRU-bounded, process lifetime) and
// postgres (pgx connection pool, JSONB columns, embedded migrations).
package storage
