// Package cache stores pipeline results keyed by the md5 fingerprint of the
// source URL and exposes them through unique six-character short codes.
//
// Rows are insert-only. Backends (SQLite, PostgreSQL, memory) enforce unique
// fingerprints and short codes; a lost insert race surfaces as ErrDuplicate so
// the caller can re-query instead of failing.
package cache
