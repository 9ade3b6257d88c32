// Package daemon runs the long-lived factcheck HTTP server.
//
// It wraps a wired pipeline runtime in a single lifecycle with flock-based
// locking so only one server owns the data directory. The server exposes
// submission, status polling, result lookup, and the shared result page.
//
// Callers are identified by an opaque owner cookie. Submit and poll require
// an X-CSRF-Token header carrying the HMAC of that owner key (obtained from
// GET /api/token), and submissions are rate limited per owner.
//
// Keep pipeline logic out of here: the daemon focuses on startup, shutdown,
// and translating HTTP to orchestrator calls.
package daemon
