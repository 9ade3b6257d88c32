// Package status tracks the current pipeline stage per requester so clients
// can poll progress. Entries live in an injected TTL key-value store (Redis
// or in-memory) and expire when abandoned.
package status
