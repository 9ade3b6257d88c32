// Package services defines shared utilities consumed by the pipeline stages and
// the external integrations beneath them.
//
// Key responsibilities:
//   - Context helpers that stamp owner keys, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures into
//     one taxonomy (download, auth, file, network, api, timeout, cache,
//     validation) surfaced to callers through UserMessage.
//
// Use these helpers when wiring new stage logic so error handling stays uniform
// across the pipeline.
package services
