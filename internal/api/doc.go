// Package api defines wire-format types and converters for the HTTP layer.
// It translates pipeline results, cached rows, and status snapshots into
// transport-friendly DTOs so handlers and the CLI render the same shapes.
//
// # Converters
//
// FromPipelineResult, FromSnapshot, FromCacheResult(s): internal models to DTOs.
// FromError: error taxonomy to HTTP status plus a user-facing message and hint.
//
// # Sanitizing
//
// SanitizeHTML reduces stored analysis HTML to a small formatting allowlist
// before it is embedded in the shared result page.
package api
