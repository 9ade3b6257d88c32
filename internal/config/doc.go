// Package config loads, normalizes, and validates factcheck configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY. The Config type centralizes every knob the server and CLI
// need, including the outbound proxy fields, cookie jar locations, and the
// result and status store backends.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a valid proxy port, and clear validation errors.
package config
