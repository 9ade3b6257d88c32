// Package main hosts the factcheck CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the HTTP server, submits videos through
// the local pipeline, inspects the result cache, and scaffolds configuration.
// It centralizes .env loading, configuration resolution, and logger setup so
// subcommands can focus on output instead of wiring.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
