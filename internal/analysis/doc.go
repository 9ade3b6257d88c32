// Package analysis sends transcripts to a chat model with a fixed
// fact-checking instruction and formats the reply for the configured output
// mode (html, markdown, or raw).
package analysis
