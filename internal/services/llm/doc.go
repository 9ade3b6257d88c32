// Package llm provides a chat-completions client for OpenAI-compatible APIs.
//
// The analysis stage uses it to send a fixed system instruction plus the
// transcript and receive the fact-check text.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts at a given temperature, receive
// the assistant reply.
//
// # Errors
//
// Non-2xx responses surface as *services.APIError carrying the upstream status
// and error.message. Transport failures are ErrNetwork, and deadlines or client
// timeouts are ErrTimeout. Nothing is retried; callers see the first failure.
package llm
