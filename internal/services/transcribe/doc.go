// Package transcribe uploads audio to a Whisper-compatible speech-to-text
// endpoint as multipart form data and returns the transcript text.
package transcribe
