// Package pipeline ties the fetch, transcription, analysis, and cache stages
// into one blocking submit call and reports stage transitions per owner.
//
// Stages run strictly in sequence with individual timeouts. Nothing is
// retried. The downloaded audio is scoped to the transcription step and
// removed on success and failure alike.
package pipeline
