// Package media extracts the audio track of a video URL with yt-dlp.
//
// Restricted platforms are fetched through the configured proxy or, when no
// proxy is set, with a Netscape cookie jar. Failures are classified into the
// services error markers with actionable hints and secrets redacted.
//
// When ffprobe is available the extracted file is probed and rejected if it
// carries no audio stream.
package media
