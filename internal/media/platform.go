package media

import (
	"net/url"
	"regexp"
	"strings"
)

// restrictedPatterns match video-sharing URLs that need session cookies or a
// proxy before yt-dlp can fetch them.
var restrictedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/v/[\w-]+`),
	regexp.MustCompile(`^https?://youtu\.be/[\w-]+`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/embed/[\w-]+`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/shorts/[\w-]+`),
}

// IsRestricted reports whether rawURL belongs to a restricted platform.
func IsRestricted(rawURL string) bool {
	for _, pattern := range restrictedPatterns {
		if pattern.MatchString(rawURL) {
			return true
		}
	}
	return false
}

// ValidateURL checks that rawURL is an absolute http(s) URL with a host.
func ValidateURL(rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return errEmptyURL
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errScheme
	}
	if parsed.Host == "" {
		return errHost
	}
	return nil
}
