package media

import "strings"

type outputHint struct {
	needles []string
	hint    string
}

var outputHints = []outputHint{
	{
		needles: []string{"sign in to confirm", "sign in", "login required", "use --cookies", "authentication"},
		hint:    "the platform requires authentication; refresh the exported cookies.txt or configure a proxy",
	},
	{
		needles: []string{"ffmpeg not found", "ffprobe and ffmpeg not found", "ffprobe not found", "ffmpeg or avconv"},
		hint:    "install ffmpeg and ffprobe and make sure they are on PATH",
	},
	{
		needles: []string{"http error 403", "http error 429"},
		hint:    "the platform rejected the request; retry later or route through a proxy",
	},
	{
		needles: []string{"unsupported url"},
		hint:    "the URL is not supported by yt-dlp",
	},
}

// hintForOutput returns an actionable hint for known yt-dlp failure output.
func hintForOutput(output string) string {
	lower := strings.ToLower(output)
	for _, candidate := range outputHints {
		for _, needle := range candidate.needles {
			if strings.Contains(lower, needle) {
				return candidate.hint
			}
		}
	}
	return ""
}

// tailLines returns the last n non-empty lines of output.
func tailLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append([]string{line}, kept...)
		}
	}
	return strings.Join(kept, " | ")
}
