package analysis

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"factcheck/internal/config"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// FormatOutput post-processes a model reply for the output mode. Raw and
// markdown modes return text unchanged; html renders the lightweight markup.
func FormatOutput(mode, text string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case config.OutputRaw, config.OutputMarkdown:
		return text
	default:
		return ToHTML(text)
	}
}

// ToHTML renders markdown to HTML with raw HTML in the input suppressed,
// falling back to SimpleHTML if the renderer fails.
func ToHTML(text string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return SimpleHTML(text)
	}
	return strings.TrimSpace(buf.String())
}

var (
	reCode    = regexp.MustCompile("`([^`\n]+)`")
	reBold    = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	reItalic  = regexp.MustCompile(`\*([^*\n]+)\*`)
	reLink    = regexp.MustCompile(`\[([^\]\n]+)\]\((https?://[^)\s]+)\)`)
	reHeading = regexp.MustCompile(`^(#{1,3})\s+(.+)$`)
)

// SimpleHTML is a line-oriented converter covering bold, italic, headings
// h1-h3, inline code, links, and "- " bullet lists. Input is escaped first.
func SimpleHTML(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var out []string
	inList := false
	closeList := func() {
		if inList {
			out = append(out, "</ul>")
			inList = false
		}
	}
	for _, raw := range lines {
		line := inline(html.EscapeString(strings.TrimRight(raw, " \t")))
		switch {
		case strings.HasPrefix(line, "- "):
			if !inList {
				out = append(out, "<ul>")
				inList = true
			}
			out = append(out, "<li>"+strings.TrimSpace(line[2:])+"</li>")
		case reHeading.MatchString(line):
			closeList()
			m := reHeading.FindStringSubmatch(line)
			tag := "h" + string(rune('0'+len(m[1])))
			out = append(out, "<"+tag+">"+m[2]+"</"+tag+">")
		default:
			closeList()
			out = append(out, line+"<br>")
		}
	}
	closeList()
	return strings.TrimSuffix(strings.Join(out, "\n"), "<br>")
}

func inline(line string) string {
	line = reCode.ReplaceAllString(line, "<code>$1</code>")
	line = reLink.ReplaceAllString(line, `<a href="$2">$1</a>`)
	line = reBold.ReplaceAllString(line, "<strong>$1</strong>")
	line = reItalic.ReplaceAllString(line, "<em>$1</em>")
	return line
}
