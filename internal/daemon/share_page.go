package daemon

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"factcheck/internal/api"
	"factcheck/internal/cache"
	"factcheck/internal/logging"
)

//go:embed templates/share.html
var templateFS embed.FS

var shareTemplate = template.Must(template.ParseFS(templateFS, "templates/share.html"))

type sharePage struct {
	ShortCode       string
	SourceURL       string
	Created         string
	Analysis        template.HTML
	TranscriptLines []string
}

func newSharePage(row cache.Result) sharePage {
	page := sharePage{
		ShortCode:       row.ShortCode,
		SourceURL:       row.SourceURL,
		Analysis:        template.HTML(api.SanitizeHTML(analysisHTML(row.Analysis))), //nolint:gosec
		TranscriptLines: strings.Split(strings.ReplaceAll(row.Transcript, "\r\n", "\n"), "\n"),
	}
	if !row.CreatedAt.IsZero() {
		page.Created = row.CreatedAt.UTC().Format("January 2, 2006 15:04 MST")
	}
	return page
}

// analysisHTML keeps stored HTML as is and converts plain newlines of
// raw/markdown output into breaks.
func analysisHTML(text string) string {
	if strings.Contains(text, "<") {
		return text
	}
	escaped := template.HTMLEscapeString(text)
	return strings.ReplaceAll(escaped, "\n", "<br>")
}

func (s *apiServer) handleSharePage(w http.ResponseWriter, r *http.Request) {
	row, err := s.results.Resolve(r.Context(), r.PathValue("code"))
	if err != nil {
		s.log().Error("resolve shared result failed", logging.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if row == nil {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := shareTemplate.Execute(&buf, newSharePage(*row)); err != nil {
		s.log().Error("render shared result failed", logging.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
