package main

import (
	"encoding/json"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"factcheck/internal/status"
)

var stageTitle = cases.Title(language.Und)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderAnalysis turns stored analysis into terminal text. HTML output is
// converted back to markdown; raw and markdown output pass through.
func renderAnalysis(analysis string) string {
	trimmed := strings.TrimSpace(analysis)
	if !strings.HasPrefix(trimmed, "<") {
		return trimmed
	}
	md, err := htmltomarkdown.ConvertString(trimmed)
	if err != nil {
		return trimmed
	}
	return strings.TrimSpace(md)
}

func stageLabel(stage status.Stage) string {
	return stageTitle.String(string(stage))
}
