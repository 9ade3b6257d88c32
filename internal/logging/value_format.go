package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"unicode/utf8"
)

// Transcripts and model replies are logged at debug; the console keeps only
// the head of them.
const maxConsoleValueRunes = 240

// plainValue renders v without quoting, for the console subject line.
func plainValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return scalarValue(v)
	}
}

// consoleValue renders a field value for the console detail lines.
func consoleValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString, slog.KindAny:
		return quoteIfNeeded(truncateRunes(plainValue(v), maxConsoleValueRunes))
	default:
		return scalarValue(v)
	}
}

func scalarValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	default:
		return quoteIfNeeded(v.String())
	}
}

func truncateRunes(s string, limit int) string {
	count := utf8.RuneCountInString(s)
	if count <= limit {
		return s
	}
	runes := []rune(s)
	return fmt.Sprintf("%s... (%d more chars)", string(runes[:limit]), count-limit)
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}
