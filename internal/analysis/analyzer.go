package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"factcheck/internal/logging"
	"factcheck/internal/services"
)

const (
	// SystemPrompt establishes the fact-checking persona.
	SystemPrompt = "You are a fact-checking assistant. Analyze the provided text and identify factual claims, verifying their accuracy where possible. You answer in the language of the transcript"

	userPromptPrefix = "Please fact check the following text and provide a detailed analysis. Highlight any claims that are verifiable and indicate their accuracy. Text to analyze: "

	// Temperature biases the model toward literal, repeatable analysis.
	Temperature = 0.3
)

// Completer sends one system/user exchange to a chat model.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

// Analyzer turns a transcript into a formatted fact-check analysis.
type Analyzer struct {
	chat   Completer
	mode   string
	logger *slog.Logger
}

// NewAnalyzer constructs an analyzer that formats replies for mode.
func NewAnalyzer(chat Completer, mode string, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		chat:   chat,
		mode:   strings.ToLower(strings.TrimSpace(mode)),
		logger: logging.NewComponentLogger(logger, "analysis"),
	}
}

// UserPrompt embeds transcript in the fixed analysis request.
func UserPrompt(transcript string) string {
	return userPromptPrefix + transcript
}

// Analyze sends transcript for fact-checking and returns the reply formatted
// for the configured output mode.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) (string, error) {
	if a == nil || a.chat == nil {
		return "", services.Wrap(services.ErrConfiguration, "analyzing", "analyze", "chat client unavailable", nil)
	}
	reply, err := a.chat.Complete(ctx, SystemPrompt, UserPrompt(transcript), Temperature)
	if err != nil {
		// Transport failures are API failures from the caller's point of view;
		// both markers stay matchable.
		if errors.Is(err, services.ErrNetwork) && !errors.Is(err, services.ErrAPI) {
			return "", services.Wrap(services.ErrAPI, "analyzing", "chat completion", "", err)
		}
		return "", err
	}
	logging.WithContext(ctx, a.logger).Debug("analysis received",
		logging.Int("chars", len(reply)),
		logging.String("mode", a.mode),
	)
	return FormatOutput(a.mode, reply), nil
}
