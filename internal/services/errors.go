package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrDownload      = errors.New("download error")
	ErrAuth          = errors.New("authentication error")
	ErrFileNotFound  = errors.New("file not found")
	ErrNetwork       = errors.New("network error")
	ErrAPI           = errors.New("api error")
	ErrTimeout       = errors.New("timeout")
	ErrCacheWrite    = errors.New("cache write error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// APIError reports a non-success response from a remote API.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	op := strings.TrimSpace(e.Op)
	if op == "" {
		op = "api request"
	}
	return fmt.Sprintf("%s: http %d: %s", op, e.StatusCode, strings.TrimSpace(e.Message))
}

// Is lets errors.Is(err, ErrAPI) match any APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}

// TransportError classifies a failed HTTP round trip. Deadlines and client
// timeouts become ErrTimeout, everything else ErrNetwork.
func TransportError(stage, operation string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return Wrap(ErrTimeout, stage, operation, "request timed out", err)
	}
	return Wrap(ErrNetwork, stage, operation, "", err)
}

type hintError struct {
	err  error
	hint string
}

func (e *hintError) Error() string {
	return e.err.Error() + " (hint: " + e.hint + ")"
}

func (e *hintError) Unwrap() error { return e.err }

// WithHint attaches an actionable hint to err. The error kind is unchanged.
func WithHint(err error, hint string) error {
	hint = strings.TrimSpace(hint)
	if err == nil || hint == "" {
		return err
	}
	return &hintError{err: err, hint: hint}
}

// Hint returns the outermost hint attached to err, if any.
func Hint(err error) string {
	var h *hintError
	if errors.As(err, &h) {
		return h.hint
	}
	return ""
}

// UserMessage maps an error to a single sentence suitable for end users.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var msg string
	switch {
	case errors.Is(err, ErrValidation):
		msg = "The video URL is not valid."
	case errors.Is(err, ErrAuth):
		msg = "The video platform requires authentication that is not configured."
	case errors.Is(err, ErrTimeout):
		msg = "The request took too long and was stopped."
	case errors.Is(err, ErrDownload):
		msg = "Failed to download and convert the video."
	case errors.Is(err, ErrFileNotFound):
		msg = "The downloaded audio file could not be found."
	case errors.Is(err, ErrNetwork):
		msg = "The remote service could not be reached."
	case errors.Is(err, ErrAPI):
		msg = "The remote service rejected the request."
	case errors.Is(err, ErrCacheWrite):
		msg = "The result could not be saved."
	case errors.Is(err, ErrConfiguration):
		msg = "The service is not configured correctly."
	default:
		msg = "Processing failed."
	}
	if hint := Hint(err); hint != "" {
		msg += " " + hint
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
