package api

import (
	"errors"
	"net/http"

	"factcheck/internal/cache"
	"factcheck/internal/pipeline"
	"factcheck/internal/services"
	"factcheck/internal/status"
)

// FromPipelineResult converts an orchestrator result into a submit response.
func FromPipelineResult(res pipeline.Result) SubmitResponse {
	return SubmitResponse{
		Transcript: res.Transcript,
		Analysis:   res.Analysis,
		ShortCode:  res.ShortCode,
		ShareURL:   res.ShareURL,
		Cached:     res.Cached,
	}
}

// FromSnapshot converts a status snapshot into a poll response.
func FromSnapshot(snap status.Snapshot) StatusResponse {
	return StatusResponse{
		Stage:    string(snap.Stage),
		Progress: snap.Percent,
		Message:  snap.Message,
	}
}

// FromCacheResult converts a stored row. shareURL may be nil. Body text is
// omitted when full is false.
func FromCacheResult(row cache.Result, shareURL func(string) string, full bool) Result {
	out := Result{
		ShortCode: row.ShortCode,
		SourceURL: row.SourceURL,
	}
	if full {
		out.Transcript = row.Transcript
		out.Analysis = row.Analysis
	}
	if shareURL != nil {
		out.ShareURL = shareURL(row.ShortCode)
	}
	if !row.CreatedAt.IsZero() {
		out.CreatedAt = row.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return out
}

// FromCacheResults converts rows in order.
func FromCacheResults(rows []cache.Result, shareURL func(string) string) []Result {
	out := make([]Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromCacheResult(row, shareURL, false))
	}
	return out
}

// FromError maps a pipeline error to an HTTP status and error body.
func FromError(err error) (int, ErrorResponse) {
	body := ErrorResponse{
		Error:  services.UserMessage(err),
		Detail: err.Error(),
		Hint:   services.Hint(err),
	}
	var apiErr *services.APIError
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, body
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout, body
	case errors.As(err, &apiErr), errors.Is(err, services.ErrAPI), errors.Is(err, services.ErrNetwork):
		return http.StatusBadGateway, body
	case errors.Is(err, services.ErrAuth), errors.Is(err, services.ErrDownload), errors.Is(err, services.ErrFileNotFound):
		return http.StatusUnprocessableEntity, body
	default:
		return http.StatusInternalServerError, body
	}
}
