package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"factcheck/internal/cache"
	"factcheck/internal/fileutil"
	"factcheck/internal/logging"
	"factcheck/internal/media"
	"factcheck/internal/services"
	"factcheck/internal/status"
)

// Fetcher produces a local audio file for a video URL. The caller owns the file.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) (string, error)
}

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Analyzer fact-checks a transcript.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (string, error)
}

// ResultStore is the subset of the result cache the pipeline needs.
type ResultStore interface {
	Lookup(ctx context.Context, sourceURL string) (*cache.Result, error)
	Store(ctx context.Context, sourceURL, transcript, analysis string) (string, error)
}

// StageRecorder receives stage transitions per owner.
type StageRecorder interface {
	SetStage(ctx context.Context, owner string, stage status.Stage) error
}

// Timeouts bound each external stage. Zero leaves a stage unbounded.
type Timeouts struct {
	Download   time.Duration
	Transcribe time.Duration
	Analyze    time.Duration
}

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Fetcher     Fetcher
	Transcriber Transcriber
	Analyzer    Analyzer
	Store       ResultStore
	Status      StageRecorder
	Timeouts    Timeouts
	// ShareURL turns a short code into a public link. Nil leaves ShareURL empty.
	ShareURL func(code string) string
	Logger   *slog.Logger
}

// Result is what a submit returns to the caller.
type Result struct {
	SourceURL  string `json:"source_url"`
	Transcript string `json:"transcript"`
	Analysis   string `json:"analysis"`
	ShortCode  string `json:"short_code"`
	ShareURL   string `json:"share_url,omitempty"`
	Cached     bool   `json:"cached"`
}

// Orchestrator runs download, transcription, analysis, and caching in order.
type Orchestrator struct {
	deps   Deps
	logger *slog.Logger
}

// New constructs an orchestrator.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps, logger: logging.NewComponentLogger(deps.Logger, "pipeline")}
}

// Submit processes sourceURL for owner. A cache hit returns immediately with
// Cached set and leaves the owner's status untouched. Any stage failure aborts
// the run, marks the owner's status as error, and is returned unchanged.
func (o *Orchestrator) Submit(ctx context.Context, owner, sourceURL string) (Result, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	ctx = services.WithOwner(ctx, owner)
	logger := logging.WithContext(ctx, o.logger)

	if err := media.ValidateURL(sourceURL); err != nil {
		return Result{}, o.fail(ctx, owner, "validate", services.Wrap(services.ErrValidation, "validate", "url", "", err))
	}

	if cached, err := o.deps.Store.Lookup(ctx, sourceURL); err != nil {
		logger.Warn("cache lookup failed; running pipeline", logging.Error(err))
	} else if cached != nil {
		logger.Info("cache hit",
			logging.String(logging.FieldEventType, "cache_hit"),
			logging.String("short_code", cached.ShortCode),
		)
		return o.fromCache(cached), nil
	}

	o.setStage(ctx, owner, status.StageStarting)

	transcript, err := o.transcribeSource(ctx, owner, sourceURL)
	if err != nil {
		return Result{}, err
	}

	o.setStage(ctx, owner, status.StageAnalyzing)
	analysis, err := o.runStage(ctx, status.StageAnalyzing, o.deps.Timeouts.Analyze, func(stageCtx context.Context) (string, error) {
		return o.deps.Analyzer.Analyze(stageCtx, transcript)
	})
	if err != nil {
		return Result{}, o.fail(ctx, owner, string(status.StageAnalyzing), err)
	}

	code, err := o.deps.Store.Store(ctx, sourceURL, transcript, analysis)
	if errors.Is(err, cache.ErrDuplicate) {
		// A concurrent submit for the same URL won the insert.
		existing, lookupErr := o.deps.Store.Lookup(ctx, sourceURL)
		if lookupErr == nil && existing != nil {
			logger.Info("result cached concurrently; returning stored row",
				logging.String("short_code", existing.ShortCode),
			)
			o.setStage(ctx, owner, status.StageComplete)
			return o.fromCache(existing), nil
		}
		if lookupErr != nil {
			err = errors.Join(err, lookupErr)
		}
	}
	if err != nil {
		return Result{}, o.fail(ctx, owner, "caching", err)
	}

	o.setStage(ctx, owner, status.StageComplete)
	logger.Info("submission complete",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.String("short_code", code),
		logging.Int("transcript_chars", len(transcript)),
	)
	return Result{
		SourceURL:  sourceURL,
		Transcript: transcript,
		Analysis:   analysis,
		ShortCode:  code,
		ShareURL:   o.shareURL(code),
	}, nil
}

// transcribeSource downloads the audio and transcribes it. The audio file is
// removed before returning on every path.
func (o *Orchestrator) transcribeSource(ctx context.Context, owner, sourceURL string) (string, error) {
	o.setStage(ctx, owner, status.StageDownloading)
	audioPath, err := o.runStage(ctx, status.StageDownloading, o.deps.Timeouts.Download, func(stageCtx context.Context) (string, error) {
		return o.deps.Fetcher.Fetch(stageCtx, sourceURL)
	})
	if err != nil {
		return "", o.fail(ctx, owner, string(status.StageDownloading), err)
	}
	defer func() {
		if removeErr := fileutil.RemoveIfExists(audioPath); removeErr != nil {
			logging.WithContext(ctx, o.logger).Warn("failed to remove audio file",
				logging.String("path", audioPath),
				logging.Error(removeErr),
			)
		}
	}()

	o.setStage(ctx, owner, status.StageTranscribing)
	transcript, err := o.runStage(ctx, status.StageTranscribing, o.deps.Timeouts.Transcribe, func(stageCtx context.Context) (string, error) {
		return o.deps.Transcriber.Transcribe(stageCtx, audioPath)
	})
	if err != nil {
		return "", o.fail(ctx, owner, string(status.StageTranscribing), err)
	}
	return transcript, nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage status.Stage, timeout time.Duration, fn func(context.Context) (string, error)) (string, error) {
	stageCtx := services.WithStage(ctx, string(stage))
	if timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(stageCtx, timeout)
		defer cancel()
	}
	logging.WithContext(stageCtx, o.logger).Debug("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
	)
	started := time.Now()
	out, err := fn(stageCtx)
	if err != nil && !errors.Is(err, services.ErrTimeout) && errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		err = services.Wrap(services.ErrTimeout, string(stage), "stage", "exceeded "+timeout.String(), err)
	}
	if err == nil {
		logging.WithContext(stageCtx, o.logger).Debug("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
	return out, err
}

func (o *Orchestrator) fail(ctx context.Context, owner, stage string, err error) error {
	o.setStage(ctx, owner, status.StageError)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String(logging.FieldStage, stage),
		logging.String("user_message", services.UserMessage(err)),
		logging.Error(err),
	}
	if hint := services.Hint(err); hint != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
	}
	logging.WithContext(ctx, o.logger).Error("submission failed", logging.Args(attrs...)...)
	return err
}

func (o *Orchestrator) setStage(ctx context.Context, owner string, stage status.Stage) {
	if o.deps.Status == nil || owner == "" {
		return
	}
	// Status is advisory; a store outage must not fail the job.
	_ = o.deps.Status.SetStage(ctx, owner, stage)
}

func (o *Orchestrator) fromCache(row *cache.Result) Result {
	return Result{
		SourceURL:  row.SourceURL,
		Transcript: row.Transcript,
		Analysis:   row.Analysis,
		ShortCode:  row.ShortCode,
		ShareURL:   o.shareURL(row.ShortCode),
		Cached:     true,
	}
}

func (o *Orchestrator) shareURL(code string) string {
	if o.deps.ShareURL == nil || code == "" {
		return ""
	}
	return o.deps.ShareURL(code)
}
