package status

import (
	"context"
	"log/slog"
	"time"

	"factcheck/internal/logging"
)

// Stage is one step of the processing pipeline.
type Stage string

const (
	StageStarting     Stage = "starting"
	StageDownloading  Stage = "downloading"
	StageTranscribing Stage = "transcribing"
	StageAnalyzing    Stage = "analyzing"
	StageComplete     Stage = "complete"
	StageError        Stage = "error"
	// StageProcessing is reported for owners without a live entry.
	StageProcessing Stage = "processing"
)

const (
	// DefaultTTL bounds how long an abandoned status survives.
	DefaultTTL = time.Hour
	// DefaultKeyPrefix namespaces status keys in a shared store.
	DefaultKeyPrefix = "factcheck_status_"
)

// Progress maps a stage to its progress-bar percentage.
func Progress(stage Stage) int {
	switch stage {
	case StageDownloading:
		return 25
	case StageTranscribing:
		return 50
	case StageAnalyzing:
		return 75
	case StageComplete, StageError:
		return 100
	default:
		return 0
	}
}

// Message returns the human text shown while a stage is active.
func Message(stage Stage) string {
	switch stage {
	case StageDownloading:
		return "Downloading video..."
	case StageTranscribing:
		return "Transcribing audio..."
	case StageAnalyzing:
		return "Analyzing content..."
	case StageComplete:
		return "Complete!"
	case StageError:
		return "Error occurred"
	default:
		return "Processing..."
	}
}

// Snapshot is the poll view of one owner's job.
type Snapshot struct {
	Stage   Stage  `json:"stage"`
	Percent int    `json:"progress"`
	Message string `json:"message"`
}

// Tracker is a last-write-wins stage register per owner. Transitions are not
// validated; any stage may follow any other.
type Tracker struct {
	kv     KV
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewTracker wraps kv. Non-positive ttl uses DefaultTTL; empty prefix uses
// DefaultKeyPrefix.
func NewTracker(kv KV, ttl time.Duration, prefix string, logger *slog.Logger) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Tracker{kv: kv, ttl: ttl, prefix: prefix, logger: logging.NewComponentLogger(logger, "status")}
}

// SetStage records stage for owner, replacing any previous value.
func (t *Tracker) SetStage(ctx context.Context, owner string, stage Stage) error {
	if err := t.kv.Set(ctx, t.prefix+owner, string(stage), t.ttl); err != nil {
		logging.WithContext(ctx, t.logger).Warn("status write failed",
			logging.String("stage", string(stage)),
			logging.Error(err),
		)
		return err
	}
	return nil
}

// GetStage returns the owner's stage, or StageProcessing when none is live.
func (t *Tracker) GetStage(ctx context.Context, owner string) (Stage, error) {
	value, ok, err := t.kv.Get(ctx, t.prefix+owner)
	if err != nil {
		return StageProcessing, err
	}
	if !ok || value == "" {
		return StageProcessing, nil
	}
	return Stage(value), nil
}

// Poll returns the owner's stage with its percentage and message.
func (t *Tracker) Poll(ctx context.Context, owner string) (Snapshot, error) {
	stage, err := t.GetStage(ctx, owner)
	return Snapshot{Stage: stage, Percent: Progress(stage), Message: Message(stage)}, err
}
