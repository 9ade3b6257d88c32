package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"factcheck/internal/analysis"
	"factcheck/internal/cache"
	"factcheck/internal/config"
	"factcheck/internal/media"
	"factcheck/internal/proxy"
	"factcheck/internal/services/llm"
	"factcheck/internal/services/transcribe"
	"factcheck/internal/status"
)

// Runtime holds the concrete components built from configuration.
type Runtime struct {
	Orchestrator *Orchestrator
	Cache        *cache.Cache
	Tracker      *status.Tracker
	Fetcher      *media.Fetcher
	closers      []func() error
}

// Close releases stores opened by Build.
func (r *Runtime) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}

// FetcherConfig maps application config onto the media fetcher settings.
func FetcherConfig(cfg *config.Config) media.Config {
	return media.Config{
		Binary:      cfg.Fetcher.Binary,
		OutputDir:   cfg.Paths.TempDir,
		CookiePaths: cfg.Fetcher.CookiePaths,
		Proxy: proxy.Config{
			Address:  cfg.Proxy.Address,
			Port:     cfg.Proxy.Port,
			Username: cfg.Proxy.Username,
			Password: cfg.Proxy.Password,
		},
		Timeout:     seconds(cfg.Fetcher.TimeoutSeconds),
		InfoTimeout: seconds(cfg.Fetcher.InfoTimeoutSeconds),
		ProbeBinary: "ffprobe",
	}
}

// Build opens the result cache and status store and wires the orchestrator.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	results, err := cache.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Cache: results, closers: []func() error{results.Close}}

	kv := status.OpenKV(ctx, cfg.Status.RedisURL, logger)
	if closer, ok := kv.(interface{ Close() error }); ok {
		rt.closers = append(rt.closers, closer.Close)
	}
	rt.Tracker = status.NewTracker(kv, seconds(cfg.Status.TTLSeconds), cfg.Status.KeyPrefix, logger)

	rt.Fetcher = media.NewFetcher(FetcherConfig(cfg), logger)
	transcriber := transcribe.NewClient(transcribe.Config{
		APIKey:         cfg.OpenAI.APIKey,
		URL:            cfg.OpenAI.TranscriptionURL,
		Model:          cfg.OpenAI.TranscriptionModel,
		TimeoutSeconds: cfg.OpenAI.TranscriptionTimeoutSeconds,
	})
	chat := llm.NewClient(llm.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.ChatURL,
		Model:          cfg.OpenAI.Model,
		TimeoutSeconds: cfg.OpenAI.AnalysisTimeoutSeconds,
	})

	rt.Orchestrator = New(Deps{
		Fetcher:     rt.Fetcher,
		Transcriber: transcriber,
		Analyzer:    analysis.NewAnalyzer(chat, cfg.Output.Format, logger),
		Store:       results,
		Status:      rt.Tracker,
		Timeouts: Timeouts{
			Download:   seconds(cfg.Fetcher.TimeoutSeconds),
			Transcribe: seconds(cfg.OpenAI.TranscriptionTimeoutSeconds),
			Analyze:    seconds(cfg.OpenAI.AnalysisTimeoutSeconds),
		},
		ShareURL: cfg.ShareURL,
		Logger:   logger,
	})
	return rt, nil
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
