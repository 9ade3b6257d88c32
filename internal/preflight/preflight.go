package preflight

import (
	"context"

	"factcheck/internal/config"
)

// minFreeBytes is the free space required in the temp directory. Extracted
// audio for long videos easily reaches a few hundred megabytes.
const minFreeBytes = 512 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Network checks are only run when the corresponding setting is present.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := RunLocal(cfg)

	if cfg.OpenAI.APIKey != "" {
		results = append(results, CheckOpenAI(ctx, cfg.OpenAI.ChatURL, cfg.OpenAI.APIKey))
	}

	if cfg.Status.RedisURL != "" {
		results = append(results, CheckRedis(ctx, cfg.Status.RedisURL))
	}

	return results
}

// RunLocal executes the filesystem checks only.
func RunLocal(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir),
		CheckFreeSpace("Temp free space", cfg.Paths.TempDir, minFreeBytes),
	}
}

// Failed returns only the failing results.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
