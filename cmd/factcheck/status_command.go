package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"factcheck/internal/config"
	"factcheck/internal/deps"
	"factcheck/internal/media"
	"factcheck/internal/pipeline"
	"factcheck/internal/preflight"
	"factcheck/internal/proxy"
	"factcheck/internal/status"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check configuration, dependencies, and external services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines, configLines(ctx.configPath, cfg, colorize)...)
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(cmd.Context(), cfg, colorize)...)
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			var results []preflight.Result
			if offline {
				results = preflight.RunLocal(cfg)
			} else {
				results = preflight.RunAll(cmd.Context(), cfg)
			}
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusWarn
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Stages", colorize)...)
			lines = append(lines, stageLines(colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network checks")
	return cmd
}

func configLines(path string, cfg *config.Config, colorize bool) []string {
	lines := []string{renderStatusLine("Config file", statusInfo, path, colorize)}

	if err := cfg.RequireAPIKey(); err != nil {
		lines = append(lines, renderStatusLine("OpenAI API key", statusError, "Missing", colorize))
	} else {
		lines = append(lines, renderStatusLine("OpenAI API key", statusOK, "Configured", colorize))
	}
	lines = append(lines, renderStatusLine("Analysis model", statusInfo, cfg.OpenAI.Model, colorize))
	lines = append(lines, renderStatusLine("Output format", statusInfo, cfg.Output.Format, colorize))
	lines = append(lines, renderStatusLine("Result cache", statusInfo, cfg.Cache.Driver, colorize))

	statusStore := "in-memory"
	if cfg.Status.RedisURL != "" {
		statusStore = proxy.Redact(cfg.Status.RedisURL)
	}
	lines = append(lines, renderStatusLine("Status store", statusInfo, statusStore, colorize))

	proxyURL := proxy.Build(pipeline.FetcherConfig(cfg).Proxy)
	if proxyURL == "" {
		lines = append(lines, renderStatusLine("Proxy", statusInfo, "Not configured (cookie jar used for restricted sites)", colorize))
	} else {
		lines = append(lines, renderStatusLine("Proxy", statusOK, proxy.Redact(proxyURL), colorize))
	}
	return lines
}

func dependencyLines(ctx context.Context, cfg *config.Config, colorize bool) []string {
	statuses := preflight.CheckSystemDeps(cfg)
	lines := make([]string, 0, len(statuses))
	for _, dep := range statuses {
		lines = append(lines, dependencyLine(ctx, cfg, dep, colorize))
	}
	return lines
}

func dependencyLine(ctx context.Context, cfg *config.Config, dep deps.Status, colorize bool) string {
	if !dep.Available {
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		return renderStatusLine(dep.Name, kind, dep.Detail, colorize)
	}
	detail := dep.Command
	if dep.Name == "yt-dlp" {
		versionCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		fetcher := media.NewFetcher(pipeline.FetcherConfig(cfg), nil)
		if version, err := fetcher.Version(versionCtx); err == nil && version != "" {
			detail = fmt.Sprintf("%s (%s)", dep.Command, version)
		}
	}
	return renderStatusLine(dep.Name, statusOK, detail, colorize)
}

func stageLines(colorize bool) []string {
	stages := []status.Stage{
		status.StageStarting,
		status.StageDownloading,
		status.StageTranscribing,
		status.StageAnalyzing,
		status.StageComplete,
	}
	lines := make([]string, 0, len(stages))
	for _, stage := range stages {
		lines = append(lines, renderStatusLine(stageLabel(stage), statusInfo,
			fmt.Sprintf("%3d%%  %s", status.Progress(stage), status.Message(stage)), colorize))
	}
	return lines
}
