package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"factcheck/internal/pipeline"
	"factcheck/internal/status"
)

const stagePollInterval = 250 * time.Millisecond

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOut bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Download, transcribe, and fact-check a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			rt, err := pipeline.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			owner := "cli-" + uuid.NewString()
			var stop func()
			if !quiet && !jsonOut {
				stop = watchStages(cmd.Context(), rt.Tracker, owner, cmd.ErrOrStderr())
			}
			result, err := rt.Orchestrator.Submit(cmd.Context(), owner, args[0])
			if stop != nil {
				stop()
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the result as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print stage progress")
	return cmd
}

// watchStages prints each stage transition for owner until the returned stop
// function is called.
func watchStages(ctx context.Context, tracker *status.Tracker, owner string, out io.Writer) func() {
	watchCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(stagePollInterval)
		defer ticker.Stop()
		var last status.Stage
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
			}
			snap, err := tracker.Poll(watchCtx, owner)
			if err != nil || snap.Stage == last || snap.Stage == status.StageProcessing {
				continue
			}
			last = snap.Stage
			fmt.Fprintf(out, "%-13s %3d%%  %s\n", stageLabel(snap.Stage), snap.Percent, snap.Message)
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func printResult(out io.Writer, result pipeline.Result) {
	fmt.Fprintf(out, "Short code: %s\n", result.ShortCode)
	if result.ShareURL != "" {
		fmt.Fprintf(out, "Share URL:  %s\n", result.ShareURL)
	}
	fmt.Fprintf(out, "Cached:     %s\n", yesNo(result.Cached))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Analysis")
	fmt.Fprintln(out, strings.Repeat("-", len("Analysis")))
	fmt.Fprintln(out, renderAnalysis(result.Analysis))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Transcript")
	fmt.Fprintln(out, strings.Repeat("-", len("Transcript")))
	fmt.Fprintln(out, strings.TrimSpace(result.Transcript))
}
