package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"factcheck/internal/media"
	"factcheck/internal/pipeline"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "info <url>",
		Short: "Show video metadata without downloading",
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
			fetcher := media.NewFetcher(pipeline.FetcherConfig(cfg), logger)
			info, err := fetcher.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, info)
			}
			rows := [][]string{
				{"Title", info.Title},
				{"Uploader", info.Uploader},
				{"Duration", formatDuration(info.Duration)},
				{"Extractor", info.Extractor},
				{"ID", info.ID},
				{"URL", info.WebpageURL},
				{"Restricted", yesNo(media.IsRestricted(args[0]))},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output metadata as JSON")
	return cmd
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "unknown"
	}
	return (time.Duration(seconds) * time.Second).String()
}
