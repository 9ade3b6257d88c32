package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"factcheck/internal/api"
	"factcheck/internal/cache"
	"factcheck/internal/config"
	"factcheck/internal/pipeline"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "resolve <short-code>",
		Short: "Show a cached fact-check by short code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(cmd.Context(), func(cfg *config.Config, results *cache.Cache) error {
				row, err := results.Resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if row == nil {
					return fmt.Errorf("no result for short code %q", args[0])
				}
				if jsonOut {
					return writeJSON(cmd, api.FromCacheResult(*row, cfg.ShareURL, true))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Source:     %s\n", row.SourceURL)
				fmt.Fprintf(out, "Created:    %s\n", row.CreatedAt.Local().Format("2006-01-02 15:04"))
				printResult(out, pipeline.Result{
					SourceURL:  row.SourceURL,
					Transcript: row.Transcript,
					Analysis:   row.Analysis,
					ShortCode:  row.ShortCode,
					ShareURL:   cfg.ShareURL(row.ShortCode),
					Cached:     true,
				})
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the result as JSON")
	return cmd
}
