package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"factcheck/internal/api"
	"factcheck/internal/cache"
	"factcheck/internal/config"
)

func newRecentCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		all     bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently cached fact-checks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(cmd.Context(), func(cfg *config.Config, results *cache.Cache) error {
				var (
					rows []cache.Result
					err  error
				)
				if all {
					rows, err = results.All(cmd.Context())
				} else {
					rows, err = results.Recent(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.ResultListResponse{Results: api.FromCacheResults(rows, cfg.ShareURL)})
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No cached results")
					return nil
				}
				table := make([][]string, 0, len(rows))
				for _, row := range rows {
					table = append(table, []string{
						row.ShortCode,
						row.CreatedAt.Local().Format("2006-01-02 15:04"),
						row.SourceURL,
						cfg.ShareURL(row.ShortCode),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Code", "Created", "Source", "Share"}, table, nil))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", cache.DefaultRecentLimit, "Number of results to show")
	cmd.Flags().BoolVar(&all, "all", false, "Show every cached result")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output results as JSON")
	return cmd
}
