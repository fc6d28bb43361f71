package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediavault/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			stats, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Files tracked:     %d (%s)\n", stats.Files, formatSize(stats.TotalBytes))
			fmt.Fprintf(out, "Duplicate groups:  %d\n", stats.ActiveGroups)
			fmt.Fprintf(out, "Staged deletions:  %d (%d approved)\n", stats.Pending, stats.Approved)
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
				if !status.Available {
					fmt.Fprintf(out, "Warning: %s unavailable (%s)\n", status.Name, status.Detail)
				}
			}
			return nil
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scan runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			scans, err := svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(scans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scans recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(scans))
			for _, s := range scans {
				rows = append(rows, []string{
					truncate(s.RunID, 8),
					s.ScanType,
					s.Status,
					formatTimestamp(s.StartedAt),
					strconv.Itoa(s.FilesFound),
					strconv.Itoa(s.FilesNew),
					strconv.Itoa(s.FilesUpdated),
					strconv.Itoa(s.ErrorCount),
					fmt.Sprintf("%dms", s.DurationMS),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "Type", "Status", "Started", "Found", "New", "Updated", "Errors", "Duration"},
				rows, 5, 6, 7, 8, 9))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	return cmd
}
