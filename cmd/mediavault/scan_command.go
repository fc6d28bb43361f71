package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediavault/internal/media"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Scan library directories for media files",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			scanType, ok := media.ParseScanType(mode)
			if !ok {
				return fmt.Errorf("invalid scan mode %q (expected full or incremental)", mode)
			}
			view, err := svc.Scan(cmd.Context(), args, scanType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Scan %s finished: %d found, %d new, %d updated, %d errors (%dms)\n",
				view.RunID, view.FilesFound, view.FilesNew, view.FilesUpdated,
				view.ErrorCount, view.DurationMS)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(media.ScanIncremental), "Scan mode: full re-fingerprints every file, incremental skips unchanged ones")
	return cmd
}

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Detect duplicate groups across the inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			view, err := svc.Deduplicate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Considered %d files: %d exact, %d fuzzy (%d created, %d unchanged, %d removed)\n",
				view.FilesConsidered, view.ExactGroups, view.FuzzyGroups,
				view.GroupsCreated, view.GroupsKept, view.GroupsRemoved)
			return nil
		},
	}
}
