package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPendingCommand(ctx *commandContext) *cobra.Command {
	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "Manage staged deletions",
	}
	pendingCmd.AddCommand(newPendingListCommand(ctx))
	pendingCmd.AddCommand(newPendingStageCommand(ctx))
	pendingCmd.AddCommand(newPendingApproveCommand(ctx))
	pendingCmd.AddCommand(newPendingRestoreCommand(ctx))
	pendingCmd.AddCommand(newPendingPurgeCommand(ctx))
	pendingCmd.AddCommand(newPendingExpireCommand(ctx))
	return pendingCmd
}

func newPendingStageCommand(ctx *commandContext) *cobra.Command {
	var reason string
	var groupID int64

	cmd := &cobra.Command{
		Use:   "stage <file-id>",
		Short: "Move a file into quarantine pending deletion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			pending, err := svc.Stage(cmd.Context(), id, reason, groupID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Staged as pending deletion %d\n", pending.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Quarantine: %s\n", pending.QuarantinePath)
			if pending.LanguageConcern {
				fmt.Fprintf(cmd.OutOrStdout(), "Note: %s\n", pending.LanguageConcernReason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "staged by operator", "Reason recorded with the staging")
	cmd.Flags().Int64Var(&groupID, "group", 0, "Duplicate group that motivated the staging")
	return cmd
}

func newPendingListCommand(ctx *commandContext) *cobra.Command {
	var approvedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List staged deletions",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			rows, err := svc.ListPending(cmd.Context(), approvedOnly)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing staged for deletion.")
				return nil
			}

			tableRows := make([][]string, 0, len(rows))
			for _, p := range rows {
				state := "staged"
				if p.Approved {
					state = "approved"
				}
				note := p.Reason
				if p.LanguageConcern {
					note = note + " [language concern]"
				}
				tableRows = append(tableRows, []string{
					strconv.FormatInt(p.ID, 10),
					strconv.FormatInt(p.FileID, 10),
					state,
					formatSize(p.FileSize),
					formatTimestamp(p.StagedAt),
					truncate(p.OriginalPath, 55),
					note,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "File", "State", "Size", "Staged", "Original path", "Reason"},
				tableRows, 1, 2, 4))
			return nil
		},
	}
	cmd.Flags().BoolVar(&approvedOnly, "approved", false, "Only show approved rows")
	return cmd
}

func newPendingApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a staged deletion for the next purge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			if err := svc.Approve(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pending deletion %d approved; bytes are removed on the next purge\n", id)
			return nil
		},
	}
}

func newPendingRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Move a staged file back to its original path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			if err := svc.Restore(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pending deletion %d restored\n", id)
			return nil
		},
	}
}

func newPendingPurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Permanently delete approved quarantined files",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			view, err := svc.PurgeApproved(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d files, freed %s (%d errors)\n",
				view.Purged, formatSize(view.BytesFreed), view.Errors)
			return nil
		},
	}
}

func newPendingExpireCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Restore staged deletions older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			restored, err := svc.ExpireStale(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d stale staged deletions\n", restored)
			return nil
		},
	}
}
