package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	groupsCmd := &cobra.Command{
		Use:   "groups",
		Short: "Review duplicate groups",
	}
	groupsCmd.AddCommand(newGroupsListCommand(ctx))
	groupsCmd.AddCommand(newGroupsShowCommand(ctx))
	groupsCmd.AddCommand(newGroupsDismissCommand(ctx))
	groupsCmd.AddCommand(newGroupsKeepCommand(ctx))
	return groupsCmd
}

func newGroupsListCommand(ctx *commandContext) *cobra.Command {
	var includeDismissed bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List duplicate groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			groups, err := svc.ListGroups(cmd.Context(), includeDismissed)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No duplicate groups. Run `mediavault dedupe` first.")
				return nil
			}

			rows := make([][]string, 0, len(groups))
			for _, g := range groups {
				state := ""
				if g.Dismissed {
					state = "dismissed"
				}
				rows = append(rows, []string{
					strconv.FormatInt(g.ID, 10),
					g.Kind,
					formatTitle(g.Title, g.Year),
					strconv.Itoa(len(g.Members)),
					fmt.Sprintf("%.2f", g.Confidence),
					formatTimestamp(g.DetectedAt),
					state,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Kind", "Title", "Members", "Confidence", "Detected", ""},
				rows, 1, 4, 5))
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeDismissed, "all", false, "Include dismissed groups")
	return cmd
}

func newGroupsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a group's ranked members",
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
			group, err := svc.GetGroup(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s group %d: %s (confidence %.2f)\n",
				group.Kind, group.ID, formatTitle(group.Title, group.Year), group.Confidence)

			rows := make([][]string, 0, len(group.Members))
			for _, m := range group.Members {
				size, score, path := "-", "-", "-"
				if m.File != nil {
					size = formatSize(m.File.Size)
					score = strconv.Itoa(m.File.QualityScore)
					path = truncate(m.File.Path, 60)
				}
				reason := m.Reason
				if m.LanguageConcern {
					reason = reason + " [language concern]"
				}
				rows = append(rows, []string{
					strconv.Itoa(m.Rank),
					strconv.FormatInt(m.FileID, 10),
					m.Action,
					score,
					size,
					path,
					reason,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Rank", "File", "Action", "Score", "Size", "Path", "Reason"},
				rows, 1, 2, 4, 5))
			return nil
		},
	}
}

func newGroupsDismissCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss a group so it is never suggested again",
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
			if err := svc.DismissGroup(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Group %d dismissed\n", id)
			return nil
		},
	}
}

func newGroupsKeepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "keep <group-id> <file-id>",
		Short: "Override the recommended keeper for a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseID(args[0])
			if err != nil {
				return err
			}
			fileID, err := parseID(args[1])
			if err != nil {
				return err
			}
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			if err := svc.SetKeeper(cmd.Context(), groupID, fileID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "File %d marked as keeper of group %d\n", fileID, groupID)
			return nil
		},
	}
}
