package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediavault/internal/media"
	"mediavault/internal/store"
)

func newFilesCommand(ctx *commandContext) *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "Inspect the media inventory",
	}
	filesCmd.AddCommand(newFilesListCommand(ctx))
	filesCmd.AddCommand(newFilesShowCommand(ctx))
	return filesCmd
}

func newFilesListCommand(ctx *commandContext) *cobra.Command {
	var mediaType string
	var includeDeleted bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked files",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			filter := store.FileFilter{IncludeDeleted: includeDeleted, Limit: limit}
			if mediaType != "" {
				filter.MediaType = media.ParseType(mediaType)
			}
			files, err := svc.ListFiles(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No files tracked yet. Run `mediavault scan` first.")
				return nil
			}

			rows := make([][]string, 0, len(files))
			for _, f := range files {
				rows = append(rows, []string{
					strconv.FormatInt(f.ID, 10),
					formatTitle(f.Title, f.Year),
					f.MediaType,
					formatResolution(f.Width, f.Height),
					f.VideoCodec,
					formatSize(f.Size),
					strconv.Itoa(f.QualityScore),
					truncate(f.Path, 60),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Type", "Resolution", "Codec", "Size", "Score", "Path"},
				rows, 1, 6, 7))
			return nil
		},
	}
	cmd.Flags().StringVar(&mediaType, "type", "", "Filter by media type (movie, tv, unknown)")
	cmd.Flags().BoolVar(&includeDeleted, "deleted", false, "Include soft-deleted files")
	cmd.Flags().IntVar(&limit, "limit", 0, "Limit the number of rows")
	return cmd
}

func newFilesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every fact recorded for a file",
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
			f, err := svc.GetFile(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:          %s\n", f.Path)
			fmt.Fprintf(out, "Size:          %s\n", formatSize(f.Size))
			fmt.Fprintf(out, "Hash:          %s\n", f.ContentHash)
			fmt.Fprintf(out, "Title:         %s\n", formatTitle(f.Title, f.Year))
			if f.Season > 0 {
				fmt.Fprintf(out, "Episode:       S%02dE%02d\n", f.Season, f.Episode)
			}
			fmt.Fprintf(out, "Type:          %s\n", f.MediaType)
			fmt.Fprintf(out, "Container:     %s\n", f.Container)
			fmt.Fprintf(out, "Video:         %s %s\n", f.VideoCodec, formatResolution(f.Width, f.Height))
			fmt.Fprintf(out, "Bitrate:       %d kbps\n", f.BitrateKbps)
			fmt.Fprintf(out, "HDR:           %t\n", f.HDR)
			fmt.Fprintf(out, "Audio:         %v\n", f.AudioLangs)
			fmt.Fprintf(out, "Subtitles:     %v\n", f.SubtitleLangs)
			fmt.Fprintf(out, "Quality score: %d\n", f.QualityScore)
			fmt.Fprintf(out, "Discovered:    %s\n", formatTimestamp(f.DiscoveredAt))
			fmt.Fprintf(out, "Last scanned:  %s\n", formatTimestamp(f.LastScannedAt))
			if f.Deleted {
				fmt.Fprintln(out, "Deleted:       yes")
			}
			return nil
		},
	}
}
