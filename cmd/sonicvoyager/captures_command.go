package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sonicvoyager/internal/fileutil"
	"sonicvoyager/internal/library"
)

func newCapturesCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "captures",
		Aliases: []string{"ls"},
		Short:   "List recorded captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(store *library.Store) error {
				entries, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No captures recorded")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.ShortID(),
						e.Title,
						e.Preset,
						formatSeconds(e.DurationSeconds),
						humanize.IBytes(uint64(max(e.SizeBytes, 0))),
						validationLabel(e),
						humanize.Time(e.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Preset", "Length", "Size", "Valid", "Recorded"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum captures to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print captures as JSON")

	cmd.AddCommand(newCapturesShowCommand(ctx))
	cmd.AddCommand(newCapturesExportCommand(ctx))
	cmd.AddCommand(newCapturesRemoveCommand(ctx))
	return cmd
}

func newCapturesShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(store *library.Store) error {
				e, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, e)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:        %s\n", e.ID)
				fmt.Fprintf(out, "Title:     %s\n", e.Title)
				if e.Genre != "" {
					fmt.Fprintf(out, "Genre:     %s\n", e.Genre)
				}
				fmt.Fprintf(out, "Preset:    %s\n", e.Preset)
				fmt.Fprintf(out, "File:      %s\n", e.Path)
				fmt.Fprintf(out, "Format:    %s (%s)\n", e.Format, e.MimeType)
				fmt.Fprintf(out, "Length:    %s (%s frames)\n", formatSeconds(e.DurationSeconds), humanize.Comma(e.Frames))
				fmt.Fprintf(out, "Size:      %s\n", humanize.IBytes(uint64(max(e.SizeBytes, 0))))
				fmt.Fprintf(out, "Validated: %s\n", validationLabel(e))
				if e.ValidationError != "" {
					fmt.Fprintf(out, "Problem:   %s\n", e.ValidationError)
				}
				fmt.Fprintf(out, "Recorded:  %s (took %s)\n", e.CreatedAt.Local().Format(time.DateTime), e.Elapsed().Round(time.Second))
				if _, err := os.Stat(e.Path); err != nil {
					fmt.Fprintln(out, "Warning:   capture file is missing")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the capture as JSON")
	return cmd
}

func newCapturesExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id> <destination>",
		Short: "Copy a capture out of the output directory",
		Long:  "Export copies a capture and verifies the copy's checksum. A directory destination keeps the original file name.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(store *library.Store) error {
				e, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				dest := strings.TrimSpace(args[1])
				if info, err := os.Stat(dest); err == nil && info.IsDir() {
					dest = filepath.Join(dest, e.FileName())
				}
				if err := fileutil.CopyFileVerified(e.Path, dest); err != nil {
					return fmt.Errorf("export %s: %w", e.ShortID(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", e.Title, dest)
				return nil
			})
		},
	}
}

func newCapturesRemoveCommand(ctx *commandContext) *cobra.Command {
	var deleteFile bool
	cmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Forget a capture",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(store *library.Store) error {
				e, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := store.Remove(cmd.Context(), e.ID); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Removed %s (%s) from the catalog\n", e.ShortID(), e.Title)
				if deleteFile {
					if err := os.Remove(e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
						return fmt.Errorf("delete capture file: %w", err)
					}
					fmt.Fprintf(out, "Deleted %s\n", e.Path)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&deleteFile, "delete-file", false, "Also delete the capture file")
	return cmd
}

func validationLabel(e *library.Entry) string {
	switch {
	case e.Validated:
		return "yes"
	case e.ValidationError != "":
		return "failed"
	default:
		return "-"
	}
}

func formatSeconds(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d", m, s)
}
