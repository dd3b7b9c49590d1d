package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sonicvoyager/internal/textutil"
	"sonicvoyager/internal/visual"
)

func newTracksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks",
		Short: "List the configured performance queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cfg.Tracks) == 0 {
				fmt.Fprintln(out, "No tracks queued; add [[tracks]] entries to the config")
				return nil
			}
			rows := make([][]string, 0, len(cfg.Tracks))
			for i, t := range cfg.Tracks {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					textutil.Truncate(t.Title, 40),
					textutil.Ternary(t.Genre != "", t.Genre, "-"),
					string(visual.ResolvePreset(t.Genre)),
					visual.ThemeColor(t.Genre),
					yesNo(t.Artwork != ""),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Title", "Genre", "Preset", "Accent", "Artwork"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}
}
