package main

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"sonicvoyager/internal/preset"
	"sonicvoyager/internal/scene"
	"sonicvoyager/internal/visual"
)

type presetInfo struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Artwork  bool     `json:"artwork"`
	Default  bool     `json:"default"`
}

func newPresetsCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "presets",
		Short:       "List the visual presets and the genres that select them",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := describePresets()
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, infos)
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				keywords := strings.Join(info.Keywords, ", ")
				if info.Default {
					keywords = strings.TrimPrefix(keywords+", (unmatched)", ", ")
				}
				rows = append(rows, []string{info.Name, keywords, yesNo(info.Artwork)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Preset", "Genre keywords", "Artwork"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print presets as JSON")
	cmd.AddCommand(newPresetsResolveCommand())
	return cmd
}

func newPresetsResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "resolve <genre>",
		Short:       "Show the preset and accent colour a genre tag selects",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			genre := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Genre:  %s\n", genre)
			fmt.Fprintf(out, "Preset: %s\n", visual.ResolvePreset(genre))
			fmt.Fprintf(out, "Accent: %s\n", visual.ThemeColor(genre))
			return nil
		},
	}
}

// describePresets builds (without initializing) each preset to report which
// ones accept cover art.
func describePresets() ([]presetInfo, error) {
	rng := rand.New(rand.NewPCG(1, 1))
	names := preset.Names()
	infos := make([]presetInfo, 0, len(names))
	for _, name := range names {
		r, err := preset.New(name, scene.New(), rng)
		if err != nil {
			return nil, err
		}
		_, artwork := r.(preset.ArtworkSetter)
		infos = append(infos, presetInfo{
			Name:     string(name),
			Keywords: visual.Keywords(name),
			Artwork:  artwork,
			Default:  name == visual.DefaultGenrePreset,
		})
	}
	return infos, nil
}
