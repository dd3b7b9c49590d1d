package main

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sonicvoyager/internal/config"
)

// trackOverrides replace the metadata of the selected queue entry.
type trackOverrides struct {
	title   string
	genre   string
	artwork string
	preset  string
}

func (o *trackOverrides) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.title, "title", "", "Track title shown in the overlay and used for the capture file name")
	cmd.Flags().StringVar(&o.genre, "genre", "", "Genre tag used to pick the preset and accent colour")
	cmd.Flags().StringVar(&o.artwork, "artwork", "", "Cover art path or URL")
	cmd.Flags().StringVar(&o.preset, "preset", "", "Force a preset instead of routing by genre")
}

// selectQueueEntry resolves ref against the configured queue. A 1-based
// number picks a queued track; anything else is a source path or URL that
// is appended to the queue. An empty ref selects the first queued track.
func selectQueueEntry(cfg *config.Config, ref string, o trackOverrides) (int, error) {
	tracks := append([]config.Track(nil), cfg.Tracks...)
	ref = strings.TrimSpace(ref)

	var index int
	switch n, err := strconv.Atoi(ref); {
	case ref == "":
		if len(tracks) == 0 {
			return 0, fmt.Errorf("no track given and the configured queue is empty")
		}
	case err == nil:
		if n < 1 || n > len(tracks) {
			return 0, fmt.Errorf("track %d not in queue (1-%d)", n, len(tracks))
		}
		index = n - 1
	default:
		tracks = append(tracks, config.Track{Source: ref})
		index = len(tracks) - 1
	}

	track := &tracks[index]
	if v := strings.TrimSpace(o.title); v != "" {
		track.Title = v
	}
	if v := strings.TrimSpace(o.genre); v != "" {
		track.Genre = v
	}
	if v := strings.TrimSpace(o.artwork); v != "" {
		track.Artwork = v
	}
	if strings.TrimSpace(track.Title) == "" {
		base := path.Base(track.Source)
		track.Title = strings.TrimSuffix(base, path.Ext(base))
	}
	cfg.Tracks = tracks
	return index, nil
}
