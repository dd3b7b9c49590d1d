// Package overlay defines the point-in-time UI state that the capture
// compositor draws over each recorded frame.
package overlay

import (
	"image"
	"image/draw"
)

// TrackRow is one entry of the sequence queue.
type TrackRow struct {
	Title  string
	Genre  string
	Active bool
}

// Notification is the transient banner in the lower right corner.
type Notification struct {
	Title   string
	Text    string
	Visible bool
}

// Card is a floating informational label. X and Y are fractions of the
// frame size.
type Card struct {
	Text    string
	X, Y    float64
	Opacity float64
	Accent  string // #RRGGBB
}

// Panels reports which UI panels are currently shown.
type Panels struct {
	Signal   bool
	Peak     bool
	Tracks   bool
	Controls bool
}

// AllPanels has every panel visible.
var AllPanels = Panels{Signal: true, Peak: true, Tracks: true, Controls: true}

// Snapshot is everything the compositor needs for one frame.
type Snapshot struct {
	Title  string
	Genre  string
	Accent string

	SignalPercent int
	SignalGraph   image.Image
	PeakLabel     string
	PeakGraph     image.Image

	Tracks       []TrackRow
	Notification Notification
	Cards        []Card
	Panels       Panels
}

// Clone returns a deep copy so the compositor never shares mutable state
// with the producer.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Tracks != nil {
		out.Tracks = append([]TrackRow(nil), s.Tracks...)
	}
	if s.Cards != nil {
		out.Cards = append([]Card(nil), s.Cards...)
	}
	out.SignalGraph = cloneImage(s.SignalGraph)
	out.PeakGraph = cloneImage(s.PeakGraph)
	return out
}

// ActiveTrack returns the active row, if any.
func (s Snapshot) ActiveTrack() (TrackRow, bool) {
	for _, row := range s.Tracks {
		if row.Active {
			return row, true
		}
	}
	return TrackRow{}, false
}

// Source produces a fresh snapshot on every call.
type Source interface {
	Snapshot() Snapshot
}

// Static is a Source that always returns a copy of itself.
type Static Snapshot

// Snapshot implements Source.
func (s Static) Snapshot() Snapshot { return Snapshot(s).Clone() }

func cloneImage(img image.Image) image.Image {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}
