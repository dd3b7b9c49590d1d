package hud

import (
	"image"

	"github.com/fogleman/gg"
)

// graphs renders the two stat card graphs into reusable contexts.
type graphs struct {
	signal  *gg.Context
	peak    *gg.Context
	history []float64
}

func newGraphs() *graphs {
	return &graphs{
		signal:  gg.NewContext(GraphWidth, GraphHeight),
		peak:    gg.NewContext(GraphWidth, GraphHeight),
		history: make([]float64, 0, GraphWidth/4),
	}
}

// pushSignal appends energy to the rolling history, keeping at most one
// point per four pixels, and redraws the line graph.
func (g *graphs) pushSignal(energy float64) {
	if len(g.history) == cap(g.history) {
		copy(g.history, g.history[1:])
		g.history = g.history[:len(g.history)-1]
	}
	g.history = append(g.history, energy)

	dc := g.signal
	h := float64(dc.Height())
	dc.SetRGBA(0, 0, 0, 0)
	dc.Clear()
	for i, v := range g.history {
		x, y := float64(i*4), h-(v/255)*h
		if i == 0 {
			dc.MoveTo(x, y)
			continue
		}
		dc.LineTo(x, y)
	}
	dc.SetHexColor("#00F0FF")
	dc.SetLineWidth(2)
	dc.Stroke()
}

// drawPeak draws the lower half of the spectrum as white bars.
func (g *graphs) drawPeak(freq []uint8) {
	dc := g.peak
	w, h := float64(dc.Width()), float64(dc.Height())
	dc.SetRGBA(0, 0, 0, 0)
	dc.Clear()
	if len(freq) == 0 {
		return
	}
	dc.SetHexColor("#FFFFFF")
	barWidth := w / float64(len(freq)) * 2.5
	x := 0.0
	for i := 0; i < len(freq)/2; i += 2 {
		bar := float64(freq[i]) / 255 * h
		if bar > 0 {
			dc.DrawRectangle(x, h-bar, barWidth, bar)
		}
		x += barWidth + 1
	}
	dc.Fill()
}

func (g *graphs) signalImage() image.Image { return g.signal.Image() }
func (g *graphs) peakImage() image.Image   { return g.peak.Image() }
