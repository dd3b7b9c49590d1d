package capture

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"sonicvoyager/internal/overlay"
	"sonicvoyager/internal/textutil"
)

// Overlay layout in output pixels.
const (
	statCardX    = 60
	signalCardY  = 150
	peakCardY    = 350
	statCardW    = 450
	statCardH    = 180
	queueX       = Width - 460
	queueY       = 150
	queueW       = 400
	queueH       = 800
	queueRowH    = 60
	queueRowStep = 70
	controlsX    = 60
	controlsY    = Height - 180
	controlsW    = 1100
	controlsH    = 140
	cardW        = 300
	cardH        = 40
	notifX       = Width - 400
	notifY       = Height - 250
	notifW       = 360
	notifH       = 80
)

type fontSet struct {
	regular *truetype.Font
	bold    *truetype.Font
	mono    *truetype.Font
}

var loadFonts = sync.OnceValues(func() (fontSet, error) {
	var set fontSet
	var err error
	if set.regular, err = truetype.Parse(goregular.TTF); err != nil {
		return fontSet{}, fmt.Errorf("parse regular font: %w", err)
	}
	if set.bold, err = truetype.Parse(gobold.TTF); err != nil {
		return fontSet{}, fmt.Errorf("parse bold font: %w", err)
	}
	if set.mono, err = truetype.Parse(gomono.TTF); err != nil {
		return fontSet{}, fmt.Errorf("parse mono font: %w", err)
	}
	return set, nil
})

type faces struct {
	logo     font.Face
	label    font.Face
	value    font.Face
	header   font.Face
	rowTitle font.Face
	mono12   font.Face
	nowTitle font.Face
	card     font.Face
	small    font.Face
	body     font.Face
}

// compositor owns a session's output frame and the faces drawn into it.
type compositor struct {
	target *image.RGBA
	dc     *gg.Context
	faces  faces
}

func newCompositor() (*compositor, error) {
	set, err := loadFonts()
	if err != nil {
		return nil, err
	}
	face := func(f *truetype.Font, size float64) font.Face {
		return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	}
	target := image.NewRGBA(image.Rect(0, 0, Width, Height))
	return &compositor{
		target: target,
		dc:     gg.NewContextForRGBA(target),
		faces: faces{
			logo:     face(set.bold, 28),
			label:    face(set.regular, 14),
			value:    face(set.mono, 24),
			header:   face(set.regular, 16),
			rowTitle: face(set.bold, 14),
			mono12:   face(set.mono, 12),
			nowTitle: face(set.bold, 24),
			card:     face(set.mono, 14),
			small:    face(set.regular, 12),
			body:     face(set.regular, 16),
		},
	}, nil
}

// letterbox fits src inside dst preserving aspect ratio, centred.
func letterbox(src, dst image.Point) image.Rectangle {
	if src.X <= 0 || src.Y <= 0 {
		return image.Rectangle{}
	}
	srcAspect := float64(src.X) / float64(src.Y)
	dstAspect := float64(dst.X) / float64(dst.Y)
	if srcAspect > dstAspect {
		h := int(math.Round(float64(dst.X) / srcAspect))
		y := (dst.Y - h) / 2
		return image.Rect(0, y, dst.X, y+h)
	}
	w := int(math.Round(float64(dst.Y) * srcAspect))
	x := (dst.X - w) / 2
	return image.Rect(x, 0, x+w, dst.Y)
}

// draw renders one output frame: black fill, the letterboxed surface, then
// the overlay panels the snapshot marks visible.
func (c *compositor) draw(src *image.RGBA, snap overlay.Snapshot) *image.RGBA {
	draw.Draw(c.target, c.target.Bounds(), image.Black, image.Point{}, draw.Src)
	if src != nil && !src.Bounds().Empty() {
		dst := letterbox(src.Bounds().Size(), c.target.Bounds().Size())
		draw.ApproxBiLinear.Scale(c.target, dst, src, src.Bounds(), draw.Src, nil)
	}

	c.text(c.faces.logo, "SONIC VOYAGER", 60, 50, 255, 255, 255, 1)
	if snap.Panels.Signal {
		c.statCard(signalCardY, "SIGNAL INTENSITY", fmt.Sprintf("%d%%", snap.SignalPercent), snap.SignalGraph)
	}
	if snap.Panels.Peak {
		c.statCard(peakCardY, "PEAK FREQ", textutil.Ternary(snap.PeakLabel != "", snap.PeakLabel, "0 Hz"), snap.PeakGraph)
	}
	if snap.Panels.Tracks {
		c.queue(snap.Tracks)
	}
	if snap.Panels.Controls {
		c.controls(snap.Title, snap.Genre)
	}
	for _, card := range snap.Cards {
		if card.Opacity > 0.1 {
			c.card(card)
		}
	}
	if snap.Notification.Visible {
		c.notification(snap.Notification)
	}
	return c.target
}

func (c *compositor) panel(x, y, w, h float64, fillAlpha float64) {
	dc := c.dc
	dc.DrawRectangle(x, y, w, h)
	dc.SetRGBA255(10, 10, 10, alpha(fillAlpha))
	dc.Fill()
	c.border(x, y, w, h)
}

func (c *compositor) border(x, y, w, h float64) {
	dc := c.dc
	dc.DrawRectangle(x+0.5, y+0.5, w-1, h-1)
	dc.SetRGBA255(255, 255, 255, alpha(0.15))
	dc.SetLineWidth(1)
	dc.Stroke()
}

func (c *compositor) text(face font.Face, s string, x, y float64, r, g, b int, a float64) {
	c.dc.SetFontFace(face)
	c.dc.SetRGBA255(r, g, b, alpha(a))
	c.dc.DrawString(s, x, y)
}

func (c *compositor) statCard(y int, label, value string, graph image.Image) {
	x := float64(statCardX)
	fy := float64(y)
	c.panel(x, fy, statCardW, statCardH, 0.85)
	c.text(c.faces.label, label, x+40, fy+40, 0x88, 0x88, 0x88, 1)

	c.dc.SetFontFace(c.faces.value)
	c.dc.SetRGB255(255, 255, 255)
	c.dc.DrawStringAnchored(value, x+410, fy+35, 1, 0)

	if graph != nil && !graph.Bounds().Empty() {
		dst := image.Rect(statCardX+40, y+90, statCardX+410, y+150)
		draw.ApproxBiLinear.Scale(c.target, dst, graph, graph.Bounds(), draw.Over, nil)
	}
}

func (c *compositor) queue(rows []overlay.TrackRow) {
	dc := c.dc
	x, y, w := float64(queueX), float64(queueY), float64(queueW)
	c.panel(x, y, w, queueH, 0.85)

	dc.DrawRectangle(x, y, w, 60)
	dc.SetRGBA255(255, 255, 255, alpha(0.02))
	dc.Fill()
	dc.DrawLine(x, y+60.5, x+w, y+60.5)
	dc.SetRGBA255(255, 255, 255, alpha(0.15))
	dc.SetLineWidth(1)
	dc.Stroke()
	c.text(c.faces.header, "SEQUENCE QUEUE", x+40, y+25, 255, 255, 255, 1)

	offset := y + 90
	for _, row := range rows {
		if offset > y+queueH-80 {
			break
		}
		dc.DrawRectangle(x+25, offset, w-50, queueRowH)
		if row.Active {
			dc.SetRGB255(255, 255, 255)
		} else {
			dc.SetRGBA255(255, 255, 255, alpha(0.03))
		}
		dc.Fill()

		if row.Active {
			c.text(c.faces.rowTitle, textutil.Truncate(row.Title, 25), x+40, offset+15, 0, 0, 0, 1)
			c.text(c.faces.mono12, row.Genre, x+40, offset+35, 0, 0, 0, 0.6)
		} else {
			c.text(c.faces.rowTitle, textutil.Truncate(row.Title, 25), x+40, offset+15, 255, 255, 255, 1)
			c.text(c.faces.mono12, row.Genre, x+40, offset+35, 0x88, 0x88, 0x88, 1)
		}
		offset += queueRowStep
	}
}

func (c *compositor) controls(title, artist string) {
	dc := c.dc
	x, y := float64(controlsX), float64(controlsY)
	c.panel(x, y, controlsW, controlsH, 0.85)

	// The capture always shows the play glyph.
	cx, cy := x+70, y+70
	dc.DrawCircle(cx, cy, 32)
	dc.SetRGB255(255, 255, 255)
	dc.SetLineWidth(1)
	dc.Stroke()
	dc.MoveTo(cx-8, cy-12)
	dc.LineTo(cx+12, cy)
	dc.LineTo(cx-8, cy+12)
	dc.ClosePath()
	dc.Fill()

	c.text(c.faces.mono12, "Now Transmitting", x+250, y+35, 0x88, 0x88, 0x88, 1)
	c.text(c.faces.nowTitle, textutil.Ternary(title != "", textutil.Truncate(title, 30), "SELECT TRACK"), x+250, y+55, 255, 255, 255, 1)
	c.text(c.faces.mono12, textutil.Ternary(artist != "", artist, "--"), x+250, y+90, 255, 255, 255, 0.5)
}

func (c *compositor) card(card overlay.Card) {
	dc := c.dc
	op := math.Min(card.Opacity, 1)
	x := math.Round(card.X * Width)
	y := math.Round(card.Y * Height)

	dc.DrawRectangle(x, y, cardW, cardH)
	dc.SetRGBA255(0, 0, 0, alpha(0.4*op))
	dc.Fill()

	accent, err := colorful.Hex(card.Accent)
	if err != nil {
		accent = colorful.Color{R: 1, G: 1, B: 1}
	}
	dc.DrawLine(x+1, y, x+1, y+cardH)
	dc.SetRGBA(accent.R, accent.G, accent.B, op)
	dc.SetLineWidth(2)
	dc.Stroke()

	c.text(c.faces.card, card.Text, x+20, y+22, 255, 255, 255, op)
}

func (c *compositor) notification(n overlay.Notification) {
	dc := c.dc
	x, y := float64(notifX), float64(notifY)
	dc.DrawRectangle(x, y, notifW, notifH)
	dc.SetRGBA255(0, 0, 0, alpha(0.7))
	dc.Fill()
	c.border(x, y, notifW, notifH)

	dc.DrawLine(x+1.5, y, x+1.5, y+notifH)
	dc.SetRGB255(255, 255, 255)
	dc.SetLineWidth(3)
	dc.Stroke()

	c.text(c.faces.small, n.Title, x+20, y+20, 0x88, 0x88, 0x88, 1)
	c.text(c.faces.body, n.Text, x+20, y+45, 255, 255, 255, 1)
}

func alpha(a float64) int {
	return int(math.Round(math.Max(0, math.Min(1, a)) * 255))
}
