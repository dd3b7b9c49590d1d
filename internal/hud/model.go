package hud

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"sonicvoyager/internal/overlay"
	"sonicvoyager/internal/spectrum"
	"sonicvoyager/internal/textutil"
)

// Analysis is the audio state the HUD reads every tick.
type Analysis interface {
	FrequencyData() []uint8
	AverageFrequency() float64
	IsBeat() bool
	BandEnergy(band spectrum.Band) float64
	PeakFrequency(sampleRate int) float64
}

// Track is one queue entry.
type Track struct {
	Title string
	Genre string
}

type popup struct{ title, text string }

var popups = []popup{
	{"AUDIO ENGINE", "Phase alignment optimized."},
	{"VISUAL CORE", "Rendering pipeline active."},
	{"SYSTEM CHECK", "All parameters nominal."},
	{"BUFFER STATUS", "Latency minimal."},
	{"FREQUENCY", "Spectrum analysis running."},
}

var (
	bassMessages   = []string{"BASS: CRITICAL", "LOW FREQ: DETECTED", "SUB: ACTIVE", "IMPACT: HIGH"}
	trebleMessages = []string{"HI-FREQ: PEAKING", "AIR: DETECTED", "SHIMMER: ON", "CLARITY: MAX"}
	randomMessages = []string{
		"STEREO: WIDE", "PHASE: ALIGNED", "SYNC: 100%", "VOYAGE: ONGOING",
		"DATA: FLOWING", "SIGNAL: STRONG", "RESONANCE: FOUND",
	}
)

const (
	cardBass   = "#ff3333"
	cardTreble = "#33ffff"
	cardPlain  = "#ffffff"
)

type card struct {
	overlay.Card
	age time.Duration
}

// Model is the HUD state machine. It is not safe for concurrent use; drive
// it from the frame loop.
type Model struct {
	opts   Options
	rng    *rand.Rand
	graphs *graphs

	tracks  []Track
	active  int
	playing bool
	accent  string

	signalPercent int
	peakLabel     string

	notification overlay.Notification
	notifLeft    time.Duration
	sincePopup   time.Duration

	cards []card

	cinematic  bool
	inactivity time.Duration
	hidden     time.Duration
}

// New returns a model with every panel visible and no tracks.
func New(opts Options) *Model {
	def := DefaultOptions()
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = def.NotificationTTL
	}
	if opts.CardHold <= 0 {
		opts.CardHold = def.CardHold
	}
	if opts.CardFade <= 0 {
		opts.CardFade = def.CardFade
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = def.SampleRate
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Model{
		opts:      opts,
		rng:       rng,
		graphs:    newGraphs(),
		active:    -1,
		accent:    "#00F0FF",
		peakLabel: "0 Hz",
	}
}

// SetTracks replaces the queue. The active index is cleared.
func (m *Model) SetTracks(tracks []Track) {
	m.tracks = append(m.tracks[:0], tracks...)
	m.active = -1
}

// SelectTrack marks index active, announces it and restores the full UI.
func (m *Model) SelectTrack(index int) {
	if index < 0 || index >= len(m.tracks) {
		return
	}
	m.active = index
	m.playing = true
	m.resetToFullUI()
	m.Notify("NOW PLAYING", m.tracks[index].Title)
}

// SetPlaying records the transport state and restores the full UI.
func (m *Model) SetPlaying(playing bool) {
	m.playing = playing
	m.resetToFullUI()
}

// SetAccent sets the theme colour used for notifications and cards.
func (m *Model) SetAccent(hex string) { m.accent = hex }

// Notify shows a notification for the configured lifetime, replacing any
// current one.
func (m *Model) Notify(title, text string) {
	m.notification = overlay.Notification{Title: title, Text: text, Visible: true}
	m.notifLeft = m.opts.NotificationTTL
}

// Interact registers user activity. It leaves cinematic mode if active.
func (m *Model) Interact() {
	m.inactivity = 0
	m.cinematic = false
}

// Cinematic reports whether the panels are auto-hidden.
func (m *Model) Cinematic() bool { return m.cinematic }

func (m *Model) resetToFullUI() {
	m.cinematic = false
	m.inactivity = 0
}

// Update advances every timer by dt and refreshes stats from a.
func (m *Model) Update(a Analysis, dt time.Duration) {
	energy := a.AverageFrequency()
	m.signalPercent = int(math.Round(energy / 255 * 100))
	m.peakLabel = fmt.Sprintf("%d Hz", int(math.Round(a.PeakFrequency(m.opts.SampleRate))))
	m.graphs.pushSignal(energy)
	m.graphs.drawPeak(a.FrequencyData())

	m.ageCards(dt)
	m.maybeSpawnCard(a)

	if m.notification.Visible {
		m.notifLeft -= dt
		if m.notifLeft <= 0 {
			m.notification.Visible = false
		}
	}

	if m.opts.PopupInterval > 0 {
		m.sincePopup += dt
		if m.sincePopup > m.opts.PopupInterval {
			if !m.cinematic {
				p := popups[m.rng.IntN(len(popups))]
				m.Notify(p.title, p.text)
			}
			m.sincePopup = 0
		}
	}

	if !m.opts.AutoHide || !m.playing {
		return
	}
	if !m.cinematic {
		m.inactivity += dt
		m.hidden = 0
		if m.inactivity > m.opts.Inactivity {
			m.cinematic = true
		}
		return
	}
	m.hidden += dt
	m.inactivity = 0
	if m.hidden > m.opts.Reappear {
		m.resetToFullUI()
	}
}

func (m *Model) maybeSpawnCard(a Analysis) {
	bass, treble := a.BandEnergy(spectrum.Bass), a.BandEnergy(spectrum.Treble)
	switch {
	case a.IsBeat() && bass > 150:
		if m.rng.Float64() < 0.1 {
			m.spawnCard(bassMessages, cardBass)
		}
	case treble > 180:
		if m.rng.Float64() < 0.02 {
			m.spawnCard(trebleMessages, cardTreble)
		}
	default:
		if m.rng.Float64() < 0.001 {
			m.spawnCard(randomMessages, cardPlain)
		}
	}
}

func (m *Model) spawnCard(messages []string, accent string) {
	var x float64
	if m.rng.Float64() > 0.5 {
		x = 5 + m.rng.Float64()*20
	} else {
		x = 75 + m.rng.Float64()*20
	}
	y := 20 + m.rng.Float64()*60
	m.cards = append(m.cards, card{Card: overlay.Card{
		Text:    messages[m.rng.IntN(len(messages))],
		X:       x / 100,
		Y:       y / 100,
		Opacity: 1,
		Accent:  accent,
	}})
}

// ageCards holds each card fully opaque, then fades it out and drops it.
func (m *Model) ageCards(dt time.Duration) {
	kept := m.cards[:0]
	for _, c := range m.cards {
		c.age += dt
		switch {
		case c.age <= m.opts.CardHold:
			c.Opacity = 1
		case c.age < m.opts.CardHold+m.opts.CardFade:
			c.Opacity = 1 - float64(c.age-m.opts.CardHold)/float64(m.opts.CardFade)
		default:
			continue
		}
		kept = append(kept, c)
	}
	m.cards = kept
}

// Snapshot returns an independent copy of the overlay state. Panels are
// hidden while cinematic mode is on.
func (m *Model) Snapshot() overlay.Snapshot {
	s := overlay.Snapshot{
		Accent:        m.accent,
		SignalPercent: m.signalPercent,
		SignalGraph:   m.graphs.signalImage(),
		PeakLabel:     m.peakLabel,
		PeakGraph:     m.graphs.peakImage(),
		Notification:  m.notification,
		Panels: overlay.Panels{
			Signal:   !m.cinematic,
			Peak:     !m.cinematic,
			Tracks:   !m.cinematic,
			Controls: !m.cinematic,
		},
	}
	if m.active >= 0 {
		t := m.tracks[m.active]
		s.Title = t.Title
		s.Genre = textutil.DisplayUpper(t.Genre)
	}
	s.Tracks = make([]overlay.TrackRow, len(m.tracks))
	for i, t := range m.tracks {
		s.Tracks[i] = overlay.TrackRow{Title: t.Title, Genre: t.Genre, Active: i == m.active}
	}
	s.Cards = make([]overlay.Card, len(m.cards))
	for i, c := range m.cards {
		s.Cards[i] = c.Card
	}
	return s.Clone()
}
