package preset

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"sonicvoyager/internal/scene"
)

// Name identifies a catalog entry.
type Name string

const (
	Grid     Name = "Grid"
	Pentagon Name = "Pentagon"
	Wave     Name = "Wave"
	Cosmic   Name = "Cosmic"
	Neon     Name = "Neon"
	Ethereal Name = "Ethereal"
	Dark     Name = "Dark"
	Energy   Name = "Energy"
	Chrome   Name = "Chrome"
)

var catalog = []Name{Grid, Pentagon, Wave, Cosmic, Neon, Ethereal, Dark, Energy, Chrome}

// ErrUnknown reports a preset name outside the catalog.
var ErrUnknown = errors.New("unknown preset")

// Names returns the catalog in display order.
func Names() []Name {
	out := make([]Name, len(catalog))
	copy(out, catalog)
	return out
}

// Parse resolves a case-insensitive preset name.
func Parse(raw string) (Name, error) {
	trimmed := strings.TrimSpace(raw)
	for _, name := range catalog {
		if strings.EqualFold(string(name), trimmed) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, raw)
}

// Features is one frame of audio analysis. The slices are owned by the
// caller and only valid for the duration of Update.
type Features struct {
	Frequency []uint8
	Waveform  []uint8
	IsBeat    bool
	Bass      float64 // 0..255
	Mid       float64
	Treble    float64
	Elapsed   float64 // seconds
}

// Renderer is the contract every preset implements.
type Renderer interface {
	Name() Name
	Init()
	Update(f *Features)
	Dispose()
	// Footprint counts the scene resources currently held: nodes,
	// geometries, materials and scene-level state such as fog.
	Footprint() int
}

// ArtworkSetter is implemented by presets with a surface for cover art.
type ArtworkSetter interface {
	SetArtwork(img image.Image)
}

// New constructs an uninitialized preset bound to s. rng drives all
// randomness so runs with the same seed are reproducible.
func New(name Name, s *scene.Scene, rng *rand.Rand) (Renderer, error) {
	h := holdings{scene: s, rng: rng}
	switch name {
	case Grid:
		return &gridTunnel{holdings: h}, nil
	case Pentagon:
		return &pentagonalCore{holdings: h}, nil
	case Wave:
		return &circularWave{holdings: h}, nil
	case Cosmic:
		return &cosmicVoyage{holdings: h}, nil
	case Neon:
		return &neonCity{holdings: h}, nil
	case Ethereal:
		return &etherealAura{holdings: h}, nil
	case Dark:
		return &darkMatter{holdings: h}, nil
	case Energy:
		return &energyPulse{holdings: h}, nil
	case Chrome:
		return &chromeCadence{holdings: h}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// hsl builds a colour from hue in turns (wrapped into [0,1)), saturation
// and lightness.
func hsl(h, s, l float64) colorful.Color {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	return colorful.Hsl(h*360, s, l).Clamped()
}

func lerpColor(from, to colorful.Color, t float64) colorful.Color {
	return from.BlendRgb(to, t)
}

// signed returns a uniform value in [-0.5, 0.5).
func signed(rng *rand.Rand) float64 { return rng.Float64() - 0.5 }
