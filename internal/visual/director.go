package visual

import (
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"sonicvoyager/internal/logging"
	"sonicvoyager/internal/preset"
	"sonicvoyager/internal/scene"
	"sonicvoyager/internal/services"
	"sonicvoyager/internal/spectrum"
)

// Analysis is the per-tick audio state the director reads.
type Analysis interface {
	FrequencyData() []uint8
	WaveformData() []uint8
	IsBeat() bool
	BandEnergy(band spectrum.Band) float64
}

// Options configures a Director.
type Options struct {
	Width     int
	Height    int
	Seed      uint64 // 0 picks a time-based seed
	Bloom     bool
	FilmGrain bool
	Default   preset.Name // empty means Grid
	Logger    *slog.Logger
}

// Director owns the preset catalog, the scene and the camera.
type Director struct {
	scene    *scene.Scene
	camera   *scene.Camera
	renderer *scene.Renderer
	post     *scene.PostProcessor
	rig      *rig
	logger   *slog.Logger

	presets  map[preset.Name]preset.Renderer
	active   preset.Renderer
	features preset.Features

	bloom     bool
	grain     bool
	cinematic bool
	artwork   image.Image
	genre     string
}

// New builds the catalog and initializes the default preset.
func New(opts Options) (*Director, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, services.Wrap(services.ErrValidation, "visual", "new director",
			fmt.Sprintf("invalid surface %dx%d", opts.Width, opts.Height), nil)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))

	d := &Director{
		scene:    scene.New(),
		camera:   scene.NewPerspective(75, float64(opts.Width)/float64(opts.Height), 0.1, 1000),
		renderer: scene.NewRenderer(opts.Width, opts.Height),
		post:     scene.NewPostProcessor(seed),
		logger:   logging.NewComponentLogger(opts.Logger, "visual"),
		presets:  make(map[preset.Name]preset.Renderer, len(preset.Names())),
		bloom:    opts.Bloom,
		grain:    opts.FilmGrain,
	}
	d.rig = newRig(d.camera, rng)
	for _, name := range preset.Names() {
		r, err := preset.New(name, d.scene, rng)
		if err != nil {
			return nil, err
		}
		d.presets[name] = r
	}

	initial := opts.Default
	if initial == "" {
		initial = preset.Grid
	}
	first, ok := d.presets[initial]
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "visual", "new director",
			fmt.Sprintf("default preset %q", initial), preset.ErrUnknown)
	}
	first.Init()
	d.active = first
	return d, nil
}

// Active returns the active preset's name.
func (d *Director) Active() preset.Name { return d.active.Name() }

// Footprints reports every preset's held resources, keyed by name.
func (d *Director) Footprints() map[preset.Name]int {
	out := make(map[preset.Name]int, len(d.presets))
	for name, r := range d.presets {
		out[name] = r.Footprint()
	}
	return out
}

// SceneStats exposes the shared scene's resource counters.
func (d *Director) SceneStats() scene.Stats { return d.scene.Stats() }

// SetPreset switches to name. Selecting the active preset does nothing.
// An unknown name leaves the active preset untouched.
func (d *Director) SetPreset(name preset.Name) error {
	next, ok := d.presets[name]
	if !ok {
		return services.Wrap(services.ErrValidation, "visual", "set preset", fmt.Sprintf("%q", name), preset.ErrUnknown)
	}
	if next == d.active {
		return nil
	}
	previous := d.active.Name()
	d.active.Dispose()
	next.Init()
	d.active = next
	if setter, ok := next.(preset.ArtworkSetter); ok {
		setter.SetArtwork(d.artwork)
	}
	d.logger.Info("preset switched",
		logging.String("from", string(previous)),
		logging.String(logging.FieldPreset, string(name)),
	)
	return nil
}

// SetTrack selects the preset and theme for genre and hands artwork (which
// may be nil) to presets that can show it.
func (d *Director) SetTrack(genre string, artwork image.Image) error {
	d.genre = genre
	d.SetArtwork(artwork)
	return d.SetPreset(ResolvePreset(genre))
}

// SetArtwork forwards img to the active preset if it accepts artwork and
// remembers it for later switches.
func (d *Director) SetArtwork(img image.Image) {
	d.artwork = img
	if setter, ok := d.active.(preset.ArtworkSetter); ok {
		setter.SetArtwork(img)
	}
}

// Theme returns the accent colour for the current genre.
func (d *Director) Theme() colorful.Color {
	return scene.Hex(ThemeColor(d.genre))
}

// SetCinematic toggles the drifting camera pose.
func (d *Director) SetCinematic(on bool) { d.cinematic = on }

// Camera returns the director's camera.
func (d *Director) Camera() *scene.Camera { return d.camera }

// Surface returns the last rendered frame. Readers must not modify it.
func (d *Director) Surface() *image.RGBA { return d.renderer.Frame() }

// Render advances the camera, updates the active preset from a and draws
// one frame. elapsed is the performance clock in seconds.
func (d *Director) Render(a Analysis, elapsed float64) *image.RGBA {
	f := &d.features
	f.Frequency = a.FrequencyData()
	f.Waveform = a.WaveformData()
	f.IsBeat = a.IsBeat()
	f.Bass = a.BandEnergy(spectrum.Bass)
	f.Mid = a.BandEnergy(spectrum.Mid)
	f.Treble = a.BandEnergy(spectrum.Treble)
	f.Elapsed = elapsed

	d.rig.step(elapsed, d.cinematic, f.IsBeat)
	d.active.Update(f)

	frame := d.renderer.Render(d.scene, d.camera)
	d.post.Apply(frame, d.postSettings(f))

	f.Frequency, f.Waveform = nil, nil
	return frame
}

func (d *Director) postSettings(f *preset.Features) scene.PostSettings {
	var s scene.PostSettings
	if d.bloom {
		s.BloomStrength = 1.2 + f.Bass/255*0.8
		s.BloomRadius = 0.4 + f.Mid/255*0.2
		s.BloomThreshold = 0.85
	}
	if d.grain {
		s.Grain = 0.35
		if f.IsBeat {
			s.Grain += 0.1
		}
	}
	return s
}

// Close disposes the active preset.
func (d *Director) Close() {
	if d.active != nil {
		d.active.Dispose()
	}
}
