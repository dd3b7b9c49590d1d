package visual

import (
	"errors"
	"image"
	"math"
	"testing"

	"sonicvoyager/internal/preset"
	"sonicvoyager/internal/scene"
	"sonicvoyager/internal/services"
	"sonicvoyager/internal/spectrum"
)

type fakeAnalysis struct {
	freq, wave []uint8
	beat       bool
	bands      [3]float64
}

func (f *fakeAnalysis) FrequencyData() []uint8 { return f.freq }
func (f *fakeAnalysis) WaveformData() []uint8  { return f.wave }
func (f *fakeAnalysis) IsBeat() bool           { return f.beat }
func (f *fakeAnalysis) BandEnergy(b spectrum.Band) float64 {
	return f.bands[b]
}

func newDirector(t *testing.T) *Director {
	t.Helper()
	d, err := New(Options{Width: 64, Height: 36, Seed: 42, Bloom: true, FilmGrain: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestResolvePreset(t *testing.T) {
	tests := []struct {
		genre string
		want  preset.Name
	}{
		{"Dark Cyberpunk Future", preset.Neon},
		{"ETHEREAL dark ambient", preset.Ethereal},
		{"darkwave", preset.Dark},
		{"Energetic Rave", preset.Energy},
		{"Drift Phonk", preset.Grid},
		{"Polyrhythmic", preset.Pentagon},
		{"Future Funk", preset.Wave},
		{"2000s Pop", preset.Wave},
		{"Lo-fi", preset.Cosmic},
		{"", preset.Cosmic},
	}
	for _, tt := range tests {
		if got := ResolvePreset(tt.genre); got != tt.want {
			t.Fatalf("ResolvePreset(%q) = %s, want %s", tt.genre, got, tt.want)
		}
	}
}

func TestThemeColorLastMatchWins(t *testing.T) {
	tests := map[string]string{
		"Lo-fi":                 "#00F0FF",
		"Cyberpunk":             "#FF00FF",
		"Dark Cyberpunk Future": "#FF3333",
		"energetic ethereal":    "#33FF33",
	}
	for genre, want := range tests {
		if got := ThemeColor(genre); got != want {
			t.Fatalf("ThemeColor(%q) = %s, want %s", genre, got, want)
		}
	}
}

func TestKeywords(t *testing.T) {
	got := Keywords(preset.Grid)
	if len(got) != 3 || got[0] != "electronic" || got[2] != "phonk" {
		t.Fatalf("Keywords(Grid) = %v", got)
	}
	if len(Keywords(preset.Chrome)) != 0 {
		t.Fatal("Chrome has no genre keywords")
	}
}

func TestDirectorStartsOnGrid(t *testing.T) {
	d := newDirector(t)
	if d.Active() != preset.Grid {
		t.Fatalf("active = %s", d.Active())
	}
	for name, fp := range d.Footprints() {
		if (fp > 0) != (name == preset.Grid) {
			t.Fatalf("%s footprint = %d", name, fp)
		}
	}
}

func TestSetPresetSameIsNoop(t *testing.T) {
	d := newDirector(t)
	before := d.SceneStats()
	if err := d.SetPreset(preset.Grid); err != nil {
		t.Fatalf("SetPreset: %v", err)
	}
	if after := d.SceneStats(); after != before {
		t.Fatalf("stats changed: %+v -> %+v", before, after)
	}
}

func TestSetPresetUnknownKeepsState(t *testing.T) {
	d := newDirector(t)
	before := d.SceneStats()
	err := d.SetPreset("Vaporwave")
	if !errors.Is(err, preset.ErrUnknown) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected unknown preset validation error, got %v", err)
	}
	if d.Active() != preset.Grid || d.SceneStats() != before {
		t.Fatal("state changed after rejected switch")
	}
}

func TestSwitchSequenceLeavesOneActive(t *testing.T) {
	d := newDirector(t)
	sequence := []preset.Name{
		preset.Neon, preset.Cosmic, preset.Chrome, preset.Dark, preset.Wave,
		preset.Energy, preset.Ethereal, preset.Pentagon, preset.Grid, preset.Chrome,
	}
	analysis := &fakeAnalysis{freq: make([]uint8, 1024), wave: make([]uint8, 2048), bands: [3]float64{200, 120, 90}}
	for i, name := range sequence {
		if err := d.SetPreset(name); err != nil {
			t.Fatalf("SetPreset(%s): %v", name, err)
		}
		d.Render(analysis, float64(i)/60)

		holding := 0
		for n, fp := range d.Footprints() {
			if fp > 0 {
				holding++
				if n != name {
					t.Fatalf("inactive %s holds %d resources", n, fp)
				}
			}
		}
		if holding != 1 {
			t.Fatalf("%d presets hold resources after switching to %s", holding, name)
		}
	}
	d.Close()
	if stats := d.SceneStats(); stats.Nodes != 0 || stats.LiveGeometries != 0 || stats.LiveMaterials != 0 {
		t.Fatalf("resources left after close: %+v", stats)
	}
}

func TestSetTrackRoutesGenreAndArtwork(t *testing.T) {
	d := newDirector(t)
	art := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if err := d.SetTrack("Dark Cyberpunk Future", art); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}
	if d.Active() != preset.Neon {
		t.Fatalf("active = %s, want Neon", d.Active())
	}
	if hex := d.Theme().Hex(); hex != "#ff3333" {
		t.Fatalf("theme = %s", hex)
	}
	if err := d.SetPreset(preset.Chrome); err != nil {
		t.Fatalf("SetPreset: %v", err)
	}
	// Artwork set before the switch is applied on activation.
	if d.artwork != art {
		t.Fatal("artwork not retained")
	}
}

func TestRenderProducesSurface(t *testing.T) {
	d := newDirector(t)
	freq := make([]uint8, 1024)
	for i := range freq {
		freq[i] = 200
	}
	analysis := &fakeAnalysis{freq: freq, wave: make([]uint8, 2048), beat: true, bands: [3]float64{220, 150, 120}}
	frame := d.Render(analysis, 1)
	if frame.Bounds().Dx() != 64 || frame.Bounds().Dy() != 36 {
		t.Fatalf("frame bounds = %v", frame.Bounds())
	}
	if d.Surface() != frame {
		t.Fatal("surface should be the last rendered frame")
	}
	if d.features.Frequency != nil {
		t.Fatal("director retained the frequency buffer past the tick")
	}
}

func TestRigSettlesToRestPose(t *testing.T) {
	d := newDirector(t)
	quiet := &fakeAnalysis{}
	d.camera.Position.Y = 3
	for i := 0; i < 400; i++ {
		d.rig.step(float64(i)/60, false, quiet.beat)
	}
	pos := d.camera.Position
	if math.Abs(pos.X) > 1e-3 || math.Abs(pos.Y) > 1e-3 || math.Abs(pos.Z-30) > 1e-3 {
		t.Fatalf("camera did not settle: %+v", pos)
	}
	if d.camera.Target() != scene.V(0, 0, 0) {
		t.Fatalf("camera should look at the origin, got %+v", d.camera.Target())
	}
}

func TestRigCinematicDrift(t *testing.T) {
	d := newDirector(t)
	for i := 0; i < 2000; i++ {
		d.rig.step(0, true, false)
	}
	// At t=0 the cinematic target equals the rest pose.
	if math.Abs(d.camera.Position.Z-30) > 1e-6 {
		t.Fatalf("z = %v", d.camera.Position.Z)
	}
	t0 := math.Pi / 2 / 0.1 // sin(t*0.1) = 1
	for i := 0; i < 2000; i++ {
		d.rig.step(t0, true, false)
	}
	if math.Abs(d.camera.Position.Z-45) > 1e-3 {
		t.Fatalf("cinematic z = %v, want 45", d.camera.Position.Z)
	}
}

func TestNewRejectsBadSurface(t *testing.T) {
	if _, err := New(Options{Width: 0, Height: 10}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
