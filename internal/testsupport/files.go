package testsupport

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// WriteFile fills path with size bytes of filler, creating parent
// directories. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(max(size, 1))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Tone describes a stereo sine test track.
type Tone struct {
	Freq      float64
	Amplitude float64
	Rate      beep.SampleRate
	Length    time.Duration
}

type sine struct {
	tone Tone
	pos  int
}

func (s *sine) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := s.tone.Amplitude * math.Sin(2*math.Pi*s.tone.Freq*float64(s.pos)/float64(s.tone.Rate))
		samples[i] = [2]float64{v, v}
		s.pos++
	}
	return len(samples), true
}

func (s *sine) Err() error { return nil }

// WriteTone encodes tone as a 16-bit stereo WAV file at path and returns
// the path.
func WriteTone(t testing.TB, path string, tone Tone) string {
	t.Helper()
	if tone.Rate == 0 {
		tone.Rate = 48000
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	format := beep.Format{SampleRate: tone.Rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, beep.Take(tone.Rate.N(tone.Length), &sine{tone: tone}), format); err != nil {
		f.Close()
		t.Fatalf("encode wav: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
	return path
}
