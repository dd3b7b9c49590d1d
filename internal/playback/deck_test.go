package playback

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"

	"sonicvoyager/internal/services"
	"sonicvoyager/internal/testsupport"
)

func writeWAV(t *testing.T, dir string, sr beep.SampleRate, d time.Duration) string {
	t.Helper()
	return testsupport.WriteTone(t, filepath.Join(dir, "tone.wav"), testsupport.Tone{
		Freq:      440,
		Amplitude: 0.5,
		Rate:      sr,
		Length:    d,
	})
}

func resumeOffline(t *testing.T, d *Deck) {
	t.Helper()
	select {
	case err := <-d.Resume(context.Background()):
		if err != nil {
			t.Fatalf("resume: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("resume never completed")
	}
}

func TestTapReadLatestPadsAndOrders(t *testing.T) {
	tap := NewTap(4)
	dst := make([]float64, 4)
	if n := tap.ReadLatest(dst); n != 0 {
		t.Fatalf("expected empty tap, got %d", n)
	}

	tap.Write([][2]float64{{1, 1}, {2, 2}})
	n := tap.ReadLatest(dst)
	if n != 2 || dst[0] != 0 || dst[1] != 0 || dst[2] != 1 || dst[3] != 2 {
		t.Fatalf("unexpected padded read n=%d dst=%v", n, dst)
	}

	tap.Write([][2]float64{{3, 3}, {4, 4}, {5, 5}})
	tap.ReadLatest(dst)
	want := []float64{2, 3, 4, 5}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("unexpected ring order: %v", dst)
		}
	}

	tap.Reset()
	if n := tap.ReadLatest(dst); n != 0 || dst[3] != 0 {
		t.Fatalf("expected reset tap, n=%d dst=%v", n, dst)
	}
}

func TestPlayRequiresResume(t *testing.T) {
	d := NewDeck(Options{SampleRate: 48000})
	if err := d.Play(); !errors.Is(err, ErrNotResumed) {
		t.Fatalf("expected ErrNotResumed, got %v", err)
	}
}

func TestDeckSilentWithoutTrack(t *testing.T) {
	d := NewDeck(Options{SampleRate: 48000})
	resumeOffline(t, d)
	var pcm bytes.Buffer
	detach := d.Attach(&pcm)
	defer detach()

	d.Pull(800)
	if pcm.Len() != 800*4 {
		t.Fatalf("expected silent pcm block, got %d bytes", pcm.Len())
	}
	for _, b := range pcm.Bytes() {
		if b != 0 {
			t.Fatal("expected silence")
		}
	}
}

func TestDeckPlaysResampledTrackToEnd(t *testing.T) {
	path := writeWAV(t, t.TempDir(), 44100, 250*time.Millisecond)
	stream, format, err := Open(context.Background(), nil, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	d := NewDeck(Options{SampleRate: 48000})
	defer d.Close()
	ended := 0
	d.OnEnded(func() { ended++ })
	d.Load(stream, format)
	resumeOffline(t, d)
	if err := d.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}

	var pcm bytes.Buffer
	d.Attach(&pcm)

	window := make([]float64, 1024)
	for i := 0; i < 30 && d.Playing(); i++ {
		d.Pull(800)
		if i == 2 {
			if n := d.Tap().ReadLatest(window); n != 1024 {
				t.Fatalf("expected full analysis window, got %d", n)
			}
			peak := 0.0
			for _, v := range window {
				peak = math.Max(peak, math.Abs(v))
			}
			if peak < 0.3 {
				t.Fatalf("expected tone in tap, peak=%v", peak)
			}
		}
	}
	if d.Playing() {
		t.Fatal("expected track to end")
	}
	if ended != 1 {
		t.Fatalf("expected one end notification, got %d", ended)
	}
	if pcm.Len()%4 != 0 || pcm.Len() == 0 {
		t.Fatalf("unexpected pcm length %d", pcm.Len())
	}

	if err := d.Seek(0); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if d.Position() != 0 {
		t.Fatalf("expected position reset, got %v", d.Position())
	}
	if d.Duration() < 240*time.Millisecond {
		t.Fatalf("unexpected duration %v", d.Duration())
	}
}

func TestOpenRemoteTrack(t *testing.T) {
	path := writeWAV(t, t.TempDir(), 48000, 100*time.Millisecond)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stream" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	stream, format, err := Open(context.Background(), srv.Client(), srv.URL+"/stream")
	if err != nil {
		t.Fatalf("open remote: %v", err)
	}
	defer stream.Close()
	if format.SampleRate != 48000 {
		t.Fatalf("unexpected format %+v", format)
	}

	if _, _, err := Open(context.Background(), srv.Client(), srv.URL+"/missing.mp3"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for 404, got %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, _, err := Open(context.Background(), nil, filepath.Join(t.TempDir(), "nope.mp3"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := Open(context.Background(), nil, " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty ref, got %v", err)
	}
}

func TestSniffCodec(t *testing.T) {
	cases := map[string]Codec{
		"ID3\x04":          CodecMP3,
		"\xff\xfb\x90\x00": CodecMP3,
		"RIFF":             CodecWAV,
		"fLaC":             CodecFLAC,
		"OggS":             CodecVorbis,
	}
	for header, want := range cases {
		got, err := sniffCodec([]byte(header))
		if err != nil || got != want {
			t.Fatalf("sniff %q = %q, %v; want %q", header, got, err, want)
		}
	}
	if _, err := sniffCodec([]byte("%PDF")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
