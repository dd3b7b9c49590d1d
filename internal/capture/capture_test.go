package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sonicvoyager/internal/frameloop"
	"sonicvoyager/internal/overlay"
	"sonicvoyager/internal/services"
	"sonicvoyager/internal/services/ffmpeg"
)

type fakeEncoder struct {
	events   ffmpeg.Events
	chunks   [][]byte
	writeErr error

	mu       sync.Mutex
	frames   int
	audio    []byte
	finished bool
	killed   bool
}

func (e *fakeEncoder) WriteFrame(frame *image.RGBA) error {
	if e.writeErr != nil {
		return e.writeErr
	}
	if frame.Bounds().Dx() != Width || frame.Bounds().Dy() != Height {
		return fmt.Errorf("unexpected frame size %v", frame.Bounds())
	}
	e.mu.Lock()
	e.frames++
	e.mu.Unlock()
	return nil
}

func (e *fakeEncoder) Write(b []byte) (int, error) {
	e.mu.Lock()
	e.audio = append(e.audio, b...)
	e.mu.Unlock()
	return len(b), nil
}

func (e *fakeEncoder) Audio() io.Writer { return e }

func (e *fakeEncoder) Finish() {
	e.mu.Lock()
	e.finished = true
	e.mu.Unlock()
	go func() {
		for _, c := range e.chunks {
			e.events.Chunk(c)
		}
		e.events.Exit(nil)
	}()
}

func (e *fakeEncoder) Kill() {
	e.mu.Lock()
	e.killed = true
	e.mu.Unlock()
	go e.events.Exit(errors.New("signal: killed"))
}

func (e *fakeEncoder) frameCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

type fakeBackend struct {
	caps    ffmpeg.Capabilities
	capsErr error
	openErr error
	chunks  [][]byte

	probes   int
	opened   []ffmpeg.Format
	encoders []*fakeEncoder
}

func (b *fakeBackend) Capabilities(context.Context) (ffmpeg.Capabilities, error) {
	b.probes++
	return b.caps, b.capsErr
}

func (b *fakeBackend) Open(_ context.Context, f ffmpeg.Format, events ffmpeg.Events) (Encoder, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.opened = append(b.opened, f)
	enc := &fakeEncoder{events: events, chunks: b.chunks}
	b.encoders = append(b.encoders, enc)
	return enc, nil
}

func (b *fakeBackend) last() *fakeEncoder {
	return b.encoders[len(b.encoders)-1]
}

type fakeSurface struct{ img *image.RGBA }

func (s fakeSurface) Surface() *image.RGBA { return s.img }

type fakeAudio struct {
	attached int
	detached int
	sink     io.Writer
}

func (a *fakeAudio) Attach(w io.Writer) func() {
	a.attached++
	a.sink = w
	return func() { a.detached++ }
}

func vp9Caps() ffmpeg.Capabilities {
	return ffmpeg.Capabilities{
		Encoders: map[string]struct{}{"libvpx-vp9": {}, "libopus": {}},
		Muxers:   map[string]struct{}{"webm": {}},
	}
}

type harness struct {
	loop      *frameloop.Loop
	backend   *fakeBackend
	capture   *Capture
	dir       string
	audio     *fakeAudio
	surface   fakeSurface
	completed []Result
}

func newHarness(t *testing.T, chunks ...[]byte) *harness {
	t.Helper()
	h := &harness{
		loop:    frameloop.New(),
		backend: &fakeBackend{caps: vp9Caps(), chunks: chunks},
		dir:     t.TempDir(),
		audio:   &fakeAudio{},
		surface: fakeSurface{img: image.NewRGBA(image.Rect(0, 0, 64, 36))},
	}
	h.capture = New(Options{
		Loop:       h.loop,
		Backend:    h.backend,
		OutputDir:  h.dir,
		OnComplete: func(r Result) { h.completed = append(h.completed, r) },
		Now:        func() time.Time { return time.UnixMilli(1700000000123) },
	})
	return h
}

func (h *harness) start(t *testing.T, title string) {
	t.Helper()
	status, err := h.capture.Start(context.Background(), h.surface, h.audio, title)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if status != StatusStarted {
		t.Fatalf("expected %s, got %s", StatusStarted, status)
	}
}

func (h *harness) await(t *testing.T, fin *Finalization) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.loop.Await(ctx, fin.Done()); err != nil {
		t.Fatalf("finalization did not resolve: %v", err)
	}
	return fin.Result()
}

func (h *harness) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestStopWithoutChunksReportsNoData(t *testing.T) {
	h := newHarness(t)
	h.start(t, "Silent Track")
	h.loop.Step(16 * time.Millisecond)

	fin, status := h.capture.Stop()
	if status != StatusStopping || fin == nil {
		t.Fatalf("expected stopping with a finalization, got %s", status)
	}
	res := h.await(t, fin)
	if !errors.Is(res.Err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", res.Err)
	}
	if res.Path != "" {
		t.Fatalf("expected no artifact path, got %q", res.Path)
	}
	if files := h.files(t); len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
	if len(h.completed) != 1 {
		t.Fatalf("expected completion callback once, got %d", len(h.completed))
	}
	if h.capture.Recording() {
		t.Fatal("session should be destroyed after finalization")
	}
}

func TestStopWritesSingleArtifact(t *testing.T) {
	h := newHarness(t, []byte("ab"), []byte("cd"))
	h.start(t, "My Track!")
	for i := 1; i <= 3; i++ {
		h.loop.Step(time.Duration(i) * 16 * time.Millisecond)
	}

	fin, _ := h.capture.Stop()
	res := h.await(t, fin)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	want := filepath.Join(h.dir, "My_Track__1700000000123.webm")
	if res.Path != want {
		t.Fatalf("expected artifact %q, got %q", want, res.Path)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "abcd" {
		t.Fatalf("expected chunks in order, got %q", data)
	}
	if files := h.files(t); len(files) != 1 {
		t.Fatalf("expected exactly one file, got %v", files)
	}
	if res.Frames != 3 || res.Bytes != 4 || res.Chunks != 2 {
		t.Fatalf("unexpected result counters: %+v", res)
	}
	if res.Format.Name != "webm-vp9-opus" {
		t.Fatalf("expected negotiated vp9 format, got %s", res.Format.Name)
	}
	if len(h.completed) != 1 || h.completed[0].Path != want {
		t.Fatalf("unexpected completions: %+v", h.completed)
	}
}

func TestStartWhileRecordingIsRejected(t *testing.T) {
	h := newHarness(t)
	h.start(t, "one")
	status, err := h.capture.Start(context.Background(), h.surface, h.audio, "two")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusAlreadyRecording {
		t.Fatalf("expected %s, got %s", StatusAlreadyRecording, status)
	}
	if len(h.backend.encoders) != 1 {
		t.Fatalf("expected a single encoder, got %d", len(h.backend.encoders))
	}
	if h.loop.Pending() != 1 {
		t.Fatalf("expected a single compositing tick, got %d", h.loop.Pending())
	}
}

func TestStopWhenIdle(t *testing.T) {
	h := newHarness(t)
	fin, status := h.capture.Stop()
	if fin != nil || status != StatusIdle {
		t.Fatalf("expected (nil, idle), got (%v, %s)", fin, status)
	}
	if len(h.completed) != 0 {
		t.Fatal("idle stop must not fire the completion callback")
	}
}

func TestStartAttachesAudioBeforeFirstTick(t *testing.T) {
	h := newHarness(t)
	h.start(t, "order")
	if h.audio.attached != 1 {
		t.Fatalf("expected audio attached during Start, got %d", h.audio.attached)
	}
	if h.audio.sink != h.backend.last().Audio() {
		t.Fatal("audio must be attached to the encoder's input")
	}
	if h.backend.last().frameCount() != 0 {
		t.Fatal("no frame may be written before the first tick")
	}
	h.loop.Step(16 * time.Millisecond)
	if h.backend.last().frameCount() != 1 {
		t.Fatalf("expected one frame after first tick, got %d", h.backend.last().frameCount())
	}
}

func TestStartFailsWhenEncoderCannotOpen(t *testing.T) {
	h := newHarness(t)
	h.backend.openErr = errors.New("exec: ffmpeg not found")
	status, err := h.capture.Start(context.Background(), h.surface, h.audio, "x")
	if err == nil || !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v (%s)", err, status)
	}
	if h.capture.Recording() {
		t.Fatal("failed start must not leave a session")
	}
	if h.loop.Pending() != 0 || h.audio.attached != 0 {
		t.Fatalf("failed start scheduled work: pending=%d attached=%d", h.loop.Pending(), h.audio.attached)
	}
}

func TestStartRequiresSurface(t *testing.T) {
	h := newHarness(t)
	if _, err := h.capture.Start(context.Background(), nil, h.audio, "x"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStopCancelsCompositingImmediately(t *testing.T) {
	h := newHarness(t, []byte("x"))
	h.start(t, "cancel")
	h.loop.Step(16 * time.Millisecond)
	fin, _ := h.capture.Stop()
	if h.loop.Pending() != 0 {
		t.Fatalf("expected compositing tick cancelled, %d pending", h.loop.Pending())
	}
	if h.audio.detached != 1 {
		t.Fatal("expected audio detached at stop")
	}
	h.loop.Step(32 * time.Millisecond)
	if got := h.backend.last().frameCount(); got != 1 {
		t.Fatalf("frames written after stop: %d", got)
	}
	again, status := h.capture.Stop()
	if again != fin || status != StatusStopping {
		t.Fatalf("second stop should return the pending finalization")
	}
	h.await(t, fin)
}

func TestFormatNegotiatedOncePerCapture(t *testing.T) {
	h := newHarness(t, []byte("x"))
	for i := range 2 {
		h.start(t, fmt.Sprintf("take %d", i))
		fin, _ := h.capture.Stop()
		h.await(t, fin)
	}
	if h.backend.probes != 1 {
		t.Fatalf("expected a single probe, got %d", h.backend.probes)
	}
	if len(h.backend.opened) != 2 || h.backend.opened[1].Name != "webm-vp9-opus" {
		t.Fatalf("unexpected opened formats: %+v", h.backend.opened)
	}
}

func TestProbeFailureFallsBackWithoutCaching(t *testing.T) {
	h := newHarness(t)
	h.backend.capsErr = errors.New("probe failed")
	if f := h.capture.Format(context.Background()); f.Extension != "mkv" {
		t.Fatalf("expected fallback format, got %+v", f)
	}
	h.backend.capsErr = nil
	if f := h.capture.Format(context.Background()); f.Name != "webm-vp9-opus" {
		t.Fatalf("expected a retry after a failed probe, got %s", f.Name)
	}
}

func TestWriteFailureFaultsSession(t *testing.T) {
	h := newHarness(t)
	h.start(t, "fault")
	enc := h.backend.last()
	enc.events.Chunk([]byte("partial"))
	enc.writeErr = errors.New("broken pipe")
	h.loop.Step(16 * time.Millisecond)

	if h.capture.Recording() {
		t.Fatal("fault must destroy the session")
	}
	if len(h.completed) != 1 {
		t.Fatalf("expected one completion, got %d", len(h.completed))
	}
	res := h.completed[0]
	if !errors.Is(res.Err, ErrEncoderFault) {
		t.Fatalf("expected ErrEncoderFault, got %v", res.Err)
	}
	if res.Chunks != 1 || res.Path != "" {
		t.Fatalf("partial chunks must be discarded: %+v", res)
	}
	if !enc.killed || h.audio.detached != 1 || h.loop.Pending() != 0 {
		t.Fatalf("teardown incomplete: killed=%v detached=%d pending=%d", enc.killed, h.audio.detached, h.loop.Pending())
	}

	// The kill's exit report arrives later and is ignored.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	settle := make(chan struct{})
	time.AfterFunc(50*time.Millisecond, func() { close(settle) })
	_ = h.loop.Await(ctx, settle)
	if len(h.completed) != 1 {
		t.Fatalf("completion fired again: %d", len(h.completed))
	}
	if files := h.files(t); len(files) != 0 {
		t.Fatalf("fault must not leave files, got %v", files)
	}
	if _, status := h.capture.Stop(); status != StatusIdle {
		t.Fatalf("expected idle after fault, got %s", status)
	}
}

func TestUnexpectedExitFaultsSession(t *testing.T) {
	h := newHarness(t)
	h.start(t, "exit")
	h.backend.last().events.Exit(nil)
	h.loop.Drain()
	if len(h.completed) != 1 || !errors.Is(h.completed[0].Err, ErrEncoderFault) {
		t.Fatalf("expected encoder fault completion, got %+v", h.completed)
	}
}

func TestLetterbox(t *testing.T) {
	dst := image.Pt(Width, Height)
	tests := []struct {
		src  image.Point
		want image.Rectangle
	}{
		{image.Pt(1280, 720), image.Rect(0, 0, 1920, 1080)},
		{image.Pt(1000, 1000), image.Rect(420, 0, 1500, 1080)},
		{image.Pt(1920, 540), image.Rect(0, 270, 1920, 810)},
	}
	for _, tc := range tests {
		if got := letterbox(tc.src, dst); got != tc.want {
			t.Fatalf("letterbox(%v) = %v, want %v", tc.src, got, tc.want)
		}
	}
}

func fill(img *image.RGBA, c color.RGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}

func TestCompositorDrawsSurfaceAndPanels(t *testing.T) {
	comp, err := newCompositor()
	if err != nil {
		t.Fatalf("newCompositor: %v", err)
	}
	square := image.NewRGBA(image.Rect(0, 0, 100, 100))
	fill(square, color.RGBA{R: 255, A: 255})

	frame := comp.draw(square, overlay.Snapshot{})
	if got := frame.RGBAAt(960, 540); got.R < 250 || got.G > 5 {
		t.Fatalf("expected red centre, got %v", got)
	}
	if got := frame.RGBAAt(10, 540); got != (color.RGBA{A: 255}) {
		t.Fatalf("expected black letterbox bar, got %v", got)
	}

	snap := overlay.Snapshot{
		Tracks: []overlay.TrackRow{{Title: "Active", Genre: "SYNTHWAVE", Active: true}},
		Panels: overlay.Panels{Tracks: true},
	}
	frame = comp.draw(nil, snap)
	if got := frame.RGBAAt(queueX+30, queueY+90+50); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("expected inverted active row, got %v", got)
	}

	snap.Panels.Tracks = false
	frame = comp.draw(nil, snap)
	if got := frame.RGBAAt(queueX+30, queueY+90+50); got != (color.RGBA{A: 255}) {
		t.Fatalf("hidden panel must not be drawn, got %v", got)
	}
}

func TestCompositorSkipsFadedCards(t *testing.T) {
	comp, err := newCompositor()
	if err != nil {
		t.Fatalf("newCompositor: %v", err)
	}
	white := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fill(white, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	probeX, probeY := 960+290, 540+35

	frame := comp.draw(white, overlay.Snapshot{Cards: []overlay.Card{{Text: "x", X: 0.5, Y: 0.5, Opacity: 0.05, Accent: "#ff3333"}}})
	if got := frame.RGBAAt(probeX, probeY); got.R != 255 {
		t.Fatalf("card below the opacity cutoff must be skipped, got %v", got)
	}
	frame = comp.draw(white, overlay.Snapshot{Cards: []overlay.Card{{Text: "x", X: 0.5, Y: 0.5, Opacity: 1, Accent: "#ff3333"}}})
	if got := frame.RGBAAt(probeX, probeY); got.R > 200 {
		t.Fatalf("expected darkened card background, got %v", got)
	}
}
