package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"sonicvoyager/internal/fileutil"
	"sonicvoyager/internal/frameloop"
	"sonicvoyager/internal/logging"
	"sonicvoyager/internal/overlay"
	"sonicvoyager/internal/services"
	"sonicvoyager/internal/services/ffmpeg"
	"sonicvoyager/internal/textutil"
)

// Output geometry of every capture.
const (
	Width  = 1920
	Height = 1080
	FPS    = 60
)

var (
	// ErrNoData reports a session that produced no encoded chunks.
	ErrNoData = errors.New("no data recorded")
	// ErrEncoderFault reports an encoder that failed mid-session.
	ErrEncoderFault = errors.New("encoder fault")
)

// Status describes the outcome of a Start or Stop request.
type Status string

const (
	StatusStarted          Status = "started"
	StatusAlreadyRecording Status = "already_recording"
	StatusStopping         Status = "stopping"
	StatusIdle             Status = "idle"
)

// Surface is the render target a session reads every tick.
type Surface interface {
	Surface() *image.RGBA
}

// Audio is a PCM stream the encoder's audio input can be attached to.
type Audio interface {
	Attach(w io.Writer) (detach func())
}

// Encoder is one running encoder session.
type Encoder interface {
	WriteFrame(frame *image.RGBA) error
	Audio() io.Writer
	Finish()
	Kill()
}

// Backend probes and opens encoders.
type Backend interface {
	Capabilities(ctx context.Context) (ffmpeg.Capabilities, error)
	Open(ctx context.Context, format ffmpeg.Format, events ffmpeg.Events) (Encoder, error)
}

// Result summarises a finished session. Err is nil only when Path holds a
// complete artifact.
type Result struct {
	SessionID string
	Title     string
	Path      string
	Format    ffmpeg.Format
	Chunks    int
	Bytes     int64
	Frames    int64
	Started   time.Time
	Finished  time.Time
	Err       error
}

// Finalization resolves once a stopped session has been written out or
// discarded.
type Finalization struct {
	once   sync.Once
	done   chan struct{}
	result Result
}

func newFinalization() *Finalization {
	return &Finalization{done: make(chan struct{})}
}

func (f *Finalization) resolve(r Result) bool {
	resolved := false
	f.once.Do(func() {
		f.result = r
		close(f.done)
		resolved = true
	})
	return resolved
}

// Done is closed when the result is available.
func (f *Finalization) Done() <-chan struct{} { return f.done }

// Result returns the outcome. It is only meaningful after Done is closed.
func (f *Finalization) Result() Result {
	select {
	case <-f.done:
		return f.result
	default:
		return Result{}
	}
}

// Wait blocks until the session is finalized. Completions are delivered via
// the frame loop, so the loop must keep running while Wait blocks.
func (f *Finalization) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.result.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Options configures a Capture.
type Options struct {
	Loop       *frameloop.Loop
	Backend    Backend
	OutputDir  string
	Overlay    overlay.Source
	Logger     *slog.Logger
	OnComplete func(Result)
	Now        func() time.Time
}

// Capture composites the render surface and overlay into 1920x1080 frames
// and streams them, with the attached audio, to an encoder. All methods must
// be called on the frame loop goroutine.
type Capture struct {
	loop       *frameloop.Loop
	backend    Backend
	outputDir  string
	overlay    overlay.Source
	logger     *slog.Logger
	onComplete func(Result)
	now        func() time.Time

	format  *ffmpeg.Format
	session *session
}

type session struct {
	id      string
	title   string
	format  ffmpeg.Format
	surface Surface
	encoder Encoder
	detach  func()
	comp    *compositor
	tick    frameloop.Callback
	handle  frameloop.Handle
	logger  *slog.Logger

	chunks   [][]byte
	bytes    int64
	frames   int64
	started  time.Time
	stopping bool
	sealed   bool
	fin      *Finalization
}

// New constructs an idle Capture.
func New(opts Options) *Capture {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Capture{
		loop:       opts.Loop,
		backend:    opts.Backend,
		outputDir:  opts.OutputDir,
		overlay:    opts.Overlay,
		logger:     logging.NewComponentLogger(logger, "capture"),
		onComplete: opts.OnComplete,
		now:        now,
	}
}

// Recording reports whether a session is active or finalizing.
func (c *Capture) Recording() bool { return c.session != nil }

// SessionID returns the active session identifier, if any.
func (c *Capture) SessionID() string {
	if c.session == nil {
		return ""
	}
	return c.session.id
}

// Format negotiates the output format once per Capture. A failed probe is
// not cached and yields the encoder-default fallback.
func (c *Capture) Format(ctx context.Context) ffmpeg.Format {
	if c.format != nil {
		return *c.format
	}
	caps, err := c.backend.Capabilities(ctx)
	if err != nil {
		logging.WarnWithContext(c.logger, "encoder probe failed; using encoder defaults", "capture_probe_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check capture.ffmpeg_binary"),
		)
		return ffmpeg.Fallback()
	}
	f, preferred := ffmpeg.Negotiate(caps)
	if !preferred {
		logging.WarnWithContext(c.logger, "no preferred capture format supported; using encoder defaults", "capture_format_fallback",
			logging.String("format", f.Label()),
		)
	}
	c.format = &f
	return f
}

// Start opens a session. The encoder is running and the audio attached
// before the first compositing tick is scheduled.
func (c *Capture) Start(ctx context.Context, surface Surface, audio Audio, title string) (Status, error) {
	if c.session != nil {
		c.logger.Warn("capture already recording", logging.String(logging.FieldSessionID, c.session.id))
		return StatusAlreadyRecording, nil
	}
	if surface == nil {
		return "", services.Wrap(services.ErrValidation, "capture", "start", "render surface required", nil)
	}
	if c.backend == nil || c.loop == nil {
		return "", services.Wrap(services.ErrConfiguration, "capture", "start", "capture is not wired to an encoder and frame loop", nil)
	}

	format := c.Format(ctx)
	comp, err := newCompositor()
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "capture", "load overlay fonts", "", err)
	}
	s := &session{
		id:      uuid.NewString(),
		title:   textutil.SanitizeTitle(title),
		format:  format,
		surface: surface,
		comp:    comp,
		started: c.now(),
		fin:     newFinalization(),
	}
	s.logger = c.logger.With(
		logging.String(logging.FieldSessionID, s.id),
		logging.String("format", format.Name),
	)

	enc, err := c.backend.Open(ctx, format, ffmpeg.Events{
		Chunk: func(b []byte) { c.loop.Post(func() { c.onChunk(s, b) }) },
		Exit:  func(err error) { c.loop.Post(func() { c.onExit(s, err) }) },
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "capture", "open encoder", format.Name, err)
	}
	s.encoder = enc
	if audio != nil {
		s.detach = audio.Attach(enc.Audio())
	}
	c.session = s
	s.tick = func(frameloop.Tick) { c.composite(s) }
	s.handle = c.loop.RequestFrame(s.tick)

	s.logger.Info("recording started",
		logging.String("title", s.title),
		logging.String("mime", format.Label()),
		logging.Int("video_bitrate", format.VideoBitrate),
		logging.Int("audio_bitrate", format.AudioBitrate),
	)
	return StatusStarted, nil
}

// Stop cancels the compositing tick and asks the encoder to flush. The
// returned Finalization resolves after the artifact is written or the
// session is discarded.
func (c *Capture) Stop() (*Finalization, Status) {
	s := c.session
	if s == nil {
		return nil, StatusIdle
	}
	if s.stopping {
		return s.fin, StatusStopping
	}
	s.stopping = true
	c.loop.CancelFrame(s.handle)
	s.detachAudio()
	s.encoder.Finish()
	s.logger.Info("recording stopping", logging.Int64("frames", s.frames))
	return s.fin, StatusStopping
}

func (c *Capture) composite(s *session) {
	if c.session != s || s.stopping {
		return
	}
	s.handle = c.loop.RequestFrame(s.tick)

	var snap overlay.Snapshot
	if c.overlay != nil {
		snap = c.overlay.Snapshot()
	}
	frame := s.comp.draw(s.surface.Surface(), snap)
	if err := s.encoder.WriteFrame(frame); err != nil {
		c.fault(s, err)
		return
	}
	s.frames++
}

func (c *Capture) onChunk(s *session, b []byte) {
	if s.sealed || len(b) == 0 {
		return
	}
	s.chunks = append(s.chunks, b)
	s.bytes += int64(len(b))
}

func (c *Capture) onExit(s *session, err error) {
	if s.sealed {
		return
	}
	switch {
	case err != nil:
		c.fault(s, err)
		return
	case !s.stopping:
		c.fault(s, errors.New("encoder exited before stop"))
		return
	}
	s.sealed = true

	res := s.result()
	chunks := s.chunks
	s.chunks = nil
	if len(chunks) == 0 {
		res.Err = ErrNoData
		logging.WarnWithContext(s.logger, "no data recorded", "capture_no_data",
			logging.String(logging.FieldErrorHint, "stop was requested before the encoder produced output"),
		)
		c.finish(s, res)
		return
	}

	res.Path = filepath.Join(c.outputDir, fmt.Sprintf("%s_%d.%s", s.title, c.now().UnixMilli(), s.format.Extension))
	go func() {
		if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
			res.Err = services.Wrap(services.ErrConfiguration, "capture", "create output dir", c.outputDir, err)
		} else if n, err := fileutil.WriteChunksAtomic(res.Path, chunks, 0o644); err != nil {
			res.Err = services.Wrap(services.ErrTransient, "capture", "write artifact", res.Path, err)
		} else {
			res.Bytes = n
		}
		if res.Err != nil {
			res.Path = ""
		}
		c.loop.Post(func() { c.finish(s, res) })
	}()
}

// fault tears the session down at once: tick cancelled, encoder killed,
// chunk sink sealed. Partial output is discarded.
func (c *Capture) fault(s *session, cause error) {
	if s.sealed {
		return
	}
	s.sealed = true
	s.stopping = true
	c.loop.CancelFrame(s.handle)
	s.detachAudio()
	s.encoder.Kill()

	res := s.result()
	res.Err = fmt.Errorf("%w: %w", ErrEncoderFault, cause)
	s.chunks = nil
	logging.ErrorWithContext(s.logger, "capture encoder failed", "capture_encoder_fault",
		logging.Error(cause),
		logging.Int("discarded_chunks", res.Chunks),
		logging.String(logging.FieldErrorHint, "run `sonicvoyager status` to check the ffmpeg build"),
	)
	c.finish(s, res)
}

func (c *Capture) finish(s *session, res Result) {
	res.Finished = c.now()
	if !s.fin.resolve(res) {
		return
	}
	if c.session == s {
		c.session = nil
	}
	if res.Err == nil {
		s.logger.Info("recording saved",
			logging.String("path", res.Path),
			logging.Int64("bytes", res.Bytes),
			logging.Int64("frames", res.Frames),
			logging.Duration("elapsed", res.Finished.Sub(res.Started)),
		)
	}
	if c.onComplete != nil {
		c.onComplete(res)
	}
}

func (s *session) detachAudio() {
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
}

func (s *session) result() Result {
	return Result{
		SessionID: s.id,
		Title:     s.title,
		Format:    s.format,
		Chunks:    len(s.chunks),
		Bytes:     s.bytes,
		Frames:    s.frames,
		Started:   s.started,
	}
}
