package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"sonicvoyager/internal/logging"
)

// DefaultChunkSize is the stdout read size when Spec.ChunkSize is unset.
const DefaultChunkSize = 64 * 1024

// videoQueueDepth bounds how many raw frames may wait for the video pipe.
const videoQueueDepth = 4

// Spec configures one encoder process.
type Spec struct {
	Binary     string
	Format     Format
	Width      int
	Height     int
	FPS        int
	SampleRate int
	Channels   int
	ChunkSize  int
	Logger     *slog.Logger
}

// Events receives encoder output. Both callbacks run on encoder goroutines.
// Exit is invoked exactly once, after the final Chunk.
type Events struct {
	Chunk func([]byte)
	Exit  func(error)
}

// Process is a running ffmpeg encoder.
type Process struct {
	video  *pipeWriter
	audio  *pipeWriter
	width  int
	height int
	kill   func() error
	logger *slog.Logger

	finishOnce sync.Once
	killOnce   sync.Once
	done       chan struct{}
}

// Args builds the ffmpeg command line for spec.
func Args(spec Spec) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"-r", strconv.Itoa(spec.FPS),
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", strconv.Itoa(spec.SampleRate),
		"-ac", strconv.Itoa(spec.Channels),
		"-i", "pipe:3",
		"-map", "0:v:0", "-map", "1:a:0",
	}
	f := spec.Format
	if f.VideoCodec != "" {
		args = append(args, "-c:v", f.VideoCodec)
	}
	switch f.VideoCodec {
	case "libvpx", "libvpx-vp9":
		args = append(args, "-deadline", "realtime", "-cpu-used", "8")
	case "libx264":
		args = append(args, "-preset", "veryfast")
	}
	args = append(args, "-pix_fmt", "yuv420p")
	if f.VideoBitrate > 0 {
		args = append(args, "-b:v", strconv.Itoa(f.VideoBitrate))
	}
	if f.AudioCodec != "" {
		args = append(args, "-c:a", f.AudioCodec)
	}
	if f.AudioBitrate > 0 {
		args = append(args, "-b:a", strconv.Itoa(f.AudioBitrate))
	}
	args = append(args, f.MuxerArgs...)
	args = append(args, "-f", f.Muxer, "pipe:1")
	return args
}

// Start launches the encoder. Frames and PCM are queued and written to the
// process by dedicated goroutines, so neither input can stall the other.
func Start(ctx context.Context, spec Spec, events Events) (*Process, error) {
	if spec.Width <= 0 || spec.Height <= 0 || spec.FPS <= 0 {
		return nil, fmt.Errorf("ffmpeg start: invalid video geometry %dx%d@%d", spec.Width, spec.Height, spec.FPS)
	}
	if spec.SampleRate <= 0 || spec.Channels <= 0 {
		return nil, fmt.Errorf("ffmpeg start: invalid audio layout %d Hz x%d", spec.SampleRate, spec.Channels)
	}
	if spec.Format.Muxer == "" {
		return nil, errors.New("ffmpeg start: format has no muxer")
	}
	binary := strings.TrimSpace(spec.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	chunkSize := spec.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	logger := spec.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	cmd := commandContext(ctx, binary, Args(spec)...) //nolint:gosec
	videoIn, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr
	audioR, audioW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("audio pipe: %w", err)
	}
	cmd.ExtraFiles = []*os.File{audioR}

	if err := cmd.Start(); err != nil {
		_ = audioR.Close()
		_ = audioW.Close()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	_ = audioR.Close()

	p := &Process{
		video:  newPipeWriter(videoIn, videoQueueDepth),
		audio:  newPipeWriter(audioW, 0),
		width:  spec.Width,
		height: spec.Height,
		kill:   cmd.Process.Kill,
		logger: logger,
		done:   make(chan struct{}),
	}
	logger.Debug("ffmpeg encoder started",
		logging.String("format", spec.Format.Name),
		logging.Int("pid", cmd.Process.Pid),
	)

	go func() {
		defer close(p.done)
		buf := make([]byte, chunkSize)
		for {
			n, readErr := io.ReadFull(stdout, buf)
			if n > 0 && events.Chunk != nil {
				events.Chunk(append([]byte(nil), buf[:n]...))
			}
			if readErr != nil {
				break
			}
		}
		waitErr := cmd.Wait()
		p.video.Close()
		p.audio.Close()
		if waitErr != nil {
			waitErr = fmt.Errorf("ffmpeg encode: %w: %s", waitErr, stderr.String())
		}
		if events.Exit != nil {
			events.Exit(waitErr)
		}
	}()
	return p, nil
}

// WriteFrame queues one RGBA frame. The frame must match the process size;
// its pixels are copied before WriteFrame returns.
func (p *Process) WriteFrame(frame *image.RGBA) error {
	b := frame.Bounds()
	if b.Dx() != p.width || b.Dy() != p.height {
		return fmt.Errorf("ffmpeg frame: got %dx%d, want %dx%d", b.Dx(), b.Dy(), p.width, p.height)
	}
	row := p.width * 4
	if frame.Stride == row {
		start := frame.PixOffset(b.Min.X, b.Min.Y)
		_, err := p.video.Write(frame.Pix[start : start+row*p.height])
		return err
	}
	packed := make([]byte, 0, row*p.height)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := frame.PixOffset(b.Min.X, y)
		packed = append(packed, frame.Pix[off:off+row]...)
	}
	_, err := p.video.Write(packed)
	return err
}

// Audio returns the PCM sink: interleaved s16le at Spec.SampleRate and Spec.Channels.
func (p *Process) Audio() io.Writer {
	return p.audio
}

// Finish closes both inputs once their queues drain. ffmpeg then flushes the
// container and exits, which is reported through Events.Exit.
func (p *Process) Finish() {
	p.finishOnce.Do(func() {
		p.video.Close()
		p.audio.Close()
	})
}

// Kill terminates the process without flushing.
func (p *Process) Kill() {
	p.killOnce.Do(func() {
		p.video.Abort()
		p.audio.Abort()
		if err := p.kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.logger.Debug("ffmpeg kill failed", logging.Error(err))
		}
	})
}

// Done is closed after Events.Exit has returned.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

var errPipeClosed = errors.New("encoder input closed")

// pipeWriter decouples producers from a blocking pipe. A limit of zero leaves
// the queue unbounded; otherwise Write blocks while limit buffers are queued.
type pipeWriter struct {
	mu     sync.Mutex
	cond   *sync.Cond
	dst    io.WriteCloser
	queue  [][]byte
	spare  [][]byte
	limit  int
	closed bool
	err    error
}

func newPipeWriter(dst io.WriteCloser, limit int) *pipeWriter {
	p := &pipeWriter{dst: dst, limit: limit}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

func (p *pipeWriter) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.limit > 0 && len(p.queue) >= p.limit && p.err == nil && !p.closed {
		p.cond.Wait()
	}
	if p.err != nil {
		return 0, p.err
	}
	if p.closed {
		return 0, errPipeClosed
	}
	var buf []byte
	if n := len(p.spare); n > 0 && cap(p.spare[n-1]) >= len(b) {
		buf = p.spare[n-1][:len(b)]
		p.spare = p.spare[:n-1]
	} else {
		buf = make([]byte, len(b))
	}
	copy(buf, b)
	p.queue = append(p.queue, buf)
	p.cond.Broadcast()
	return len(b), nil
}

// Close stops accepting writes; queued buffers are still delivered before the
// destination is closed.
func (p *pipeWriter) Close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Abort drops queued buffers and closes.
func (p *pipeWriter) Abort() {
	p.mu.Lock()
	p.closed = true
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *pipeWriter) run() {
	defer p.dst.Close()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		buf := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.cond.Broadcast()
		p.mu.Unlock()

		_, err := p.dst.Write(buf)

		p.mu.Lock()
		if err != nil {
			p.err = err
			p.queue = nil
			p.cond.Broadcast()
			p.mu.Unlock()
			return
		}
		if len(p.spare) < 2 {
			p.spare = append(p.spare, buf)
		}
		p.mu.Unlock()
	}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, b...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(b), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
