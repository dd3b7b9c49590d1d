package playback

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"sonicvoyager/internal/logging"
)

// ErrNotResumed is returned by Play before Resume has completed.
var ErrNotResumed = errors.New("playback not resumed")

// Output is a realtime sink that pulls samples from the deck on its own
// schedule (a sound card). A nil Output means the caller advances the deck
// manually with Pull.
type Output interface {
	Start(ctx context.Context, sr beep.SampleRate, s beep.Streamer) error
	Close() error
}

// Options configures a Deck.
type Options struct {
	SampleRate      int
	ResampleQuality int
	TapSize         int
	Output          Output
	Logger          *slog.Logger
}

// Deck is the single audio playback pipeline: decode, resample to the output
// rate, tap for analysis, and fan out PCM to capture sinks.
//
//	[decoder] -> [resample] -> Deck.Stream -> {tap, PCM sinks} -> output
type Deck struct {
	mu      sync.Mutex
	sr      beep.SampleRate
	quality int
	output  Output
	logger  *slog.Logger

	source beep.StreamSeekCloser
	format beep.Format
	chain  beep.Streamer

	tap      *Tap
	sinks    map[uint64]io.Writer
	nextSink uint64
	pcm      []byte
	pull     [][2]float64

	resumed bool
	playing bool
	onEnded func()
}

// NewDeck constructs an idle deck. Nothing is audible until Resume completes
// and Play is called.
func NewDeck(opts Options) *Deck {
	sr := opts.SampleRate
	if sr <= 0 {
		sr = 48000
	}
	quality := opts.ResampleQuality
	if quality <= 0 {
		quality = 4
	}
	tapSize := opts.TapSize
	if tapSize <= 0 {
		tapSize = 4096
	}
	return &Deck{
		sr:      beep.SampleRate(sr),
		quality: quality,
		output:  opts.Output,
		logger:  logging.NewComponentLogger(opts.Logger, "playback"),
		tap:     NewTap(tapSize),
		sinks:   make(map[uint64]io.Writer),
	}
}

// SampleRate returns the deck output rate.
func (d *Deck) SampleRate() int { return int(d.sr) }

// Channels returns the PCM channel count delivered to sinks.
func (d *Deck) Channels() int { return 2 }

// Tap exposes the analysis ring buffer.
func (d *Deck) Tap() *Tap { return d.tap }

// OnEnded registers fn to run when the loaded track runs out. It is called
// from whichever goroutine is pulling audio, so fn must hand off to the
// frame loop.
func (d *Deck) OnEnded(fn func()) {
	d.mu.Lock()
	d.onEnded = fn
	d.mu.Unlock()
}

// Load replaces the current track. Playback stops until Play is called.
func (d *Deck) Load(stream beep.StreamSeekCloser, format beep.Format) {
	d.mu.Lock()
	old := d.source
	d.source = stream
	d.format = format
	d.playing = false
	d.rebuildLocked()
	d.mu.Unlock()
	d.tap.Reset()
	if old != nil {
		if err := old.Close(); err != nil {
			d.logger.Debug("close previous track", logging.Error(err))
		}
	}
}

func (d *Deck) rebuildLocked() {
	if d.source == nil {
		d.chain = nil
		return
	}
	var s beep.Streamer = d.source
	if d.format.SampleRate != d.sr {
		s = beep.Resample(d.quality, d.format.SampleRate, d.sr, s)
	}
	d.chain = s
}

// Seek moves the playback position. Seeking rebuilds the resampler so no
// buffered audio from the old position leaks out.
func (d *Deck) Seek(pos time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.source == nil {
		return nil
	}
	n := d.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if length := d.source.Len(); length > 0 && n >= length {
		n = length - 1
	}
	if err := d.source.Seek(n); err != nil {
		return err
	}
	d.rebuildLocked()
	return nil
}

// Position returns the current playback position.
func (d *Deck) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.source == nil {
		return 0
	}
	return d.format.SampleRate.D(d.source.Position())
}

// Duration returns the length of the loaded track.
func (d *Deck) Duration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.source == nil {
		return 0
	}
	return d.format.SampleRate.D(d.source.Len())
}

// Playing reports whether audio is being produced.
func (d *Deck) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// Resume starts the output device asynchronously. The returned channel
// delivers exactly one value: nil once audio may play, or the start error.
func (d *Deck) Resume(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	d.mu.Lock()
	if d.resumed {
		d.mu.Unlock()
		done <- nil
		return done
	}
	output := d.output
	d.mu.Unlock()

	go func() {
		var err error
		if output != nil {
			err = output.Start(ctx, d.sr, d)
		}
		if err == nil {
			d.mu.Lock()
			d.resumed = true
			d.mu.Unlock()
		}
		done <- err
	}()
	return done
}

// Play starts producing audio from the loaded track.
func (d *Deck) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.resumed {
		return ErrNotResumed
	}
	d.playing = d.source != nil
	return nil
}

// Pause stops producing track audio; silence keeps flowing to sinks.
func (d *Deck) Pause() {
	d.mu.Lock()
	d.playing = false
	d.mu.Unlock()
}

// Attach registers a PCM sink that receives every output block as
// interleaved signed 16-bit little-endian stereo. Sinks see silence while
// paused so their timeline stays continuous.
func (d *Deck) Attach(w io.Writer) (detach func()) {
	d.mu.Lock()
	d.nextSink++
	id := d.nextSink
	d.sinks[id] = w
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.sinks, id)
		d.mu.Unlock()
	}
}

// Pull advances the deck by n frames without an output device. Offline
// renders call it once per tick with the tick's share of samples.
func (d *Deck) Pull(n int) {
	if n <= 0 {
		return
	}
	if cap(d.pull) < n {
		d.pull = make([][2]float64, n)
	}
	d.Stream(d.pull[:n])
}

// Stream implements beep.Streamer. It never reports exhaustion so an output
// device keeps running between tracks.
func (d *Deck) Stream(samples [][2]float64) (int, bool) {
	d.mu.Lock()
	n := 0
	ended := false
	if d.playing && d.chain != nil {
		var ok bool
		n, ok = d.chain.Stream(samples)
		if !ok || n < len(samples) {
			ended = true
			d.playing = false
		}
	}
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	d.writeSinksLocked(samples)
	onEnded := d.onEnded
	d.mu.Unlock()

	d.tap.Write(samples)
	if ended {
		d.logger.Debug("track ended")
		if onEnded != nil {
			onEnded()
		}
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (d *Deck) Err() error { return nil }

func (d *Deck) writeSinksLocked(samples [][2]float64) {
	if len(d.sinks) == 0 {
		return
	}
	size := len(samples) * 4
	if cap(d.pcm) < size {
		d.pcm = make([]byte, size)
	}
	buf := d.pcm[:size]
	for i, frame := range samples {
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(toInt16(frame[0])))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(toInt16(frame[1])))
	}
	for id, sink := range d.sinks {
		if _, err := sink.Write(buf); err != nil {
			d.logger.Warn("pcm sink write failed; detaching",
				logging.Error(err),
				logging.String(logging.FieldEventType, "pcm_sink_failed"),
				logging.String(logging.FieldErrorHint, "the capture encoder likely exited"),
			)
			delete(d.sinks, id)
		}
	}
}

func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}

// Close stops the output device and releases the track.
func (d *Deck) Close() error {
	d.mu.Lock()
	source := d.source
	output := d.output
	d.source = nil
	d.chain = nil
	d.playing = false
	d.mu.Unlock()

	var errs []error
	if output != nil {
		errs = append(errs, output.Close())
	}
	if source != nil {
		errs = append(errs, source.Close())
	}
	return errors.Join(errs...)
}
