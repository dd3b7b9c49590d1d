package show

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sonicvoyager/internal/capture"
	"sonicvoyager/internal/config"
	"sonicvoyager/internal/frameloop"
	"sonicvoyager/internal/hud"
	"sonicvoyager/internal/library"
	"sonicvoyager/internal/logging"
	"sonicvoyager/internal/media/ffprobe"
	"sonicvoyager/internal/playback"
	"sonicvoyager/internal/preset"
	"sonicvoyager/internal/services"
	"sonicvoyager/internal/spectrum"
	"sonicvoyager/internal/visual"
)

const (
	validateTimeout = 30 * time.Second
	finalizeTimeout = 60 * time.Second
)

// Catalog records finished captures.
type Catalog interface {
	Record(ctx context.Context, e library.Entry) (*library.Entry, error)
}

// Inspector probes a finished artifact.
type Inspector func(ctx context.Context, path string) (ffprobe.Result, error)

// Options configures a Show.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Output plays the deck in realtime. Nil selects offline rendering.
	Output playback.Output
	// Backend opens capture encoders. Nil uses the configured ffmpeg.
	Backend capture.Backend
	// Catalog is optional; nil skips cataloguing.
	Catalog Catalog
	// Inspect validates artifacts. Nil uses ffprobe when
	// capture.validate_output is set.
	Inspect    Inspector
	HTTPClient *http.Client
	Now        func() time.Time
}

// Outcome is a finished capture after validation and cataloguing.
type Outcome struct {
	Capture    capture.Result
	Probe      *ffprobe.Result
	Validation error
	Entry      *library.Entry
	CatalogErr error
}

type recording struct {
	title   string
	done    chan struct{}
	outcome Outcome
}

// Show is one performance. Apart from construction, Wait and Close, its
// methods must run on the frame loop goroutine (or before the loop runs).
type Show struct {
	cfg      *config.Config
	logger   *slog.Logger
	loop     *frameloop.Loop
	deck     *playback.Deck
	source   *spectrum.Source
	director *visual.Director
	hud      *hud.Model
	capture  *capture.Capture
	catalog  Catalog
	inspect  Inspector
	client   *http.Client
	offline  bool

	tracks  []config.Track
	current int

	running bool
	tick    frameloop.Callback
	handle  frameloop.Handle
	pullAcc int

	ended     bool
	endedCh   chan struct{}
	artwork   chan struct{}
	recording *recording

	bg sync.WaitGroup
}

// New builds the deck, analysis, director, HUD and capture for cfg.
func New(opts Options) (*Show, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "show", "new", "config required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	initial, err := preset.Parse(cfg.Render.DefaultPreset)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "show", "new", "render.default_preset", err)
	}

	loop := frameloop.New()
	deck := playback.NewDeck(playback.Options{
		SampleRate:      cfg.Audio.SampleRate,
		ResampleQuality: cfg.Audio.ResampleQuality,
		TapSize:         cfg.Audio.FFTSize * 2,
		Output:          opts.Output,
		Logger:          logger,
	})
	source := spectrum.NewSource(deck.Tap(), spectrum.Options{
		FFTSize:     cfg.Audio.FFTSize,
		Smoothing:   cfg.Audio.Smoothing,
		MinDecibels: cfg.Audio.MinDecibels,
		MaxDecibels: cfg.Audio.MaxDecibels,
		BeatRatio:   cfg.Analysis.BeatRatio,
		BeatFloor:   cfg.Analysis.BeatFloor,
		HistorySize: cfg.Analysis.HistorySize,
		BassBins:    cfg.Analysis.BassBins,
	})
	director, err := visual.New(visual.Options{
		Width:     cfg.Render.Width,
		Height:    cfg.Render.Height,
		Seed:      cfg.Render.Seed,
		Bloom:     cfg.Render.Bloom,
		FilmGrain: cfg.Render.FilmGrain,
		Default:   initial,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	hudOpts := hud.OptionsFromConfig(cfg)
	hudOpts.SampleRate = deck.SampleRate()
	if seed := cfg.Render.Seed; seed != 0 {
		hudOpts.Rand = rand.New(rand.NewPCG(seed, ^seed))
	}
	model := hud.New(hudOpts)

	backend := opts.Backend
	if backend == nil {
		backend = capture.FFmpegBackend{
			Binary:     cfg.FFmpegBinary(),
			SampleRate: deck.SampleRate(),
			Channels:   deck.Channels(),
			ChunkSize:  cfg.Capture.ChunkSizeKB * 1024,
			Logger:     logger,
		}
	}
	inspect := opts.Inspect
	if inspect == nil && cfg.Capture.ValidateOutput {
		binary := cfg.FFprobeBinary()
		inspect = func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, binary, path)
		}
	}

	s := &Show{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "show"),
		loop:     loop,
		deck:     deck,
		source:   source,
		director: director,
		hud:      model,
		catalog:  opts.Catalog,
		inspect:  inspect,
		client:   opts.HTTPClient,
		offline:  opts.Output == nil,
		current:  -1,
	}
	s.capture = capture.New(capture.Options{
		Loop:       loop,
		Backend:    backend,
		OutputDir:  cfg.Paths.OutputDir,
		Overlay:    model,
		Logger:     logger,
		OnComplete: s.onCaptureComplete,
		Now:        opts.Now,
	})
	s.tick = s.frame
	s.setQueue(cfg.Tracks)
	deck.OnEnded(func() { loop.Post(s.onTrackEnded) })
	return s, nil
}

// Loop returns the frame loop every component runs on.
func (s *Show) Loop() *frameloop.Loop { return s.loop }

// Director returns the visual director.
func (s *Show) Director() *visual.Director { return s.director }

// HUD returns the overlay state model.
func (s *Show) HUD() *hud.Model { return s.hud }

// Deck returns the playback deck.
func (s *Show) Deck() *playback.Deck { return s.deck }

// Capture returns the capture pipeline.
func (s *Show) Capture() *capture.Capture { return s.capture }

// Tracks returns the performance queue.
func (s *Show) Tracks() []config.Track {
	return append([]config.Track(nil), s.tracks...)
}

func (s *Show) setQueue(tracks []config.Track) {
	s.tracks = append(s.tracks[:0], tracks...)
	rows := make([]hud.Track, len(s.tracks))
	for i, t := range s.tracks {
		rows[i] = hud.Track{Title: t.Title, Genre: t.Genre}
	}
	s.hud.SetTracks(rows)
	s.current = -1
}

// Enqueue appends a track to the queue and returns its index.
func (s *Show) Enqueue(track config.Track) int {
	if strings.TrimSpace(track.Title) == "" {
		track.Title = strings.TrimSuffix(filepath.Base(track.Source), filepath.Ext(track.Source))
	}
	current := s.current
	s.setQueue(append(s.tracks, track))
	s.current = current
	if current >= 0 {
		s.hud.SelectTrack(current)
	}
	return len(s.tracks) - 1
}

// SelectTrack decodes the queue entry at index into the deck, routes its
// genre to a preset and theme, and starts loading its artwork. Nothing
// plays until Play or StartRecording.
func (s *Show) SelectTrack(ctx context.Context, index int) error {
	if index < 0 || index >= len(s.tracks) {
		return services.Wrap(services.ErrValidation, "show", "select track",
			fmt.Sprintf("track %d outside queue of %d", index, len(s.tracks)), nil)
	}
	track := s.tracks[index]
	stream, format, err := playback.Open(ctx, s.client, track.Source)
	if err != nil {
		return err
	}
	s.deck.Load(stream, format)
	s.current = index
	s.ended = false

	if err := s.director.SetTrack(track.Genre, nil); err != nil {
		return err
	}
	s.hud.SetAccent(s.director.Theme().Hex())
	s.hud.SelectTrack(index)
	s.artwork = nil
	if strings.TrimSpace(track.Artwork) != "" {
		s.artwork = s.loadArtwork(ctx, index, track.Artwork)
	}

	s.logger.Info("track loaded",
		logging.String(logging.FieldTrack, track.Title),
		logging.String("genre", track.Genre),
		logging.String(logging.FieldPreset, string(s.director.Active())),
		logging.Duration("duration", s.deck.Duration()),
		logging.Int("source_rate", int(format.SampleRate)),
	)
	return nil
}

// loadArtwork decodes artwork off the loop and posts it back. The returned
// channel closes after the result has been posted.
func (s *Show) loadArtwork(ctx context.Context, index int, ref string) chan struct{} {
	done := make(chan struct{})
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer close(done)
		img, err := LoadArtwork(ctx, s.client, ref)
		s.loop.Post(func() {
			if err != nil {
				logging.WarnWithContext(s.logger, "artwork unavailable", "artwork_load_failed",
					logging.Error(err),
					logging.String("artwork", ref),
					logging.String(logging.FieldErrorHint, "check the track's artwork path"),
				)
				return
			}
			if s.current != index {
				return
			}
			s.director.SetArtwork(img)
		})
	}()
	return done
}

// Current returns the selected track, if any.
func (s *Show) Current() (config.Track, bool) {
	if s.current < 0 || s.current >= len(s.tracks) {
		return config.Track{}, false
	}
	return s.tracks[s.current], true
}

// SetPreset switches the visual preset by name.
func (s *Show) SetPreset(raw string) error {
	name, err := preset.Parse(raw)
	if err != nil {
		return services.Wrap(services.ErrValidation, "show", "set preset", raw, err)
	}
	return s.director.SetPreset(name)
}

// Start schedules the analysis and render tick.
func (s *Show) Start() {
	if s.running {
		return
	}
	s.running = true
	s.handle = s.loop.RequestFrame(s.tick)
}

// Halt cancels the analysis and render tick.
func (s *Show) Halt() {
	if !s.running {
		return
	}
	s.running = false
	s.loop.CancelFrame(s.handle)
}

func (s *Show) frame(t frameloop.Tick) {
	if !s.running {
		return
	}
	s.handle = s.loop.RequestFrame(s.tick)
	if s.offline {
		s.deck.Pull(s.samplesPerTick())
	}
	s.source.Update()
	s.director.SetCinematic(s.hud.Cinematic())
	s.director.Render(s.source, t.Now.Seconds())
	s.hud.Update(s.source, t.Delta)
}

// samplesPerTick spreads the deck rate over capture frames, carrying the
// remainder so no sample is dropped over a long render.
func (s *Show) samplesPerTick() int {
	s.pullAcc += s.deck.SampleRate()
	n := s.pullAcc / capture.FPS
	s.pullAcc -= n * capture.FPS
	return n
}

// Play starts the selected track without recording.
func (s *Show) Play() error {
	if err := s.deck.Play(); err != nil {
		return services.Wrap(services.ErrConfiguration, "show", "play", "audio output not resumed", err)
	}
	s.ended = false
	s.hud.SetPlaying(true)
	return nil
}

// Pause stops the track; the performance keeps rendering.
func (s *Show) Pause() {
	s.deck.Pause()
	s.hud.SetPlaying(false)
}

// StartRecording rewinds the track, opens a capture session and then starts
// playback, so the first captured audio sample is the start of the track.
func (s *Show) StartRecording(ctx context.Context, title string) (capture.Status, error) {
	if s.capture.Recording() {
		return capture.StatusAlreadyRecording, nil
	}
	if strings.TrimSpace(title) == "" {
		if track, ok := s.Current(); ok {
			title = track.Title
		}
	}
	if err := s.deck.Seek(0); err != nil {
		return "", services.Wrap(services.ErrTransient, "show", "rewind track", "", err)
	}
	// The encoder must outlive cancellation of ctx so an interrupted
	// performance can still flush its capture.
	status, err := s.capture.Start(context.WithoutCancel(ctx), s.director, s.deck, title)
	if err != nil || status != capture.StatusStarted {
		return status, err
	}
	s.recording = &recording{title: title, done: make(chan struct{})}
	if err := s.Play(); err != nil {
		s.capture.Stop()
		return "", err
	}
	s.hud.Notify("RECORDING STARTED", "Capturing: "+title)
	return status, nil
}

// StopRecording stops the active capture.
func (s *Show) StopRecording() (*capture.Finalization, capture.Status) {
	return s.capture.Stop()
}

func (s *Show) onTrackEnded() {
	if s.ended {
		return
	}
	s.ended = true
	s.hud.SetPlaying(false)
	if s.capture.Recording() {
		_, status := s.capture.Stop()
		s.logger.Info("track ended; stopping capture", logging.String("status", string(status)))
	} else {
		s.logger.Info("track ended")
	}
	if s.endedCh != nil {
		close(s.endedCh)
		s.endedCh = nil
	}
}

func (s *Show) onCaptureComplete(res capture.Result) {
	switch {
	case res.Err == nil:
		s.hud.Notify("RECORDING COMPLETE", "Video saved: "+filepath.Base(res.Path))
	case errors.Is(res.Err, capture.ErrNoData):
		s.hud.Notify("RECORDING EMPTY", "No data recorded")
	default:
		s.hud.Notify("RECORDING FAILED", "Encoder fault")
	}

	rec := s.recording
	if rec == nil {
		rec = &recording{title: res.Title, done: make(chan struct{})}
		s.recording = rec
	}
	var genre string
	if track, ok := s.Current(); ok {
		genre = track.Genre
	}
	active := string(s.director.Active())

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		rec.outcome = s.settle(res, genre, active)
		close(rec.done)
	}()
}

// settle validates a finished artifact and records it in the catalog.
func (s *Show) settle(res capture.Result, genre, active string) Outcome {
	out := Outcome{Capture: res}
	if res.Err != nil || res.Path == "" {
		return out
	}
	ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
	defer cancel()
	ctx = services.WithSessionID(ctx, res.SessionID)
	ctx = services.WithStage(ctx, "settle")
	logger := logging.WithContext(ctx, s.logger)

	duration := float64(res.Frames) / capture.FPS
	validated := false
	if s.inspect != nil {
		probe, err := s.inspect(ctx, res.Path)
		if err == nil {
			out.Probe = &probe
			if d := probe.DurationSeconds(); d > 0 {
				duration = d
			}
			err = probe.ValidateCapture(capture.Width, capture.Height)
		}
		if err != nil {
			out.Validation = err
			logging.WarnWithContext(logger, "capture failed validation", "capture_validation_failed",
				logging.Error(err),
				logging.String("path", res.Path),
				logging.String(logging.FieldErrorHint, "inspect the file with ffprobe"),
			)
		} else {
			validated = true
		}
	}

	if s.catalog != nil {
		entry := library.Entry{
			SessionID:       res.SessionID,
			Title:           res.Title,
			Genre:           genre,
			Preset:          active,
			Path:            res.Path,
			Format:          res.Format.Name,
			MimeType:        res.Format.MimeType,
			SizeBytes:       res.Bytes,
			DurationSeconds: duration,
			Frames:          res.Frames,
			Validated:       validated,
			StartedAt:       res.Started,
			FinishedAt:      res.Finished,
		}
		if out.Validation != nil {
			entry.ValidationError = out.Validation.Error()
		}
		recorded, err := s.catalog.Record(ctx, entry)
		out.Entry, out.CatalogErr = recorded, err
		if err != nil {
			logging.WarnWithContext(logger, "capture not catalogued", "catalog_record_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run `sonicvoyager captures` to check the catalog"),
			)
		}
	}
	return out
}

// finishRecording stops rec's session if it is still running and drives the
// loop until its outcome is settled.
func (s *Show) finishRecording(ctx context.Context, rec *recording) (*Outcome, error) {
	if rec == nil {
		return nil, nil
	}
	s.capture.Stop()
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := s.loop.Await(waitCtx, rec.done); err != nil {
		return nil, services.Wrap(services.ErrTimeout, "show", "finalize capture", rec.title, err)
	}
	out := rec.outcome
	return &out, out.Capture.Err
}

// Wait blocks until background artwork loads and capture settlements finish.
func (s *Show) Wait() { s.bg.Wait() }

// Close releases the deck, its output and the active preset.
func (s *Show) Close() error {
	s.Halt()
	s.Wait()
	s.director.Close()
	return s.deck.Close()
}
