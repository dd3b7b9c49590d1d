package show

import (
	"context"
	"errors"
	"math"
	"time"

	"sonicvoyager/internal/capture"
	"sonicvoyager/internal/logging"
	"sonicvoyager/internal/services"
)

// Render performs the selected track offline and captures it from the first
// sample to the last. Frames advance on a virtual 60 Hz clock and audio is
// pulled from the deck once per frame, so the output does not depend on how
// fast the machine renders.
func (s *Show) Render(ctx context.Context, title string) (*Outcome, error) {
	if !s.offline {
		return nil, services.Wrap(services.ErrConfiguration, "show", "render", "offline render needs a deck without an audio output", nil)
	}
	duration := s.deck.Duration()
	if duration <= 0 {
		return nil, services.Wrap(services.ErrValidation, "show", "render", "no track loaded", nil)
	}
	if s.artwork != nil {
		if err := s.loop.Await(ctx, s.artwork); err != nil {
			return nil, err
		}
	}
	if err := <-s.deck.Resume(ctx); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "show", "resume", "", err)
	}

	s.Start()
	defer s.Halt()
	status, err := s.StartRecording(ctx, title)
	if err != nil {
		return nil, err
	}
	if status != capture.StatusStarted {
		return nil, services.Wrap(services.ErrValidation, "show", "render", "a capture is already active", nil)
	}
	rec := s.recording

	total := int64(math.Ceil(duration.Seconds() * capture.FPS))
	// The end of the track is only observed on the tick after its last
	// sample, so allow a second of slack before forcing the stop.
	limit := total + capture.FPS
	sampler := logging.NewProgressSampler(10)
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldSessionID, s.capture.SessionID()))
	start := time.Now()

	var frame int64
	for ; !s.ended && frame < limit; frame++ {
		if ctx.Err() != nil {
			logging.WarnWithContext(logger, "render interrupted; flushing capture", "render_interrupted",
				logging.Int64("frame", frame),
			)
			break
		}
		s.loop.Step(time.Duration(frame) * time.Second / capture.FPS)
		percent := math.Min(100, float64(frame+1)/float64(total)*100)
		if sampler.ShouldLog(percent, "render") {
			logger.Info("render progress",
				logging.Float64("percent", math.Round(percent)),
				logging.Int64("frame", frame+1),
				logging.Int64("frames", total),
				logging.Duration("elapsed", time.Since(start)),
			)
		}
	}
	if !s.ended && ctx.Err() == nil {
		logging.WarnWithContext(logger, "track did not end on schedule; stopping capture", "render_overrun",
			logging.Int64("frames", frame),
		)
	}

	out, err := s.finishRecording(ctx, rec)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return out, err
}

// PerformOptions configures a realtime performance.
type PerformOptions struct {
	Record bool
	Title  string
}

// Perform plays the selected track through the audio output with wall-clock
// ticks until it ends or ctx is cancelled. It holds the performance lock for
// its whole duration. An interrupted recording is still finalized.
func (s *Show) Perform(ctx context.Context, opts PerformOptions) (*Outcome, error) {
	if s.offline {
		return nil, services.Wrap(services.ErrConfiguration, "show", "perform", "realtime performance needs an audio output", nil)
	}
	if s.deck.Duration() <= 0 {
		return nil, services.Wrap(services.ErrValidation, "show", "perform", "no track loaded", nil)
	}
	lock, err := AcquireLock(s.cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			s.logger.Warn("failed to release performance lock", logging.Error(err))
		}
	}()

	select {
	case err := <-s.deck.Resume(ctx):
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "show", "resume audio output", "", err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	ended := make(chan struct{})
	s.endedCh = ended
	s.Start()
	defer s.Halt()

	var rec *recording
	if opts.Record {
		if _, err := s.StartRecording(ctx, opts.Title); err != nil {
			return nil, err
		}
		rec = s.recording
	} else if err := s.Play(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-ended:
		case <-runCtx.Done():
			return
		}
		if rec != nil {
			select {
			case <-rec.done:
			case <-runCtx.Done():
			}
		}
		cancel()
	}()

	fps := max(s.cfg.Render.FPS, 1)
	if err := s.loop.Run(runCtx, time.Second/time.Duration(fps)); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	if ctx.Err() != nil {
		s.logger.Info("performance interrupted")
	}
	s.Pause()
	return s.finishRecording(ctx, rec)
}
