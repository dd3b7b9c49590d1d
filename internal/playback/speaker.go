package playback

import (
	"context"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// SpeakerOutput plays the deck through the system sound card.
type SpeakerOutput struct {
	Buffer time.Duration
	// VolumeDB attenuates or boosts the audible output only; capture sinks
	// always receive the unmodified signal.
	VolumeDB float64
	started  bool
}

// Start initializes the speaker and begins pulling from s.
func (o *SpeakerOutput) Start(ctx context.Context, sr beep.SampleRate, s beep.Streamer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buffer := o.Buffer
	if buffer <= 0 {
		buffer = 100 * time.Millisecond
	}
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		return err
	}
	o.started = true
	speaker.Play(&effects.Volume{
		Streamer: s,
		Base:     10,
		Volume:   o.VolumeDB / 20,
		Silent:   false,
	})
	return nil
}

// Close stops the speaker.
func (o *SpeakerOutput) Close() error {
	if !o.started {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	o.started = false
	return nil
}
