package config

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateHUD(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateTracks()
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return errors.New("audio.sample_rate must be between 8000 and 192000")
	}
	if c.Audio.FFTSize < 32 || c.Audio.FFTSize > 32768 || bits.OnesCount(uint(c.Audio.FFTSize)) != 1 {
		return errors.New("audio.fft_size must be a power of two between 32 and 32768")
	}
	if c.Audio.Smoothing < 0 || c.Audio.Smoothing > 1 {
		return errors.New("audio.smoothing must be between 0 and 1")
	}
	if c.Audio.MaxDecibels <= c.Audio.MinDecibels {
		return errors.New("audio.max_decibels must be greater than audio.min_decibels")
	}
	if c.Audio.ResampleQuality < 1 || c.Audio.ResampleQuality > 6 {
		return errors.New("audio.resample_quality must be between 1 and 6")
	}
	if c.Audio.SpeakerBufferMS <= 0 {
		return errors.New("audio.speaker_buffer_ms must be positive")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.BeatRatio <= 0 {
		return errors.New("analysis.beat_ratio must be positive")
	}
	if c.Analysis.BeatFloor < 0 || c.Analysis.BeatFloor > 255 {
		return errors.New("analysis.beat_floor must be between 0 and 255")
	}
	if c.Analysis.HistorySize <= 0 {
		return errors.New("analysis.history_size must be positive")
	}
	if c.Analysis.BassBins <= 0 || c.Analysis.BassBins > c.Audio.FFTSize/2 {
		return fmt.Errorf("analysis.bass_bins must be between 1 and %d", c.Audio.FFTSize/2)
	}
	return nil
}

func (c *Config) validateRender() error {
	if err := ensurePositiveMap(map[string]int{
		"render.width":  c.Render.Width,
		"render.height": c.Render.Height,
		"render.fps":    c.Render.FPS,
	}); err != nil {
		return err
	}
	if c.Render.Width > 7680 || c.Render.Height > 4320 {
		return errors.New("render.width/height must not exceed 7680x4320")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.ChunkSizeKB <= 0 {
		return errors.New("capture.chunk_size_kb must be positive")
	}
	return nil
}

func (c *Config) validateHUD() error {
	values := map[string]float64{
		"hud.inactivity_seconds":     c.HUD.InactivitySeconds,
		"hud.reappear_seconds":       c.HUD.ReappearSeconds,
		"hud.popup_interval_seconds": c.HUD.PopupIntervalSeconds,
		"hud.notification_seconds":   c.HUD.NotificationSeconds,
		"hud.card_hold_seconds":      c.HUD.CardHoldSeconds,
		"hud.card_fade_seconds":      c.HUD.CardFadeSeconds,
	}
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateTracks() error {
	for i, track := range c.Tracks {
		if strings.TrimSpace(track.Source) == "" {
			return fmt.Errorf("tracks[%d].source must be set", i)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
