package hud

import (
	"math/rand/v2"
	"time"

	"sonicvoyager/internal/config"
)

const (
	// GraphWidth and GraphHeight size the mini graphs embedded in the
	// stat cards.
	GraphWidth  = 370
	GraphHeight = 60
)

// Options configures a Model.
type Options struct {
	AutoHide        bool
	Inactivity      time.Duration
	Reappear        time.Duration
	PopupInterval   time.Duration
	NotificationTTL time.Duration
	CardHold        time.Duration
	CardFade        time.Duration
	SampleRate      int
	Rand            *rand.Rand
}

// DefaultOptions matches the stock interface timings.
func DefaultOptions() Options {
	return Options{
		AutoHide:        true,
		Inactivity:      4 * time.Second,
		Reappear:        15 * time.Second,
		PopupInterval:   30 * time.Second,
		NotificationTTL: 4 * time.Second,
		CardHold:        3 * time.Second,
		CardFade:        time.Second,
		SampleRate:      48000,
	}
}

// OptionsFromConfig converts the [hud] section.
func OptionsFromConfig(cfg *config.Config) Options {
	seconds := func(v float64) time.Duration { return time.Duration(v * float64(time.Second)) }
	return Options{
		AutoHide:        cfg.HUD.AutoHide,
		Inactivity:      seconds(cfg.HUD.InactivitySeconds),
		Reappear:        seconds(cfg.HUD.ReappearSeconds),
		PopupInterval:   seconds(cfg.HUD.PopupIntervalSeconds),
		NotificationTTL: seconds(cfg.HUD.NotificationSeconds),
		CardHold:        seconds(cfg.HUD.CardHoldSeconds),
		CardFade:        seconds(cfg.HUD.CardFadeSeconds),
		SampleRate:      cfg.Audio.SampleRate,
	}
}
