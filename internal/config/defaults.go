package config

const (
	defaultConfigPath           = "~/.config/sonicvoyager/config.toml"
	defaultOutputDir            = "~/Videos/sonicvoyager"
	defaultStateDir             = "~/.local/share/sonicvoyager"
	defaultLogDir               = "~/.local/share/sonicvoyager/logs"
	defaultSampleRate           = 48000
	defaultFFTSize              = 2048
	defaultSmoothing            = 0.8
	defaultMinDecibels          = -100
	defaultMaxDecibels          = -30
	defaultResampleQuality      = 4
	defaultSpeakerBufferMS      = 100
	defaultBeatRatio            = 1.3
	defaultBeatFloor            = 100
	defaultHistorySize          = 10
	defaultBassBins             = 10
	defaultRenderWidth          = 1280
	defaultRenderHeight         = 720
	defaultRenderFPS            = 60
	defaultPreset               = "Grid"
	defaultChunkSizeKB          = 64
	defaultInactivitySeconds    = 4
	defaultReappearSeconds      = 15
	defaultPopupIntervalSeconds = 30
	defaultNotificationSeconds  = 4
	defaultCardHoldSeconds      = 3
	defaultCardFadeSeconds      = 1
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Audio: Audio{
			SampleRate:      defaultSampleRate,
			FFTSize:         defaultFFTSize,
			Smoothing:       defaultSmoothing,
			MinDecibels:     defaultMinDecibels,
			MaxDecibels:     defaultMaxDecibels,
			ResampleQuality: defaultResampleQuality,
			SpeakerBufferMS: defaultSpeakerBufferMS,
		},
		Analysis: Analysis{
			BeatRatio:   defaultBeatRatio,
			BeatFloor:   defaultBeatFloor,
			HistorySize: defaultHistorySize,
			BassBins:    defaultBassBins,
		},
		Render: Render{
			Width:         defaultRenderWidth,
			Height:        defaultRenderHeight,
			FPS:           defaultRenderFPS,
			DefaultPreset: defaultPreset,
			Bloom:         true,
			FilmGrain:     true,
		},
		Capture: Capture{
			FFmpegBinary:   "ffmpeg",
			FFprobeBinary:  "ffprobe",
			ChunkSizeKB:    defaultChunkSizeKB,
			ValidateOutput: true,
			RecordCatalog:  true,
		},
		HUD: HUD{
			AutoHide:             true,
			InactivitySeconds:    defaultInactivitySeconds,
			ReappearSeconds:      defaultReappearSeconds,
			PopupIntervalSeconds: defaultPopupIntervalSeconds,
			NotificationSeconds:  defaultNotificationSeconds,
			CardHoldSeconds:      defaultCardHoldSeconds,
			CardFadeSeconds:      defaultCardFadeSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
