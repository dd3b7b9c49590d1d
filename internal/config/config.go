package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Audio contains decoding and analyser settings.
type Audio struct {
	SampleRate      int     `toml:"sample_rate"`
	FFTSize         int     `toml:"fft_size"`
	Smoothing       float64 `toml:"smoothing"`
	MinDecibels     float64 `toml:"min_decibels"`
	MaxDecibels     float64 `toml:"max_decibels"`
	ResampleQuality int     `toml:"resample_quality"`
	SpeakerBufferMS int     `toml:"speaker_buffer_ms"`
}

// Analysis contains beat detection thresholds.
type Analysis struct {
	// BeatRatio is the multiple of the rolling bass average a frame must exceed.
	BeatRatio float64 `toml:"beat_ratio"`
	// BeatFloor is the absolute bass energy a frame must exceed (0..255).
	BeatFloor   float64 `toml:"beat_floor"`
	HistorySize int     `toml:"history_size"`
	BassBins    int     `toml:"bass_bins"`
}

// Render contains visual renderer settings.
type Render struct {
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	FPS           int    `toml:"fps"`
	DefaultPreset string `toml:"default_preset"`
	Bloom         bool   `toml:"bloom"`
	FilmGrain     bool   `toml:"film_grain"`
	Seed          uint64 `toml:"seed"` // 0 picks a time based seed
}

// Capture contains recording pipeline settings.
type Capture struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	ChunkSizeKB    int    `toml:"chunk_size_kb"`
	ValidateOutput bool   `toml:"validate_output"`
	RecordCatalog  bool   `toml:"record_catalog"`
}

// HUD contains timings for the headless overlay state model.
type HUD struct {
	AutoHide             bool    `toml:"auto_hide"`
	InactivitySeconds    float64 `toml:"inactivity_seconds"`
	ReappearSeconds      float64 `toml:"reappear_seconds"`
	PopupIntervalSeconds float64 `toml:"popup_interval_seconds"`
	NotificationSeconds  float64 `toml:"notification_seconds"`
	CardHoldSeconds      float64 `toml:"card_hold_seconds"`
	CardFadeSeconds      float64 `toml:"card_fade_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Track is one entry of the performance queue.
type Track struct {
	Title   string `toml:"title"`
	Genre   string `toml:"genre"`
	Source  string `toml:"source"`
	Artwork string `toml:"artwork"`
}

// Config encapsulates all configuration values for sonicvoyager.
//
// Configuration sections by subsystem:
//   - Paths: capture output, catalog state, and log directories
//   - Audio: sample rate and analyser parameters
//   - Analysis: beat detection thresholds
//   - Render: software renderer size, frame rate, and post-processing
//   - Capture: ffmpeg/ffprobe binaries and artifact handling
//   - HUD: overlay timers (notifications, floating cards, cinematic mode)
//   - Logging: log format and level
//   - Tracks: the performance queue
type Config struct {
	Paths    Paths    `toml:"paths"`
	Audio    Audio    `toml:"audio"`
	Analysis Analysis `toml:"analysis"`
	Render   Render   `toml:"render"`
	Capture  Capture  `toml:"capture"`
	HUD      HUD      `toml:"hud"`
	Logging  Logging  `toml:"logging"`
	Tracks   []Track  `toml:"tracks"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sonicvoyager.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output, state, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogPath returns the SQLite capture catalog location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.StateDir, "captures.db")
}

// LockPath returns the single-instance lock file used by realtime performances.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "sonicvoyager.lock")
}

// FFmpegBinary returns the ffmpeg executable used for encoding.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Capture.FFmpegBinary); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for artifact validation.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Capture.FFprobeBinary); bin != "" {
		return bin
	}
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
