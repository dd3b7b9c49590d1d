package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeCapture()
	if err := c.normalizeTracks(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.DefaultPreset = strings.TrimSpace(c.Render.DefaultPreset)
	if c.Render.DefaultPreset == "" {
		c.Render.DefaultPreset = defaultPreset
	}
	if c.Render.FPS == 0 {
		c.Render.FPS = defaultRenderFPS
	}
}

func (c *Config) normalizeCapture() {
	c.Capture.FFmpegBinary = strings.TrimSpace(c.Capture.FFmpegBinary)
	if c.Capture.FFmpegBinary == "" {
		c.Capture.FFmpegBinary = "ffmpeg"
	}
	c.Capture.FFprobeBinary = strings.TrimSpace(c.Capture.FFprobeBinary)
	if c.Capture.FFprobeBinary == "" {
		c.Capture.FFprobeBinary = "ffprobe"
	}
	if c.Capture.ChunkSizeKB == 0 {
		c.Capture.ChunkSizeKB = defaultChunkSizeKB
	}
}

func (c *Config) normalizeTracks() error {
	for i := range c.Tracks {
		track := &c.Tracks[i]
		track.Title = strings.TrimSpace(track.Title)
		track.Genre = strings.TrimSpace(track.Genre)
		track.Source = strings.TrimSpace(track.Source)
		track.Artwork = strings.TrimSpace(track.Artwork)
		if track.Source != "" && !isRemote(track.Source) {
			expanded, err := expandPath(track.Source)
			if err != nil {
				return fmt.Errorf("tracks[%d].source: %w", i, err)
			}
			track.Source = expanded
		}
		if track.Artwork != "" && !isRemote(track.Artwork) {
			expanded, err := expandPath(track.Artwork)
			if err != nil {
				return fmt.Errorf("tracks[%d].artwork: %w", i, err)
			}
			track.Artwork = expanded
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
