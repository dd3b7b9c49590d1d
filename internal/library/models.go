package library

import (
	"path/filepath"
	"strings"
	"time"
)

// Entry is one recorded capture artifact.
type Entry struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	Title           string    `json:"title"`
	Genre           string    `json:"genre,omitempty"`
	Preset          string    `json:"preset"`
	Path            string    `json:"path"`
	Format          string    `json:"format"`
	MimeType        string    `json:"mime_type"`
	SizeBytes       int64     `json:"size_bytes"`
	DurationSeconds float64   `json:"duration_seconds"`
	Frames          int64     `json:"frames"`
	Validated       bool      `json:"validated"`
	ValidationError string    `json:"validation_error,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// FileName returns the artifact's base name.
func (e Entry) FileName() string {
	if strings.TrimSpace(e.Path) == "" {
		return ""
	}
	return filepath.Base(e.Path)
}

// ShortID returns the leading segment of the entry id for display.
func (e Entry) ShortID() string {
	if head, _, ok := strings.Cut(e.ID, "-"); ok {
		return head
	}
	return e.ID
}

// Elapsed is the wall-clock length of the recording session.
func (e Entry) Elapsed() time.Duration {
	if e.StartedAt.IsZero() || e.FinishedAt.Before(e.StartedAt) {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}
