package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no catalog entry matches a lookup.
var ErrNotFound = errors.New("capture not found")

// ErrAmbiguous is returned when an id prefix matches several entries.
var ErrAmbiguous = errors.New("capture id is ambiguous")

const entryColumns = `id, session_id, title, genre, preset, path, format, mime_type,
	size_bytes, duration_seconds, frames, validated, validation_error,
	started_at, finished_at, created_at`

// Record inserts a finished capture. ID and CreatedAt are assigned when empty.
func (s *Store) Record(ctx context.Context, e Entry) (*Entry, error) {
	if strings.TrimSpace(e.Path) == "" {
		return nil, errors.New("record capture: path required")
	}
	if strings.TrimSpace(e.Title) == "" {
		return nil, errors.New("record capture: title required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = e.CreatedAt
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = e.FinishedAt
	}

	_, err := s.execWithRetry(ctx, `INSERT INTO captures (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Title, nullString(e.Genre), nullString(e.Preset), e.Path,
		e.Format, nullString(e.MimeType), e.SizeBytes, e.DurationSeconds, e.Frames,
		boolToInt(e.Validated), nullString(e.ValidationError),
		formatTime(e.StartedAt), formatTime(e.FinishedAt), formatTime(e.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert capture: %w", err)
	}
	return &e, nil
}

// List returns the most recent captures first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + entryColumns + ` FROM captures ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var entries []*Entry
	err := retryOnBusy(ctx, func() error {
		entries = entries[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	return entries, nil
}

// Get resolves an entry by full id or unique id prefix.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	ctx = ensureContext(ctx)
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, fmt.Errorf("get capture: %w", ErrNotFound)
	}
	var matches []*Entry
	err := retryOnBusy(ctx, func() error {
		matches = matches[:0]
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+entryColumns+` FROM captures WHERE id = ? OR substr(id, 1, ?) = ? LIMIT 2`,
			id, len(id), id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				return err
			}
			matches = append(matches, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get capture: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("get capture %s: %w", id, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		for _, m := range matches {
			if m.ID == id {
				return m, nil
			}
		}
		return nil, fmt.Errorf("get capture %s: %w", id, ErrAmbiguous)
	}
}

// Remove deletes an entry. The artifact on disk is left alone.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM captures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove capture: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("remove capture %s: %w", id, ErrNotFound)
	}
	return nil
}

// Stats summarises the catalog.
type Stats struct {
	Count     int
	Bytes     int64
	Seconds   float64
	Unchecked int
}

// Stats aggregates entry counts and sizes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	var st Stats
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(1),
			COALESCE(SUM(size_bytes), 0),
			COALESCE(SUM(duration_seconds), 0),
			COALESCE(SUM(CASE WHEN validated = 0 THEN 1 ELSE 0 END), 0)
			FROM captures`).Scan(&st.Count, &st.Bytes, &st.Seconds, &st.Unchecked)
	})
	if err != nil {
		return Stats{}, fmt.Errorf("catalog stats: %w", err)
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e                          Entry
		genre, preset, mime, fault sql.NullString
		validated                  int
		started, finished, created string
	)
	if err := row.Scan(&e.ID, &e.SessionID, &e.Title, &genre, &preset, &e.Path,
		&e.Format, &mime, &e.SizeBytes, &e.DurationSeconds, &e.Frames, &validated, &fault,
		&started, &finished, &created); err != nil {
		return nil, err
	}
	e.Genre = genre.String
	e.Preset = preset.String
	e.MimeType = mime.String
	e.ValidationError = fault.String
	e.Validated = validated != 0
	e.StartedAt = parseTime(started)
	e.FinishedAt = parseTime(finished)
	e.CreatedAt = parseTime(created)
	return &e, nil
}

func nullString(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
