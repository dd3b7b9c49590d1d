package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"sonicvoyager/internal/capture"
	"sonicvoyager/internal/show"
)

type captureSummary struct {
	SessionID  string  `json:"session_id"`
	Title      string  `json:"title"`
	Path       string  `json:"path,omitempty"`
	Format     string  `json:"format"`
	MimeType   string  `json:"mime_type,omitempty"`
	Frames     int64   `json:"frames"`
	Bytes      int64   `json:"bytes"`
	Seconds    float64 `json:"duration_seconds"`
	Validated  bool    `json:"validated"`
	Validation string  `json:"validation_error,omitempty"`
	CatalogID  string  `json:"catalog_id,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func summarizeOutcome(out *show.Outcome) captureSummary {
	res := out.Capture
	summary := captureSummary{
		SessionID: res.SessionID,
		Title:     res.Title,
		Path:      res.Path,
		Format:    res.Format.Name,
		MimeType:  res.Format.MimeType,
		Frames:    res.Frames,
		Bytes:     res.Bytes,
		Seconds:   float64(res.Frames) / capture.FPS,
	}
	if out.Probe != nil {
		if d := out.Probe.DurationSeconds(); d > 0 {
			summary.Seconds = d
		}
	}
	if out.Validation != nil {
		summary.Validation = out.Validation.Error()
	} else {
		summary.Validated = out.Probe != nil
	}
	if out.Entry != nil {
		summary.CatalogID = out.Entry.ID
	}
	if res.Err != nil {
		summary.Error = res.Err.Error()
	}
	return summary
}

func printCaptureSummary(w io.Writer, s captureSummary) {
	if s.Error != "" {
		fmt.Fprintf(w, "Capture failed: %s\n", s.Error)
		return
	}
	fmt.Fprintf(w, "Saved:     %s\n", s.Path)
	fmt.Fprintf(w, "Format:    %s\n", s.Format)
	fmt.Fprintf(w, "Length:    %s (%s frames)\n",
		(time.Duration(s.Seconds * float64(time.Second))).Round(time.Millisecond),
		humanize.Comma(s.Frames))
	fmt.Fprintf(w, "Size:      %s\n", humanize.IBytes(uint64(max(s.Bytes, 0))))
	switch {
	case s.Validation != "":
		fmt.Fprintf(w, "Validated: no (%s)\n", s.Validation)
	case s.Validated:
		fmt.Fprintln(w, "Validated: yes")
	}
	if s.CatalogID != "" {
		fmt.Fprintf(w, "Catalog:   %s\n", s.CatalogID)
	}
}
