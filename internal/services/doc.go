// Package services defines shared utilities consumed by the playback, render,
// and capture pipeline and by the external tools it drives.
//
// Key responsibilities:
//   - Context helpers that stamp capture session IDs, stage names, track
//     titles, and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failures from
//     ffmpeg, decoders, and configuration classifiable with errors.Is.
//
// Use these helpers when wiring new pipeline code so error handling and
// observability stay uniform.
package services
