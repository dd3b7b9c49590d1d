// Package capture records the running show as a video file.
//
// A Capture composites the visual render surface, letterboxed, together with
// an overlay drawn from a fresh overlay.Snapshot into a 1920x1080 frame on
// every frame loop tick, and streams those frames plus the attached PCM to an
// encoder. Encoder output arrives as chunks that are buffered until Stop;
// finalization writes them as one file named after the sanitized track title
// and the stop time.
//
// Encoder callbacks run on their own goroutines and re-enter the capture only
// through frameloop.Loop.Post, so every session transition happens on the
// loop goroutine. A fault (unexpected exit or a failed frame write) tears the
// session down, discards partial output and resolves the Finalization with
// ErrEncoderFault.
package capture
