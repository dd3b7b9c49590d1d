// Package show wires one performance together: the playback deck, the
// spectrum source, the visual director, the HUD model and the capture
// pipeline all run on a single frame loop.
//
// Two drivers share that wiring. Render advances a virtual clock as fast as
// the machine allows and pulls audio from the deck per tick, so the result
// is deterministic and independent of wall-clock time. Perform plays through
// the sound card with wall-clock ticks and holds the single-instance lock.
// Finished captures are validated with ffprobe and recorded in the catalog
// in the background.
package show
