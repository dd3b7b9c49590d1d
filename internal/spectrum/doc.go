// Package spectrum turns the playback tap into per-tick feature snapshots:
// byte-scaled frequency and waveform buffers, band energies, and a beat flag
// derived from a rolling bass history.
//
// Buffers are allocated once by NewSource and refreshed in place by Update;
// callers receive the live slices and must treat them as read-only.
package spectrum
