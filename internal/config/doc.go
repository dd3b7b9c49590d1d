// Package config loads, normalizes, and validates sonicvoyager configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// analyser, renderer, capture pipeline, and CLI need, including the
// performance queue of tracks.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
