// Package hud models the on-screen interface without drawing it to a
// display: stats, the track queue, notifications, floating cards and the
// cinematic auto-hide timer. Model.Snapshot hands the capture compositor an
// independent copy of that state every frame.
package hud
