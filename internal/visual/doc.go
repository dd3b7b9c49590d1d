// Package visual owns the preset catalog and turns one frame of audio
// analysis into one rendered image.
//
// The Director keeps exactly one preset active. Switching disposes the
// current preset before initializing the next, so two presets never hold
// scene resources at the same time. Each Render call also moves the camera
// rig and feeds bloom and film grain parameters derived from the bands.
package visual
