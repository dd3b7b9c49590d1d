// Package preset contains the catalog of audio-reactive visual presets.
//
// Every preset satisfies Renderer: Init allocates its scene subgraph and is
// idempotent, Update mutates that subgraph from one frame of audio features
// without creating nodes, and Dispose releases everything so the instance
// holds nothing until the next Init. Presets that can show cover artwork
// also implement ArtworkSetter.
package preset
