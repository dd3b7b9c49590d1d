// Package ffmpeg drives the ffmpeg binary that encodes captures.
//
// Probe lists the encoders and muxers a binary was built with, Negotiate
// walks the preferred container/codec table against that listing, and Start
// launches a live encoder that reads raw RGBA frames on stdin and s16le PCM on
// an extra pipe, streaming the muxed container back as stdout chunks.
package ffmpeg
