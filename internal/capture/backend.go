package capture

import (
	"context"
	"log/slog"

	"sonicvoyager/internal/services/ffmpeg"
)

// FFmpegBackend opens encoders backed by the ffmpeg binary.
type FFmpegBackend struct {
	Binary     string
	SampleRate int
	Channels   int
	ChunkSize  int
	Logger     *slog.Logger
}

// Capabilities implements Backend.
func (b FFmpegBackend) Capabilities(ctx context.Context) (ffmpeg.Capabilities, error) {
	return ffmpeg.Probe(ctx, b.Binary)
}

// Open implements Backend.
func (b FFmpegBackend) Open(ctx context.Context, format ffmpeg.Format, events ffmpeg.Events) (Encoder, error) {
	proc, err := ffmpeg.Start(ctx, ffmpeg.Spec{
		Binary:     b.Binary,
		Format:     format,
		Width:      Width,
		Height:     Height,
		FPS:        FPS,
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
		ChunkSize:  b.ChunkSize,
		Logger:     b.Logger,
	}, events)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

var _ Backend = FFmpegBackend{}
