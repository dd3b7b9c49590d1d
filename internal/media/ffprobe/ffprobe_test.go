package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestValidateCapture(t *testing.T) {
	good := Result{Streams: []Stream{
		{CodecType: "video", CodecName: "vp9", Width: 1920, Height: 1080},
		{CodecType: "audio", CodecName: "opus", Channels: 2},
	}}
	if err := good.ValidateCapture(1920, 1080); err != nil {
		t.Fatalf("expected valid capture, got %v", err)
	}

	tests := []struct {
		name   string
		result Result
	}{
		{"no audio", Result{Streams: []Stream{{CodecType: "video", Width: 1920, Height: 1080}}}},
		{"two videos", Result{Streams: []Stream{{CodecType: "video", Width: 1920, Height: 1080}, {CodecType: "video"}, {CodecType: "audio"}}}},
		{"wrong size", Result{Streams: []Stream{{CodecType: "video", Width: 1280, Height: 720}, {CodecType: "audio"}}}},
	}
	for _, tc := range tests {
		if err := tc.result.ValidateCapture(1920, 1080); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\necho '{\"streams\":[{\"codec_type\":\"video\",\"width\":1920,\"height\":1080},{\"codec_type\":\"audio\"}],\"format\":{\"duration\":\"2.5\"}}'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	result, err := Inspect(context.Background(), bin, filepath.Join(dir, "capture.webm"))
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if err := result.ValidateCapture(1920, 1080); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if result.DurationSeconds() != 2.5 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
	if len(result.RawJSON()) == 0 {
		t.Fatal("expected raw JSON to be retained")
	}
}

func TestInspectRequiresPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStreamFrameRate(t *testing.T) {
	tests := map[string]float64{
		"60/1":       60,
		"30000/1001": 30000.0 / 1001.0,
		"0/0":        0,
		"":           0,
		"25":         25,
		"bad/1":      0,
	}
	for in, want := range tests {
		if got := (Stream{AvgFrameRate: in}).FrameRate(); math.Abs(got-want) > 1e-9 {
			t.Fatalf("FrameRate(%q) = %v, want %v", in, got, want)
		}
	}
}
