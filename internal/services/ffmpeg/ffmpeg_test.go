package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"
)

const encoderListing = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libvpx               libvpx VP8 (codec vp8)
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 A....D libopus              libopus Opus (codec opus)
 A....D aac                  AAC (Advanced Audio Coding)
`

const muxerListing = `File formats:
 D. = Demuxing supported
 .E = Muxing supported
 --
  E matroska        Matroska
  E mp4             MP4 (MPEG-4 Part 14)
  E webm            WebM
`

func stubCommand(t *testing.T, mode string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode),
			fmt.Sprintf("FFMPEG_HELPER_ARGS=%s", strings.Join(args, " ")),
		)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func TestParseListing(t *testing.T) {
	encoders := parseListing(encoderListing)
	for _, name := range []string{"libvpx", "libx264", "libopus", "aac"} {
		if _, ok := encoders[name]; !ok {
			t.Fatalf("expected encoder %q in %v", name, encoders)
		}
	}
	if _, ok := encoders["="]; ok {
		t.Fatalf("legend rows must not be parsed as encoders: %v", encoders)
	}
	muxers := parseListing(" --\n  E matroska,webm   Matroska\n")
	if _, ok := muxers["webm"]; !ok {
		t.Fatalf("expected comma separated aliases to be split, got %v", muxers)
	}
}

func TestNegotiateOrder(t *testing.T) {
	set := func(names ...string) map[string]struct{} {
		out := make(map[string]struct{}, len(names))
		for _, n := range names {
			out[n] = struct{}{}
		}
		return out
	}
	tests := []struct {
		name     string
		caps     Capabilities
		want     string
		wantPref bool
	}{
		{"vp9 first", Capabilities{Encoders: set("libvpx-vp9", "libvpx", "libopus"), Muxers: set("webm")}, "webm-vp9-opus", true},
		{"vp8 without vp9", Capabilities{Encoders: set("libvpx", "libopus"), Muxers: set("webm")}, "webm-vp8-opus", true},
		{"h264 in matroska", Capabilities{Encoders: set("libx264", "libopus"), Muxers: set("matroska")}, "webm-h264-opus", true},
		{"vorbis webm", Capabilities{Encoders: set("libvpx", "libvorbis"), Muxers: set("webm")}, "webm", true},
		{"fragmented mp4", Capabilities{Encoders: set("libx264", "aac"), Muxers: set("mp4")}, "mp4", true},
		{"nothing usable", Capabilities{Encoders: set("mpeg4"), Muxers: set("avi")}, "default", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Negotiate(tc.caps)
			if got.Name != tc.want || ok != tc.wantPref {
				t.Fatalf("Negotiate = %s (preferred=%v), want %s (preferred=%v)", got.Name, ok, tc.want, tc.wantPref)
			}
			if ok && (got.VideoBitrate != PreferredVideoBitrate || got.AudioBitrate != PreferredAudioBitrate) {
				t.Fatalf("preferred bitrates not applied: %+v", got)
			}
			if !ok && (got.VideoBitrate != FallbackVideoBitrate || got.Extension != "mkv") {
				t.Fatalf("unexpected fallback: %+v", got)
			}
		})
	}
}

func TestPreferredReturnsCopy(t *testing.T) {
	formats := Preferred()
	formats[4].MuxerArgs[0] = "mutated"
	if Preferred()[4].MuxerArgs[0] != "-movflags" {
		t.Fatal("Preferred must not expose the package table")
	}
}

func TestProbeParsesBinaryListings(t *testing.T) {
	stubCommand(t, "listing")
	caps, err := Probe(context.Background(), "ffmpeg")
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	f, ok := Negotiate(caps)
	if !ok || f.Name != "webm-vp8-opus" {
		t.Fatalf("expected vp8 webm from stub listing, got %s (preferred=%v)", f.Name, ok)
	}
}

func TestProbeReportsFailure(t *testing.T) {
	stubCommand(t, "fail")
	_, err := Probe(context.Background(), "ffmpeg")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected stderr in probe error, got %v", err)
	}
}

func TestArgsForVP9(t *testing.T) {
	f, _ := Negotiate(Capabilities{
		Encoders: map[string]struct{}{"libvpx-vp9": {}, "libopus": {}},
		Muxers:   map[string]struct{}{"webm": {}},
	})
	args := strings.Join(Args(Spec{Format: f, Width: 1920, Height: 1080, FPS: 60, SampleRate: 48000, Channels: 2}), " ")
	for _, want := range []string{
		"-f rawvideo -pix_fmt rgba -s 1920x1080 -r 60 -i pipe:0",
		"-f s16le -ar 48000 -ac 2 -i pipe:3",
		"-c:v libvpx-vp9 -deadline realtime -cpu-used 8",
		"-b:v 15000000",
		"-c:a libopus -b:a 320000",
		"-f webm pipe:1",
	} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
}

func TestArgsForFallbackOmitCodecs(t *testing.T) {
	args := strings.Join(Args(Spec{Format: Fallback(), Width: 2, Height: 2, FPS: 60, SampleRate: 48000, Channels: 2}), " ")
	if strings.Contains(args, "-c:v") || strings.Contains(args, "-c:a") {
		t.Fatalf("fallback should rely on muxer defaults, got %q", args)
	}
	if !strings.HasSuffix(args, "-f matroska pipe:1") {
		t.Fatalf("unexpected output spec: %q", args)
	}
}

type collector struct {
	mu     sync.Mutex
	chunks [][]byte
	exit   chan error
}

func newCollector() *collector {
	return &collector{exit: make(chan error, 1)}
}

func (c *collector) events() Events {
	return Events{
		Chunk: func(b []byte) {
			c.mu.Lock()
			c.chunks = append(c.chunks, b)
			c.mu.Unlock()
		},
		Exit: func(err error) { c.exit <- err },
	}
}

func (c *collector) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-c.exit:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("encoder did not exit")
		return nil
	}
}

func TestEncoderStreamsChunks(t *testing.T) {
	stubCommand(t, "echo")
	c := newCollector()
	spec := Spec{Format: Fallback(), Width: 4, Height: 2, FPS: 60, SampleRate: 48000, Channels: 2, ChunkSize: 16}
	p, err := Start(context.Background(), spec, c.events())
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	frame := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for i := range frame.Pix {
		frame.Pix[i] = byte(i)
	}
	for range 3 {
		if err := p.WriteFrame(frame); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if _, err := p.Audio().Write(make([]byte, 400)); err != nil {
		t.Fatalf("audio write: %v", err)
	}
	p.Finish()
	if err := c.wait(t); err != nil {
		t.Fatalf("unexpected exit error: %v", err)
	}
	var got []byte
	for _, chunk := range c.chunks {
		if len(chunk) > 16 {
			t.Fatalf("chunk exceeds configured size: %d", len(chunk))
		}
		got = append(got, chunk...)
	}
	want := bytes.Repeat(frame.Pix, 3)
	if !bytes.Equal(got, want) {
		t.Fatalf("echoed video mismatch: got %d bytes, want %d", len(got), len(want))
	}
	<-p.Done()
}

func TestEncoderRejectsWrongFrameSize(t *testing.T) {
	stubCommand(t, "echo")
	c := newCollector()
	p, err := Start(context.Background(), Spec{Format: Fallback(), Width: 4, Height: 2, FPS: 60, SampleRate: 48000, Channels: 2}, c.events())
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := p.WriteFrame(image.NewRGBA(image.Rect(0, 0, 2, 2))); err == nil {
		t.Fatal("expected size mismatch error")
	}
	p.Kill()
	c.wait(t)
}

func TestEncoderExitCarriesStderr(t *testing.T) {
	stubCommand(t, "fail")
	c := newCollector()
	_, err := Start(context.Background(), Spec{Format: Fallback(), Width: 4, Height: 2, FPS: 60, SampleRate: 48000, Channels: 2}, c.events())
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	exitErr := c.wait(t)
	if exitErr == nil || !strings.Contains(exitErr.Error(), "boom") {
		t.Fatalf("expected exit error with stderr tail, got %v", exitErr)
	}
}

func TestStartValidatesSpec(t *testing.T) {
	if _, err := Start(context.Background(), Spec{Format: Fallback()}, Events{}); err == nil {
		t.Fatal("expected geometry validation error")
	}
	if _, err := Start(context.Background(), Spec{Width: 2, Height: 2, FPS: 1, SampleRate: 1, Channels: 1}, Events{}); err == nil {
		t.Fatal("expected missing muxer error")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Getenv("FFMPEG_HELPER_ARGS")
	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "listing":
		if strings.Contains(args, "-encoders") {
			fmt.Print(encoderListing)
		} else {
			fmt.Print(muxerListing)
		}
		os.Exit(0)
	case "echo":
		audio := os.NewFile(3, "audio")
		done := make(chan struct{})
		go func() {
			_, _ = io.Copy(io.Discard, audio)
			close(done)
		}()
		_, _ = io.Copy(os.Stdout, os.Stdin)
		<-done
		os.Exit(0)
	case "fail":
		fmt.Fprintln(os.Stderr, "boom")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
