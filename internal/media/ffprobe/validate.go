package ffprobe

import (
	"fmt"
	"strings"
)

// VideoStream returns the first video stream, if any.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// ValidateCapture checks the layout every capture must have: exactly one
// video stream of width x height and exactly one audio stream.
func (r Result) ValidateCapture(width, height int) error {
	if n := r.VideoStreamCount(); n != 1 {
		return fmt.Errorf("expected 1 video stream, found %d", n)
	}
	if n := r.AudioStreamCount(); n != 1 {
		return fmt.Errorf("expected 1 audio stream, found %d", n)
	}
	video, _ := r.VideoStream()
	if video.Width != width || video.Height != height {
		return fmt.Errorf("expected %dx%d video, found %dx%d", width, height, video.Width, video.Height)
	}
	return nil
}
