package ffmpeg

import "slices"

// Bitrates used for negotiated formats and for the encoder-default fallback.
const (
	PreferredVideoBitrate = 15_000_000
	PreferredAudioBitrate = 320_000
	FallbackVideoBitrate  = 8_000_000
	FallbackAudioBitrate  = 128_000
)

// Format describes one container and codec combination a capture can be
// written as. Empty codec names leave the choice to the muxer's defaults.
type Format struct {
	Name         string
	MimeType     string
	Muxer        string
	VideoCodec   string
	AudioCodec   string
	Extension    string
	VideoBitrate int
	AudioBitrate int
	MuxerArgs    []string
}

// Label renders the format for status output.
func (f Format) Label() string {
	if f.MimeType == "" {
		return f.Name
	}
	return f.MimeType
}

var preferred = []Format{
	{
		Name:       "webm-vp9-opus",
		MimeType:   "video/webm;codecs=vp9,opus",
		Muxer:      "webm",
		VideoCodec: "libvpx-vp9",
		AudioCodec: "libopus",
		Extension:  "webm",
	},
	{
		Name:       "webm-vp8-opus",
		MimeType:   "video/webm;codecs=vp8,opus",
		Muxer:      "webm",
		VideoCodec: "libvpx",
		AudioCodec: "libopus",
		Extension:  "webm",
	},
	{
		// The webm muxer refuses h264, so this one rides in plain matroska.
		Name:       "webm-h264-opus",
		MimeType:   "video/webm;codecs=h264,opus",
		Muxer:      "matroska",
		VideoCodec: "libx264",
		AudioCodec: "libopus",
		Extension:  "webm",
	},
	{
		Name:       "webm",
		MimeType:   "video/webm",
		Muxer:      "webm",
		VideoCodec: "libvpx",
		AudioCodec: "libvorbis",
		Extension:  "webm",
	},
	{
		Name:       "mp4",
		MimeType:   "video/mp4",
		Muxer:      "mp4",
		VideoCodec: "libx264",
		AudioCodec: "aac",
		Extension:  "mp4",
		MuxerArgs:  []string{"-movflags", "frag_keyframe+empty_moov"},
	},
}

// Preferred returns the negotiation table in priority order.
func Preferred() []Format {
	out := make([]Format, len(preferred))
	for i, f := range preferred {
		f.VideoBitrate = PreferredVideoBitrate
		f.AudioBitrate = PreferredAudioBitrate
		f.MuxerArgs = slices.Clone(f.MuxerArgs)
		out[i] = f
	}
	return out
}

// Fallback is used when no preferred format is supported: matroska with the
// muxer's default codecs at reduced bitrates.
func Fallback() Format {
	return Format{
		Name:         "default",
		MimeType:     "video/x-matroska",
		Muxer:        "matroska",
		Extension:    "mkv",
		VideoBitrate: FallbackVideoBitrate,
		AudioBitrate: FallbackAudioBitrate,
	}
}

// Negotiate returns the first preferred format the capabilities support.
// ok is false when the fallback was chosen.
func Negotiate(caps Capabilities) (Format, bool) {
	for _, f := range Preferred() {
		if caps.Supports(f) {
			return f, true
		}
	}
	return Fallback(), false
}
