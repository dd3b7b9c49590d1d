package playback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"sonicvoyager/internal/services"
)

// Codec names a supported audio container.
type Codec string

const (
	CodecMP3    Codec = "mp3"
	CodecWAV    Codec = "wav"
	CodecFLAC   Codec = "flac"
	CodecVorbis Codec = "vorbis"
)

// maxRemoteBytes bounds tracks fetched over HTTP; they are held in memory so
// the decoder can seek back to zero when a capture starts.
const maxRemoteBytes = 512 << 20

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

// Open resolves a track reference (local path, file:// URL, or http(s) URL)
// and returns a seekable decoded stream.
func Open(ctx context.Context, client *http.Client, ref string) (beep.StreamSeekCloser, beep.Format, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, beep.Format{}, services.Wrap(services.ErrValidation, "playback", "open", "empty track source", nil)
	}
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return openRemote(ctx, client, ref)
	case strings.HasPrefix(lower, "file://"):
		ref = ref[len("file://"):]
	}

	file, err := os.Open(ref)
	if err != nil {
		return nil, beep.Format{}, services.Wrap(services.ErrNotFound, "playback", "open", ref, err)
	}
	codec, err := detectCodec(ref, "", file)
	if err != nil {
		file.Close()
		return nil, beep.Format{}, err
	}
	return decode(codec, file)
}

func openRemote(ctx context.Context, client *http.Client, url string) (beep.StreamSeekCloser, beep.Format, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, beep.Format{}, services.Wrap(services.ErrValidation, "playback", "fetch", "build request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, beep.Format{}, services.Wrap(services.ErrTransient, "playback", "fetch", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, beep.Format{}, services.Wrap(services.ErrNotFound, "playback", "fetch", fmt.Sprintf("%s returned %s", url, resp.Status), nil)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBytes+1))
	if err != nil {
		return nil, beep.Format{}, services.Wrap(services.ErrTransient, "playback", "fetch", "read body", err)
	}
	if len(data) > maxRemoteBytes {
		return nil, beep.Format{}, services.Wrap(services.ErrValidation, "playback", "fetch", "track exceeds 512 MiB", nil)
	}
	rs := readSeekNopCloser{bytes.NewReader(data)}
	codec, err := detectCodec(url, resp.Header.Get("Content-Type"), rs)
	if err != nil {
		return nil, beep.Format{}, err
	}
	return decode(codec, rs)
}

// detectCodec prefers the file extension, then the content type, then magic
// bytes. The reader is rewound before returning.
func detectCodec(name, contentType string, r io.ReadSeeker) (Codec, error) {
	switch strings.ToLower(filepath.Ext(strings.SplitN(name, "?", 2)[0])) {
	case ".mp3":
		return CodecMP3, nil
	case ".wav", ".wave":
		return CodecWAV, nil
	case ".flac":
		return CodecFLAC, nil
	case ".ogg", ".oga":
		return CodecVorbis, nil
	}
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "mpeg"):
		return CodecMP3, nil
	case strings.Contains(ct, "wav"):
		return CodecWAV, nil
	case strings.Contains(ct, "flac"):
		return CodecFLAC, nil
	case strings.Contains(ct, "ogg"):
		return CodecVorbis, nil
	}

	header := make([]byte, 4)
	n, _ := io.ReadFull(r, header)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", services.Wrap(services.ErrTransient, "playback", "detect", "rewind", err)
	}
	return sniffCodec(header[:n])
}

func sniffCodec(header []byte) (Codec, error) {
	switch {
	case bytes.HasPrefix(header, []byte("ID3")):
		return CodecMP3, nil
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return CodecMP3, nil
	case bytes.HasPrefix(header, []byte("RIFF")):
		return CodecWAV, nil
	case bytes.HasPrefix(header, []byte("fLaC")):
		return CodecFLAC, nil
	case bytes.HasPrefix(header, []byte("OggS")):
		return CodecVorbis, nil
	}
	return "", services.Wrap(services.ErrValidation, "playback", "detect", "unsupported audio format", nil)
}

func decode(codec Codec, rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch codec {
	case CodecMP3:
		stream, format, err = mp3.Decode(rc)
	case CodecWAV:
		stream, format, err = wav.Decode(rc)
	case CodecFLAC:
		stream, format, err = flac.Decode(rc)
	case CodecVorbis:
		stream, format, err = vorbis.Decode(rc)
	default:
		err = fmt.Errorf("codec %q", codec)
	}
	if err != nil {
		rc.Close()
		return nil, beep.Format{}, services.Wrap(services.ErrValidation, "playback", "decode", string(codec), err)
	}
	if codec == CodecWAV || codec == CodecFLAC {
		// Not every decoder closes its reader; make sure the file goes with the stream.
		stream = &ownedStream{StreamSeekCloser: stream, owner: rc}
	}
	return stream, format, nil
}

type ownedStream struct {
	beep.StreamSeekCloser
	owner io.Closer
}

func (s *ownedStream) Close() error {
	err := s.StreamSeekCloser.Close()
	if cerr := s.owner.Close(); err == nil && !errors.Is(cerr, os.ErrClosed) {
		err = cerr
	}
	return err
}
