package show

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"

	_ "golang.org/x/image/webp"

	"sonicvoyager/internal/services"
)

const maxArtworkBytes = 32 << 20

// LoadArtwork decodes a png, jpeg or webp image from a local path or an
// http(s) URL.
func LoadArtwork(ctx context.Context, client *http.Client, ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, services.Wrap(services.ErrValidation, "artwork", "load", "empty artwork reference", nil)
	}

	var data []byte
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "artwork", "fetch", "build request", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "artwork", "fetch", ref, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, services.Wrap(services.ErrNotFound, "artwork", "fetch", fmt.Sprintf("%s returned %s", ref, resp.Status), nil)
		}
		if data, err = io.ReadAll(io.LimitReader(resp.Body, maxArtworkBytes)); err != nil {
			return nil, services.Wrap(services.ErrTransient, "artwork", "fetch", "read body", err)
		}
	} else {
		var err error
		if data, err = os.ReadFile(strings.TrimPrefix(ref, "file://")); err != nil {
			return nil, services.Wrap(services.ErrNotFound, "artwork", "load", ref, err)
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "artwork", "decode", ref, err)
	}
	return img, nil
}
