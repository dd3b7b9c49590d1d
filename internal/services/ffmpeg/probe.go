package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Capabilities lists the encoders and muxers compiled into an ffmpeg binary.
type Capabilities struct {
	Encoders map[string]struct{}
	Muxers   map[string]struct{}
}

// HasEncoder reports whether the named encoder is available.
func (c Capabilities) HasEncoder(name string) bool {
	_, ok := c.Encoders[name]
	return ok
}

// HasMuxer reports whether the named muxer is available.
func (c Capabilities) HasMuxer(name string) bool {
	_, ok := c.Muxers[name]
	return ok
}

// Supports reports whether every component of f is available.
func (c Capabilities) Supports(f Format) bool {
	if f.Muxer == "" || !c.HasMuxer(f.Muxer) {
		return false
	}
	if f.VideoCodec != "" && !c.HasEncoder(f.VideoCodec) {
		return false
	}
	if f.AudioCodec != "" && !c.HasEncoder(f.AudioCodec) {
		return false
	}
	return true
}

// Probe queries binary for its encoder and muxer listings.
func Probe(ctx context.Context, binary string) (Capabilities, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	encoders, err := list(ctx, binary, "-encoders")
	if err != nil {
		return Capabilities{}, err
	}
	muxers, err := list(ctx, binary, "-muxers")
	if err != nil {
		return Capabilities{}, err
	}
	return Capabilities{Encoders: encoders, Muxers: muxers}, nil
}

func list(ctx context.Context, binary, flag string) (map[string]struct{}, error) {
	cmd := commandContext(ctx, binary, "-hide_banner", flag) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg %s: %w: %s", strings.TrimPrefix(flag, "-"), err, strings.TrimSpace(string(output)))
	}
	return parseListing(string(output)), nil
}

// parseListing reads the name column of an `ffmpeg -encoders` or
// `ffmpeg -muxers` table. Rows follow a separator line made only of dashes;
// comma separated aliases are split.
func parseListing(output string) map[string]struct{} {
	names := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(output))
	inTable := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inTable {
			if line != "" && strings.Trim(line, "-") == "" {
				inTable = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		for name := range strings.SplitSeq(fields[1], ",") {
			if name != "" {
				names[name] = struct{}{}
			}
		}
	}
	return names
}
