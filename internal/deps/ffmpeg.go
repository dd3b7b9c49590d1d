package deps

import (
	"os/exec"
	"strings"
)

// CaptureRequirements lists the external binaries the capture pipeline runs.
// ffprobe is only required when finished captures are validated.
func CaptureRequirements(ffmpegBinary, ffprobeBinary string, validate bool) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ResolvePath(ffmpegBinary, "ffmpeg"),
			Description: "Required for capture encoding",
		},
		{
			Name:        "FFprobe",
			Command:     ResolvePath(ffprobeBinary, "ffprobe"),
			Description: "Validates finished captures",
			Optional:    !validate,
		},
	}
}

// ResolvePath returns the absolute location of binary when it can be found on
// PATH, otherwise the trimmed name (or fallback when empty) so status output
// still shows what was looked for.
func ResolvePath(binary, fallback string) string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = fallback
	}
	if resolved, err := exec.LookPath(binary); err == nil {
		return resolved
	}
	return binary
}
