package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"sonicvoyager/internal/config"
	"sonicvoyager/internal/deps"
	"sonicvoyager/internal/services/ffmpeg"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least min
// bytes available to unprivileged users.
func CheckFreeSpace(name, path string, min uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := st.Bavail * uint64(st.Bsize)
	detail := fmt.Sprintf("%s free on %s", humanize.IBytes(free), path)
	if free < min {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %s)", detail, humanize.IBytes(min))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.CaptureRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary(), cfg.Capture.ValidateOutput))
}

// CheckCaptureFormat probes the configured ffmpeg and reports the format
// captures will be written in.
func CheckCaptureFormat(ctx context.Context, cfg *config.Config) Result {
	const name = "Capture format"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	caps, err := ffmpeg.Probe(checkCtx, cfg.FFmpegBinary())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("probe failed (%v)", err)}
	}
	f, preferred := ffmpeg.Negotiate(caps)
	if !preferred {
		return Result{Name: name, Detail: fmt.Sprintf("%s (fallback: no preferred encoder available)", f.Label())}
	}
	return Result{Name: name, Passed: true, Detail: f.Label()}
}
