package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestCaptureRequirements(t *testing.T) {
	binDir := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(filepath.Join(binDir, "ffmpeg"), script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	reqs := CaptureRequirements("", "ffprobe", false)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != filepath.Join(binDir, "ffmpeg") {
		t.Fatalf("expected resolved ffmpeg path, got %q", reqs[0].Command)
	}
	if reqs[1].Command != "ffprobe" || !reqs[1].Optional {
		t.Fatalf("expected optional unresolved ffprobe, got %#v", reqs[1])
	}
	if CaptureRequirements("ffmpeg", "ffprobe", true)[1].Optional {
		t.Fatal("ffprobe must be required when validation is enabled")
	}

	statuses := CheckBinaries(reqs)
	if !statuses[0].Available || statuses[1].Available {
		t.Fatalf("unexpected availability: %#v", statuses)
	}
}

func TestResolvePathFallback(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if got := ResolvePath("  ", "ffprobe"); got != "ffprobe" {
		t.Fatalf("expected fallback name, got %q", got)
	}
}
