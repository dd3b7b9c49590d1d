package services_test

import (
	"errors"
	"strings"
	"testing"

	"sonicvoyager/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "capture", "encode", "ffmpeg exited", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"capture", "encode", "ffmpeg exited"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "config", "load", "invalid", nil)
	if code := services.ExitCode(validationErr); code != 2 {
		t.Fatalf("expected 2 for validation error, got %d", code)
	}

	transientErr := services.Wrap(services.ErrTransient, "capture", "write", "short write", errors.New("io"))
	if code := services.ExitCode(transientErr); code != 1 {
		t.Fatalf("expected 1 for transient error, got %d", code)
	}

	if code := services.ExitCode(nil); code != 0 {
		t.Fatalf("expected 0 for nil error, got %d", code)
	}
}
