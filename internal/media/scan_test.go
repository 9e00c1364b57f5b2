package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// These tests drive the verdict mapping with stock binaries instead of a real
// clamd: exit 0 = clean, exit 1 = infected, anything else = unavailable.

func TestScanCleanExit(t *testing.T) {
	requireUnix(t)
	s := NewClamAV("true", time.Minute, nil)
	if err := s.Scan(context.Background(), "/dev/null"); err != nil {
		t.Fatalf("expected clean verdict, got %v", err)
	}
}

func TestScanInfectedExit(t *testing.T) {
	requireUnix(t)
	s := NewClamAV("false", time.Minute, nil)
	err := s.Scan(context.Background(), "/dev/null")
	if !errors.Is(err, ErrInfected) {
		t.Fatalf("expected ErrInfected, got %v", err)
	}
}

func TestScanMissingBinaryUnavailable(t *testing.T) {
	s := NewClamAV("clamdscan-binary-that-does-not-exist", time.Minute, nil)
	err := s.Scan(context.Background(), "/dev/null")
	if !errors.Is(err, ErrScannerUnavailable) {
		t.Fatalf("expected ErrScannerUnavailable, got %v", err)
	}
}

func TestScanTimeoutUnavailable(t *testing.T) {
	requireUnix(t)
	script := filepath.Join(t.TempDir(), "slowscan")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 5\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	s := NewClamAV(script, 50*time.Millisecond, nil)
	err := s.Scan(context.Background(), "/dev/null")
	if !errors.Is(err, ErrScannerUnavailable) {
		t.Fatalf("expected ErrScannerUnavailable on timeout, got %v", err)
	}
}

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires unix coreutils")
	}
}
