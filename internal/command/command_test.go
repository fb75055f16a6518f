//go:build !windows

package command_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/watchbind/watchbind/internal/command"
)

func TestCapture(t *testing.T) {
	res, err := command.Capture(context.Background(), "printf 'a\\nb\\n'", nil, 0)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.Stdout != "a\nb\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "a\nb\n")
	}
	if res.Truncated {
		t.Error("unexpected truncation")
	}
}

func TestCaptureEnviron(t *testing.T) {
	res, err := command.Capture(context.Background(), "printf '%s' \"$line\"", []string{"line=hello"}, 0)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.Stdout != "hello" {
		t.Errorf("Stdout = %q, want hello", res.Stdout)
	}
}

func TestCaptureNonZeroExit(t *testing.T) {
	res, err := command.Capture(context.Background(), "echo partial; echo oops >&2; exit 3", nil, 0)

	var exitErr *command.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
	if !strings.Contains(exitErr.Stderr, "oops") {
		t.Errorf("Stderr = %q, want to contain oops", exitErr.Stderr)
	}
	if res.Stdout != "partial\n" {
		t.Errorf("partial stdout not kept: %q", res.Stdout)
	}
}

func TestCaptureTruncates(t *testing.T) {
	res, err := command.Capture(context.Background(), "printf '0123456789abcdef'", nil, 8)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.Stdout != "01234567" {
		t.Errorf("Stdout = %q, want first 8 bytes", res.Stdout)
	}
	if !res.Truncated {
		t.Error("expected Truncated")
	}
}

func TestCaptureCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := command.Capture(ctx, "sleep 30", nil, 0)
	if err == nil {
		t.Fatal("expected error from cancelled capture")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %v, child was not signalled", elapsed)
	}
}

func TestBackgroundTerminate(t *testing.T) {
	child, err := command.StartBackground("sleep 30", nil)
	if err != nil {
		t.Fatalf("StartBackground: %v", err)
	}
	if child.Done() {
		t.Fatal("child reported done immediately")
	}

	start := time.Now()
	child.Terminate(250 * time.Millisecond)
	if !child.Done() {
		t.Error("child not done after Terminate")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Terminate took %v", elapsed)
	}
}
