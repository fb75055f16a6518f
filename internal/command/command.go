// Package command spawns the shell subprocesses watchbind runs: the
// watched command, blocking keybinding commands, and detached background
// commands. Every subprocess is started as `sh -c CMD` with an explicit
// environment assembled by the caller.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultCaptureLimit bounds how much subprocess stdout is kept in memory.
const DefaultCaptureLimit int64 = 16 << 20

// stderrLimit bounds how much stderr is retained for error reporting.
const stderrLimit int64 = 64 << 10

// The package logger writes nowhere by default: while the TUI owns the
// terminal, stray stderr lines would corrupt the alternate screen.
var logger = log.NewWithOptions(io.Discard, log.Options{
	ReportTimestamp: true,
	Prefix:          "command",
})

// SetLogging redirects the package logger.
func SetLogging(w io.Writer, level log.Level) {
	logger.SetOutput(w)
	logger.SetLevel(level)
}

// ExitError reports a subprocess that terminated with non-zero status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command exited with status %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Result holds the captured output of a blocking subprocess run.
type Result struct {
	Stdout    string
	Truncated bool
}

// Shell builds an sh -c invocation with the given environment. The child
// is placed in its own process group so cancellation reaches any
// grandchildren the shell forks.
func Shell(ctx context.Context, cmdline string, environ []string) *exec.Cmd {
	c := exec.CommandContext(ctx, "sh", "-c", cmdline)
	c.Env = environ
	setProcessGroup(c)
	c.Cancel = func() error { return terminate(c) }
	c.WaitDelay = 2 * time.Second
	return c
}

// Capture runs cmdline to completion, streaming stdout into memory up to
// limit bytes. Stdin and stderr are detached from the terminal; stderr is
// retained (bounded) for error reporting only. The returned string is
// valid UTF-8 with invalid sequences replaced. A non-zero exit is
// reported as *ExitError with the partial Result still populated.
func Capture(ctx context.Context, cmdline string, environ []string, limit int64) (Result, error) {
	if limit <= 0 {
		limit = DefaultCaptureLimit
	}

	c := Shell(ctx, cmdline, environ)

	var stderr limitedBuffer
	stderr.limit = stderrLimit
	c.Stderr = &stderr

	stdout, err := c.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("pipe stdout: %w", err)
	}

	if err := c.Start(); err != nil {
		return Result{}, fmt.Errorf("spawn %q: %w", cmdline, err)
	}

	var out bytes.Buffer
	n, readErr := io.Copy(&out, io.LimitReader(stdout, limit))
	truncated := false
	if readErr == nil && n == limit {
		// More output may remain; drain it so Wait does not block on a
		// full pipe, but stop keeping it.
		if extra, _ := io.Copy(io.Discard, stdout); extra > 0 {
			truncated = true
			logger.Warn("stdout capture truncated", "command", cmdline, "limit", limit)
		}
	}

	waitErr := c.Wait()

	res := Result{
		Stdout:    strings.ToValidUTF8(out.String(), "�"),
		Truncated: truncated,
	}

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if readErr != nil {
		return res, fmt.Errorf("read stdout: %w", readErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return res, &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return res, fmt.Errorf("wait %q: %w", cmdline, waitErr)
	}
	return res, nil
}

// TrimTrailingNewline strips exactly one trailing newline, the set-env
// convention for command substitutions.
func TrimTrailingNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}

// limitedBuffer keeps at most limit bytes and silently drops the rest.
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int64
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if room := b.limit - int64(b.buf.Len()); room > 0 {
		if int64(n) > room {
			p = p[:room]
		}
		b.buf.Write(p)
	}
	return n, nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }
