// Package watch periodically re-executes the watched command and
// publishes its captured output. It owns the interval timer and the
// single outstanding child; at most one watch child exists at any
// instant.
package watch

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/watchbind/watchbind/internal/command"
	"github.com/watchbind/watchbind/internal/env"
)

var logger = log.NewWithOptions(io.Discard, log.Options{
	ReportTimestamp: true,
	Prefix:          "watch",
})

// SetLogging redirects the package logger.
func SetLogging(w io.Writer, level log.Level) {
	logger.SetOutput(w)
	logger.SetLevel(level)
}

// Update is one completed watch run. On failure Err is set and Output
// is empty; the consumer keeps its previous buffer.
type Update struct {
	Output    string
	Truncated bool
	Err       error
	SpawnedAt time.Time
}

// Options configures a Watcher.
type Options struct {
	// Command is the watched shell command.
	Command string
	// Interval between runs. 0 means run back to back, never
	// overlapping.
	Interval time.Duration
	// NoTimeout disables the per-run deadline. By default a run is
	// cancelled when it has not finished within one interval.
	NoTimeout bool
	// CaptureLimit bounds the captured stdout in bytes.
	CaptureLimit int64
	// Env supplies the environment snapshot for each spawn.
	Env *env.Table
	// Publish delivers completed runs to the event loop. It must not
	// block indefinitely.
	Publish func(Update)
}

// Watcher re-runs the watched command on a timer. All spawning and
// cancellation happens on one goroutine, which is what guarantees the
// single-child invariant.
type Watcher struct {
	opts   Options
	reload chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Watcher; Start launches it.
func New(opts Options) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		opts:   opts,
		reload: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start begins watching. The first run is spawned immediately.
func (w *Watcher) Start() {
	go w.run()
}

// Reload cancels any in-flight run and immediately schedules a fresh
// one. The interval timer restarts from now. Reloads arriving while one
// is already pending collapse into it.
func (w *Watcher) Reload() {
	select {
	case w.reload <- struct{}{}:
	default:
	}
}

// Stop cancels the watcher and waits until its child is reaped.
func (w *Watcher) Stop() {
	w.cancel()
	<-w.done
}

func (w *Watcher) timeout() time.Duration {
	if w.opts.NoTimeout || w.opts.Interval <= 0 {
		return 0
	}
	return w.opts.Interval
}

type runResult struct {
	res command.Result
	err error
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		if w.ctx.Err() != nil {
			return
		}
		if !w.runOnce() {
			return
		}
	}
}

// runOnce spawns one child and services the timer until it is time to
// spawn the next. It returns false when the watcher is stopped.
func (w *Watcher) runOnce() bool {
	spawnedAt := time.Now()

	ctx, cancel := context.WithCancel(w.ctx)
	if t := w.timeout(); t > 0 {
		ctx, cancel = context.WithTimeout(w.ctx, t)
	}
	defer cancel()

	done := make(chan runResult, 1)
	environ := w.opts.Env.Environ()
	go func() {
		res, err := command.Capture(ctx, w.opts.Command, environ, w.opts.CaptureLimit)
		done <- runResult{res, err}
	}()

	var ticker *time.Ticker
	var tick <-chan time.Time
	if w.opts.Interval > 0 {
		ticker = time.NewTicker(w.opts.Interval)
		tick = ticker.C
		defer ticker.Stop()
	}

	running := true
	for {
		select {
		case r := <-done:
			running = false
			w.publish(r, spawnedAt)
			if tick == nil {
				// Interval 0: run back to back.
				return true
			}

		case <-tick:
			if running {
				// No overlap: skip this tick, the ticker re-arms for
				// the next one.
				logger.Warn("watch overlap, skipping tick", "command", w.opts.Command)
				continue
			}
			return true

		case <-w.reload:
			cancel()
			if running {
				// Reap the cancelled child and discard its output: a
				// reload guarantees the next published buffer comes
				// from a spawn at or after the reload.
				<-done
			}
			logger.Debug("reload", "command", w.opts.Command)
			return true

		case <-w.ctx.Done():
			cancel()
			if running {
				<-done
			}
			return false
		}
	}
}

func (w *Watcher) publish(r runResult, spawnedAt time.Time) {
	if r.err != nil {
		logger.Warn("watched command failed", "command", w.opts.Command, "err", r.err)
		w.opts.Publish(Update{Err: r.err, SpawnedAt: spawnedAt})
		return
	}
	w.opts.Publish(Update{
		Output:    r.res.Stdout,
		Truncated: r.res.Truncated,
		SpawnedAt: spawnedAt,
	})
}
