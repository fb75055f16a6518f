// Package app implements the watchbind event loop: a single bubbletea
// model multiplexing key events, watch updates and subprocess
// completions, and applying every state mutation on the update goroutine.
package app

import (
	"io"
	"strings"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"

	"github.com/watchbind/watchbind/internal/command"
	"github.com/watchbind/watchbind/internal/config"
	"github.com/watchbind/watchbind/internal/env"
	"github.com/watchbind/watchbind/internal/lines"
	"github.com/watchbind/watchbind/internal/watch"
)

// terminateGrace is how long background children get between SIGTERM
// and SIGKILL at shutdown.
const terminateGrace = 250 * time.Millisecond

var logger = log.NewWithOptions(io.Discard, log.Options{
	ReportTimestamp: true,
	Prefix:          "app",
})

// SetLogging redirects the package logger.
func SetLogging(w io.Writer, level log.Level) {
	logger.SetOutput(w)
	logger.SetLevel(level)
}

// Model is the single owner of all UI state. Every mutation happens in
// Update; subprocess goroutines only communicate through completion
// messages.
type Model struct {
	cfg     *config.Config
	env     *env.Table
	watcher *watch.Watcher
	updates chan watch.Update

	buf    *lines.Buffer
	sel    *lines.Selection
	scroll int

	width, height int
	helpVisible   bool

	// One operation sequence runs at a time; keys arriving meanwhile
	// queue up, bounded, dropping the oldest on overflow.
	seq      []config.Operation
	seqIdx   int
	running  bool
	keyQueue []string

	background  []*command.Child
	quitting    bool
	cleanupOnce sync.Once
}

// NewModel builds the model. The watcher is constructed here so its
// updates flow through the model's channel; call Init to start it.
func NewModel(cfg *config.Config, table *env.Table) *Model {
	m := &Model{
		cfg:     cfg,
		env:     table,
		updates: make(chan watch.Update, 16),
		buf:     lines.NewBuffer("", cfg.HeaderLines),
		sel:     lines.NewSelection(),
	}
	m.watcher = watch.New(watch.Options{
		Command:      cfg.Command,
		Interval:     cfg.Interval,
		NoTimeout:    cfg.NoWatchTimeout,
		CaptureLimit: cfg.CaptureLimit,
		Env:          table,
		Publish:      func(u watch.Update) { m.updates <- u },
	})
	return m
}

// Init starts the watcher and begins listening for its updates.
func (m *Model) Init() tea.Cmd {
	m.watcher.Start()
	return listenForUpdates(m.updates)
}

// listenForUpdates blocks on the watcher channel and converts each
// published run into a message.
func listenForUpdates(updates chan watch.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return nil
		}
		return watchUpdateMsg{update: u}
	}
}

// Cleanup stops the watcher and terminates background children. It runs
// after the program exits, on every exit path, and is safe to call
// after a graceful shutdown already did the work.
func (m *Model) Cleanup() {
	m.cleanupOnce.Do(func() {
		m.watcher.Stop()
		command.TerminateAll(m.background, terminateGrace)
	})
}

// spawnEnviron assembles the environment for one subprocess spawn: the
// process environment, the table snapshot, and the line/lines variables
// computed from the unformatted buffer at this instant.
func (m *Model) spawnEnviron() []string {
	line := ""
	if c, ok := m.sel.Cursor(); ok {
		line, _ = m.buf.BodyLine(c)
	}
	joined := line
	if sel := m.sel.Indices(); len(sel) > 0 {
		parts := make([]string, 0, len(sel))
		for _, i := range sel {
			if l, ok := m.buf.BodyLine(i); ok {
				parts = append(parts, l)
			}
		}
		joined = strings.Join(parts, "\n")
	}
	return m.env.Environ("line="+line, "lines="+joined)
}
