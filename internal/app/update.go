package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/watchbind/watchbind/internal/command"
	"github.com/watchbind/watchbind/internal/lines"
	"github.com/watchbind/watchbind/internal/watch"
)

// watchUpdateMsg carries one completed watch run.
type watchUpdateMsg struct {
	update watch.Update
}

// blockingDoneMsg signals that a blocking exec operation finished.
type blockingDoneMsg struct {
	cmdline string
	err     error
}

// setEnvDoneMsg signals that a set-env capture finished.
type setEnvDoneMsg struct {
	name   string
	output string
	err    error
}

// tuiDoneMsg signals that a terminal-inheriting child returned the
// terminal.
type tuiDoneMsg struct {
	err error
}

// Update is the single-owner reactor: it multiplexes key events, watch
// updates and subprocess completions, applies the resulting state
// mutations, and schedules follow-up work. A frame is rendered after
// every message, so any mutation is followed by a redraw.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if m.quitting {
			return m, nil
		}
		key := msg.String()
		if m.running {
			m.enqueueKey(key)
			return m, nil
		}
		return m, m.handleKey(key)

	case watchUpdateMsg:
		m.applyWatchUpdate(msg.update)
		return m, listenForUpdates(m.updates)

	case blockingDoneMsg:
		if msg.err != nil {
			// A failing exec is not an error for the sequence; it is
			// surfaced in the log and the sequence continues.
			logger.Warn("command failed", "command", msg.cmdline, "err", msg.err)
		}
		return m, m.advance()

	case setEnvDoneMsg:
		if msg.err != nil {
			// The variable keeps its previous value.
			logger.Warn("set-env failed", "name", msg.name, "err", msg.err)
		} else {
			m.env.Set(msg.name, command.TrimTrailingNewline(msg.output))
		}
		return m, m.advance()

	case tuiDoneMsg:
		if msg.err != nil {
			logger.Warn("tui command failed", "err", msg.err)
		}
		return m, m.advance()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

// applyWatchUpdate swaps in the new buffer and reconciles the selection
// against its body. A failed run keeps the previous buffer untouched.
func (m *Model) applyWatchUpdate(u watch.Update) {
	if u.Err != nil {
		return
	}
	if u.Truncated {
		logger.Warn("watched command output truncated")
	}
	m.buf = lines.NewBuffer(u.Output, m.cfg.HeaderLines)
	m.sel.Reconcile(m.buf.BodyLen())
	m.clampScroll()
}

// enqueueKey buffers a key that arrived while a sequence was running.
// The queue is bounded; overflow drops the oldest key.
func (m *Model) enqueueKey(key string) {
	if len(m.keyQueue) >= m.cfg.KeyQueueSize {
		logger.Warn("key queue full, dropping oldest key", "key", m.keyQueue[0])
		m.keyQueue = m.keyQueue[1:]
	}
	m.keyQueue = append(m.keyQueue, key)
}
