package app

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/watchbind/watchbind/internal/command"
	"github.com/watchbind/watchbind/internal/config"
)

// handleKey looks up the binding for a key and starts its operation
// sequence. Unknown keys are ignored.
func (m *Model) handleKey(key string) tea.Cmd {
	if m.quitting {
		return nil
	}
	binding, ok := m.cfg.Keys[key]
	if !ok {
		return nil
	}
	m.seq = binding.Ops
	m.seqIdx = 0
	m.running = true
	return m.advance()
}

// advance runs the current sequence from its next operation. State-only
// operations apply immediately on the update goroutine; operations that
// wait on a subprocess return a command whose completion message resumes
// the sequence. When the sequence is done, queued keys drain in order.
func (m *Model) advance() tea.Cmd {
	for m.seqIdx < len(m.seq) {
		op := m.seq[m.seqIdx]
		m.seqIdx++

		switch op := op.(type) {
		case config.Exit:
			return m.shutdown()

		case config.Reload:
			// Reload observes every environment write performed
			// earlier in this sequence because those writes applied
			// synchronously on this goroutine.
			m.watcher.Reload()

		case config.MoveCursor:
			m.moveCursor(op)

		case config.SelectCursor:
			m.sel.Select()
		case config.UnselectCursor:
			m.sel.Unselect()
		case config.ToggleSelection:
			m.sel.Toggle()
		case config.SelectAll:
			m.sel.SelectAll(m.buf.BodyLen())
		case config.UnselectAll:
			m.sel.UnselectAll()

		case config.Help:
			switch op.Action {
			case config.HelpShow:
				m.helpVisible = true
			case config.HelpHide:
				m.helpVisible = false
			default:
				m.helpVisible = !m.helpVisible
			}

		case config.UnsetEnv:
			m.env.Unset(op.Name)

		case config.SetEnv:
			environ := m.spawnEnviron()
			limit := m.cfg.CaptureLimit
			return func() tea.Msg {
				res, err := command.Capture(context.Background(), op.Cmd, environ, limit)
				return setEnvDoneMsg{name: op.Name, output: res.Stdout, err: err}
			}

		case config.Exec:
			switch op.Mode {
			case config.ExecBackground:
				child, err := command.StartBackground(op.Cmd, m.spawnEnviron())
				if err != nil {
					logger.Error("background spawn failed", "command", op.Cmd, "err", err)
				} else {
					m.background = append(m.background, child)
					m.reapBackground()
				}

			case config.ExecTUI:
				// The terminal is handed to the child; the rest of the
				// sequence runs strictly after it exits.
				c := command.Shell(context.Background(), op.Cmd, m.spawnEnviron())
				return tea.ExecProcess(c, func(err error) tea.Msg {
					return tuiDoneMsg{err: err}
				})

			default: // blocking
				environ := m.spawnEnviron()
				limit := m.cfg.CaptureLimit
				return func() tea.Msg {
					_, err := command.Capture(context.Background(), op.Cmd, environ, limit)
					return blockingDoneMsg{cmdline: op.Cmd, err: err}
				}
			}
		}
	}

	m.running = false
	return m.drainKeyQueue()
}

// drainKeyQueue processes keys that queued up behind the finished
// sequence, in arrival order, until one starts an asynchronous
// operation or the queue is empty.
func (m *Model) drainKeyQueue() tea.Cmd {
	for len(m.keyQueue) > 0 && !m.running && !m.quitting {
		key := m.keyQueue[0]
		m.keyQueue = m.keyQueue[1:]
		if cmd := m.handleKey(key); cmd != nil {
			return cmd
		}
	}
	return nil
}

// moveCursor applies a cursor movement and keeps it in view.
func (m *Model) moveCursor(op config.MoveCursor) {
	n := m.buf.BodyLen()
	switch op.Move {
	case config.MoveDown:
		m.sel.CursorDown(op.N, n)
	case config.MoveUp:
		m.sel.CursorUp(op.N)
	case config.MoveFirst:
		m.sel.CursorFirst(n)
	case config.MoveLast:
		m.sel.CursorLast(n)
	}
	m.clampScroll()
}

// reapBackground drops handles of children that already exited so the
// slice does not grow for the process lifetime.
func (m *Model) reapBackground() {
	live := m.background[:0]
	for _, c := range m.background {
		if !c.Done() {
			live = append(live, c)
		}
	}
	m.background = live
}

// shutdown initiates the graceful exit: stop watching, terminate
// background children with a bounded grace period, then quit. The
// blocking work runs off the update goroutine.
func (m *Model) shutdown() tea.Cmd {
	if m.quitting {
		return nil
	}
	m.quitting = true
	m.running = false
	m.keyQueue = nil
	return func() tea.Msg {
		m.Cleanup()
		return tea.QuitMsg{}
	}
}
