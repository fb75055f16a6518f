package app

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/watchbind/watchbind/internal/config"
	"github.com/watchbind/watchbind/internal/lines"
)

// markerWidth is the selection-indicator column width every row carries
// so selected and unselected rows stay column-aligned.
const markerWidth = 2

// frame is the full input of one render. Rendering is a pure function
// of this value: equal frames produce equal output.
type frame struct {
	Buffer      *lines.Buffer
	Formatter   lines.Formatter
	Selection   *lines.Selection
	Styles      config.Styles
	Keys        config.KeyMap
	HelpVisible bool
	Width       int
	Height      int
	Scroll      int
}

// View renders the current model state.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true
	view.SetContent(renderFrame(m.frame()))
	return view
}

func (m *Model) frame() frame {
	return frame{
		Buffer:      m.buf,
		Formatter:   m.cfg.Formatter,
		Selection:   m.sel,
		Styles:      m.cfg.Styles,
		Keys:        m.cfg.Keys,
		HelpVisible: m.helpVisible,
		Width:       m.width,
		Height:      m.height,
		Scroll:      m.scroll,
	}
}

// clampScroll re-anchors the stored scroll offset after a cursor move
// or buffer swap so the next frame shows the cursor with minimal
// viewport movement.
func (m *Model) clampScroll() {
	visible := m.height - len(m.buf.Header())
	cursor, hasCursor := m.sel.Cursor()
	m.scroll = clampScroll(m.scroll, cursor, hasCursor, m.buf.BodyLen(), visible)
}

// clampScroll computes the scroll offset that keeps the cursor in a
// viewport of visible rows, moving the previous offset as little as
// possible.
func clampScroll(scroll, cursor int, hasCursor bool, n, visible int) int {
	if visible <= 0 || n == 0 {
		return 0
	}
	maxScroll := max(0, n-visible)
	scroll = min(max(scroll, 0), maxScroll)
	if hasCursor {
		if cursor < scroll {
			scroll = cursor
		} else if cursor >= scroll+visible {
			scroll = cursor - visible + 1
		}
	}
	return scroll
}

// renderFrame draws one frame: header rows, then the visible body rows
// with the selection-indicator column, the cursor style on the cursor
// row, and field formatting applied across exactly the visible rows.
// The help overlay replaces the frame when visible.
func renderFrame(f frame) string {
	if f.Width <= 0 || f.Height <= 0 {
		return ""
	}
	if f.HelpVisible {
		return renderHelp(f.Keys, f.Width, f.Height)
	}

	header := f.Buffer.Header()
	if len(header) > f.Height {
		header = header[:f.Height]
	}
	visible := f.Height - len(header)

	cursor, hasCursor := f.Selection.Cursor()
	scroll := clampScroll(f.Scroll, cursor, hasCursor, f.Buffer.BodyLen(), visible)

	body := f.Buffer.Body()
	end := min(scroll+visible, len(body))
	var visBody []string
	if scroll < end {
		visBody = body[scroll:end]
	}

	// Elastic alignment is computed over the visible frame only, header
	// included, so columns are stable within a screenful.
	rows := make([]string, 0, len(header)+len(visBody))
	rows = append(rows, header...)
	rows = append(rows, visBody...)
	rows = f.Formatter.Apply(rows)

	textWidth := f.Width - markerWidth
	var sb strings.Builder
	for i, row := range rows {
		if i > 0 {
			sb.WriteString("\n")
		}
		if i < len(header) {
			sb.WriteString(strings.Repeat(" ", markerWidth))
			sb.WriteString(styleRow(row, f.Styles.Header, textWidth))
			continue
		}
		abs := scroll + i - len(header)
		if f.Selection.IsSelected(abs) {
			sb.WriteString(f.Styles.Selected.Style.Render("▌ "))
		} else {
			sb.WriteString(strings.Repeat(" ", markerWidth))
		}
		st := f.Styles.Line
		if hasCursor && abs == cursor {
			st = f.Styles.Cursor
		}
		sb.WriteString(styleRow(row, st, textWidth))
	}
	return sb.String()
}

// styleRow fits a row to width and applies its style. A Reset style
// clears the row's own ANSI sequences first; otherwise the configured
// attributes overlay them.
func styleRow(text string, st config.Style, width int) string {
	if width <= 0 {
		return ""
	}
	if st.Reset {
		text = ansi.Strip(text)
	}
	text = ansi.Truncate(text, width, "")
	if pad := width - ansi.StringWidth(text); pad > 0 {
		text += strings.Repeat(" ", pad)
	}
	return st.Style.Render(text)
}
