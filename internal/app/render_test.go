package app

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/watchbind/watchbind/internal/config"
	"github.com/watchbind/watchbind/internal/lines"
)

func testFrame(t *testing.T, output string, headerLines, width, height int) frame {
	t.Helper()
	styles, err := config.DefaultStyleSpecs().Compile()
	if err != nil {
		t.Fatal(err)
	}
	buf := lines.NewBuffer(output, headerLines)
	sel := lines.NewSelection()
	sel.Reconcile(buf.BodyLen())
	return frame{
		Buffer:    buf,
		Selection: sel,
		Styles:    styles,
		Keys:      config.DefaultKeyMap(),
		Width:     width,
		Height:    height,
	}
}

func TestRenderFrameIsPure(t *testing.T) {
	f := testFrame(t, "H\na\nb\nc\n", 1, 40, 10)
	f.Selection.CursorDown(1, 3)
	f.Selection.Select()

	first := renderFrame(f)
	second := renderFrame(f)
	if first != second {
		t.Error("equal inputs must produce equal frames")
	}
}

func TestRenderFrameContent(t *testing.T) {
	f := testFrame(t, "HEAD\naaa\nbbb\n", 1, 40, 10)

	out := ansi.Strip(renderFrame(f))
	rows := strings.Split(out, "\n")

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if !strings.Contains(rows[0], "HEAD") {
		t.Errorf("header row = %q", rows[0])
	}
	if !strings.Contains(rows[1], "aaa") || !strings.Contains(rows[2], "bbb") {
		t.Errorf("body rows = %q", rows[1:])
	}
}

func TestRenderFrameSelectionMarker(t *testing.T) {
	f := testFrame(t, "a\nb\n", 0, 40, 10)
	f.Selection.Select()

	out := renderFrame(f)
	rows := strings.Split(out, "\n")
	if !strings.Contains(rows[0], "▌") {
		t.Errorf("selected row should carry the indicator, got %q", rows[0])
	}
	if strings.Contains(rows[1], "▌") {
		t.Errorf("unselected row should not carry the indicator, got %q", rows[1])
	}
}

func TestRenderFrameScrollsCursorIntoView(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("line")
		sb.WriteString(string(rune('0' + i%10)))
		sb.WriteString("\n")
	}
	f := testFrame(t, sb.String(), 0, 40, 5)
	f.Selection.CursorDown(49, 50)

	out := ansi.Strip(renderFrame(f))
	if !strings.Contains(out, "line9") {
		t.Error("last line should be in view when the cursor is on it")
	}
	rows := strings.Split(out, "\n")
	if len(rows) != 5 {
		t.Errorf("viewport rendered %d rows, want 5", len(rows))
	}
}

func TestRenderFrameHelpOverlay(t *testing.T) {
	f := testFrame(t, "a\nb\n", 0, 60, 20)
	f.HelpVisible = true

	out := ansi.Strip(renderFrame(f))
	if !strings.Contains(out, "keybindings") {
		t.Error("help overlay should render the keybinding table")
	}
	if !strings.Contains(out, "ctrl+c") {
		t.Error("help overlay should list default bindings")
	}
}

func TestRenderFrameZeroSize(t *testing.T) {
	f := testFrame(t, "a\n", 0, 0, 0)
	if out := renderFrame(f); out != "" {
		t.Errorf("zero-size frame should be empty, got %q", out)
	}
}

func TestClampScroll(t *testing.T) {
	tests := []struct {
		name      string
		scroll    int
		cursor    int
		hasCursor bool
		n         int
		visible   int
		want      int
	}{
		{"empty body", 3, 0, false, 0, 10, 0},
		{"cursor above viewport", 5, 2, true, 20, 10, 2},
		{"cursor below viewport", 0, 15, true, 20, 10, 6},
		{"cursor inside viewport keeps offset", 3, 5, true, 20, 10, 3},
		{"scroll clamped to tail", 50, 19, true, 20, 10, 10},
		{"no visible rows", 4, 1, true, 20, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clampScroll(tt.scroll, tt.cursor, tt.hasCursor, tt.n, tt.visible)
			if got != tt.want {
				t.Errorf("clampScroll = %d, want %d", got, tt.want)
			}
		})
	}
}
