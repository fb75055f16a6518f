package config

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
)

// Color keywords with special meaning.
const (
	colorUnspecified = "unspecified"
	colorReset       = "reset"
)

// namedColors maps color names to their ANSI palette index.
var namedColors = map[string]string{
	"black":          "0",
	"red":            "1",
	"green":          "2",
	"yellow":         "3",
	"blue":           "4",
	"magenta":        "5",
	"cyan":           "6",
	"white":          "7",
	"gray":           "8",
	"grey":           "8",
	"bright-black":   "8",
	"bright-red":     "9",
	"bright-green":   "10",
	"bright-yellow":  "11",
	"bright-blue":    "12",
	"bright-magenta": "13",
	"bright-cyan":    "14",
	"bright-white":   "15",
}

// Style is a compiled row style. Reset means the row's own ANSI styling
// is cleared before the configured attributes apply; otherwise the
// configured attributes overlay the line's ANSI styling, and
// "unspecified" attributes leave it alone entirely.
type Style struct {
	Style lipgloss.Style
	Reset bool
}

// Styles holds the compiled row styles for the renderer.
type Styles struct {
	Cursor   Style
	Header   Style
	Line     Style // non-cursor, non-header body rows
	Selected Style // selection-indicator column
}

// StyleSpec is the raw fg/bg/boldness triple for one row kind.
type StyleSpec struct {
	Fg       string
	Bg       string
	Boldness string
}

// CompileStyle resolves a StyleSpec into a Style.
func CompileStyle(spec StyleSpec) (Style, error) {
	var out Style
	style := lipgloss.NewStyle()

	fg, reset, err := parseColor(spec.Fg)
	if err != nil {
		return out, fmt.Errorf("foreground: %w", err)
	}
	if reset {
		out.Reset = true
	} else if fg != "" {
		style = style.Foreground(lipgloss.Color(fg))
	}

	bg, reset, err := parseColor(spec.Bg)
	if err != nil {
		return out, fmt.Errorf("background: %w", err)
	}
	if reset {
		out.Reset = true
	} else if bg != "" {
		style = style.Background(lipgloss.Color(bg))
	}

	switch strings.ToLower(strings.TrimSpace(spec.Boldness)) {
	case "", colorUnspecified:
	case "bold":
		style = style.Bold(true)
	case "non-bold":
		style = style.Bold(false)
	case colorReset:
		out.Reset = true
		style = style.Bold(false)
	default:
		return out, fmt.Errorf("boldness: %q is not bold, non-bold or unspecified", spec.Boldness)
	}

	out.Style = style
	return out, nil
}

// parseColor resolves a color value: a name, an ANSI index, a "#rrggbb"
// hex value, "unspecified" (empty result) or "reset".
func parseColor(s string) (value string, reset bool, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", colorUnspecified:
		return "", false, nil
	case colorReset:
		return "", true, nil
	}
	if idx, ok := namedColors[s]; ok {
		return idx, false, nil
	}
	if strings.HasPrefix(s, "#") && (len(s) == 7 || len(s) == 4) {
		return s, false, nil
	}
	if n, convErr := strconv.Atoi(s); convErr == nil && n >= 0 && n <= 255 {
		return s, false, nil
	}
	return "", false, fmt.Errorf("unknown color %q", s)
}

// StyleSpecs is the raw style configuration for every row kind.
type StyleSpecs struct {
	Cursor     StyleSpec
	Header     StyleSpec
	Line       StyleSpec
	SelectedBg string
}

// DefaultStyleSpecs returns the built-in appearance.
func DefaultStyleSpecs() StyleSpecs {
	return StyleSpecs{
		Cursor: StyleSpec{Fg: "black", Bg: "white", Boldness: "bold"},
		Header: StyleSpec{Fg: "blue", Boldness: "bold"},
		Line:   StyleSpec{Fg: "unspecified", Bg: "unspecified", Boldness: "unspecified"},

		SelectedBg: "magenta",
	}
}

// Compile resolves all raw specs into renderer styles.
func (s StyleSpecs) Compile() (Styles, error) {
	var out Styles
	var err error

	if out.Cursor, err = CompileStyle(s.Cursor); err != nil {
		return out, fmt.Errorf("cursor style: %w", err)
	}
	if out.Header, err = CompileStyle(s.Header); err != nil {
		return out, fmt.Errorf("header style: %w", err)
	}
	if out.Line, err = CompileStyle(s.Line); err != nil {
		return out, fmt.Errorf("line style: %w", err)
	}
	if out.Selected, err = CompileStyle(StyleSpec{Bg: s.SelectedBg}); err != nil {
		return out, fmt.Errorf("selected style: %w", err)
	}
	return out, nil
}
