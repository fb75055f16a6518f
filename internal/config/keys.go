package config

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// KeyChord is a parsed key with optional ctrl/alt modifiers. Code is the
// normalized key name in the form the terminal input layer reports, so a
// chord's String is directly usable as a lookup key for incoming key
// events.
type KeyChord struct {
	Ctrl bool
	Alt  bool
	Code string
}

// namedKeys maps accepted key-name spellings to their normalized form.
var namedKeys = map[string]string{
	"esc":       "esc",
	"escape":    "esc",
	"enter":     "enter",
	"return":    "enter",
	"up":        "up",
	"down":      "down",
	"left":      "left",
	"right":     "right",
	"home":      "home",
	"end":       "end",
	"pageup":    "pgup",
	"pgup":      "pgup",
	"pagedown":  "pgdown",
	"pgdown":    "pgdown",
	"backtab":   "shift+tab",
	"shift+tab": "shift+tab",
	"backspace": "backspace",
	"delete":    "delete",
	"del":       "delete",
	"insert":    "insert",
	"ins":       "insert",
	"space":     "space",
	"tab":       "tab",
}

func init() {
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("f%d", i)
		namedKeys[name] = name
	}
}

// ParseKey parses a key string like "ctrl+c", "alt+enter", "pageup" or
// "G". Modifier and key names are case-insensitive; a single printable
// character keeps its case, so "s" and "S" are distinct bindings.
func ParseKey(s string) (KeyChord, error) {
	var chord KeyChord

	rest := strings.TrimSpace(s)
mods:
	for {
		lower := strings.ToLower(rest)
		switch {
		case strings.HasPrefix(lower, "ctrl+"):
			chord.Ctrl = true
			rest = rest[len("ctrl+"):]
		case strings.HasPrefix(lower, "alt+"):
			chord.Alt = true
			rest = rest[len("alt+"):]
		default:
			break mods
		}
	}

	if rest == "" {
		return KeyChord{}, fmt.Errorf("key %q has no key code", s)
	}
	if name, ok := namedKeys[strings.ToLower(rest)]; ok {
		chord.Code = name
		return chord, nil
	}
	if utf8.RuneCountInString(rest) == 1 {
		r, _ := utf8.DecodeRuneInString(rest)
		if r == utf8.RuneError {
			return KeyChord{}, fmt.Errorf("key %q is not valid UTF-8", s)
		}
		chord.Code = rest
		return chord, nil
	}
	return KeyChord{}, fmt.Errorf("unknown key %q", rest)
}

// String returns the normalized chord, matching the form key events
// arrive in ("ctrl+alt+x", "shift+tab", "pgup").
func (k KeyChord) String() string {
	var sb strings.Builder
	if k.Ctrl {
		sb.WriteString("ctrl+")
	}
	if k.Alt {
		sb.WriteString("alt+")
	}
	sb.WriteString(k.Code)
	return sb.String()
}
