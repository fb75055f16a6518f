package config

import (
	"fmt"
	"sort"
	"strings"
)

// Binding attaches an operation sequence to a key chord, with an
// optional description shown in the help overlay.
type Binding struct {
	Chord       KeyChord
	Description string
	Ops         []Operation
}

// Label returns the help-overlay text for the binding: its description,
// or the operation sequence when none was configured.
func (b Binding) Label() string {
	if b.Description != "" {
		return b.Description
	}
	ops := make([]string, len(b.Ops))
	for i, op := range b.Ops {
		ops[i] = op.String()
	}
	return strings.Join(ops, " + ")
}

// KeyMap maps normalized chord strings to bindings. Lookup on an
// incoming key event is a single map hit on the event's string form.
type KeyMap map[string]Binding

// Bind adds or replaces the binding for its chord. Within one source the
// last definition wins.
func (m KeyMap) Bind(b Binding) {
	m[b.Chord.String()] = b
}

// Merge overlays other onto m, per key. Bindings in other win.
func (m KeyMap) Merge(other KeyMap) {
	for k, b := range other {
		m[k] = b
	}
}

// Sorted returns the bindings ordered by chord string, for stable help
// output.
func (m KeyMap) Sorted() []Binding {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Binding, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// ParseBindFlag parses one --bind value: "KEY:OP[+OP]*[,KEY:OP...]*".
func ParseBindFlag(s string) (KeyMap, error) {
	m := make(KeyMap)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keyStr, opsStr, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("binding %q is missing ':' between key and operations", part)
		}
		chord, err := ParseKey(keyStr)
		if err != nil {
			return nil, err
		}
		ops, err := ParseOperations(opsStr)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", part, err)
		}
		m.Bind(Binding{Chord: chord, Ops: ops})
	}
	return m, nil
}

// DefaultKeyMap returns the built-in bindings the tool ships with.
func DefaultKeyMap() KeyMap {
	m := make(KeyMap)
	defaults := []struct {
		key  string
		desc string
		ops  string
	}{
		{"ctrl+c", "quit", "exit"},
		{"q", "quit", "exit"},
		{"r", "reload the watched command", "reload"},
		{"down", "move cursor down", "cursor down 1"},
		{"up", "move cursor up", "cursor up 1"},
		{"j", "move cursor down", "cursor down 1"},
		{"k", "move cursor up", "cursor up 1"},
		{"pgdown", "move cursor down a block", "cursor down 5"},
		{"pgup", "move cursor up a block", "cursor up 5"},
		{"home", "move cursor to the first line", "cursor first"},
		{"end", "move cursor to the last line", "cursor last"},
		{"g", "move cursor to the first line", "cursor first"},
		{"G", "move cursor to the last line", "cursor last"},
		{"space", "toggle selection and move down", "toggle-selection+cursor down 1"},
		{"v", "select and move down", "select+cursor down 1"},
		{"esc", "clear the selection", "unselect-all"},
		{"?", "toggle this help menu", "help-toggle"},
	}
	for _, d := range defaults {
		chord, err := ParseKey(d.key)
		if err != nil {
			panic(fmt.Sprintf("invalid default key %q: %v", d.key, err))
		}
		ops, err := ParseOperations(d.ops)
		if err != nil {
			panic(fmt.Sprintf("invalid default operations %q: %v", d.ops, err))
		}
		m.Bind(Binding{Chord: chord, Description: d.desc, Ops: ops})
	}
	return m
}
