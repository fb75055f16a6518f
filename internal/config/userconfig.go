package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"github.com/watchbind/watchbind/internal/command"
	"github.com/watchbind/watchbind/internal/lines"
)

// ConfigDirEnv overrides the directory the global config file is looked
// up in.
const ConfigDirEnv = "WATCHBIND_CONFIG_DIR"

const globalConfigName = "watchbind/config.toml"

// minInterval is the fastest re-execution cadence a positive interval is
// clamped to. An interval of exactly 0 means "run back to back".
const minInterval = 50 * time.Millisecond

// FileConfig is the TOML schema. Every key mirrors its CLI flag in
// kebab-case; pointer fields distinguish "absent" from zero so the merge
// across config layers is per-key.
type FileConfig struct {
	Interval        *float64 `toml:"interval"`
	HeaderLines     *int     `toml:"header-lines"`
	FieldSeparator  *string  `toml:"field-separator"`
	FieldSelections *string  `toml:"field-selections"`
	InitialEnv      []string `toml:"initial-env"`
	CaptureLimit    *int     `toml:"capture-limit"`
	KeyQueueSize    *int     `toml:"key-queue-size"`
	NoWatchTimeout  *bool    `toml:"no-watch-timeout"`

	CursorFg       *string `toml:"cursor-fg"`
	CursorBg       *string `toml:"cursor-bg"`
	CursorBoldness *string `toml:"cursor-boldness"`
	HeaderFg       *string `toml:"header-fg"`
	HeaderBg       *string `toml:"header-bg"`
	HeaderBoldness *string `toml:"header-boldness"`
	LineFg         *string `toml:"non-cursor-non-header-fg"`
	LineBg         *string `toml:"non-cursor-non-header-bg"`
	LineBoldness   *string `toml:"non-cursor-non-header-boldness"`
	SelectedBg     *string `toml:"selected-bg"`

	// Keybinding values may be a single operation string, an array of
	// operation strings, or a {description, operations} table, so they
	// are normalized from the raw TOML shape after unmarshalling.
	Keybindings map[string]any `toml:"keybindings"`
}

// LoadFile reads and parses one TOML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg FileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadGlobal finds and parses the global config file. A missing file is
// not an error: watchbind runs fine with no config at all.
func LoadGlobal() (*FileConfig, error) {
	var path string
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		path = filepath.Join(dir, "config.toml")
	} else {
		found, err := xdg.SearchConfigFile(globalConfigName)
		if err != nil {
			return nil, nil
		}
		path = found
	}
	cfg, err := LoadFile(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return cfg, err
}

// Keymap normalizes the raw [keybindings] table into a KeyMap.
func (c *FileConfig) Keymap() (KeyMap, error) {
	m := make(KeyMap)
	if c == nil {
		return m, nil
	}
	for keyStr, raw := range c.Keybindings {
		chord, err := ParseKey(keyStr)
		if err != nil {
			return nil, fmt.Errorf("keybindings: %w", err)
		}
		b := Binding{Chord: chord}
		switch v := raw.(type) {
		case string:
			b.Ops, err = ParseOperations(v)
		case []any:
			b.Ops, err = parseOperationList(v)
		case map[string]any:
			b, err = parseBindingTable(chord, v)
		default:
			err = fmt.Errorf("unsupported value type %T", raw)
		}
		if err != nil {
			return nil, fmt.Errorf("keybindings.%q: %w", keyStr, err)
		}
		m.Bind(b)
	}
	return m, nil
}

func parseOperationList(raw []any) ([]Operation, error) {
	ops := make([]Operation, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("operation list entries must be strings, got %T", item)
		}
		op, err := ParseOperation(s)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func parseBindingTable(chord KeyChord, raw map[string]any) (Binding, error) {
	b := Binding{Chord: chord}
	for k, v := range raw {
		switch k {
		case "description":
			s, ok := v.(string)
			if !ok {
				return b, fmt.Errorf("description must be a string")
			}
			b.Description = s
		case "operations":
			switch ops := v.(type) {
			case string:
				parsed, err := ParseOperations(ops)
				if err != nil {
					return b, err
				}
				b.Ops = parsed
			case []any:
				parsed, err := parseOperationList(ops)
				if err != nil {
					return b, err
				}
				b.Ops = parsed
			default:
				return b, fmt.Errorf("operations must be a string or array")
			}
		default:
			return b, fmt.Errorf("unknown binding key %q", k)
		}
	}
	if len(b.Ops) == 0 {
		return b, fmt.Errorf("binding has no operations")
	}
	return b, nil
}

// Config is the fully resolved runtime configuration.
type Config struct {
	Command        string
	Interval       time.Duration
	HeaderLines    int
	Formatter      lines.Formatter
	Keys           KeyMap
	StyleSpecs     StyleSpecs
	Styles         Styles
	InitialEnv     []SetEnv
	CaptureLimit   int64
	KeyQueueSize   int
	NoWatchTimeout bool
}

// Default returns the built-in configuration, before any file or flag
// layer is applied.
func Default() *Config {
	return &Config{
		Interval:     5 * time.Second,
		Keys:         DefaultKeyMap(),
		StyleSpecs:   DefaultStyleSpecs(),
		CaptureLimit: command.DefaultCaptureLimit,
		KeyQueueSize: 64,
	}
}

// ApplyFile overlays one config file layer onto c. Later layers win per
// key; keybindings merge per chord.
func (c *Config) ApplyFile(f *FileConfig) error {
	if f == nil {
		return nil
	}
	if f.Interval != nil {
		if err := c.SetInterval(*f.Interval); err != nil {
			return err
		}
	}
	if f.HeaderLines != nil {
		if *f.HeaderLines < 0 {
			return fmt.Errorf("header-lines must be >= 0")
		}
		c.HeaderLines = *f.HeaderLines
	}
	if f.FieldSeparator != nil {
		c.Formatter.Separator = *f.FieldSeparator
	}
	if f.FieldSelections != nil {
		fields, err := lines.ParseFields(*f.FieldSelections)
		if err != nil {
			return err
		}
		c.Formatter.Fields = fields
	}
	if len(f.InitialEnv) > 0 {
		initial, err := ParseInitialEnv(f.InitialEnv)
		if err != nil {
			return err
		}
		c.InitialEnv = initial
	}
	if f.CaptureLimit != nil {
		if err := c.SetCaptureLimitMiB(*f.CaptureLimit); err != nil {
			return err
		}
	}
	if f.KeyQueueSize != nil {
		if err := c.SetKeyQueueSize(*f.KeyQueueSize); err != nil {
			return err
		}
	}
	if f.NoWatchTimeout != nil {
		c.NoWatchTimeout = *f.NoWatchTimeout
	}

	applyStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyStr(&c.StyleSpecs.Cursor.Fg, f.CursorFg)
	applyStr(&c.StyleSpecs.Cursor.Bg, f.CursorBg)
	applyStr(&c.StyleSpecs.Cursor.Boldness, f.CursorBoldness)
	applyStr(&c.StyleSpecs.Header.Fg, f.HeaderFg)
	applyStr(&c.StyleSpecs.Header.Bg, f.HeaderBg)
	applyStr(&c.StyleSpecs.Header.Boldness, f.HeaderBoldness)
	applyStr(&c.StyleSpecs.Line.Fg, f.LineFg)
	applyStr(&c.StyleSpecs.Line.Bg, f.LineBg)
	applyStr(&c.StyleSpecs.Line.Boldness, f.LineBoldness)
	applyStr(&c.StyleSpecs.SelectedBg, f.SelectedBg)

	keymap, err := f.Keymap()
	if err != nil {
		return err
	}
	c.Keys.Merge(keymap)
	return nil
}

// SetInterval validates and applies a watch interval given in seconds.
func (c *Config) SetInterval(seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("interval must be >= 0 seconds")
	}
	c.Interval = time.Duration(seconds * float64(time.Second))
	if c.Interval > 0 && c.Interval < minInterval {
		c.Interval = minInterval
	}
	return nil
}

// SetCaptureLimitMiB validates and applies the stdout capture bound.
func (c *Config) SetCaptureLimitMiB(mib int) error {
	if mib < 1 {
		return fmt.Errorf("capture-limit must be at least 1 MiB")
	}
	c.CaptureLimit = int64(mib) << 20
	return nil
}

// SetKeyQueueSize validates and applies the key event queue bound.
func (c *Config) SetKeyQueueSize(n int) error {
	if n < 1 {
		return fmt.Errorf("key-queue-size must be at least 1")
	}
	c.KeyQueueSize = n
	return nil
}

// ParseInitialEnv parses the initial-env entries, each of which must be
// a set-env operation. One entry may carry several operations separated
// by ";" ("set-env a -- CMD; set-env b -- CMD").
func ParseInitialEnv(entries []string) ([]SetEnv, error) {
	out := make([]SetEnv, 0, len(entries))
	for _, entry := range splitInitialEnv(entries) {
		op, err := ParseOperation(entry)
		if err != nil {
			return nil, fmt.Errorf("initial-env: %w", err)
		}
		se, ok := op.(SetEnv)
		if !ok {
			return nil, fmt.Errorf("initial-env entries must be set-env operations, got %q", entry)
		}
		out = append(out, se)
	}
	return out, nil
}

// splitInitialEnv expands ";"-separated entries. A ";" only separates
// when the following text starts a new set-env operation, so command
// text containing semicolons survives.
func splitInitialEnv(entries []string) []string {
	var out []string
	for _, entry := range entries {
		var parts []string
		for _, part := range strings.Split(entry, ";") {
			trimmed := strings.TrimSpace(part)
			if len(parts) > 0 && !strings.HasPrefix(strings.ToLower(trimmed), "set-env ") {
				parts[len(parts)-1] += ";" + part
				continue
			}
			parts = append(parts, trimmed)
		}
		out = append(out, parts...)
	}
	return out
}

// Finish validates cross-field constraints and compiles the styles. It
// must be called after the last layer is applied.
func (c *Config) Finish() error {
	if c.Command == "" {
		return fmt.Errorf("no watched command given")
	}
	if len(c.Formatter.Fields) > 0 && c.Formatter.Separator == "" {
		return fmt.Errorf("field-selections requires field-separator")
	}
	styles, err := c.StyleSpecs.Compile()
	if err != nil {
		return err
	}
	c.Styles = styles
	return nil
}
