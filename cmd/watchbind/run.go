package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/watchbind/watchbind/internal/app"
	"github.com/watchbind/watchbind/internal/command"
	"github.com/watchbind/watchbind/internal/config"
	"github.com/watchbind/watchbind/internal/env"
	"github.com/watchbind/watchbind/internal/lines"
	"github.com/watchbind/watchbind/internal/terminal"
	"github.com/watchbind/watchbind/internal/watch"
)

// maxFPS caps how often the UI redraws.
const maxFPS = 60

// initialEnvTimeout bounds each startup set-env command.
const initialEnvTimeout = 30 * time.Second

func run(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		exitCode = 1
		return fmt.Errorf("stdout is not a terminal")
	}

	if err := setupLogging(); err != nil {
		return err
	}

	// Configuration is resolved; anything failing from here on is a
	// runtime error.
	exitCode = 1

	table := env.NewTable()
	applyInitialEnv(cfg, table)

	m := app.NewModel(cfg, table)

	p := tea.NewProgram(
		m,
		tea.WithFPS(maxFPS),
		tea.WithoutSignalHandler(),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		p.Send(tea.QuitMsg{})
	}()

	_, err = p.Run()

	m.Cleanup()
	terminal.Reset()

	if err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// resolveConfig merges the configuration layers: defaults, then the
// global config file, then --local-config-file, then CLI flags, each
// per key.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()

	global, err := config.LoadGlobal()
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFile(global); err != nil {
		return nil, err
	}

	if localConfigFile != "" {
		local, err := config.LoadFile(localConfigFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyFile(local); err != nil {
			return nil, err
		}
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Command = strings.Join(args, " ")
	if err := cfg.Finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags overlays the CLI flags that were actually given.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("interval") {
		if err := cfg.SetInterval(interval); err != nil {
			return err
		}
	}
	if flags.Changed("header-lines") {
		if headerLines < 0 {
			return fmt.Errorf("header-lines must be >= 0")
		}
		cfg.HeaderLines = headerLines
	}
	if flags.Changed("field-separator") {
		cfg.Formatter.Separator = fieldSeparator
	}
	if flags.Changed("field-selections") {
		fields, err := lines.ParseFields(fieldSelections)
		if err != nil {
			return err
		}
		cfg.Formatter.Fields = fields
	}
	if flags.Changed("initial-env") {
		initial, err := config.ParseInitialEnv(initialEnv)
		if err != nil {
			return err
		}
		cfg.InitialEnv = initial
	}
	if flags.Changed("capture-limit") {
		if err := cfg.SetCaptureLimitMiB(captureLimit); err != nil {
			return err
		}
	}
	if flags.Changed("key-queue-size") {
		if err := cfg.SetKeyQueueSize(keyQueueSize); err != nil {
			return err
		}
	}
	if flags.Changed("no-watch-timeout") {
		cfg.NoWatchTimeout = noWatchTimeout
	}

	styleFlags := []struct {
		name  string
		value string
		dst   *string
	}{
		{"cursor-fg", cursorFg, &cfg.StyleSpecs.Cursor.Fg},
		{"cursor-bg", cursorBg, &cfg.StyleSpecs.Cursor.Bg},
		{"cursor-boldness", cursorBoldness, &cfg.StyleSpecs.Cursor.Boldness},
		{"header-fg", headerFg, &cfg.StyleSpecs.Header.Fg},
		{"header-bg", headerBg, &cfg.StyleSpecs.Header.Bg},
		{"header-boldness", headerBoldness, &cfg.StyleSpecs.Header.Boldness},
		{"non-cursor-non-header-fg", lineFg, &cfg.StyleSpecs.Line.Fg},
		{"non-cursor-non-header-bg", lineBg, &cfg.StyleSpecs.Line.Bg},
		{"non-cursor-non-header-boldness", lineBoldness, &cfg.StyleSpecs.Line.Boldness},
		{"selected-bg", selectedBg, &cfg.StyleSpecs.SelectedBg},
	}
	for _, f := range styleFlags {
		if flags.Changed(f.name) {
			*f.dst = f.value
		}
	}

	for _, bind := range binds {
		keymap, err := config.ParseBindFlag(bind)
		if err != nil {
			return err
		}
		cfg.Keys.Merge(keymap)
	}
	return nil
}

// setupLogging points the package loggers at the requested sink. The
// default sink is discard: while the TUI owns the terminal, stderr
// output would corrupt the alternate screen.
func setupLogging() error {
	var sink io.Writer
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		sink = f
	case debugMode:
		sink = os.Stderr
	default:
		return nil
	}

	level := log.InfoLevel
	if debugMode {
		level = log.DebugLevel
	}
	command.SetLogging(sink, level)
	watch.SetLogging(sink, level)
	app.SetLogging(sink, level)
	return nil
}

// applyInitialEnv runs the configured set-env commands once, before the
// watcher's first spawn, so the first watched run already sees them.
// Failures leave the variable unset and are logged, matching set-env
// semantics at runtime.
func applyInitialEnv(cfg *config.Config, table *env.Table) {
	for _, se := range cfg.InitialEnv {
		ctx, cancel := context.WithTimeout(context.Background(), initialEnvTimeout)
		res, err := command.Capture(ctx, se.Cmd, table.Environ(), cfg.CaptureLimit)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "watchbind: initial-env %s: %v\n", se.Name, err)
			continue
		}
		table.Set(se.Name, command.TrimTrailingNewline(res.Stdout))
	}
}
