// Package main implements watchbind - a CLI that turns any watched
// shell command into an interactive TUI. The watched command is
// re-executed on a timer, its output becomes a scrollable, selectable
// list, and user-configured keybindings run operation sequences against
// the cursor line, the selection, and a process-scoped environment
// table shared by every spawned subprocess.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Command-line flags
var (
	interval        float64
	headerLines     int
	binds           []string
	localConfigFile string
	fieldSeparator  string
	fieldSelections string
	initialEnv      []string
	captureLimit    int
	keyQueueSize    int
	noWatchTimeout  bool
	debugMode       bool
	logFile         string

	cursorFg       string
	cursorBg       string
	cursorBoldness string
	headerFg       string
	headerBg       string
	headerBoldness string
	lineFg         string
	lineBg         string
	lineBoldness   string
	selectedBg     string
)

// exitCode is what main exits with when the command fails: 2 until the
// configuration is fully resolved, 1 once the TUI phase has started.
var exitCode = 2

func main() {
	rootCmd := &cobra.Command{
		Use:   "watchbind [flags] -- command [args...]",
		Short: "Turn any shell command into an interactive TUI",
		Long: `watchbind - watch a command and bind keys to its output

The given command is re-executed on a timer with "sh -c" and its output
is shown as a scrollable, selectable list. Keybindings attach operation
sequences to keys: moving the cursor, selecting lines, reloading,
spawning subcommands (blocking, background, or taking over the
terminal), and reading/writing environment variables that every spawned
subprocess inherits. The cursor line and the selection are exposed to
subcommands as $line and $lines.`,
		Example: `  # Watch a directory, delete the file under the cursor with "d"
  watchbind --bind 'd:exec -- rm "$line"+reload' -- ls -1

  # Watch pods with the column-title line as a header, re-run every half second
  watchbind --interval 0.5 --header-lines 1 -- kubectl get pods

  # Select lines with space, process the whole selection
  watchbind --bind 'enter:exec -- echo "$lines" | xargs kill' -- pgrep -l java`,
		Version:      version,
		Args:         cobra.MinimumNArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().Float64Var(&interval, "interval", 5, "Seconds between watched command runs (0 = back to back)")
	rootCmd.Flags().IntVar(&headerLines, "header-lines", 0, "Number of output lines treated as a non-selectable header")
	rootCmd.Flags().StringArrayVar(&binds, "bind", nil, `Keybindings as "KEY:OP[+OP]*[,KEY:OP...]*" (repeatable)`)
	rootCmd.Flags().StringVar(&localConfigFile, "local-config-file", "", "TOML config file merged over the global one")
	rootCmd.Flags().StringVar(&fieldSeparator, "field-separator", "", "Separator the output lines are split on for display")
	rootCmd.Flags().StringVar(&fieldSelections, "field-selections", "", `Fields to display, e.g. "1,3-4,6-"`)
	rootCmd.Flags().StringArrayVar(&initialEnv, "initial-env", nil, `"set-env NAME -- CMD" run once at startup (repeatable)`)
	rootCmd.Flags().IntVar(&captureLimit, "capture-limit", 16, "Maximum captured subprocess stdout in MiB")
	rootCmd.Flags().IntVar(&keyQueueSize, "key-queue-size", 64, "Keys buffered while an operation sequence runs")
	rootCmd.Flags().BoolVar(&noWatchTimeout, "no-watch-timeout", false, "Let watched command runs outlive the interval")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of discarding them")

	rootCmd.Flags().StringVar(&cursorFg, "cursor-fg", "", "Cursor line foreground (color, unspecified or reset)")
	rootCmd.Flags().StringVar(&cursorBg, "cursor-bg", "", "Cursor line background")
	rootCmd.Flags().StringVar(&cursorBoldness, "cursor-boldness", "", "Cursor line boldness (bold, non-bold or unspecified)")
	rootCmd.Flags().StringVar(&headerFg, "header-fg", "", "Header line foreground")
	rootCmd.Flags().StringVar(&headerBg, "header-bg", "", "Header line background")
	rootCmd.Flags().StringVar(&headerBoldness, "header-boldness", "", "Header line boldness")
	rootCmd.Flags().StringVar(&lineFg, "non-cursor-non-header-fg", "", "Other line foreground")
	rootCmd.Flags().StringVar(&lineBg, "non-cursor-non-header-bg", "", "Other line background")
	rootCmd.Flags().StringVar(&lineBoldness, "non-cursor-non-header-boldness", "", "Other line boldness")
	rootCmd.Flags().StringVar(&selectedBg, "selected-bg", "", "Selection indicator background")

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s", version, commit, date)),
	); err != nil {
		os.Exit(exitCode)
	}
}
