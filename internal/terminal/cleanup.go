// Package terminal restores the controlling terminal to a usable state.
package terminal

import (
	"fmt"
	"os"
)

// Reset sends escape sequences returning the terminal to a clean state.
// It runs after the TUI exits on every path, including error paths
// where the alternate screen may still be active.
func Reset() {
	// Show cursor
	fmt.Print("\033[?25h")
	// Exit alternate screen buffer
	fmt.Print("\033[?1049l")
	// Reset all text attributes
	fmt.Print("\033[0m")
	// Flush stdout
	_ = os.Stdout.Sync()
}
