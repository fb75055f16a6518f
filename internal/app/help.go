package app

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/watchbind/watchbind/internal/config"
)

var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Align(lipgloss.Center)

	helpKeyStyle = lipgloss.NewStyle().Bold(true)
)

// renderHelp draws the centered keybinding table: one row per binding,
// showing its chord and its description, or its operation sequence when
// no description was configured.
func renderHelp(keys config.KeyMap, width, height int) string {
	bindings := keys.Sorted()

	keyWidth := 0
	for _, b := range bindings {
		keyWidth = max(keyWidth, ansi.StringWidth(b.Chord.String()))
	}

	rows := make([]string, 0, len(bindings)+2)
	for _, b := range bindings {
		chord := b.Chord.String()
		pad := strings.Repeat(" ", keyWidth-ansi.StringWidth(chord))
		rows = append(rows, helpKeyStyle.Render(chord)+pad+"  "+b.Label())
	}

	// Trim to the screen rather than scrolling: the overlay is a quick
	// reference, not a pager.
	maxRows := max(height-4, 1)
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	table := strings.Join(rows, "\n")
	title := helpTitleStyle.Width(lipgloss.Width(table)).Render("keybindings")
	box := helpBoxStyle.Render(title + "\n\n" + table)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
