// Styled status output for the pump CLI: a header/summary banner before
// the job starts, plus level-tagged one-line status messages.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   = lipgloss.Color("#509EE3")
	secondaryColor = lipgloss.Color("#88BF4D")
	errorColor     = lipgloss.Color("#EF8C8C")
	warnColor      = lipgloss.Color("#F9CF48")
	mutedColor     = lipgloss.Color("#949AAB")

	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	successStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	warnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	keyStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(14)

	valueStyle = lipgloss.NewStyle()
)

// Header prints a styled header.
func Header(icon, text string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", icon, headerStyle.Render(text))
}

// Blank prints a blank line.
func Blank() {
	fmt.Fprintln(os.Stderr)
}

// Summary prints key-value pairs.
func Summary(pairs ...string) {
	for i := 0; i < len(pairs); i += 2 {
		key := pairs[i]
		val := ""
		if i+1 < len(pairs) {
			val = pairs[i+1]
		}
		fmt.Fprintf(os.Stderr, "  %s %s\n", keyStyle.Render(key+":"), valueStyle.Render(val))
	}
}

// Success prints a success message.
func Success(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", successStyle.Render("[OK]"), msg)
}

// Error prints an error message.
func Error(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("[ERROR]"), msg)
}

// Warn prints a warning message.
func Warn(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warnStyle.Render("[WARN]"), msg)
}

