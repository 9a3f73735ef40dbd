package outwriter

import (
	"os"

	"golang.org/x/term"
)

// getTerminalWidth returns the width of stdout, or 80 when it is not a terminal.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return width
}

// getMaxCellWidth splits the space left after fixed columns between n free-text columns.
func getMaxCellWidth(termWidth, fixedWidth, n int) int {
	if n <= 0 {
		return 0
	}
	available := (termWidth - fixedWidth) / n
	if available < 8 {
		return 8
	}
	if available > 40 {
		return 40
	}
	return available
}
