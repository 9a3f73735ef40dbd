package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Analysis label constants.
const (
	JumpLabel   = "jump"     // a window that holds a jump
	NoJumpLabel = "not jump" // a window without one
)

// Color variables for console output.
var (
	JumpColor    = color.New(color.FgMagenta, color.Bold) // JumpColor highlights a detected jump.
	NoJumpColor  = color.New(color.FgCyan)                // NoJumpColor is the quiet default.
	MissingColor = color.New(color.FgYellow)              // MissingColor marks a missing context value.
	HeaderColor  = color.New(color.FgGreen, color.Bold)   // HeaderColor is used for section headers.
)

// GetColorLabel returns a colored analysis label for console output (table).
func GetColorLabel(label string) string {
	switch label {
	case NoJumpLabel:
		return NoJumpColor.Sprint(label)
	case "", "?":
		return MissingColor.Sprint(label)
	default:
		return JumpColor.Sprint(label)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".motionwin_analysis.db"
	}
	return filepath.Join(homeDir, ".motionwin_analysis.db")
}

// TruncateText truncates a value to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and one character.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
