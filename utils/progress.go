package utils

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ProgressVisible reports whether spinners may draw on stderr: it must be
// a terminal and LAYERCRACK_DISABLE_PROGRESS must not be set.
func ProgressVisible() bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv("LAYERCRACK_DISABLE_PROGRESS")))
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
