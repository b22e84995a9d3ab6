//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

const (
	forbiddenNameChars = string(os.PathSeparator) + string(os.PathListSeparator)
	// hidden files are not what anybody expects as a deck
	trimLeadingDots = true
)

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
