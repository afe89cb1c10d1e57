package main

import (
	"slices"
	"strings"
)

// DebugOverlay holds the overlay text of the last frame. The demo has no
// text renderer, so the text goes to the console.
type DebugOverlay struct {
	lines []string
}

// Set replaces the text and reports whether it changed.
func (do *DebugOverlay) Set(lines []string) bool {
	if slices.Equal(do.lines, lines) {
		return false
	}
	do.lines = append(do.lines[:0], lines...)
	return true
}

func (do *DebugOverlay) GetText() string {
	if len(do.lines) == 0 {
		return ""
	}
	return strings.Join(do.lines, "\n") + "\n"
}
