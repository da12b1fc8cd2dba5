package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// DisplayWidth reports the printable width of text accounting for wide runes
// and grapheme clusters.
func DisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// RuneWidth reports the terminal cell width of r; zero-width runes report 0.
func RuneWidth(r rune) int {
	w := runewidth.RuneWidth(r)
	if w < 0 {
		return 0
	}
	return w
}

// Truncate shortens text to maxWidth cells, replacing the cut tail with an ellipsis.
func Truncate(text string, maxWidth int) string {
	if maxWidth <= 0 || text == "" {
		return ""
	}
	if DisplayWidth(text) <= maxWidth {
		return text
	}
	if maxWidth <= 1 {
		return ellipsis
	}

	available := maxWidth - 1
	var builder strings.Builder
	width := 0
	for _, r := range text {
		w := RuneWidth(r)
		if width+w > available {
			break
		}
		builder.WriteRune(r)
		width += w
	}
	builder.WriteString(ellipsis)
	return builder.String()
}

// TruncateLeft keeps the tail of text, which is the useful part of a long path.
// It returns the shortened string and the number of leading runes dropped.
func TruncateLeft(text string, maxWidth int) (string, int) {
	if maxWidth <= 0 || text == "" {
		return "", len([]rune(text))
	}
	if DisplayWidth(text) <= maxWidth {
		return text, 0
	}
	runes := []rune(text)
	if maxWidth <= 1 {
		return ellipsis, len(runes)
	}

	available := maxWidth - 1
	width := 0
	start := len(runes)
	for start > 0 {
		w := RuneWidth(runes[start-1])
		if width+w > available {
			break
		}
		width += w
		start--
	}
	return ellipsis + string(runes[start:]), start
}
