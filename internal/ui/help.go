package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/kk-code-lab/rfind/internal/textutil"
)

type helpEntry struct {
	keys string
	desc string
}

type helpSection struct {
	title   string
	entries []helpEntry
}

var helpSections = []helpSection{
	{
		title: "Query",
		entries: []helpEntry{
			{keys: "type", desc: "Edit the query, results follow live"},
			{keys: "Backspace", desc: "Delete last character"},
			{keys: "Ctrl+W", desc: "Delete last word"},
			{keys: "Tab", desc: "Toggle filename / content search"},
		},
	},
	{
		title: "Results",
		entries: []helpEntry{
			{keys: "↑/↓", desc: "Move selection"},
			{keys: "PgUp/PgDn", desc: "Previous / next page (Ctrl+U/Ctrl+D)"},
			{keys: "Home/End", desc: "First / last page"},
			{keys: "↵", desc: "Print the selected path and quit"},
		},
	},
	{
		title: "Application",
		entries: []helpEntry{
			{keys: "Ctrl+R", desc: "Walk the root again"},
			{keys: "Ctrl+Z", desc: "Suspend to the shell"},
			{keys: "Esc", desc: "Quit"},
			{keys: "Ctrl+C", desc: "Quit immediately"},
			{keys: "F1", desc: "Toggle this help"},
		},
	},
}

func buildHelpLines() []string {
	lines := make([]string, 0, 24)
	for i, section := range helpSections {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, section.title)
		for _, entry := range section.entries {
			lines = append(lines, fmt.Sprintf("  %-10s %s", entry.keys, entry.desc))
		}
	}
	return lines
}

func (r *Renderer) drawHelpOverlay(w, h int) {
	baseStyle := tcell.StyleDefault.Foreground(r.theme.Foreground)
	headerStyle := tcell.StyleDefault.Background(r.theme.FooterBg).Foreground(r.theme.FooterFg).Bold(true)

	title := " Help "
	titleStart := 0
	if tw := textutil.DisplayWidth(title); w > tw {
		titleStart = (w - tw) / 2
	}
	r.drawStyledStringClipped(titleStart, 0, w, title, headerStyle)

	row := 2
	for _, line := range buildHelpLines() {
		if row >= h-1 {
			break
		}
		r.drawStyledStringClipped(2, row, w, textutil.Truncate(line, w-2), baseStyle)
		row++
	}

	if h > 1 {
		r.drawStyledStringClipped(0, h-1, w, textutil.Truncate("F1 toggle · Esc close", w), headerStyle)
	}
}
