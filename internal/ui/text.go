package ui

import (
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/kk-code-lab/rfind/internal/search"
	"github.com/kk-code-lab/rfind/internal/textutil"
)

func (r *Renderer) drawStyledRune(x, y, maxX int, ru rune, style tcell.Style) int {
	if x >= maxX {
		return x
	}

	width := textutil.RuneWidth(ru)
	if width <= 0 {
		width = 1
	}

	r.screen.SetContent(x, y, ru, nil, style)
	for w := 1; w < width && x+w < maxX; w++ {
		r.screen.SetContent(x+w, y, ' ', nil, style)
	}
	return x + width
}

func (r *Renderer) drawStyledStringClipped(startX, y, maxX int, text string, style tcell.Style) int {
	if maxX <= startX {
		return startX
	}

	x := startX
	for _, ru := range text {
		if x >= maxX {
			break
		}
		x = r.drawStyledRune(x, y, maxX, ru, style)
	}
	return x
}

// drawHighlightedPath draws a path whose spans count runes. A path wider than
// the room left loses its head, so the file name stays visible.
func (r *Renderer) drawHighlightedPath(startX, y, maxX int, path string, spans []search.MatchSpan, baseStyle, matchStyle tcell.Style) int {
	if maxX <= startX {
		return startX
	}
	runes := []rune(path)
	first := 0
	x := startX
	if textutil.DisplayWidth(path) > maxX-startX {
		_, first = textutil.TruncateLeft(path, maxX-startX)
		x = r.drawStyledRune(x, y, maxX, '…', baseStyle)
	}

	for idx := first; idx < len(runes) && x < maxX; idx++ {
		style := baseStyle
		if search.InSpans(spans, idx) {
			style = matchStyle
		}
		for _, dr := range textutil.DisplayRune(runes[idx]) {
			x = r.drawStyledRune(x, y, maxX, dr, style)
		}
	}
	return x
}

// drawHighlightedPreview draws a content preview whose spans count bytes.
// When the first match would end past maxX the preview is scrolled so the
// match is on screen, with an ellipsis marking the cut head.
func (r *Renderer) drawHighlightedPreview(startX, y, maxX int, text string, spans []search.MatchSpan, baseStyle, matchStyle tcell.Style) int {
	if maxX <= startX {
		return startX
	}
	x := startX
	if from := previewWindowStart(text, spans, maxX-startX); from > 0 {
		x = r.drawStyledRune(x, y, maxX, '…', baseStyle)
		spans = search.ShiftSpans(spans, from, len(text)-from)
		text = text[from:]
	}

	for offset, ru := range text {
		if x >= maxX {
			break
		}
		style := baseStyle
		if search.InSpans(spans, offset) {
			style = matchStyle
		}
		if ru == '\t' {
			for n := textutil.TabSpaces(x-startX, textutil.DefaultTabWidth); n > 0; n-- {
				x = r.drawStyledRune(x, y, maxX, ' ', style)
			}
			continue
		}
		for _, dr := range textutil.DisplayRune(ru) {
			x = r.drawStyledRune(x, y, maxX, dr, style)
		}
	}
	return x
}

// previewWindowStart returns the byte offset a preview is drawn from so its
// first span fits in width cells. About a third of the room is kept for text
// before the match.
func previewWindowStart(text string, spans []search.MatchSpan, width int) int {
	if len(spans) == 0 || width < 2 {
		return 0
	}
	first := spans[0]
	end := min(first.End, len(text))
	if first.Start < 0 || first.Start >= end {
		return 0
	}
	if previewColumns(text[:end]) <= width {
		return 0
	}

	room := width - 1
	lead := max(min(room/3, room-previewColumns(text[first.Start:end])), 0)
	start := first.Start
	for start > 0 {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		cols := previewColumns(text[start-size : start])
		if cols > lead {
			break
		}
		lead -= cols
		start -= size
	}
	return start
}

func previewColumns(text string) int {
	col := 0
	for _, ru := range text {
		if ru == '\t' {
			col += textutil.TabSpaces(col, textutil.DefaultTabWidth)
			continue
		}
		for _, dr := range textutil.DisplayRune(ru) {
			col += max(textutil.RuneWidth(dr), 1)
		}
	}
	return col
}
