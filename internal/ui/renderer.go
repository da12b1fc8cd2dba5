package ui

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/kk-code-lab/rfind/internal/engine"
	"github.com/kk-code-lab/rfind/internal/search"
	"github.com/kk-code-lab/rfind/internal/textutil"
)

// View is everything drawn in one frame.
type View struct {
	Query    string
	Mode     search.Mode
	Records  []engine.Record
	Selected int
	Page     int
	Pages    int
	Total    int
	Busy     bool
	Warnings int
	Root     string
	Help     bool
	Err      error
}

// Renderer draws a View: the query line on top, one page of results and a
// status line at the bottom.
type Renderer struct {
	screen tcell.Screen
	theme  ColorTheme
}

func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{
		screen: screen,
		theme:  GetColorTheme(),
	}
}

func (r *Renderer) Render(v View) {
	r.screen.Clear()
	w, h := r.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}

	if v.Help {
		r.drawHelpOverlay(w, h)
		r.screen.HideCursor()
		r.screen.Show()
		return
	}

	r.drawQueryLine(v, w)
	if h > 2 {
		r.drawResults(v, w, h)
	}
	if h > 1 {
		r.drawStatusLine(v, w, h)
	}
	r.screen.Show()
}

func (r *Renderer) drawQueryLine(v View, w int) {
	promptStyle := tcell.StyleDefault.Foreground(r.theme.PromptFg).Bold(true)
	queryStyle := tcell.StyleDefault.Foreground(r.theme.Foreground)

	prompt := "[" + v.Mode.String() + "] > "
	x := r.drawStyledStringClipped(0, 0, w, prompt, promptStyle)

	query := textutil.SanitizeTerminalText(v.Query)
	// Keep the end of a long query visible; that is where typing happens.
	if avail := w - x - 1; avail > 0 && textutil.DisplayWidth(query) > avail {
		query, _ = textutil.TruncateLeft(query, avail)
	}
	x = r.drawStyledStringClipped(x, 0, w, query, queryStyle)
	r.screen.ShowCursor(min(x, w-1), 0)
}

func (r *Renderer) drawResults(v View, w, h int) {
	base := tcell.StyleDefault.Foreground(r.theme.FileFg)
	bottom := h - 1
	maxScore := determineMaxScore(v.Records)

	y := 1
	for i, rec := range v.Records {
		if y >= bottom {
			break
		}
		selected := i == v.Selected
		rowStyle := base
		if selected {
			rowStyle = tcell.StyleDefault.Background(r.theme.SelectionBg).Foreground(r.theme.SelectionFg)
		}
		for x := 0; x < w; x++ {
			r.screen.SetContent(x, y, ' ', nil, rowStyle)
		}

		marker := ' '
		if selected {
			marker = '▶'
		}
		x := r.drawStyledRune(0, y, w, marker, rowStyle.Bold(selected))
		x = r.drawStyledRune(x, y, w, ' ', rowStyle)

		pathStyle, matchStyle := r.rowStyles(rowStyle, selected)
		if rec.Line > 0 {
			lineStyle := rowStyle
			if !selected {
				lineStyle = rowStyle.Foreground(r.theme.LineFg)
			}
			r.drawContentRow(x, y, w, rec, rowStyle, pathStyle, matchStyle, lineStyle)
		} else {
			limit := w
			if v.Query != "" {
				scoreText, ratio := formatScoreText(rec.Score, maxScore)
				scoreX := max(w-textutil.DisplayWidth(scoreText), x)
				r.drawStyledStringClipped(scoreX, y, w, scoreText, r.scoreStyleForRatio(rowStyle, ratio))
				limit = max(scoreX-1, x)
			}
			r.drawHighlightedPath(x, y, limit, rec.Path, rec.Spans, pathStyle, matchStyle)
		}
		y++
	}

	if len(v.Records) == 0 && y < bottom {
		msg := "no matches"
		switch {
		case v.Busy:
			msg = "searching…"
		case v.Query == "" && v.Mode == search.ModeContent:
			msg = "type to search file contents"
		}
		r.drawStyledStringClipped(2, y, w, msg, base.Dim(true))
	}
}

func (r *Renderer) drawContentRow(x, y, w int, rec engine.Record, rowStyle, pathStyle, matchStyle, lineStyle tcell.Style) {
	// Paths in content rows take at most half the row so the preview stays visible.
	pathLimit := x + max((w-x)/2, 8)
	x = r.drawHighlightedPath(x, y, min(pathLimit, w), rec.Path, nil, pathStyle, matchStyle)
	x = r.drawStyledStringClipped(x, y, w, ":"+strconv.Itoa(rec.Line)+": ", lineStyle)
	r.drawHighlightedPreview(x, y, w, rec.Preview, rec.Spans, rowStyle, matchStyle)
}

func (r *Renderer) rowStyles(rowStyle tcell.Style, selected bool) (tcell.Style, tcell.Style) {
	if selected {
		return rowStyle, rowStyle.Bold(true).Underline(true)
	}
	return rowStyle.Foreground(r.theme.DirectoryFg), rowStyle.Foreground(r.theme.MatchFg).Bold(true)
}

func (r *Renderer) drawStatusLine(v View, w, h int) {
	style := tcell.StyleDefault.Background(r.theme.FooterBg).Foreground(r.theme.FooterFg)
	y := h - 1
	for x := 0; x < w; x++ {
		r.screen.SetContent(x, y, ' ', nil, style)
	}

	x := r.drawStyledStringClipped(0, y, w, formatStatus(v), style)
	if v.Busy {
		x = r.drawStyledStringClipped(x, y, w, " | searching…", style.Foreground(r.theme.BusyFg))
	}
	if v.Warnings > 0 {
		x = r.drawStyledStringClipped(x, y, w, fmt.Sprintf(" | %d dirs skipped", v.Warnings), style.Foreground(r.theme.WarningFg))
	}
	if v.Err != nil {
		x = r.drawStyledStringClipped(x, y, w, " | "+textutil.SanitizeTerminalText(v.Err.Error()), style.Foreground(r.theme.WarningFg))
	}

	if v.Root != "" && x+2 < w {
		root, _ := textutil.TruncateLeft(textutil.SanitizeTerminalText(v.Root), w-x-2)
		r.drawStyledStringClipped(w-textutil.DisplayWidth(root), y, w, root, style.Dim(true))
	}
}

func formatStatus(v View) string {
	pages := max(v.Pages, 1)
	noun := "results"
	if v.Total == 1 {
		noun = "result"
	}
	return fmt.Sprintf("page %d/%d | %d %s", v.Page+1, pages, v.Total, noun)
}

func determineMaxScore(records []engine.Record) float64 {
	maxScore := 0.0
	for _, rec := range records {
		if rec.Score > maxScore {
			maxScore = rec.Score
		}
	}
	if maxScore <= 0 {
		return 1
	}
	return maxScore
}

func formatScoreText(score, maxScore float64) (string, float64) {
	if maxScore <= 0 {
		maxScore = 1
	}
	ratio := max(0, min(score/maxScore, 1))
	percent := int(math.Round(ratio * 100))
	return fmt.Sprintf("%3d%%", percent), ratio
}

func (r *Renderer) scoreStyleForRatio(base tcell.Style, ratio float64) tcell.Style {
	switch {
	case ratio >= 0.85:
		return base.Foreground(tcell.ColorGreen).Bold(true)
	case ratio >= 0.6:
		return base.Foreground(tcell.ColorYellowGreen)
	case ratio >= 0.4:
		return base.Foreground(tcell.ColorYellow)
	default:
		return base.Foreground(tcell.ColorDarkGray)
	}
}
