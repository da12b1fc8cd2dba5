package ui

import (
	"context"
	"unicode"

	"github.com/kk-code-lab/rfind/internal/engine"
	"github.com/kk-code-lab/rfind/internal/search"
)

// Searcher is the part of the engine the UI drives.
type Searcher interface {
	Submit(query string, mode search.Mode)
	ToggleMode()
	Refresh(ctx context.Context) error
	CurrentPage(index, size int) []engine.Record
	PageCount(size int) int
	ResultCount() int
	State() engine.State
	Warnings() int
	Root() string
}

// Selection is the hit accepted with Enter. Line is 0 for filename hits.
type Selection struct {
	Path string
	Line int
}

// Model is the interactive state: the query being edited, the page shown and
// the selected row on it. Results themselves live in the engine.
type Model struct {
	Query    []rune
	Mode     search.Mode
	Page     int
	Selected int
	PageSize int
	Width    int
	Height   int

	Selection *Selection
	Quit      bool
	Help      bool
	Err       error
}

func NewModel(query string, mode search.Mode, pageSize int) *Model {
	return &Model{
		Query:    []rune(query),
		Mode:     mode,
		PageSize: max(pageSize, 1),
	}
}

// VisibleRows is the page size in use: the configured size bounded by the
// rows between the query line and the status line.
func (m *Model) VisibleRows() int {
	size := m.PageSize
	if rows := m.Height - 2; m.Height > 0 && rows < size {
		size = rows
	}
	return max(size, 1)
}

// Reduce applies action and reports whether the screen needs a redraw.
func (m *Model) Reduce(action Action, s Searcher) bool {
	if m.Help {
		return m.reduceHelp(action, s)
	}
	switch a := action.(type) {
	case QueryCharAction:
		m.Query = append(m.Query, a.Char)
		m.submit(s)
	case QueryBackspaceAction:
		if len(m.Query) == 0 {
			return false
		}
		m.Query = m.Query[:len(m.Query)-1]
		m.submit(s)
	case QueryDeleteWordAction:
		if len(m.Query) == 0 {
			return false
		}
		m.Query = deleteLastWord(m.Query)
		m.submit(s)
	case ToggleModeAction:
		m.Mode = m.Mode.Toggle()
		m.Page, m.Selected = 0, 0
		s.ToggleMode()

	case SelectUpAction:
		if m.Selected > 0 {
			m.Selected--
		} else if m.Page > 0 {
			m.Page--
			m.Selected = m.VisibleRows() - 1
		}
	case SelectDownAction:
		rows := len(s.CurrentPage(m.Page, m.VisibleRows()))
		if m.Selected < rows-1 {
			m.Selected++
		} else if m.Page < s.PageCount(m.VisibleRows())-1 {
			m.Page++
			m.Selected = 0
		}
	case PageUpAction:
		m.Page--
	case PageDownAction:
		m.Page++
	case FirstPageAction:
		m.Page, m.Selected = 0, 0
	case LastPageAction:
		m.Page = s.PageCount(m.VisibleRows()) - 1

	case AcceptAction:
		records := s.CurrentPage(m.Page, m.VisibleRows())
		if m.Selected < 0 || m.Selected >= len(records) {
			return false
		}
		rec := records[m.Selected]
		m.Selection = &Selection{Path: rec.Path, Line: rec.Line}
		m.Quit = true
	case QuitAction:
		m.Quit = true
	case ToggleHelpAction:
		m.Help = true
	case RefreshAction:
		m.Err = s.Refresh(context.Background())
	case ResizeAction:
		m.Width, m.Height = a.Width, a.Height
	default:
		return false
	}
	m.clamp(s)
	return true
}

// reduceHelp handles actions while the help overlay covers the results.
func (m *Model) reduceHelp(action Action, s Searcher) bool {
	switch a := action.(type) {
	case QuitAction:
		if a.Immediate {
			m.Quit = true
		}
		m.Help = false
	case ToggleHelpAction:
		m.Help = false
	case ResizeAction:
		m.Width, m.Height = a.Width, a.Height
		m.clamp(s)
	default:
		return false
	}
	return true
}

// Sync re-clamps the page and selection after the engine published results.
func (m *Model) Sync(s Searcher) {
	m.clamp(s)
}

func (m *Model) submit(s Searcher) {
	m.Page, m.Selected = 0, 0
	m.Err = nil
	s.Submit(string(m.Query), m.Mode)
}

func (m *Model) clamp(s Searcher) {
	size := m.VisibleRows()
	m.Page = engine.ClampPage(s.ResultCount(), m.Page, size)
	rows := len(s.CurrentPage(m.Page, size))
	m.Selected = max(0, min(m.Selected, rows-1))
}

// View gathers what the renderer needs for one frame.
func (m *Model) View(s Searcher) View {
	size := m.VisibleRows()
	return View{
		Query:    string(m.Query),
		Mode:     m.Mode,
		Records:  s.CurrentPage(m.Page, size),
		Selected: m.Selected,
		Page:     m.Page,
		Pages:    s.PageCount(size),
		Total:    s.ResultCount(),
		Busy:     s.State() != engine.Idle,
		Help:     m.Help,
		Warnings: s.Warnings(),
		Root:     s.Root(),
		Err:      m.Err,
	}
}

// deleteLastWord drops trailing spaces and then the last word, stopping at a
// path separator so "src/main" becomes "src/".
func deleteLastWord(query []rune) []rune {
	end := len(query)
	for end > 0 && unicode.IsSpace(query[end-1]) {
		end--
	}
	for end > 0 && !unicode.IsSpace(query[end-1]) && query[end-1] != '/' {
		end--
	}
	if end == len(query) {
		end--
	}
	return query[:end]
}
