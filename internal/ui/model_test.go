package ui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kk-code-lab/rfind/internal/engine"
	"github.com/kk-code-lab/rfind/internal/search"
)

type fakeSearcher struct {
	records    []engine.Record
	submits    []string
	toggles    int
	refreshErr error
	state      engine.State
}

func newFakeSearcher(n int) *fakeSearcher {
	f := &fakeSearcher{}
	for i := 0; i < n; i++ {
		f.records = append(f.records, engine.Record{Path: fmt.Sprintf("f%02d.txt", i)})
	}
	return f
}

func (f *fakeSearcher) Submit(query string, mode search.Mode) {
	f.submits = append(f.submits, mode.String()+":"+query)
}

func (f *fakeSearcher) ToggleMode() { f.toggles++ }

func (f *fakeSearcher) Refresh(context.Context) error { return f.refreshErr }

func (f *fakeSearcher) CurrentPage(index, size int) []engine.Record {
	size = max(size, 1)
	index = engine.ClampPage(len(f.records), index, size)
	start := index * size
	end := min(start+size, len(f.records))
	return f.records[start:end]
}

func (f *fakeSearcher) PageCount(size int) int {
	size = max(size, 1)
	if len(f.records) == 0 {
		return 1
	}
	return (len(f.records) + size - 1) / size
}

func (f *fakeSearcher) ResultCount() int    { return len(f.records) }
func (f *fakeSearcher) State() engine.State { return f.state }
func (f *fakeSearcher) Warnings() int       { return 0 }
func (f *fakeSearcher) Root() string        { return "/tmp/root" }

func TestModelTypingSubmitsEveryEdit(t *testing.T) {
	s := newFakeSearcher(0)
	m := NewModel("", search.ModeFilename, 10)

	m.Reduce(QueryCharAction{Char: 'm'}, s)
	m.Reduce(QueryCharAction{Char: 'n'}, s)
	m.Reduce(QueryBackspaceAction{}, s)

	want := []string{"filename:m", "filename:mn", "filename:m"}
	if fmt.Sprint(s.submits) != fmt.Sprint(want) {
		t.Fatalf("submits = %v, want %v", s.submits, want)
	}
	if string(m.Query) != "m" {
		t.Fatalf("query = %q, want %q", string(m.Query), "m")
	}
}

func TestModelBackspaceOnEmptyQueryIsNoop(t *testing.T) {
	s := newFakeSearcher(0)
	m := NewModel("", search.ModeFilename, 10)
	if m.Reduce(QueryBackspaceAction{}, s) {
		t.Fatalf("expected no redraw")
	}
	if len(s.submits) != 0 {
		t.Fatalf("expected no submit, got %v", s.submits)
	}
}

func TestDeleteLastWord(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"src/main", "src/"},
		{"src/", "src"},
		{"hello world", "hello "},
		{"hello  ", ""},
		{"x", ""},
	}
	for _, tt := range tests {
		if got := string(deleteLastWord([]rune(tt.in))); got != tt.want {
			t.Fatalf("deleteLastWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestModelToggleModeKeepsQuery(t *testing.T) {
	s := newFakeSearcher(3)
	m := NewModel("abc", search.ModeFilename, 10)
	m.Page = 2

	m.Reduce(ToggleModeAction{}, s)
	if m.Mode != search.ModeContent || s.toggles != 1 {
		t.Fatalf("mode=%v toggles=%d", m.Mode, s.toggles)
	}
	if string(m.Query) != "abc" || m.Page != 0 {
		t.Fatalf("query=%q page=%d", string(m.Query), m.Page)
	}
}

func TestModelNavigationAcrossPages(t *testing.T) {
	s := newFakeSearcher(25)
	m := NewModel("", search.ModeFilename, 10)

	for i := 0; i < 10; i++ {
		m.Reduce(SelectDownAction{}, s)
	}
	if m.Page != 1 || m.Selected != 0 {
		t.Fatalf("after 10 downs: page=%d selected=%d, want 1/0", m.Page, m.Selected)
	}

	m.Reduce(SelectUpAction{}, s)
	if m.Page != 0 || m.Selected != 9 {
		t.Fatalf("after up: page=%d selected=%d, want 0/9", m.Page, m.Selected)
	}

	m.Reduce(LastPageAction{}, s)
	if m.Page != 2 || m.Selected != 4 {
		t.Fatalf("last page: page=%d selected=%d, want 2/4", m.Page, m.Selected)
	}

	m.Reduce(PageDownAction{}, s)
	m.Reduce(SelectDownAction{}, s)
	if m.Page != 2 || m.Selected != 4 {
		t.Fatalf("past the end: page=%d selected=%d, want 2/4", m.Page, m.Selected)
	}

	m.Reduce(PageUpAction{}, s)
	m.Reduce(PageUpAction{}, s)
	m.Reduce(PageUpAction{}, s)
	if m.Page != 0 {
		t.Fatalf("page up clamps at 0, got %d", m.Page)
	}

	m.Reduce(FirstPageAction{}, s)
	if m.Page != 0 || m.Selected != 0 {
		t.Fatalf("first page: page=%d selected=%d", m.Page, m.Selected)
	}
}

func TestModelVisibleRowsFollowScreenHeight(t *testing.T) {
	m := NewModel("", search.ModeFilename, 20)
	if got := m.VisibleRows(); got != 20 {
		t.Fatalf("unsized screen: got %d", got)
	}
	m.Reduce(ResizeAction{Width: 80, Height: 6}, newFakeSearcher(0))
	if got := m.VisibleRows(); got != 4 {
		t.Fatalf("height 6: got %d, want 4", got)
	}
	m.Height = 2
	if got := m.VisibleRows(); got != 1 {
		t.Fatalf("tiny screen: got %d, want 1", got)
	}
}

func TestModelAcceptSelectsRecord(t *testing.T) {
	s := newFakeSearcher(25)
	s.records[21].Line = 7
	m := NewModel("", search.ModeContent, 10)
	m.Reduce(LastPageAction{}, s)
	m.Reduce(SelectDownAction{}, s)

	m.Reduce(AcceptAction{}, s)
	if !m.Quit || m.Selection == nil {
		t.Fatalf("expected quit with a selection")
	}
	if m.Selection.Path != "f21.txt" || m.Selection.Line != 7 {
		t.Fatalf("selection = %+v", *m.Selection)
	}
}

func TestModelAcceptWithoutResults(t *testing.T) {
	m := NewModel("zzz", search.ModeFilename, 10)
	if m.Reduce(AcceptAction{}, newFakeSearcher(0)) {
		t.Fatalf("expected no redraw")
	}
	if m.Quit || m.Selection != nil {
		t.Fatalf("accept on empty results must not quit")
	}
}

func TestModelRefreshKeepsError(t *testing.T) {
	s := newFakeSearcher(1)
	s.refreshErr = errors.New("boom")
	m := NewModel("", search.ModeFilename, 10)
	m.Reduce(RefreshAction{}, s)
	if !errors.Is(m.Err, s.refreshErr) {
		t.Fatalf("err = %v", m.Err)
	}
	m.Reduce(QueryCharAction{Char: 'a'}, s)
	if m.Err != nil {
		t.Fatalf("editing the query clears the error, got %v", m.Err)
	}
}

func TestModelSyncClampsAfterResultsShrink(t *testing.T) {
	s := newFakeSearcher(25)
	m := NewModel("", search.ModeFilename, 10)
	m.Reduce(LastPageAction{}, s)
	m.Selected = 4

	s.records = s.records[:3]
	m.Sync(s)
	if m.Page != 0 || m.Selected != 2 {
		t.Fatalf("page=%d selected=%d, want 0/2", m.Page, m.Selected)
	}
}

func TestModelHelpOverlay(t *testing.T) {
	s := newFakeSearcher(3)
	m := NewModel("ab", search.ModeFilename, 10)

	if !m.Reduce(ToggleHelpAction{}, s) || !m.Help {
		t.Fatalf("F1 should open help")
	}
	if m.Reduce(QueryCharAction{Char: 'x'}, s) {
		t.Fatalf("typing must be ignored while help is open")
	}
	if string(m.Query) != "ab" || len(s.submits) != 0 {
		t.Fatalf("query changed under help: %q submits=%v", string(m.Query), s.submits)
	}
	if !m.View(s).Help {
		t.Fatalf("view should carry the help flag")
	}

	m.Reduce(QuitAction{}, s)
	if m.Help || m.Quit {
		t.Fatalf("Esc should only close help, got help=%v quit=%v", m.Help, m.Quit)
	}

	m.Reduce(ToggleHelpAction{}, s)
	m.Reduce(QuitAction{Immediate: true}, s)
	if !m.Quit {
		t.Fatalf("Ctrl-C must quit even with help open")
	}
}
