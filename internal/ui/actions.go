package ui

// Action is the base interface for all model mutations.
type Action interface{}

// ===== QUERY ACTIONS =====

type QueryCharAction struct {
	Char rune
}
type QueryBackspaceAction struct{}
type QueryDeleteWordAction struct{}
type ToggleModeAction struct{}

// ===== NAVIGATION ACTIONS =====

type SelectUpAction struct{}
type SelectDownAction struct{}
type PageUpAction struct{}
type PageDownAction struct{}
type FirstPageAction struct{}
type LastPageAction struct{}

// ===== APPLICATION ACTIONS =====

type AcceptAction struct{}

// QuitAction leaves the application. Esc closes an open help overlay first;
// Immediate (Ctrl-C) always quits.
type QuitAction struct {
	Immediate bool
}
type ToggleHelpAction struct{}
type RefreshAction struct{}
type SuspendAction struct{}

type ResizeAction struct {
	Width  int
	Height int
}
