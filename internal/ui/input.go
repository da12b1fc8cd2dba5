package ui

import (
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// InputHandler converts tcell events to Actions.
type InputHandler struct {
	actionChan chan Action
}

func NewInputHandler(actionChan chan Action) *InputHandler {
	return &InputHandler{actionChan: actionChan}
}

// ProcessEvent emits the action for ev and reports false once the user asked to quit.
func (ih *InputHandler) ProcessEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return ih.processKeyEvent(ev)
	case *tcell.EventResize:
		w, h := ev.Size()
		ih.actionChan <- ResizeAction{Width: w, Height: h}
		return true
	default:
		return true
	}
}

func (ih *InputHandler) processKeyEvent(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		ih.actionChan <- QuitAction{}
		return false
	case tcell.KeyCtrlC:
		ih.actionChan <- QuitAction{Immediate: true}
		return false
	case tcell.KeyF1:
		ih.actionChan <- ToggleHelpAction{}

	case tcell.KeyEnter:
		ih.actionChan <- AcceptAction{}
	case tcell.KeyTab:
		ih.actionChan <- ToggleModeAction{}

	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if ev.Modifiers()&(tcell.ModAlt|tcell.ModCtrl) != 0 {
			ih.actionChan <- QueryDeleteWordAction{}
		} else {
			ih.actionChan <- QueryBackspaceAction{}
		}
	case tcell.KeyCtrlW:
		ih.actionChan <- QueryDeleteWordAction{}

	case tcell.KeyUp, tcell.KeyCtrlP:
		ih.actionChan <- SelectUpAction{}
	case tcell.KeyDown, tcell.KeyCtrlN:
		ih.actionChan <- SelectDownAction{}
	case tcell.KeyPgUp, tcell.KeyCtrlU:
		ih.actionChan <- PageUpAction{}
	case tcell.KeyPgDn, tcell.KeyCtrlD:
		ih.actionChan <- PageDownAction{}
	case tcell.KeyHome:
		ih.actionChan <- FirstPageAction{}
	case tcell.KeyEnd:
		ih.actionChan <- LastPageAction{}

	case tcell.KeyCtrlR:
		ih.actionChan <- RefreshAction{}
	case tcell.KeyCtrlZ:
		ih.actionChan <- SuspendAction{}

	case tcell.KeyRune:
		r := ev.Rune()
		if ev.Modifiers()&tcell.ModAlt == 0 && unicode.IsPrint(r) {
			ih.actionChan <- QueryCharAction{Char: r}
		}
	}
	return true
}
