package ui

import (
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
)

// resumeEvent marks the interrupt posted when the process is continued after
// a suspend.
type resumeEvent struct{}

// Application runs the event loop: tcell events become actions, actions update
// the model, and every change is redrawn from the engine's published results.
type Application struct {
	screen   tcell.Screen
	searcher Searcher
	model    *Model
	renderer *Renderer
	input    *InputHandler
	actionCh chan Action
}

// NewApplication wires a ready (initialized) screen to searcher. The caller
// owns the screen and finalizes it after Run returns.
func NewApplication(screen tcell.Screen, searcher Searcher, model *Model) *Application {
	actionCh := make(chan Action, 16)
	return &Application{
		screen:   screen,
		searcher: searcher,
		model:    model,
		renderer: NewRenderer(screen),
		input:    NewInputHandler(actionCh),
		actionCh: actionCh,
	}
}

// WakeFunc returns a publish hook that wakes the event loop polling screen.
func WakeFunc(screen tcell.Screen) func() {
	return func() {
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}

// Run blocks until the user quits and returns the accepted hit, or nil.
func (app *Application) Run() *Selection {
	app.model.Width, app.model.Height = app.screen.Size()
	app.model.Sync(app.searcher)
	app.render()

	if sigs := contSignals(); len(sigs) > 0 {
		sigContCh := make(chan os.Signal, 1)
		signal.Notify(sigContCh, sigs...)
		stop := make(chan struct{})
		defer func() {
			signal.Stop(sigContCh)
			close(stop)
		}()
		go func() {
			for {
				select {
				case <-sigContCh:
					_ = app.screen.PostEvent(tcell.NewEventInterrupt(resumeEvent{}))
				case <-stop:
					return
				}
			}
		}()
	}

	for !app.model.Quit {
		ev := app.screen.PollEvent()
		if ev == nil {
			break
		}
		redraw := app.handleEvent(ev)
		if app.processActions() {
			redraw = true
		}
		if redraw {
			app.render()
		}
	}
	return app.model.Selection
}

func (app *Application) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventInterrupt:
		if _, ok := ev.Data().(resumeEvent); ok {
			app.resumeAfterStop()
		}
		app.model.Sync(app.searcher)
		return true
	case *tcell.EventResize:
		app.screen.Sync()
		app.input.ProcessEvent(ev)
		return true
	case *tcell.EventKey:
		app.input.ProcessEvent(ev)
	}
	return false
}

func (app *Application) processActions() bool {
	changed := false
	for {
		select {
		case action := <-app.actionCh:
			if _, ok := action.(SuspendAction); ok {
				app.suspendToShell()
				continue
			}
			if app.model.Reduce(action, app.searcher) {
				changed = true
			}
		default:
			return changed
		}
	}
}

func (app *Application) render() {
	app.renderer.Render(app.model.View(app.searcher))
}
