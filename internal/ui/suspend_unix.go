//go:build !windows

package ui

import (
	"os"
	"syscall"
)

func contSignals() []os.Signal {
	return []os.Signal{syscall.SIGCONT}
}

func (app *Application) suspendToShell() {
	// Hand the terminal back before stopping; SIGCONT resumes through the event loop.
	_ = app.screen.Suspend()
	// Stop only this process, not the group that may include the launching shell.
	_ = syscall.Kill(syscall.Getpid(), syscall.SIGTSTP)
}

func (app *Application) resumeAfterStop() {
	if err := app.screen.Resume(); err != nil {
		return
	}
	app.screen.Sync()
	app.model.Width, app.model.Height = app.screen.Size()
}
