//go:build windows

package ui

import "os"

// No SIGTSTP/SIGCONT on Windows; suspend is a no-op.
func contSignals() []os.Signal {
	return nil
}

func (app *Application) suspendToShell() {}

func (app *Application) resumeAfterStop() {}
