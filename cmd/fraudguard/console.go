package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/mikey/fraudguard/internal/ui"
)

// consoleView renders controller output as lines of text
type consoleView struct {
	out io.Writer
	err io.Writer

	mu     sync.Mutex
	failed string
}

func newConsoleView(out, err io.Writer) *consoleView {
	return &consoleView{out: out, err: err}
}

func (v *consoleView) ShowAuth() {
	v.println(v.out, "Not logged in.")
}

func (v *consoleView) ShowMain(email string) {
	if email == "" {
		v.println(v.out, "Logged in.")
		return
	}
	v.println(v.out, "Logged in as "+email+".")
}

func (v *consoleView) Notify(level ui.Level, message string) {
	switch level {
	case ui.LevelError:
		v.mu.Lock()
		v.failed = message
		v.mu.Unlock()
	case ui.LevelWarning:
		v.println(v.err, "Warning: "+message)
	default:
		v.println(v.out, message)
	}
}

func (v *consoleView) SetBusy(ui.Control, bool) {}

func (v *consoleView) ShowResult(state ui.ResultState, text string) {
	if state == ui.ResultLoading {
		return
	}
	v.println(v.out, text)
}

func (v *consoleView) ApplyTheme(string) {}

// Err returns the last error notification as an error
func (v *consoleView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failed == "" {
		return nil
	}
	return fmt.Errorf("%s", v.failed)
}

func (v *consoleView) println(w io.Writer, line string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(w, line)
}
