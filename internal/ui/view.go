// Package ui drives the auth and main screens from user input and relay results.
package ui

import (
	"context"

	"github.com/mikey/fraudguard/internal/protocol"
)

// Level is the severity of a notification
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
	LevelSuccess
)

// Control identifies an input control that can be disabled while busy
type Control string

const (
	ControlLogin    Control = "login"
	ControlRegister Control = "register"
	ControlLogout   Control = "logout"
)

// ResultState selects how the result panel is rendered
type ResultState int

const (
	ResultLoading ResultState = iota
	ResultWarning
	ResultDanger
	ResultSafe
)

// Theme names
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// View renders the screens. Implementations must be safe to call from any goroutine.
type View interface {
	ShowAuth()
	ShowMain(email string)
	Notify(level Level, message string)
	SetBusy(control Control, busy bool)
	ShowResult(state ResultState, text string)
	ApplyTheme(theme string)
}

// Sender delivers an action to the relay and returns its result
type Sender interface {
	Send(ctx context.Context, msg protocol.ActionMessage) (protocol.ResultMessage, error)
}
