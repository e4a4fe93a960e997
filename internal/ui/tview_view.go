package ui

import (
	"context"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	pageAuth = "auth"
	pageMain = "main"

	labelEmail    = "Email"
	labelPassword = "Password"
	labelConfirm  = "Confirm password"
	labelPageFile = "Page file"
	labelPageURL  = "Page URL"

	buttonLogin    = "Log in"
	buttonRegister = "Sign up"
	buttonLogout   = "Log out"
	buttonAnalyze  = "Check email"
	buttonTheme    = "Theme"
	buttonQuit     = "Quit"
)

type palette struct {
	background tcell.Color
	text       tcell.Color
	field      tcell.Color
	button     tcell.Color
}

var palettes = map[string]palette{
	ThemeLight: {background: tcell.ColorWhite, text: tcell.ColorBlack, field: tcell.ColorLightGray, button: tcell.ColorSteelBlue},
	ThemeDark:  {background: tcell.ColorBlack, text: tcell.ColorWhite, field: tcell.ColorDarkSlateGray, button: tcell.ColorDarkCyan},
}

// TviewView is a terminal implementation of View
type TviewView struct {
	app   *tview.Application
	pages *tview.Pages

	loginForm    *tview.Form
	registerForm *tview.Form
	mainForm     *tview.Form
	userText     *tview.TextView
	resultText   *tview.TextView
	statusText   *tview.TextView
	authLayout   *tview.Flex
	mainLayout   *tview.Flex
}

// NewTviewView builds the auth and main screens
func NewTviewView() *TviewView {
	v := &TviewView{
		app:          tview.NewApplication(),
		pages:        tview.NewPages(),
		loginForm:    tview.NewForm(),
		registerForm: tview.NewForm(),
		mainForm:     tview.NewForm(),
		userText:     tview.NewTextView().SetDynamicColors(true),
		resultText:   tview.NewTextView().SetDynamicColors(true).SetWordWrap(true),
		statusText:   tview.NewTextView().SetDynamicColors(true),
	}

	v.loginForm.
		AddInputField(labelEmail, "", 40, nil, nil).
		AddPasswordField(labelPassword, "", 40, '*', nil)
	v.loginForm.SetBorder(true).SetTitle(" Log in ")

	v.registerForm.
		AddInputField(labelEmail, "", 40, nil, nil).
		AddPasswordField(labelPassword, "", 40, '*', nil).
		AddPasswordField(labelConfirm, "", 40, '*', nil)
	v.registerForm.SetBorder(true).SetTitle(" Sign up ")

	v.mainForm.
		AddInputField(labelPageFile, "", 50, nil, nil).
		AddInputField(labelPageURL, "", 50, nil, nil)
	v.mainForm.SetBorder(true).SetTitle(" Analyze ")

	v.resultText.SetBorder(true).SetTitle(" Result ")

	v.authLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewFlex().
			AddItem(v.loginForm, 0, 1, true).
			AddItem(v.registerForm, 0, 1, false), 0, 1, true).
		AddItem(v.statusText, 1, 0, false)

	v.mainLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.userText, 1, 0, false).
		AddItem(v.mainForm, 0, 1, true).
		AddItem(v.resultText, 5, 0, false).
		AddItem(v.statusText, 1, 0, false)

	v.pages.
		AddPage(pageAuth, v.authLayout, true, true).
		AddPage(pageMain, v.mainLayout, true, false)

	return v
}

// Bind wires the controls to c. Handlers run off the event loop because
// the controller blocks until the relay answers.
func (v *TviewView) Bind(ctx context.Context, c *Controller) {
	v.loginForm.AddButton(buttonLogin, func() {
		email, password := fieldText(v.loginForm, labelEmail), fieldText(v.loginForm, labelPassword)
		go c.Login(ctx, email, password)
	})

	v.registerForm.AddButton(buttonRegister, func() {
		email := fieldText(v.registerForm, labelEmail)
		password := fieldText(v.registerForm, labelPassword)
		confirm := fieldText(v.registerForm, labelConfirm)
		go c.Register(ctx, email, password, confirm)
	})

	v.mainForm.
		AddButton(buttonAnalyze, func() {
			path, url := fieldText(v.mainForm, labelPageFile), fieldText(v.mainForm, labelPageURL)
			go func() {
				if path == "" {
					v.Notify(LevelError, MsgFillAllFields)
					return
				}
				html, err := os.ReadFile(path)
				if err != nil {
					v.Notify(LevelError, fmt.Sprintf("Cannot read %s: %v", path, err))
					return
				}
				c.Analyze(ctx, Page{URL: url, HTML: string(html)})
			}()
		}).
		AddButton(buttonLogout, func() { go c.Logout(ctx) }).
		AddButton(buttonTheme, func() { go c.ToggleTheme(ctx) }).
		AddButton(buttonQuit, v.app.Stop)

	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlT:
			go c.ToggleTheme(ctx)
			return nil
		case tcell.KeyCtrlQ:
			v.app.Stop()
			return nil
		}
		return event
	})
}

// Run shows the screen matching the session and blocks until the user quits or ctx is done
func (v *TviewView) Run(ctx context.Context, c *Controller) error {
	go func() {
		<-ctx.Done()
		v.app.Stop()
	}()
	go c.Init(ctx)

	return v.app.SetRoot(v.pages, true).EnableMouse(true).Run()
}

func (v *TviewView) ShowAuth() {
	v.app.QueueUpdateDraw(func() {
		v.pages.SwitchToPage(pageAuth)
		v.app.SetFocus(v.loginForm)
	})
}

func (v *TviewView) ShowMain(email string) {
	v.app.QueueUpdateDraw(func() {
		v.userText.SetText(fmt.Sprintf("Logged in as [::b]%s[::-]", tview.Escape(email)))
		v.resultText.Clear()
		v.pages.SwitchToPage(pageMain)
		v.app.SetFocus(v.mainForm)
	})
}

func (v *TviewView) Notify(level Level, message string) {
	color := map[Level]string{
		LevelInfo:    "blue",
		LevelWarning: "yellow",
		LevelError:   "red",
		LevelSuccess: "green",
	}[level]

	v.app.QueueUpdateDraw(func() {
		v.statusText.SetText(fmt.Sprintf("[%s]%s[-]", color, tview.Escape(message)))
	})
}

func (v *TviewView) SetBusy(control Control, busy bool) {
	form, label := v.loginForm, buttonLogin
	switch control {
	case ControlRegister:
		form, label = v.registerForm, buttonRegister
	case ControlLogout:
		form, label = v.mainForm, buttonLogout
	}

	v.app.QueueUpdateDraw(func() {
		if i := form.GetButtonIndex(label); i >= 0 {
			form.GetButton(i).SetDisabled(busy)
		}
	})
}

func (v *TviewView) ShowResult(state ResultState, text string) {
	color := map[ResultState]string{
		ResultLoading: "-",
		ResultWarning: "yellow",
		ResultDanger:  "red",
		ResultSafe:    "green",
	}[state]

	v.app.QueueUpdateDraw(func() {
		v.resultText.SetText(fmt.Sprintf("[%s]%s[-]", color, tview.Escape(text)))
	})
}

func (v *TviewView) ApplyTheme(theme string) {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[ThemeLight]
	}

	v.app.QueueUpdateDraw(func() {
		for _, form := range []*tview.Form{v.loginForm, v.registerForm, v.mainForm} {
			form.SetBackgroundColor(p.background)
			form.SetLabelColor(p.text).
				SetFieldBackgroundColor(p.field).
				SetFieldTextColor(p.text).
				SetButtonBackgroundColor(p.button)
		}
		for _, tv := range []*tview.TextView{v.userText, v.resultText, v.statusText} {
			tv.SetBackgroundColor(p.background)
			tv.SetTextColor(p.text)
		}
		v.authLayout.SetBackgroundColor(p.background)
		v.mainLayout.SetBackgroundColor(p.background)
	})
}

func fieldText(form *tview.Form, label string) string {
	if field, ok := form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return field.GetText()
	}
	return ""
}
