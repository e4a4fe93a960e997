package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mikey/fraudguard/internal/core"
	"github.com/mikey/fraudguard/internal/extractor"
	"github.com/mikey/fraudguard/internal/protocol"
	"go.uber.org/zap"
)

// KeyTheme is the store key of the persisted theme
const KeyTheme = "theme"

// MinPasswordLength applies to registration only
const MinPasswordLength = 8

// User facing texts
const (
	MsgFillAllFields    = "Please fill in all fields"
	MsgPasswordMismatch = "Passwords do not match"
	MsgPasswordTooShort = "Password must be at least 8 characters"
	MsgNotWebmail       = "Please open a Gmail email to analyze it"
	MsgLoginFailed      = "Login failed"
	MsgRegisterFailed   = "Registration failed"
	MsgLogoutFailed     = "Logout failed"
	MsgAnalyzing        = "Analysis in progress"
	MsgSuspicious       = "⚠️ Suspicious email! This email shows signs of fraud."
	MsgSafe             = "✅ Safe email. No threat detected."
)

// Page is the webmail page the user wants analyzed. URL may be empty when
// the page does not come from a browser tab.
type Page struct {
	URL  string
	HTML string
}

// Controller reacts to user input. Its methods block until the matching
// result arrives, so views call them off their event loop.
type Controller struct {
	view      View
	sender    Sender
	sessions  *core.SessionStore
	kv        core.KVStore
	extractor *extractor.Extractor
	logger    *zap.Logger

	defaultTheme   string
	loaderInterval time.Duration
}

// NewController creates a controller
func NewController(view View, sender Sender, sessions *core.SessionStore, kv core.KVStore,
	ex *extractor.Extractor, logger *zap.Logger, defaultTheme string) *Controller {
	if defaultTheme != ThemeDark {
		defaultTheme = ThemeLight
	}
	return &Controller{
		view:           view,
		sender:         sender,
		sessions:       sessions,
		kv:             kv,
		extractor:      ex,
		logger:         logger,
		defaultTheme:   defaultTheme,
		loaderInterval: LoaderInterval,
	}
}

// Init applies the saved theme and shows the screen matching the session
func (c *Controller) Init(ctx context.Context) {
	c.view.ApplyTheme(c.Theme(ctx))

	session, err := c.sessions.Load(ctx)
	if err != nil {
		if !errors.Is(err, core.ErrNoSession) {
			c.logger.Error("Failed to read session", zap.Error(err))
		}
		c.view.ShowAuth()
		return
	}
	c.view.ShowMain(session.User.Email)
}

// Login validates the form and sends a login action
func (c *Controller) Login(ctx context.Context, email, password string) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		c.view.Notify(LevelError, MsgFillAllFields)
		return
	}

	c.authenticate(ctx, ControlLogin, protocol.NewLogin(email, password), MsgLoginFailed)
}

// Register validates the form and sends a register action
func (c *Controller) Register(ctx context.Context, email, password, confirm string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "" || password == "" || confirm == "":
		c.view.Notify(LevelError, MsgFillAllFields)
		return
	case password != confirm:
		c.view.Notify(LevelError, MsgPasswordMismatch)
		return
	case len([]rune(password)) < MinPasswordLength:
		c.view.Notify(LevelError, MsgPasswordTooShort)
		return
	}

	c.authenticate(ctx, ControlRegister, protocol.NewRegister(email, password), MsgRegisterFailed)
}

func (c *Controller) authenticate(ctx context.Context, control Control, msg protocol.ActionMessage, fallback string) {
	c.view.SetBusy(control, true)
	res, err := c.sender.Send(ctx, msg)
	c.view.SetBusy(control, false)

	if err != nil {
		c.logger.Error("Failed to send action", zap.String("action", string(msg.Action)), zap.Error(err))
		c.view.Notify(LevelError, fallback)
		return
	}

	if !res.Success || res.User == nil {
		text := res.Error
		if text == "" {
			text = fallback
		}
		c.view.Notify(LevelError, text)
		return
	}

	c.view.ShowMain(res.User.Email)
}

// Logout sends a logout action and shows the auth screen on success
func (c *Controller) Logout(ctx context.Context) {
	c.view.SetBusy(ControlLogout, true)
	res, err := c.sender.Send(ctx, protocol.NewLogout())
	c.view.SetBusy(ControlLogout, false)

	if err != nil {
		c.logger.Error("Failed to send logout", zap.Error(err))
		c.view.Notify(LevelError, MsgLogoutFailed)
		return
	}
	if !res.Success {
		text := res.Error
		if text == "" {
			text = MsgLogoutFailed
		}
		c.view.Notify(LevelError, text)
		return
	}

	c.view.ShowAuth()
}

// Analyze extracts the page content, sends it for classification and
// renders the verdict. A loading animation runs for this request only.
func (c *Controller) Analyze(ctx context.Context, page Page) {
	if page.URL != "" && !extractor.IsWebmailURL(page.URL) {
		c.view.Notify(LevelWarning, MsgNotWebmail)
		return
	}

	loader := StartLoader(MsgAnalyzing, c.loaderInterval, func(text string) {
		c.view.ShowResult(ResultLoading, text)
	})

	content := c.extractor.FromHTMLString(page.HTML)
	res, err := c.sender.Send(ctx, protocol.NewAnalyzeEmail(content.Text, content.Source, content.Subject))
	loader.Stop()

	if err != nil {
		c.logger.Error("Failed to send analysis", zap.Error(err))
		c.view.ShowResult(ResultWarning, core.UserMessage(err))
		return
	}

	state, text := Verdict(res)
	c.view.ShowResult(state, text)
}

// Verdict maps an analysisResult to the text shown to the user
func Verdict(res protocol.ResultMessage) (ResultState, string) {
	switch {
	case res.Result == nil:
		return ResultWarning, res.Failed()
	case res.Result.Error != "":
		return ResultWarning, res.Result.Error
	case res.Result.IsFraudulent:
		return ResultDanger, MsgSuspicious
	default:
		return ResultSafe, MsgSafe
	}
}

// Theme returns the persisted theme or the default one
func (c *Controller) Theme(ctx context.Context) string {
	values, err := c.kv.Get(ctx, KeyTheme)
	if err != nil {
		c.logger.Warn("Failed to read theme", zap.Error(err))
		return c.defaultTheme
	}
	switch values[KeyTheme] {
	case ThemeLight, ThemeDark:
		return values[KeyTheme]
	}
	return c.defaultTheme
}

// ToggleTheme switches between light and dark, applies and persists the new theme
func (c *Controller) ToggleTheme(ctx context.Context) string {
	theme := ThemeDark
	if c.Theme(ctx) == ThemeDark {
		theme = ThemeLight
	}

	c.view.ApplyTheme(theme)
	if err := c.kv.Set(ctx, map[string]string{KeyTheme: theme}); err != nil {
		c.logger.Error("Failed to save theme", zap.Error(err))
	}
	return theme
}
