// Package protocol defines the messages exchanged between the UI side and the relay.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/mikey/fraudguard/internal/core"
)

// Action selects the variant of a message
type Action string

// Request actions
const (
	ActionLogin        Action = "login"
	ActionRegister     Action = "register"
	ActionLogout       Action = "logout"
	ActionAnalyzeEmail Action = "analyzeEmail"
)

// Result actions
const (
	ActionLoginResult    Action = "loginResult"
	ActionRegisterResult Action = "registerResult"
	ActionLogoutResult   Action = "logoutResult"
	ActionAnalysisResult Action = "analysisResult"
)

var resultFor = map[Action]Action{
	ActionLogin:        ActionLoginResult,
	ActionRegister:     ActionRegisterResult,
	ActionLogout:       ActionLogoutResult,
	ActionAnalyzeEmail: ActionAnalysisResult,
}

// ResultAction returns the result tag answering a request action
func (a Action) ResultAction() (Action, bool) {
	r, ok := resultFor[a]
	return r, ok
}

// IsRequest reports whether a is one of the request actions
func (a Action) IsRequest() bool {
	_, ok := resultFor[a]
	return ok
}

// CredentialsData is the payload of login and register
type CredentialsData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailData is the payload of analyzeEmail
type EmailData struct {
	Text    string `json:"text"`
	Source  string `json:"source,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// ActionMessage is sent from the UI side to the relay
type ActionMessage struct {
	Action    Action          `json:"action"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Analysis is the result body of analysisResult
type Analysis struct {
	IsFraudulent bool            `json:"isFraudulent"`
	Score        float64         `json:"score"`
	Details      json.RawMessage `json:"details,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// ResultMessage is emitted by the relay, one per ActionMessage
type ResultMessage struct {
	Action    Action     `json:"action"`
	RequestID string     `json:"requestId,omitempty"`
	Success   bool       `json:"success"`
	User      *core.User `json:"user,omitempty"`
	Error     string     `json:"error,omitempty"`
	Result    *Analysis  `json:"result,omitempty"`
}

// Failed returns the error text carried by the result, if any
func (m *ResultMessage) Failed() string {
	if m.Error != "" {
		return m.Error
	}
	if m.Result != nil && m.Result.Error != "" {
		return m.Result.Error
	}
	if !m.Success {
		return "request failed"
	}
	return ""
}

// NewLogin builds a login request
func NewLogin(email, password string) ActionMessage {
	return newAction(ActionLogin, CredentialsData{Email: email, Password: password})
}

// NewRegister builds a register request
func NewRegister(email, password string) ActionMessage {
	return newAction(ActionRegister, CredentialsData{Email: email, Password: password})
}

// NewLogout builds a logout request
func NewLogout() ActionMessage {
	return ActionMessage{Action: ActionLogout}
}

// NewAnalyzeEmail builds an analyzeEmail request
func NewAnalyzeEmail(text, source, subject string) ActionMessage {
	return newAction(ActionAnalyzeEmail, EmailData{Text: text, Source: source, Subject: subject})
}

func newAction(action Action, data any) ActionMessage {
	// Marshalling plain string structs cannot fail.
	raw, _ := json.Marshal(data)
	return ActionMessage{Action: action, Data: raw}
}

// Credentials decodes the payload of a login or register message
func (m *ActionMessage) Credentials() (CredentialsData, error) {
	var data CredentialsData
	if len(m.Data) == 0 {
		return data, fmt.Errorf("%s: missing data", m.Action)
	}
	if err := json.Unmarshal(m.Data, &data); err != nil {
		return data, fmt.Errorf("%s: invalid data: %w", m.Action, err)
	}
	return data, nil
}

// Email decodes the payload of an analyzeEmail message
func (m *ActionMessage) Email() (EmailData, error) {
	var data EmailData
	if len(m.Data) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(m.Data, &data); err != nil {
		return data, fmt.Errorf("%s: invalid data: %w", m.Action, err)
	}
	return data, nil
}

// EncodeAction serializes an action for the bus
func EncodeAction(m ActionMessage) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeAction parses an action received from the bus
func DecodeAction(b []byte) (ActionMessage, error) {
	var m ActionMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("failed to decode action message: %w", err)
	}
	return m, nil
}

// EncodeResult serializes a result for the bus
func EncodeResult(m ResultMessage) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeResult parses a result received from the bus
func DecodeResult(b []byte) (ResultMessage, error) {
	var m ResultMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("failed to decode result message: %w", err)
	}
	return m, nil
}
