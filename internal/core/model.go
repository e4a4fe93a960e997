package core

import (
	"encoding/json"
	"strings"
	"time"
)

// FraudMarker is the substring of a classification label that flags an email as fraudulent
const FraudMarker = "NONOK"

// DefaultUnspecified replaces an empty sender or subject before classification
const DefaultUnspecified = "Not specified"

// User represents the authenticated account
type User struct {
	Email string `json:"email"`
}

// AuthSession represents the persisted authentication state
type AuthSession struct {
	Token string
	User  User
}

// Credentials are submitted on login and registration
type Credentials struct {
	Email    string
	Password string
}

// AuthResponse is returned by the login and register endpoints
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// AnalysisRequest is the payload sent to the classification endpoint
type AnalysisRequest struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Classification is the response of the classification endpoint
type Classification struct {
	Label string          `json:"classification"`
	Rate  float64         `json:"rate"`
	Raw   json.RawMessage `json:"-"`
}

// IsFraudulent reports whether the label carries the fraud marker
func (c *Classification) IsFraudulent() bool {
	return strings.Contains(c.Label, FraudMarker)
}

// AnalysisResult represents the verdict surfaced to the user
type AnalysisResult struct {
	IsFraudulent bool
	Score        float64
	Details      json.RawMessage
	AnalyzedAt   time.Time
}
