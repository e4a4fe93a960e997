package core

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthMissing is returned when classification is attempted without a stored token
	ErrAuthMissing = errors.New("no authentication token found")
	// ErrSessionExpired is returned when the classification endpoint rejects the token
	ErrSessionExpired = errors.New("session expired")
	// ErrExtractionEmpty is returned when there is no email content to analyze
	ErrExtractionEmpty = errors.New("no email content to analyze")
	// ErrNoToken is returned when an auth response carries no access token
	ErrNoToken = errors.New("no token received")
	// ErrNoSession is returned by SessionStore.Load when nobody is logged in
	ErrNoSession = errors.New("no session")
)

// NetworkError wraps a transport failure of an outbound call
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is returned for a non-2xx response
type HTTPError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed: %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s failed: %d", e.Op, e.StatusCode)
}

// UserMessage maps an error to the single string delivered in a result's error field
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var httpErr *HTTPError
	var netErr *NetworkError

	switch {
	case errors.Is(err, ErrSessionExpired):
		return "Session expired, please log in again"
	case errors.Is(err, ErrAuthMissing):
		return "Not logged in, please log in first"
	case errors.Is(err, ErrExtractionEmpty):
		return "No email content to analyze"
	case errors.As(err, &httpErr):
		if httpErr.Detail != "" {
			return httpErr.Detail
		}
		return fmt.Sprintf("%s error: %d", httpErr.Op, httpErr.StatusCode)
	case errors.As(err, &netErr):
		return "Could not reach the server"
	case errors.Is(err, ErrNoToken):
		return "Authentication failed: " + err.Error()
	default:
		return err.Error()
	}
}
