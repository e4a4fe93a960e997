// Package api is the HTTP client of the remote authentication and classification service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mikey/fraudguard/internal/core"
	"go.uber.org/zap"
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	classifyPath = "/llm/phi"

	maxResponseSize = 1 << 20
)

// Client implements core.GuardAPI over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	sanitizer  *bluemonday.Policy
}

// NewClient creates a client for baseURL. A zero timeout leaves calls unbounded.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

// Login posts form-encoded credentials, OAuth2 password style
func (c *Client) Login(ctx context.Context, creds core.Credentials) (*core.AuthResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Email)
	form.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.authenticate(req, "login")
}

// Register posts JSON credentials
func (c *Client) Register(ctx context.Context, creds core.Credentials) (*core.AuthResponse, error) {
	body, err := json.Marshal(map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode register request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+registerPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.authenticate(req, "register")
}

func (c *Client) authenticate(req *http.Request, op string) (*core.AuthResponse, error) {
	status, body, err := c.do(req, op)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		return nil, &core.HTTPError{Op: op, StatusCode: status, Detail: c.detail(body)}
	}

	var resp core.AuthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	resp.Detail = c.clean(resp.Detail)

	return &resp, nil
}

// Classify submits an email with the bearer token
func (c *Client) Classify(ctx context.Context, token string, analysis *core.AnalysisRequest) (*core.Classification, error) {
	body, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+classifyPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	status, respBody, err := c.do(req, "classify")
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, core.ErrSessionExpired
	case status < 200 || status > 299:
		return nil, &core.HTTPError{Op: "classify", StatusCode: status}
	}

	var cls core.Classification
	if err := json.Unmarshal(respBody, &cls); err != nil {
		return nil, fmt.Errorf("failed to decode classify response: %w", err)
	}
	cls.Raw = json.RawMessage(respBody)

	return &cls, nil
}

func (c *Client) do(req *http.Request, op string) (int, []byte, error) {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &core.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, &core.NetworkError{Op: op, Err: err}
	}

	c.logger.Debug("API call completed",
		zap.String("op", op),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	return resp.StatusCode, body, nil
}

// detail extracts the server supplied error detail, stripped of markup
func (c *Client) detail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	// FastAPI style servers send either a string or a list of validation errors.
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err != nil {
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(payload.Detail, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			text = strings.Join(msgs, "; ")
		}
	}

	return c.clean(text)
}

// clean strips markup; bluemonday escapes entities, which the
// plain-text consumers of detail do not want
func (c *Client) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(text)))
}
