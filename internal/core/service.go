package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/fraudguard/internal/logging"
	"github.com/mikey/fraudguard/internal/utils"
	"go.uber.org/zap"
)

// GuardService is the core service behind every relay action
type GuardService struct {
	api           GuardAPI
	sessions      *SessionStore
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	maxBodySize   int
}

// NewGuardService creates a new guard service
func NewGuardService(
	api GuardAPI,
	sessions *SessionStore,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	maxBodySize int,
) *GuardService {
	return &GuardService{
		api:           api,
		sessions:      sessions,
		logger:        logger,
		textProcessor: textProcessor,
		maxBodySize:   maxBodySize,
	}
}

// Login authenticates against the remote service and persists the session
func (s *GuardService) Login(ctx context.Context, creds Credentials) (*User, error) {
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, "login", creds, resp)
}

// Register creates an account and persists the resulting session
func (s *GuardService) Register(ctx context.Context, creds Credentials) (*User, error) {
	resp, err := s.api.Register(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, "register", creds, resp)
}

// establish turns a successful auth response into the stored session
func (s *GuardService) establish(ctx context.Context, op string, creds Credentials, resp *AuthResponse) (*User, error) {
	if resp.AccessToken == "" {
		s.logger.Warn("Auth response carried no token", zap.String("op", op))
		if resp.Detail != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoToken, resp.Detail)
		}
		return nil, ErrNoToken
	}

	user := User{Email: creds.Email}
	if resp.User != nil && resp.User.Email != "" {
		user.Email = resp.User.Email
	}

	if err := s.sessions.Save(ctx, &AuthSession{Token: resp.AccessToken, User: user}); err != nil {
		return nil, err
	}

	s.logger.Info("Session stored",
		zap.String("op", op),
		zap.String("user", user.Email),
		logging.Token(resp.AccessToken))

	return &user, nil
}

// Analyze classifies an email with the stored session token
func (s *GuardService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, ErrExtractionEmpty
	}

	session, err := s.sessions.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, ErrAuthMissing
		}
		return nil, err
	}

	if info := InspectToken(session.Token); info.Expired(time.Now()) {
		// The server stays the authority on expiry; this is only a hint.
		s.logger.Debug("Stored token looks expired", zap.Time("expires_at", info.ExpiresAt))
	}

	payload := AnalysisRequest{
		Sender:  req.Sender,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if strings.TrimSpace(payload.Sender) == "" {
		payload.Sender = DefaultUnspecified
	}
	if strings.TrimSpace(payload.Subject) == "" {
		payload.Subject = DefaultUnspecified
	}
	if s.textProcessor != nil {
		payload.Body = s.textProcessor.ProcessText(payload.Body, s.maxBodySize)
	}

	s.logger.Debug("Classifying email",
		zap.String("sender", payload.Sender),
		zap.String("subject", payload.Subject),
		zap.Int("body_length", len(payload.Body)))

	cls, err := s.api.Classify(ctx, session.Token, &payload)
	if err != nil {
		return nil, err
	}

	result := &AnalysisResult{
		IsFraudulent: cls.IsFraudulent(),
		Score:        cls.Rate,
		Details:      cls.Raw,
		AnalyzedAt:   time.Now(),
	}

	s.logger.Info("Email classified",
		zap.String("classification", cls.Label),
		zap.Bool("fraudulent", result.IsFraudulent),
		zap.Float64("score", result.Score))

	return result, nil
}

// Logout removes the stored session
func (s *GuardService) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("Session cleared")
	return nil
}

// CurrentSession returns the stored session or ErrNoSession
func (s *GuardService) CurrentSession(ctx context.Context) (*AuthSession, error) {
	return s.sessions.Load(ctx)
}
