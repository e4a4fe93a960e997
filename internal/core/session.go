package core

import (
	"context"
	"encoding/json"
	"fmt"
)

// Storage keys of the persisted session record
const (
	KeyAuthToken = "auth_token"
	KeyUser      = "user"
)

// SessionStore persists the single AuthSession on top of a KVStore
type SessionStore struct {
	kv KVStore
}

// NewSessionStore creates a session store backed by kv
func NewSessionStore(kv KVStore) *SessionStore {
	return &SessionStore{kv: kv}
}

// Load returns the stored session or ErrNoSession
func (s *SessionStore) Load(ctx context.Context) (*AuthSession, error) {
	values, err := s.kv.Get(ctx, KeyAuthToken, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	token := values[KeyAuthToken]
	if token == "" {
		return nil, ErrNoSession
	}

	session := &AuthSession{Token: token}
	if raw, ok := values[KeyUser]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &session.User); err != nil {
			return nil, fmt.Errorf("failed to decode stored user: %w", err)
		}
	}

	return session, nil
}

// Save replaces the stored session in one write
func (s *SessionStore) Save(ctx context.Context, session *AuthSession) error {
	user, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	if err := s.kv.Set(ctx, map[string]string{
		KeyAuthToken: session.Token,
		KeyUser:      string(user),
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the stored session; clearing an empty store succeeds
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, KeyAuthToken, KeyUser); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
