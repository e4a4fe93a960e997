package core

import (
	"context"
)

// GuardAPI defines the interface for the remote authentication and classification service
type GuardAPI interface {
	// Login exchanges credentials for an access token
	Login(ctx context.Context, creds Credentials) (*AuthResponse, error)

	// Register creates an account and returns an access token
	Register(ctx context.Context, creds Credentials) (*AuthResponse, error)

	// Classify submits an email for classification using a bearer token
	Classify(ctx context.Context, token string, req *AnalysisRequest) (*Classification, error)
}

// KVStore defines a small key-value storage port.
// Set and Remove must apply all given keys atomically.
type KVStore interface {
	// Get returns the values of the keys that exist; missing keys are absent from the map
	Get(ctx context.Context, keys ...string) (map[string]string, error)

	// Set stores all items in a single atomic write
	Set(ctx context.Context, items map[string]string) error

	// Remove deletes the keys; removing a missing key is not an error
	Remove(ctx context.Context, keys ...string) error
}
