package core

import (
	"context"
	"errors"
	"sync"
)

type mapKV struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMapKV() *mapKV {
	return &mapKV{values: make(map[string]string)}
}

func (m *mapKV) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *mapKV) Set(ctx context.Context, items map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for k, v := range items {
		m.values[k] = v
	}
	return nil
}

func (m *mapKV) Remove(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

type fakeAPI struct {
	mu sync.Mutex

	authResp *AuthResponse
	authErr  error

	classification *Classification
	classifyErr    error

	classifyCalls int
	lastToken     string
	lastRequest   *AnalysisRequest
}

func (f *fakeAPI) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	return f.authResp, f.authErr
}

func (f *fakeAPI) Register(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	return f.authResp, f.authErr
}

func (f *fakeAPI) Classify(ctx context.Context, token string, req *AnalysisRequest) (*Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifyCalls++
	f.lastToken = token
	copied := *req
	f.lastRequest = &copied
	if f.classifyErr != nil {
		return nil, f.classifyErr
	}
	if f.classification == nil {
		return nil, errors.New("no classification configured")
	}
	return f.classification, nil
}
