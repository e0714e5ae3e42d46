package handlers

import (
	"context"
	"sync"
)

// MockOpener records opened URLs and applications for testing.
type MockOpener struct {
	mu   sync.Mutex
	URLs []string
	Apps []string
	Err  error
}

// OpenURL implements Opener.
func (m *MockOpener) OpenURL(_ context.Context, rawURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.URLs = append(m.URLs, rawURL)
	return nil
}

// OpenApplication implements Opener.
func (m *MockOpener) OpenApplication(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Apps = append(m.Apps, name)
	return nil
}
