package router

import (
	"context"
	"sync"

	"github.com/hrygo/talkagent/plugin/ai/intent"
)

// MockProvider is a mock Handler and Integration for testing.
// It records every executed intent and returns Result and Err.
type MockProvider struct {
	ProviderName string
	Actions      []intent.ActionType
	ID           string
	Unavailable  bool

	// ExecuteFunc overrides Result and Err when set.
	ExecuteFunc func(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error)
	Result      intent.ActionResult
	Err         error

	mu    sync.Mutex
	calls []intent.Intent
}

// NewMockProvider creates a mock that succeeds with a message naming it.
func NewMockProvider(name string, actions ...intent.ActionType) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		Actions:      actions,
		ID:           name,
		Result:       intent.Succeeded(name),
	}
}

func (m *MockProvider) Name() string                          { return m.ProviderName }
func (m *MockProvider) SupportedActions() []intent.ActionType { return m.Actions }
func (m *MockProvider) AppID() string                         { return m.ID }
func (m *MockProvider) Available() bool                       { return !m.Unavailable }

// Execute implements Provider.
func (m *MockProvider) Execute(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, in)
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, in, appCtx)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// Calls returns a copy of the executed intents.
func (m *MockProvider) Calls() []intent.Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]intent.Intent(nil), m.calls...)
}

// CallCount returns the number of Execute calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
