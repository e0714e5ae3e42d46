package ai

import (
	"context"
	"sync"
)

// MockGenerationService is a mock implementation of GenerationService for testing.
// Responses are consumed in order; once exhausted the last one repeats.
type MockGenerationService struct {
	mu         sync.Mutex
	configured bool
	responses  []string
	err        error
	calls      []MockCall
}

// MockCall records one Enhance invocation.
type MockCall struct {
	Text   string
	Prompt string
}

// NewMockGenerationService creates a configured mock returning responses in order.
func NewMockGenerationService(responses ...string) *MockGenerationService {
	return &MockGenerationService{
		configured: true,
		responses:  responses,
	}
}

// SetConfigured toggles IsConfigured.
func (m *MockGenerationService) SetConfigured(configured bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured = configured
}

// SetError makes every subsequent Enhance call fail with err.
func (m *MockGenerationService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// IsConfigured implements GenerationService.
func (m *MockGenerationService) IsConfigured() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configured
}

// Enhance implements GenerationService.
func (m *MockGenerationService) Enhance(ctx context.Context, text, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{Text: text, Prompt: prompt})

	if err := ctx.Err(); err != nil {
		return "", NewLLMError(CodeConnectionFailed, "context done", err)
	}
	if !m.configured {
		return "", ErrNotConfigured
	}
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", ErrNoContent
	}

	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

// Calls returns a copy of the recorded Enhance invocations.
func (m *MockGenerationService) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns the number of Enhance invocations.
func (m *MockGenerationService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
