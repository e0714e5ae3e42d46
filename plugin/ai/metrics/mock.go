package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/router"
)

// MockMetricsService is a mock implementation of MetricsService for testing.
type MockMetricsService struct {
	mu            sync.RWMutex
	runs          []RunRecord
	providerCalls []ProviderCallRecord
}

// RunRecord is one RecordRun call.
type RunRecord struct {
	Action  string
	Source  string
	Latency time.Duration
	Success bool
}

// ProviderCallRecord is one RecordProviderCall call.
type ProviderCallRecord struct {
	Provider  string
	Tier      router.Tier
	Action    intent.ActionType
	Success   bool
	LatencyMs int64
}

// NewMockMetricsService creates a new MockMetricsService.
func NewMockMetricsService() *MockMetricsService {
	return &MockMetricsService{}
}

// RecordRun records a run.
func (m *MockMetricsService) RecordRun(_ context.Context, action, source string, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, RunRecord{Action: action, Source: source, Latency: latency, Success: success})
}

// RecordProviderCall records a provider call.
func (m *MockMetricsService) RecordProviderCall(provider string, tier router.Tier, action intent.ActionType, success bool, latencyMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providerCalls = append(m.providerCalls, ProviderCallRecord{
		Provider:  provider,
		Tier:      tier,
		Action:    action,
		Success:   success,
		LatencyMs: latencyMs,
	})
}

// GetStats returns run and provider counts; latency percentiles are not computed.
func (m *MockMetricsService) GetStats(_ context.Context, _ TimeRange) (*PipelineMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := newPipelineMetrics()
	for _, r := range m.runs {
		stats.RunCount++
		if r.Success {
			stats.SuccessCount++
		}
		stat, ok := stats.ActionStats[r.Action]
		if !ok {
			stat = &ActionStat{}
			stats.ActionStats[r.Action] = stat
		}
		stat.Count++
		if r.Source != "" {
			stats.SourceCounts[r.Source]++
		}
	}
	for _, c := range m.providerCalls {
		stat, ok := stats.ProviderStats[c.Provider]
		if !ok {
			stat = &ProviderStat{Tiers: make(map[string]int64)}
			stats.ProviderStats[c.Provider] = stat
		}
		stat.Calls++
		stat.Tiers[string(c.Tier)]++
	}
	return stats, nil
}

// Runs returns a copy of the recorded runs.
func (m *MockMetricsService) Runs() []RunRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RunRecord(nil), m.runs...)
}

// ProviderCalls returns a copy of the recorded provider calls.
func (m *MockMetricsService) ProviderCalls() []ProviderCallRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ProviderCallRecord(nil), m.providerCalls...)
}

// Clear removes all recorded metrics (for testing).
func (m *MockMetricsService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = nil
	m.providerCalls = nil
}

// Ensure MockMetricsService implements MetricsService
var _ MetricsService = (*MockMetricsService)(nil)
