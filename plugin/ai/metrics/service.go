package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/router"
)

// DefaultRetention is how long hourly buckets are kept.
const DefaultRetention = 24 * time.Hour

// Service implements MetricsService on top of an Aggregator.
// Buckets older than the retention window are flushed on the first record
// of each new hour and logged as a summary.
type Service struct {
	aggregator *Aggregator
	retention  time.Duration

	mu        sync.Mutex
	lastPrune time.Time
}

// NewService creates a new metrics service. A non-positive retention uses DefaultRetention.
func NewService(retention time.Duration) *Service {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{
		aggregator: NewAggregator(),
		retention:  retention,
	}
}

// RecordRun records a pipeline run metric.
func (s *Service) RecordRun(_ context.Context, action, source string, latency time.Duration, success bool) {
	s.aggregator.RecordRun(action, source, latency, success)
	s.maybePrune()
}

// RecordProviderCall implements router.CallRecorder.
func (s *Service) RecordProviderCall(provider string, tier router.Tier, _ intent.ActionType, success bool, latencyMs int64) {
	s.aggregator.RecordProviderCall(provider, string(tier), time.Duration(latencyMs)*time.Millisecond, success)
	s.maybePrune()
}

// GetStats retrieves aggregated statistics for the given time range.
func (s *Service) GetStats(_ context.Context, timeRange TimeRange) (*PipelineMetrics, error) {
	return s.aggregator.GetStats(timeRange), nil
}

func (s *Service) maybePrune() {
	hour := truncateToHour(s.aggregator.now())

	s.mu.Lock()
	if !s.lastPrune.Before(hour) {
		s.mu.Unlock()
		return
	}
	s.lastPrune = hour
	s.mu.Unlock()

	for _, snap := range s.aggregator.FlushRunMetrics(hour.Add(-s.retention)) {
		slog.Info("metrics bucket expired",
			"hour", snap.HourBucket.Format(time.RFC3339),
			"action", snap.Action,
			"runs", snap.RunCount,
			"success", snap.SuccessCount,
			"p50_ms", snap.LatencyP50Ms,
			"p95_ms", snap.LatencyP95Ms)
	}
}

var _ MetricsService = (*Service)(nil)
