// Package metrics aggregates per-action pipeline metrics and per-provider
// call metrics in hourly in-memory buckets.
package metrics

import (
	"context"
	"time"

	"github.com/hrygo/talkagent/plugin/ai/router"
)

// MetricsService defines the pipeline metrics service interface.
// It also records provider calls for the router.
type MetricsService interface {
	router.CallRecorder

	// RecordRun records one completed pipeline run.
	RecordRun(ctx context.Context, action, source string, latency time.Duration, success bool)

	// GetStats retrieves statistics for buckets within timeRange.
	// A zero Start or End leaves that side open.
	GetStats(ctx context.Context, timeRange TimeRange) (*PipelineMetrics, error)
}

// TimeRange represents a time range for querying metrics.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PipelineMetrics represents aggregated pipeline metrics.
type PipelineMetrics struct {
	RunCount      int64                    `json:"run_count"`
	SuccessCount  int64                    `json:"success_count"`
	LatencyP50    time.Duration            `json:"latency_p50"`
	LatencyP95    time.Duration            `json:"latency_p95"`
	ActionStats   map[string]*ActionStat   `json:"action_stats"`
	SourceCounts  map[string]int64         `json:"source_counts"`
	ProviderStats map[string]*ProviderStat `json:"provider_stats"`
}

// ActionStat represents statistics for a single action kind.
type ActionStat struct {
	Count       int64         `json:"count"`
	SuccessRate float32       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}

// ProviderStat represents statistics for a single capability provider.
type ProviderStat struct {
	Calls       int64            `json:"calls"`
	SuccessRate float32          `json:"success_rate"`
	AvgLatency  time.Duration    `json:"avg_latency"`
	Tiers       map[string]int64 `json:"tiers"`
}

func newPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		ActionStats:   make(map[string]*ActionStat),
		SourceCounts:  make(map[string]int64),
		ProviderStats: make(map[string]*ProviderStat),
	}
}
