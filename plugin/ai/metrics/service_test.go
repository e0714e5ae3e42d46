package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/router"
)

func TestAggregator_RecordRun(t *testing.T) {
	t.Run("SingleRun", func(t *testing.T) {
		agg := NewAggregator()
		agg.RecordRun("search", "rules", 100*time.Millisecond, true)

		stats := agg.GetStats(TimeRange{})
		assert.Equal(t, int64(1), stats.RunCount)
		assert.Equal(t, int64(1), stats.SuccessCount)
		require.Contains(t, stats.ActionStats, "search")
		assert.Equal(t, float32(1.0), stats.ActionStats["search"].SuccessRate)
		assert.Equal(t, 100*time.Millisecond, stats.ActionStats["search"].AvgLatency)
	})

	t.Run("MultipleRuns", func(t *testing.T) {
		agg := NewAggregator()
		agg.RecordRun("reply", "llm", 50*time.Millisecond, true)
		agg.RecordRun("reply", "llm", 150*time.Millisecond, true)
		agg.RecordRun("reply", "dictation_fallback", 200*time.Millisecond, false)

		stats := agg.GetStats(TimeRange{})
		assert.Equal(t, int64(3), stats.RunCount)
		assert.Equal(t, int64(2), stats.SuccessCount)
		assert.InDelta(t, 0.666, stats.ActionStats["reply"].SuccessRate, 0.01)
		assert.Equal(t, map[string]int64{"llm": 2, "dictation_fallback": 1}, stats.SourceCounts)
	})
}

func TestAggregator_RecordProviderCall(t *testing.T) {
	agg := NewAggregator()

	agg.RecordProviderCall("calendar", "target_integration", 30*time.Millisecond, true)
	agg.RecordProviderCall("calendar", "frontmost_integration", 50*time.Millisecond, false)

	stats := agg.GetStats(TimeRange{})
	assert.Equal(t, int64(0), stats.RunCount)

	cal := stats.ProviderStats["calendar"]
	require.NotNil(t, cal)
	assert.Equal(t, int64(2), cal.Calls)
	assert.Equal(t, float32(0.5), cal.SuccessRate)
	assert.Equal(t, 40*time.Millisecond, cal.AvgLatency)
}

func TestAggregator_Percentiles(t *testing.T) {
	agg := NewAggregator()

	for i := 1; i <= 100; i++ {
		agg.RecordRun("dictate", "rules", time.Duration(i)*time.Millisecond, true)
	}

	stats := agg.GetStats(TimeRange{})
	assert.InDelta(t, 50, stats.LatencyP50.Milliseconds(), 5)
	assert.InDelta(t, 95, stats.LatencyP95.Milliseconds(), 5)
}

func TestAggregator_TimeRangeAndFlush(t *testing.T) {
	agg := NewAggregator()
	now := time.Date(2026, 1, 27, 14, 35, 0, 0, time.UTC)

	agg.now = func() time.Time { return now.Add(-3 * time.Hour) }
	agg.RecordRun("search", "rules", 10*time.Millisecond, true)
	agg.RecordProviderCall("search", "handler", 10*time.Millisecond, true)
	agg.now = func() time.Time { return now }
	agg.RecordRun("search", "rules", 20*time.Millisecond, true)

	recent := agg.GetStats(TimeRange{Start: now.Add(-time.Hour), End: now})
	assert.Equal(t, int64(1), recent.RunCount)
	assert.Empty(t, recent.ProviderStats)

	snapshots := agg.FlushRunMetrics(truncateToHour(now))
	require.Len(t, snapshots, 1)
	assert.Equal(t, time.Date(2026, 1, 27, 11, 0, 0, 0, time.UTC), snapshots[0].HourBucket)
	assert.Equal(t, int64(10), snapshots[0].LatencySumMs)

	all := agg.GetStats(TimeRange{})
	assert.Equal(t, int64(1), all.RunCount)
	assert.Empty(t, all.ProviderStats)
}

func TestAggregator_ConcurrentAccess(t *testing.T) {
	agg := NewAggregator()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			agg.RecordRun("dictate", "rules", 10*time.Millisecond, true)
		}()
		go func() {
			defer wg.Done()
			agg.RecordProviderCall("dictate", "handler", 5*time.Millisecond, true)
		}()
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = agg.GetStats(TimeRange{})
		}()
	}
	wg.Wait()

	stats := agg.GetStats(TimeRange{})
	assert.Equal(t, int64(100), stats.RunCount)
	assert.Equal(t, int64(100), stats.ProviderStats["dictate"].Calls)
}

func TestService_RetentionPrunesOldBuckets(t *testing.T) {
	svc := NewService(2 * time.Hour)
	now := time.Date(2026, 1, 27, 14, 35, 0, 0, time.UTC)

	svc.aggregator.now = func() time.Time { return now.Add(-5 * time.Hour) }
	svc.RecordRun(context.Background(), "search", "rules", time.Millisecond, true)

	svc.aggregator.now = func() time.Time { return now }
	svc.RecordProviderCall("search", router.TierHandler, intent.ActionSearch, true, 1)

	stats, err := svc.GetStats(context.Background(), TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.RunCount)
	assert.Equal(t, int64(1), stats.ProviderStats["search"].Calls)
}

func TestService_ImplementsCallRecorder(t *testing.T) {
	r := router.NewRouter()
	svc := NewService(0)
	r.SetRecorder(svc)

	p := router.NewMockProvider("search", intent.ActionSearch)
	r.RegisterHandler(p)
	_, err := r.Route(context.Background(), intent.New(intent.ActionSearch, "", nil, "x", "search x", 0.8), intent.EmptyContext())
	require.NoError(t, err)

	stats, _ := svc.GetStats(context.Background(), TimeRange{})
	require.Contains(t, stats.ProviderStats, "search")
	assert.Equal(t, int64(1), stats.ProviderStats["search"].Tiers[string(router.TierHandler)])
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name      string
		latencies []int64
		p         int
		want      int64
	}{
		{"empty", []int64{}, 50, 0},
		{"single", []int64{100}, 50, 100},
		{"p50", []int64{10, 20, 30, 40, 50}, 50, 30},
		{"p95", []int64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}, 95, 90},
		{"p0", []int64{10, 20, 30}, 0, 10},
		{"p100", []int64{10, 20, 30}, 100, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, percentile(tt.latencies, tt.p))
		})
	}
}

func TestTruncateToHour(t *testing.T) {
	input := time.Date(2026, 1, 27, 14, 35, 22, 123456789, time.UTC)
	expected := time.Date(2026, 1, 27, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, expected, truncateToHour(input))
}
