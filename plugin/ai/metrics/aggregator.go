package metrics

import (
	"sort"
	"sync"
	"time"
)

// Aggregator aggregates metrics in memory, bucketed by hour.
type Aggregator struct {
	mu sync.RWMutex

	// Run metrics: key = "hourBucket|action"
	runMetrics map[string]*runBucket

	// Provider metrics: key = "hourBucket|provider"
	providerMetrics map[string]*providerBucket

	now func() time.Time
}

type runBucket struct {
	hourBucket   time.Time
	action       string
	runCount     int64
	successCount int64
	latencies    []int64 // in milliseconds
	sources      map[string]int64
}

type providerBucket struct {
	hourBucket   time.Time
	provider     string
	callCount    int64
	successCount int64
	latencySum   int64 // in milliseconds
	tiers        map[string]int64
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		runMetrics:      make(map[string]*runBucket),
		providerMetrics: make(map[string]*providerBucket),
		now:             time.Now,
	}
}

// RecordRun records a single pipeline run.
func (a *Aggregator) RecordRun(action, source string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hourBucket := truncateToHour(a.now())
	key := makeKey(hourBucket, action)

	bucket, exists := a.runMetrics[key]
	if !exists {
		bucket = &runBucket{
			hourBucket: hourBucket,
			action:     action,
			latencies:  make([]int64, 0, 100),
			sources:    make(map[string]int64),
		}
		a.runMetrics[key] = bucket
	}

	bucket.runCount++
	if success {
		bucket.successCount++
	}
	bucket.latencies = append(bucket.latencies, latency.Milliseconds())
	if source != "" {
		bucket.sources[source]++
	}
}

// RecordProviderCall records a single provider execution.
func (a *Aggregator) RecordProviderCall(provider, tier string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hourBucket := truncateToHour(a.now())
	key := makeKey(hourBucket, provider)

	bucket, exists := a.providerMetrics[key]
	if !exists {
		bucket = &providerBucket{
			hourBucket: hourBucket,
			provider:   provider,
			tiers:      make(map[string]int64),
		}
		a.providerMetrics[key] = bucket
	}

	bucket.callCount++
	if success {
		bucket.successCount++
	}
	bucket.latencySum += latency.Milliseconds()
	bucket.tiers[tier]++
}

// RunSnapshot is a closed hourly run bucket.
type RunSnapshot struct {
	HourBucket   time.Time
	Action       string
	RunCount     int64
	SuccessCount int64
	LatencySumMs int64
	LatencyP50Ms int32
	LatencyP95Ms int32
}

// FlushRunMetrics returns and clears all run buckets for hours before beforeHour.
func (a *Aggregator) FlushRunMetrics(beforeHour time.Time) []*RunSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	var snapshots []*RunSnapshot
	for key, bucket := range a.runMetrics {
		if bucket.hourBucket.Before(beforeHour) {
			snapshots = append(snapshots, &RunSnapshot{
				HourBucket:   bucket.hourBucket,
				Action:       bucket.action,
				RunCount:     bucket.runCount,
				SuccessCount: bucket.successCount,
				LatencySumMs: sumLatencies(bucket.latencies),
				LatencyP50Ms: int32(percentile(bucket.latencies, 50)),
				LatencyP95Ms: int32(percentile(bucket.latencies, 95)),
			})
			delete(a.runMetrics, key)
		}
	}
	for key, bucket := range a.providerMetrics {
		if bucket.hourBucket.Before(beforeHour) {
			delete(a.providerMetrics, key)
		}
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if !snapshots[i].HourBucket.Equal(snapshots[j].HourBucket) {
			return snapshots[i].HourBucket.Before(snapshots[j].HourBucket)
		}
		return snapshots[i].Action < snapshots[j].Action
	})
	return snapshots
}

// GetStats returns aggregated stats for buckets whose hour lies within timeRange.
func (a *Aggregator) GetStats(timeRange TimeRange) *PipelineMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := newPipelineMetrics()
	inRange := func(hour time.Time) bool {
		return (timeRange.Start.IsZero() || !hour.Before(truncateToHour(timeRange.Start))) &&
			(timeRange.End.IsZero() || !hour.After(timeRange.End))
	}

	type runAgg struct {
		count, success, latencySum int64
	}
	runAggs := make(map[string]*runAgg)
	allLatencies := make([]int64, 0)
	for _, bucket := range a.runMetrics {
		if !inRange(bucket.hourBucket) {
			continue
		}
		stats.RunCount += bucket.runCount
		stats.SuccessCount += bucket.successCount
		allLatencies = append(allLatencies, bucket.latencies...)
		for source, n := range bucket.sources {
			stats.SourceCounts[source] += n
		}

		agg, ok := runAggs[bucket.action]
		if !ok {
			agg = &runAgg{}
			runAggs[bucket.action] = agg
		}
		agg.count += bucket.runCount
		agg.success += bucket.successCount
		agg.latencySum += sumLatencies(bucket.latencies)
	}
	for action, agg := range runAggs {
		stat := &ActionStat{Count: agg.count}
		if agg.count > 0 {
			stat.SuccessRate = float32(agg.success) / float32(agg.count)
			stat.AvgLatency = time.Duration(agg.latencySum/agg.count) * time.Millisecond
		}
		stats.ActionStats[action] = stat
	}

	stats.LatencyP50 = time.Duration(percentile(allLatencies, 50)) * time.Millisecond
	stats.LatencyP95 = time.Duration(percentile(allLatencies, 95)) * time.Millisecond

	type providerAgg struct {
		calls, success, latencySum int64
		tiers                      map[string]int64
	}
	providerAggs := make(map[string]*providerAgg)
	for _, bucket := range a.providerMetrics {
		if !inRange(bucket.hourBucket) {
			continue
		}
		agg, ok := providerAggs[bucket.provider]
		if !ok {
			agg = &providerAgg{tiers: make(map[string]int64)}
			providerAggs[bucket.provider] = agg
		}
		agg.calls += bucket.callCount
		agg.success += bucket.successCount
		agg.latencySum += bucket.latencySum
		for tier, n := range bucket.tiers {
			agg.tiers[tier] += n
		}
	}
	for provider, agg := range providerAggs {
		stat := &ProviderStat{Calls: agg.calls, Tiers: agg.tiers}
		if agg.calls > 0 {
			stat.SuccessRate = float32(agg.success) / float32(agg.calls)
			stat.AvgLatency = time.Duration(agg.latencySum/agg.calls) * time.Millisecond
		}
		stats.ProviderStats[provider] = stat
	}

	return stats
}

// Helper functions

func truncateToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func makeKey(hourBucket time.Time, name string) string {
	return hourBucket.Format(time.RFC3339) + "|" + name
}

func sumLatencies(latencies []int64) int64 {
	var sum int64
	for _, l := range latencies {
		sum += l
	}
	return sum
}

func percentile(latencies []int64, p int) int64 {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
