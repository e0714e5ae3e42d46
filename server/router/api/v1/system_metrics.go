package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/talkagent/plugin/ai/metrics"
	apierrors "github.com/hrygo/talkagent/server/internal/errors"
)

// MetricsOverviewResponse represents the overview response of pipeline metrics
type MetricsOverviewResponse struct {
	TotalRuns    int64   `json:"total_runs"`
	SuccessRate  float64 `json:"success_rate"`
	P50LatencyMs int64   `json:"p50_latency_ms"`
	P95LatencyMs int64   `json:"p95_latency_ms"`
	ErrorCount   int64   `json:"error_count"`
	TimeRange    string  `json:"time_range"`

	Actions   map[string]*metrics.ActionStat   `json:"actions"`
	Sources   map[string]int64                 `json:"sources"`
	Providers map[string]*metrics.ProviderStat `json:"providers"`
}

// GetMetricsOverview returns the pipeline metrics overview
// GET /api/v1/metrics?range=24h
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	timeRange := c.QueryParam("range")
	if timeRange == "" {
		timeRange = "24h"
	}
	start, err := parseTimeRange(timeRange, time.Now())
	if err != nil {
		slog.Warn("Invalid time range parameter in metrics request", "range", timeRange, "error", err)
		return apierrors.InvalidArgument("invalid time range").WithContext("range", timeRange)
	}
	if s.Metrics == nil {
		return apierrors.ServiceUnavailable("metrics are disabled")
	}

	stats, err := s.Metrics.GetStats(c.Request().Context(), metrics.TimeRange{Start: start})
	if err != nil {
		return apierrors.Internal("failed to get metrics", err)
	}

	resp := MetricsOverviewResponse{
		TotalRuns:    stats.RunCount,
		P50LatencyMs: stats.LatencyP50.Milliseconds(),
		P95LatencyMs: stats.LatencyP95.Milliseconds(),
		ErrorCount:   stats.RunCount - stats.SuccessCount,
		TimeRange:    timeRange,
		Actions:      stats.ActionStats,
		Sources:      stats.SourceCounts,
		Providers:    stats.ProviderStats,
	}
	if stats.RunCount > 0 {
		resp.SuccessRate = float64(stats.SuccessCount) / float64(stats.RunCount)
	}
	return c.JSON(http.StatusOK, resp)
}

// parseTimeRange parses time range string and returns the start time
func parseTimeRange(timeRange string, now time.Time) (time.Time, error) {
	switch timeRange {
	case "1h":
		return now.Add(-1 * time.Hour), nil
	case "24h":
		return now.Add(-24 * time.Hour), nil
	case "7d":
		return now.Add(-7 * 24 * time.Hour), nil
	case "30d":
		return now.Add(-30 * 24 * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("invalid time range: %s (valid: 1h, 24h, 7d, 30d)", timeRange)
	}
}
