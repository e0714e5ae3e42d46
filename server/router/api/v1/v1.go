package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/talkagent/internal/profile"
	"github.com/hrygo/talkagent/plugin/ai/agent"
	"github.com/hrygo/talkagent/plugin/ai/metrics"
	ratelimit "github.com/hrygo/talkagent/server/middleware"
	"github.com/hrygo/talkagent/store"
)

type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Pipeline *agent.Pipeline
	Metrics  metrics.MetricsService

	// processSemaphore admits one utterance at a time; overlapping requests get 409.
	processSemaphore *semaphore.Weighted
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, pipeline *agent.Pipeline, metricsService metrics.MetricsService) *APIV1Service {
	return &APIV1Service{
		Profile:          profile,
		Store:            store,
		Pipeline:         pipeline,
		Metrics:          metricsService,
		processSemaphore: semaphore.NewWeighted(1),
	}
}

// RegisterRoutes registers the v1 endpoints with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo, limiter *ratelimit.RateLimiter) {
	group := echoServer.Group("/api/v1")
	group.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))
	if limiter != nil {
		group.Use(limiter.Middleware())
	}

	group.GET("/health", s.GetHealth)
	group.POST("/process", s.Process)
	group.GET("/status", s.GetStatus)
	group.GET("/metrics", s.GetMetricsOverview)
	group.GET("/runs", s.ListRuns)
	group.GET("/notes", s.ListNotes)
}

// GetHealth reports liveness.
// GET /api/v1/health
func (s *APIV1Service) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
		"mode":    s.Profile.Mode,
	})
}
