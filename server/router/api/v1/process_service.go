package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/talkagent/plugin/ai/agent"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/timeout"
	apierrors "github.com/hrygo/talkagent/server/internal/errors"
)

// ProcessRequest is the body of POST /api/v1/process.
type ProcessRequest struct {
	Transcription string `json:"transcription"`
	// Context describes the frontmost application; omitted means unknown.
	Context *intent.AppContext `json:"context,omitempty"`
}

// ProcessResponse carries the run result and the intent that produced it.
type ProcessResponse struct {
	agent.Outcome
	Result *intent.ResultView `json:"result"`
}

// Process runs one utterance through the pipeline.
// POST /api/v1/process
func (s *APIV1Service) Process(c echo.Context) error {
	var req ProcessRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}
	if strings.TrimSpace(req.Transcription) == "" {
		return apierrors.InvalidArgument("transcription is required")
	}

	if !s.processSemaphore.TryAcquire(1) {
		return apierrors.PipelineBusy()
	}
	defer s.processSemaphore.Release(1)

	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout.PipelineTimeout)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return apierrors.ContextCanceled(err)
	}

	appCtx := intent.EmptyContext()
	if req.Context != nil {
		appCtx = *req.Context
	}

	outcome := s.Pipeline.Handle(ctx, req.Transcription, appCtx)
	return c.JSON(http.StatusOK, ProcessResponse{
		Outcome: outcome,
		Result:  intent.View(outcome.Result),
	})
}

// GetStatus returns the observable pipeline state.
// GET /api/v1/status
func (s *APIV1Service) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Pipeline.Status())
}
