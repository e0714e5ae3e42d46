package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/talkagent/store"
	apierrors "github.com/hrygo/talkagent/server/internal/errors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Run is the API form of a recorded pipeline run.
type Run struct {
	UID           string `json:"uid"`
	Transcription string `json:"transcription"`
	AppID         string `json:"app_id"`
	Action        string `json:"action"`
	Source        string `json:"source"`
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	DurationMs    int64  `json:"duration_ms"`
	CreateTime    int64  `json:"create_time"`
}

// ListRuns returns recorded runs, newest first.
// GET /api/v1/runs?action=search&success=false&limit=20
func (s *APIV1Service) ListRuns(c echo.Context) error {
	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return err
	}
	find := &store.FindRun{Limit: &limit}
	if action := c.QueryParam("action"); action != "" {
		find.Action = &action
	}
	if raw := c.QueryParam("success"); raw != "" {
		success, err := strconv.ParseBool(raw)
		if err != nil {
			return apierrors.InvalidArgument("invalid success filter").WithContext("success", raw)
		}
		find.Success = &success
	}

	runs, err := s.Store.ListRuns(c.Request().Context(), find)
	if err != nil {
		return apierrors.Internal("failed to list runs", err)
	}

	resp := make([]*Run, 0, len(runs))
	for _, r := range runs {
		resp = append(resp, &Run{
			UID:           r.UID,
			Transcription: r.Transcription,
			AppID:         r.AppID,
			Action:        r.Action,
			Source:        r.Source,
			Success:       r.Success,
			Message:       r.Message,
			DurationMs:    r.DurationMs,
			CreateTime:    r.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultPageSize, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, apierrors.InvalidArgument("limit must be a positive integer").WithContext("limit", raw)
	}
	return min(limit, maxPageSize), nil
}
