package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/talkagent/store"
	apierrors "github.com/hrygo/talkagent/server/internal/errors"
)

// Note is the API form of a stored note.
type Note struct {
	UID        string `json:"uid"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	CreateTime int64  `json:"create_time"`
	UpdateTime int64  `json:"update_time"`
}

// ListNotes returns notes created by voice.
// GET /api/v1/notes?title=Groceries&limit=20
func (s *APIV1Service) ListNotes(c echo.Context) error {
	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return err
	}
	find := &store.FindNote{Limit: &limit}
	if title := c.QueryParam("title"); title != "" {
		find.Title = &title
	}

	notes, err := s.Store.ListNotes(c.Request().Context(), find)
	if err != nil {
		return apierrors.Internal("failed to list notes", err)
	}

	resp := make([]*Note, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, &Note{
			UID:        n.UID,
			Title:      n.Title,
			Body:       n.Body,
			CreateTime: n.CreatedTs,
			UpdateTime: n.UpdatedTs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
