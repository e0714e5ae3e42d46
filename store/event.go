package store

import (
	"context"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// Event is a calendar event. Timestamps are unix seconds.
type Event struct {
	ID  int32
	UID string

	Title    string
	StartTs  int64
	EndTs    int64
	Location string
	Notes    string

	CreatedTs int64
}

// FindEvent finds events overlapping [StartTs, EndTs) when both are set.
type FindEvent struct {
	ID  *int32
	UID *string

	StartTs *int64
	EndTs   *int64

	Limit *int
}

type DeleteEvent struct {
	ID int32
}

func (s *Store) CreateEvent(ctx context.Context, create *Event) (*Event, error) {
	if strings.TrimSpace(create.Title) == "" {
		return nil, errors.New("event title is required")
	}
	if create.EndTs < create.StartTs {
		return nil, errors.Errorf("event ends before it starts: %d < %d", create.EndTs, create.StartTs)
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	return s.driver.CreateEvent(ctx, create)
}

func (s *Store) ListEvents(ctx context.Context, find *FindEvent) ([]*Event, error) {
	return s.driver.ListEvents(ctx, find)
}

func (s *Store) DeleteEvent(ctx context.Context, delete *DeleteEvent) error {
	return s.driver.DeleteEvent(ctx, delete)
}
