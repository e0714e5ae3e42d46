package store

import (
	"context"

	"github.com/google/uuid"
)

// Run records one pipeline run.
type Run struct {
	ID  int32
	UID string

	Transcription string
	AppID         string
	Action        string
	// Source is the classifier tier that decided the action.
	Source     string
	Success    bool
	Message    string
	DurationMs int64

	CreatedTs int64
}

type FindRun struct {
	UID     *string
	Action  *string
	Success *bool

	Limit *int
}

func (s *Store) CreateRun(ctx context.Context, create *Run) (*Run, error) {
	if create.UID == "" {
		create.UID = uuid.NewString()
	}
	return s.driver.CreateRun(ctx, create)
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, find *FindRun) ([]*Run, error) {
	return s.driver.ListRuns(ctx, find)
}
