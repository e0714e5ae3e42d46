package store

import (
	"context"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// Note is a plain-text note created by voice.
type Note struct {
	ID  int32
	UID string

	Title string
	Body  string

	CreatedTs int64
	UpdatedTs int64
}

type FindNote struct {
	ID  *int32
	UID *string
	// Title matches case-insensitively.
	Title *string

	Limit *int
}

type UpdateNote struct {
	ID        int32
	UpdatedTs *int64
	Title     *string
	Body      *string
}

type DeleteNote struct {
	ID int32
}

func (s *Store) CreateNote(ctx context.Context, create *Note) (*Note, error) {
	if strings.TrimSpace(create.Title) == "" {
		return nil, errors.New("note title is required")
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	return s.driver.CreateNote(ctx, create)
}

func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	return s.driver.ListNotes(ctx, find)
}

// GetNote returns the most recently updated note matching find, or nil.
func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.ListNotes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateNote(ctx context.Context, update *UpdateNote) error {
	if update.UpdatedTs == nil {
		now := time.Now().Unix()
		update.UpdatedTs = &now
	}
	return s.driver.UpdateNote(ctx, update)
}

func (s *Store) DeleteNote(ctx context.Context, delete *DeleteNote) error {
	return s.driver.DeleteNote(ctx, delete)
}

// AppendToNote appends text as a new paragraph to the note titled title,
// creating the note when none exists. It returns the resulting note.
func (s *Store) AppendToNote(ctx context.Context, title, text string) (*Note, bool, error) {
	note, err := s.GetNote(ctx, &FindNote{Title: &title})
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to find note")
	}
	if note == nil {
		created, err := s.CreateNote(ctx, &Note{Title: title, Body: text})
		if err != nil {
			return nil, false, err
		}
		return created, true, nil
	}

	body := text
	if note.Body != "" {
		body = note.Body + "\n\n" + text
	}
	if err := s.UpdateNote(ctx, &UpdateNote{ID: note.ID, Body: &body}); err != nil {
		return nil, false, errors.Wrap(err, "failed to append to note")
	}
	note.Body = body
	return note, false, nil
}
