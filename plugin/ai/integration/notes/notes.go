// Package notes is the Notes app integration backed by the local store.
package notes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/store"
)

const (
	// AppID is the bundle identifier of the Notes app.
	AppID = "com.apple.Notes"

	DefaultTitle = "Untitled Note"
	VoiceTitle   = "Voice Note"
)

// Store is the persistence the integration needs. *store.Store implements it.
type Store interface {
	CreateNote(ctx context.Context, create *store.Note) (*store.Note, error)
	AppendToNote(ctx context.Context, title, text string) (*store.Note, bool, error)
}

// Integration creates notes and appends dictation to them.
type Integration struct {
	store Store
}

// New creates the integration. A nil store makes it unavailable.
func New(s Store) *Integration {
	return &Integration{store: s}
}

// Name returns the provider name.
func (i *Integration) Name() string { return "notes" }

// AppID returns the Notes bundle identifier.
func (i *Integration) AppID() string { return AppID }

// Available reports whether notes can be stored.
func (i *Integration) Available() bool { return i.store != nil }

// SupportedActions returns create and dictate.
func (i *Integration) SupportedActions() []intent.ActionType {
	return []intent.ActionType{intent.ActionCreate, intent.ActionDictate}
}

// Execute creates a note or appends dictation to one.
func (i *Integration) Execute(ctx context.Context, in intent.Intent, _ intent.AppContext) (intent.ActionResult, error) {
	if !i.Available() {
		return intent.Failed("Notes is not available", nil), nil
	}

	switch in.Action {
	case intent.ActionCreate:
		title := in.Param(intent.ParamTitle)
		if title == "" {
			title = DefaultTitle
		}
		return i.createNote(ctx, title, in.Content)

	case intent.ActionDictate:
		if title := in.Param(intent.ParamTitle); title != "" {
			return i.appendToNote(ctx, title, in.Content)
		}
		return i.createNote(ctx, VoiceTitle, in.Content)

	default:
		return intent.Failed(fmt.Sprintf("Notes does not support %s", in.Action.DisplayName()), nil), nil
	}
}

func (i *Integration) createNote(ctx context.Context, title, body string) (intent.ActionResult, error) {
	note, err := i.store.CreateNote(ctx, &store.Note{Title: title, Body: body})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create note")
	}
	slog.Debug("note created", "uid", note.UID, "title", title)
	return &intent.Success{
		Msg:      fmt.Sprintf("Note %q created", title),
		Metadata: map[string]string{intent.ParamTitle: title, "uid": note.UID},
	}, nil
}

func (i *Integration) appendToNote(ctx context.Context, title, text string) (intent.ActionResult, error) {
	note, created, err := i.store.AppendToNote(ctx, title, text)
	if err != nil {
		return nil, errors.Wrap(err, "failed to append to note")
	}
	msg := fmt.Sprintf("Appended to note %q", title)
	if created {
		msg = fmt.Sprintf("Note %q created", title)
	}
	return &intent.Success{
		Msg:      msg,
		Metadata: map[string]string{intent.ParamTitle: title, "uid": note.UID},
	}, nil
}
