// Package calendar is the Calendar app integration backed by the local store.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/talkagent/plugin/ai"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/timeout"
	"github.com/hrygo/talkagent/store"
)

const (
	// AppID is the bundle identifier of the Calendar app.
	AppID = "com.apple.iCal"

	DefaultDuration  = 30 * time.Minute
	DefaultStartTime = "09:00"

	NoEventsToday = "No events scheduled for today."

	dateLayout    = "2006-01-02"
	timeLayout    = "3:04 PM"
	startedLayout = "Jan 2, 2006 at 3:04 PM"
)

// Store is the persistence the integration needs. *store.Store implements it.
type Store interface {
	CreateEvent(ctx context.Context, create *store.Event) (*store.Event, error)
	ListEvents(ctx context.Context, find *store.FindEvent) ([]*store.Event, error)
}

// Integration creates events from speech and summarizes today's schedule.
type Integration struct {
	store   Store
	service ai.GenerationService
	now     func() time.Time
}

// New creates the integration. service may be nil; event details then
// fall back to the raw content at the next full hour.
func New(s Store, service ai.GenerationService) *Integration {
	return &Integration{store: s, service: service, now: time.Now}
}

// Name returns the provider name.
func (i *Integration) Name() string { return "calendar" }

// AppID returns the Calendar bundle identifier.
func (i *Integration) AppID() string { return AppID }

// Available reports whether events can be stored.
func (i *Integration) Available() bool { return i.store != nil }

// SupportedActions returns create and summarize.
func (i *Integration) SupportedActions() []intent.ActionType {
	return []intent.ActionType{intent.ActionCreate, intent.ActionSummarize}
}

// Execute creates an event or lists today's events.
func (i *Integration) Execute(ctx context.Context, in intent.Intent, _ intent.AppContext) (intent.ActionResult, error) {
	if !i.Available() {
		return intent.RecoverableFailure("Calendar is not available", nil,
			"Check that the event database is configured"), nil
	}

	switch in.Action {
	case intent.ActionCreate:
		return i.createFromIntent(ctx, in)
	case intent.ActionSummarize:
		return i.todaySummary(ctx)
	default:
		return intent.Failed(fmt.Sprintf("Calendar does not support %s", in.Action.DisplayName()), nil), nil
	}
}

func (i *Integration) createFromIntent(ctx context.Context, in intent.Intent) (intent.ActionResult, error) {
	now := i.now()

	details, ok := i.extract(ctx, in.Content)
	if !ok {
		start := nextHour(now)
		event, err := i.create(ctx, &store.Event{
			Title:   in.Content,
			StartTs: start.Unix(),
			EndTs:   start.Add(DefaultDuration).Unix(),
		})
		if err != nil {
			return nil, err
		}
		return &intent.Success{
			Msg:      fmt.Sprintf("Event %q created", event.Title),
			Metadata: map[string]string{intent.ParamTitle: event.Title},
		}, nil
	}

	start := details.start(now)
	event, err := i.create(ctx, &store.Event{
		Title:    details.Title,
		StartTs:  start.Unix(),
		EndTs:    start.Add(details.duration()).Unix(),
		Location: details.Location,
		Notes:    details.Notes,
	})
	if err != nil {
		return nil, err
	}

	when := start.Format(startedLayout)
	return &intent.Success{
		Msg:      fmt.Sprintf("Event %q created for %s", event.Title, when),
		Metadata: map[string]string{intent.ParamTitle: event.Title, "date": when},
	}, nil
}

// extract asks the generation service for event details.
// Any failure means the caller should use the fallback event.
func (i *Integration) extract(ctx context.Context, content string) (eventDetails, bool) {
	if i.service == nil || !i.service.IsConfigured() {
		return eventDetails{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.GenerationTimeout)
	defer cancel()

	response, err := i.service.Enhance(ctx, content, ai.EventExtractionPrompt)
	if err != nil {
		slog.Warn("event extraction failed, using fallback event", "error", err)
		return eventDetails{}, false
	}
	details, ok := parseEventDetails(response)
	if !ok {
		slog.Warn("event extraction response unusable, using fallback event",
			"response", timeout.Truncate(response))
	}
	return details, ok
}

func (i *Integration) create(ctx context.Context, event *store.Event) (*store.Event, error) {
	created, err := i.store.CreateEvent(ctx, event)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create event")
	}
	slog.Debug("event created", "uid", created.UID, "title", created.Title, "start_ts", created.StartTs)
	return created, nil
}

func (i *Integration) todaySummary(ctx context.Context) (intent.ActionResult, error) {
	now := i.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start, end := startOfDay.Unix(), startOfDay.AddDate(0, 0, 1).Unix()

	events, err := i.store.ListEvents(ctx, &store.FindEvent{StartTs: &start, EndTs: &end})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list today's events")
	}

	return &intent.Success{
		Msg:         "Today's schedule",
		ResultText:  formatSchedule(events, now.Location()),
		ShouldPaste: true,
	}, nil
}

func formatSchedule(events []*store.Event, loc *time.Location) string {
	if len(events) == 0 {
		return NoEventsToday
	}
	lines := []string{"Today's schedule:"}
	for _, e := range events {
		title := e.Title
		if title == "" {
			title = "Untitled"
		}
		lines = append(lines, fmt.Sprintf("- %s-%s: %s",
			time.Unix(e.StartTs, 0).In(loc).Format(timeLayout),
			time.Unix(e.EndTs, 0).In(loc).Format(timeLayout),
			title))
	}
	return strings.Join(lines, "\n")
}

// nextHour returns the first full hour strictly after t.
func nextHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
}
