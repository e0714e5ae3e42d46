package calendar

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/talkagent/internal/profile"
	"github.com/hrygo/talkagent/plugin/ai"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/store"
	"github.com/hrygo/talkagent/store/db"
)

var fixedNow = time.Date(2026, 3, 4, 10, 20, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "calendar.db")}
	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func newIntegration(s Store, service ai.GenerationService) *Integration {
	i := New(s, service)
	i.now = func() time.Time { return fixedNow }
	return i
}

func createIntent(content string) intent.Intent {
	return intent.New(intent.ActionCreate, "event", nil, content, "schedule "+content, 0.9)
}

func onlyEvent(t *testing.T, s *store.Store) *store.Event {
	t.Helper()
	events, err := s.ListEvents(context.Background(), &store.FindEvent{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	return events[0]
}

func TestCreate_Extracted(t *testing.T) {
	s := newTestStore(t)
	mock := ai.NewMockGenerationService("```json\n" + `{"title":"Dentist","date":"2026-03-05","start_time":"14:30","duration_minutes":45,"location":"Main St","notes":null}` + "\n```")
	i := newIntegration(s, mock)

	r, err := i.Execute(context.Background(), createIntent("dentist tomorrow at 2:30"), intent.EmptyContext())
	require.NoError(t, err)
	require.True(t, r.OK())
	assert.Equal(t, `Event "Dentist" created for Mar 5, 2026 at 2:30 PM`, r.Message())
	assert.Equal(t, ai.EventExtractionPrompt, mock.Calls()[0].Prompt)

	e := onlyEvent(t, s)
	start := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, start.Unix(), e.StartTs)
	assert.Equal(t, start.Add(45*time.Minute).Unix(), e.EndTs)
	assert.Equal(t, "Main St", e.Location)
	assert.Empty(t, e.Notes)
}

func TestCreate_Defaults(t *testing.T) {
	s := newTestStore(t)
	i := newIntegration(s, ai.NewMockGenerationService(`{"title":"Sync","date":"someday","duration_minutes":"long"}`))

	_, err := i.Execute(context.Background(), createIntent("sync"), intent.EmptyContext())
	require.NoError(t, err)

	e := onlyEvent(t, s)
	start := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, start.Unix(), e.StartTs)
	assert.Equal(t, start.Add(DefaultDuration).Unix(), e.EndTs)
}

func TestCreate_Fallback(t *testing.T) {
	failing := ai.NewMockGenerationService()
	failing.SetError(ai.ErrConnectionFailed)

	tests := []struct {
		name    string
		service ai.GenerationService
	}{
		{"no service", nil},
		{"unconfigured", ai.NewUnconfiguredService()},
		{"service error", failing},
		{"no title", ai.NewMockGenerationService(`{"date":"2026-03-05"}`)},
		{"not json", ai.NewMockGenerationService("Sure, I created it")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			r, err := newIntegration(s, tt.service).Execute(context.Background(), createIntent("lunch with Ana"), intent.EmptyContext())
			require.NoError(t, err)
			assert.Equal(t, `Event "lunch with Ana" created`, r.Message())

			e := onlyEvent(t, s)
			assert.Equal(t, "lunch with Ana", e.Title)
			assert.Equal(t, time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC).Unix(), e.StartTs)
			assert.Equal(t, int64(DefaultDuration.Seconds()), e.EndTs-e.StartTs)
		})
	}
}

func TestSummarize(t *testing.T) {
	s := newTestStore(t)
	i := newIntegration(s, nil)
	ctx := context.Background()

	r, err := i.Execute(ctx, intent.New(intent.ActionSummarize, "", nil, "", "what's on today", 0.9), intent.EmptyContext())
	require.NoError(t, err)
	success := r.(*intent.Success)
	assert.Equal(t, NoEventsToday, success.ResultText)
	assert.True(t, success.ShouldPaste)

	at := func(h, m int) int64 { return time.Date(2026, 3, 4, h, m, 0, 0, time.UTC).Unix() }
	for _, e := range []*store.Event{
		{Title: "Lunch", StartTs: at(12, 0), EndTs: at(13, 0)},
		{Title: "Standup", StartTs: at(9, 0), EndTs: at(9, 15)},
		{Title: "Tomorrow", StartTs: at(24+9, 0), EndTs: at(24+10, 0)},
	} {
		_, err := s.CreateEvent(ctx, e)
		require.NoError(t, err)
	}

	r, err = i.Execute(ctx, intent.New(intent.ActionSummarize, "", nil, "", "what's on today", 0.9), intent.EmptyContext())
	require.NoError(t, err)
	assert.Equal(t, "Today's schedule", r.Message())
	assert.Equal(t, "Today's schedule:\n- 9:00 AM-9:15 AM: Standup\n- 12:00 PM-1:00 PM: Lunch", r.(*intent.Success).ResultText)
}

func TestUnavailableAndUnsupported(t *testing.T) {
	r, err := New(nil, nil).Execute(context.Background(), createIntent("x"), intent.EmptyContext())
	require.NoError(t, err)
	f := r.(*intent.Failure)
	assert.True(t, f.Recoverable)

	r, err = newIntegration(newTestStore(t), nil).Execute(context.Background(), intent.Dictation("x"), intent.EmptyContext())
	require.NoError(t, err)
	assert.Equal(t, "Calendar does not support Dictate", r.Message())
}

func TestNextHour(t *testing.T) {
	assert.Equal(t, time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC), nextHour(fixedNow))
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), nextHour(time.Date(2026, 3, 4, 23, 0, 0, 0, time.UTC)))
}
