package messages

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/talkagent/internal/profile"
	"github.com/hrygo/talkagent/plugin/ai/handlers"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/router"
	"github.com/hrygo/talkagent/store"
	"github.com/hrygo/talkagent/store/db"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "messages.db")}
	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func listOutbox(t *testing.T, s *store.Store) []*store.Message {
	t.Helper()
	medium := store.MediumChat
	messages, err := s.ListMessages(context.Background(), &store.FindMessage{Medium: &medium})
	require.NoError(t, err)
	return messages
}

func TestRecipientAndBody(t *testing.T) {
	tests := []struct {
		name      string
		in        intent.Intent
		recipient string
		body      string
	}{
		{
			name:      "to and body parameters",
			in:        intent.New(intent.ActionCreate, "", map[string]string{intent.ParamTo: "Sam", intent.ParamBody: "running late"}, "Sam about running late", "x", 1),
			recipient: "Sam",
			body:      "running late",
		},
		{
			name:      "to parameter with content",
			in:        intent.New(intent.ActionCreate, "", map[string]string{intent.ParamTo: "Sam"}, "running late", "x", 1),
			recipient: "Sam",
			body:      "running late",
		},
		{
			name:      "split from content",
			in:        intent.New(intent.ActionReply, "", nil, "Alex that I'm late", "x", 1),
			recipient: "Alex",
			body:      "I'm late",
		},
		{
			name: "no recipient",
			in:   intent.New(intent.ActionReply, "", nil, "on my way", "x", 1),
			body: "on my way",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipient, body := RecipientAndBody(tt.in)
			assert.Equal(t, tt.recipient, recipient)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestIntegration_Create(t *testing.T) {
	s := newTestStore(t)
	i := New(s)

	in := intent.New(intent.ActionCreate, "", map[string]string{intent.ParamTo: "Sam"}, "see you at 6", "x", 0.9)
	r, err := i.Execute(context.Background(), in, intent.EmptyContext())
	require.NoError(t, err)
	require.True(t, r.OK(), r.Message())
	assert.Equal(t, "Message sent to Sam", r.Message())

	outbox := listOutbox(t, s)
	require.Len(t, outbox, 1)
	assert.Equal(t, "Sam", outbox[0].Recipient)
	assert.Equal(t, "see you at 6", outbox[0].Body)
	assert.Empty(t, outbox[0].InReplyTo)

	r, err = i.Execute(context.Background(), intent.New(intent.ActionCreate, "", nil, "hello", "x", 0.9), intent.EmptyContext())
	require.NoError(t, err)
	f := r.(*intent.Failure)
	assert.Equal(t, "No recipient specified", f.Msg)
	assert.True(t, f.Recoverable)
	assert.Equal(t, "Specify who to send the message to", f.Suggestion)
}

func TestIntegration_ReplyInOpenConversation(t *testing.T) {
	s := newTestStore(t)
	i := New(s)

	appCtx := intent.AppContext{AppID: AppID, AppName: "Messages", WindowTitle: "Family"}
	r, err := i.Execute(context.Background(), intent.New(intent.ActionReply, "", nil, "be there soon", "reply be there soon", 0.9), appCtx)
	require.NoError(t, err)
	require.True(t, r.OK(), r.Message())
	assert.Equal(t, "Reply sent in Messages", r.Message())

	outbox := listOutbox(t, s)
	require.Len(t, outbox, 1)
	assert.Equal(t, "Family", outbox[0].InReplyTo)
	assert.Equal(t, "be there soon", outbox[0].Body)

	r, err = i.Execute(context.Background(), intent.New(intent.ActionReply, "", nil, "", "reply", 0.9), appCtx)
	require.NoError(t, err)
	assert.Equal(t, "No message content provided", r.Message())
}

func TestIntegration_UnsupportedAndUnavailable(t *testing.T) {
	r, err := New(newTestStore(t)).Execute(context.Background(), intent.New(intent.ActionSummarize, "", nil, "x", "x", 1), intent.EmptyContext())
	require.NoError(t, err)
	f := r.(*intent.Failure)
	assert.Equal(t, "Messages does not support Summarize", f.Msg)
	assert.False(t, f.Recoverable)

	i := New(nil)
	assert.False(t, i.Available())
	r, err = i.Execute(context.Background(), intent.New(intent.ActionCreate, "", nil, "x", "x", 1), intent.EmptyContext())
	require.NoError(t, err)
	assert.ErrorIs(t, r.(*intent.Failure).Err, handlers.ErrIntegrationNotAvailable)
}

func TestIntegration_RoutedByMessagingRole(t *testing.T) {
	s := newTestStore(t)
	r := router.NewRouter()
	reply := router.NewMockProvider("reply", intent.ActionReply)
	r.RegisterHandler(reply)
	i := New(s)
	r.RegisterIntegration(i)
	r.RegisterRole(router.RoleMessaging, i)

	in := intent.New(intent.ActionReply, "", map[string]string{intent.ParamMedium: intent.MediumMessage},
		"Alex that I'm late", "send a message to Alex that I'm late", 0.8)

	_, tier := r.Resolve(in, intent.AppContext{AppID: "com.apple.Notes"})
	assert.Equal(t, router.TierTarget, tier)

	result, err := r.Route(context.Background(), in, intent.AppContext{AppID: "com.apple.Notes"})
	require.NoError(t, err)
	require.True(t, result.OK(), result.Message())
	assert.Equal(t, "Message sent to Alex", result.Message())
	assert.Zero(t, reply.CallCount())

	outbox := listOutbox(t, s)
	require.Len(t, outbox, 1)
	assert.Equal(t, "I'm late", outbox[0].Body)
}
