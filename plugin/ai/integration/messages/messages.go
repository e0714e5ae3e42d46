// Package messages is the Messages app integration. Sent messages are kept
// in the local outbox.
package messages

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/talkagent/internal/observability"
	"github.com/hrygo/talkagent/plugin/ai/handlers"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/store"
)

// AppID is the bundle identifier of the Messages app.
const AppID = "com.apple.MobileSMS"

// bodySeparators split "Alex saying I'm late" into recipient and body.
var bodySeparators = []string{" saying ", " that ", " about ", " with "}

// Store is the persistence the integration needs. *store.Store implements it.
type Store interface {
	CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error)
}

// Integration sends messages to a named recipient or the open conversation.
type Integration struct {
	store Store
}

// New creates the integration. A nil store makes it unavailable.
func New(s Store) *Integration {
	return &Integration{store: s}
}

// Name returns the provider name.
func (i *Integration) Name() string { return "messages" }

// AppID returns the Messages bundle identifier.
func (i *Integration) AppID() string { return AppID }

// Available reports whether messages can be stored.
func (i *Integration) Available() bool { return i.store != nil }

// SupportedActions returns reply and create.
func (i *Integration) SupportedActions() []intent.ActionType {
	return []intent.ActionType{intent.ActionReply, intent.ActionCreate}
}

// Execute sends the message described by in.
func (i *Integration) Execute(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error) {
	if !i.Available() {
		return intent.Failed("Messages is not available", handlers.ErrIntegrationNotAvailable), nil
	}

	switch in.Action {
	case intent.ActionReply:
		if conversation := openConversation(appCtx); conversation != "" {
			body := in.Content
			if body == "" {
				return intent.RecoverableFailure("No message content provided", nil, "Say what you want to reply with"), nil
			}
			if _, err := i.send(ctx, conversation, body, conversation); err != nil {
				return nil, err
			}
			return &intent.Success{
				Msg:      "Reply sent in Messages",
				Metadata: map[string]string{"action": "reply", intent.ParamTo: conversation},
			}, nil
		}
		return i.sendTo(ctx, in)
	case intent.ActionCreate:
		return i.sendTo(ctx, in)
	default:
		return intent.Failed(fmt.Sprintf("Messages does not support %s", in.Action.DisplayName()), nil), nil
	}
}

func (i *Integration) sendTo(ctx context.Context, in intent.Intent) (intent.ActionResult, error) {
	recipient, body := RecipientAndBody(in)
	if recipient == "" {
		return intent.RecoverableFailure("No recipient specified", handlers.ErrInvalidParameters,
			"Specify who to send the message to"), nil
	}
	if body == "" {
		return intent.RecoverableFailure("No message content provided", nil, "Say what the message should say"), nil
	}

	message, err := i.send(ctx, recipient, body, "")
	if err != nil {
		return nil, err
	}
	return &intent.Success{
		Msg:      fmt.Sprintf("Message sent to %s", recipient),
		Metadata: map[string]string{intent.ParamTo: recipient, "uid": message.UID},
	}, nil
}

func (i *Integration) send(ctx context.Context, recipient, body, inReplyTo string) (*store.Message, error) {
	message, err := i.store.CreateMessage(ctx, &store.Message{
		Medium:    store.MediumChat,
		Recipient: recipient,
		Body:      body,
		InReplyTo: inReplyTo,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to send message")
	}
	observability.LoggerFrom(ctx).Debug("message sent", "uid", message.UID, "recipient", recipient)
	return message, nil
}

// openConversation returns the conversation shown by a frontmost Messages window.
func openConversation(appCtx intent.AppContext) string {
	if appCtx.AppID != AppID {
		return ""
	}
	return strings.TrimSpace(appCtx.WindowTitle)
}

// RecipientAndBody reads the recipient from the "to" parameter, or splits it
// off the front of the content ("Alex saying I'm late").
func RecipientAndBody(in intent.Intent) (string, string) {
	if to := strings.TrimSpace(in.Param(intent.ParamTo)); to != "" {
		if body := in.Param(intent.ParamBody); body != "" {
			return to, body
		}
		return to, in.Content
	}

	content := strings.TrimSpace(in.Content)
	lower := strings.ToLower(content)
	for _, sep := range bodySeparators {
		if j := strings.Index(lower, sep); j > 0 {
			return strings.TrimSpace(content[:j]), strings.TrimSpace(content[j+len(sep):])
		}
	}
	return "", content
}
