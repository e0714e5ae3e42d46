// Package mail is the Mail app integration. Replies and new emails are kept
// as drafts in the local store.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/talkagent/internal/observability"
	"github.com/hrygo/talkagent/plugin/ai"
	"github.com/hrygo/talkagent/plugin/ai/handlers"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/store"
)

const (
	// AppID is the bundle identifier of the Mail app.
	AppID = "com.apple.mail"

	// MaxSummaryInput bounds the email text sent for summarization, in runes.
	MaxSummaryInput = 4000
)

// VariantAppIDs are other email clients the integration answers for.
var VariantAppIDs = []string{
	"com.readdle.SparkDesktop.appstore",
	"com.readdle.SparkDesktop",
	"com.readdle.smartemail-macos",
	"com.microsoft.Outlook",
}

// Store is the persistence the integration needs. *store.Store implements it.
type Store interface {
	CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error)
}

// Integration drafts replies, composes new emails and summarizes the selected email.
type Integration struct {
	store   Store
	service ai.GenerationService
}

// New creates the integration. A nil store makes it unavailable. service may
// be nil; drafts then keep the dictated wording and summaries fail.
func New(s Store, service ai.GenerationService) *Integration {
	return &Integration{store: s, service: service}
}

// Name returns the provider name.
func (i *Integration) Name() string { return "mail" }

// AppID returns the Mail bundle identifier.
func (i *Integration) AppID() string { return AppID }

// Available reports whether drafts can be stored.
func (i *Integration) Available() bool { return i.store != nil }

// SupportedActions returns reply, create and summarize.
func (i *Integration) SupportedActions() []intent.ActionType {
	return []intent.ActionType{intent.ActionReply, intent.ActionCreate, intent.ActionSummarize}
}

// Execute performs in against the draft store.
func (i *Integration) Execute(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error) {
	if !i.Available() {
		return intent.Failed("Mail is not available", handlers.ErrIntegrationNotAvailable), nil
	}

	switch in.Action {
	case intent.ActionReply:
		return i.reply(ctx, in, appCtx)
	case intent.ActionCreate:
		return i.compose(ctx, in)
	case intent.ActionSummarize:
		return i.summarize(ctx, appCtx), nil
	default:
		return intent.Failed(fmt.Sprintf("Mail does not support %s", in.Action.DisplayName()), nil), nil
	}
}

// reply drafts an answer to the email open in the frontmost client, or a new
// draft to the spoken recipient when no email is open.
func (i *Integration) reply(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error) {
	body := bodyOf(in)
	if body == "" {
		return intent.RecoverableFailure("No reply content provided", nil, "Say what you want to reply with"), nil
	}

	var inReplyTo string
	if appCtx.IsEmailClient() {
		inReplyTo = appCtx.WindowTitle
	}
	recipient := in.Param(intent.ParamTo)
	if inReplyTo == "" && recipient == "" {
		return intent.RecoverableFailure("No email selected in Mail", nil,
			"Select an email in Mail first or say who to write to"), nil
	}

	if i.service != nil && i.service.IsConfigured() {
		enhanced, err := i.service.Enhance(ctx, body, ai.EmailReplyPrompt)
		if err != nil {
			return intent.RecoverableFailure(fmt.Sprintf("Failed to draft reply: %v", err), err, handlers.LLMSuggestion), nil
		}
		body = enhanced
	}

	draft, err := i.store.CreateMessage(ctx, &store.Message{
		Medium:    store.MediumEmail,
		Recipient: recipient,
		Subject:   replySubject(inReplyTo),
		Body:      body,
		InReplyTo: inReplyTo,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to save reply draft")
	}
	observability.LoggerFrom(ctx).Debug("reply drafted", "uid", draft.UID, "in_reply_to", inReplyTo)

	return &intent.Success{
		Msg:        "Reply drafted in Mail",
		ResultText: body,
		Metadata:   map[string]string{"action": "reply", "uid": draft.UID},
	}, nil
}

func (i *Integration) compose(ctx context.Context, in intent.Intent) (intent.ActionResult, error) {
	to := in.Param(intent.ParamTo)
	subject := in.Param(intent.ParamSubject)
	body := bodyOf(in)
	if body == "" && subject == "" {
		return intent.RecoverableFailure("No email content provided", nil, "Say what the email should say"), nil
	}

	draft, err := i.store.CreateMessage(ctx, &store.Message{
		Medium:    store.MediumEmail,
		Recipient: to,
		Subject:   subject,
		Body:      body,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to save email draft")
	}
	observability.LoggerFrom(ctx).Debug("email composed", "uid", draft.UID)

	return &intent.Success{
		Msg:      "New email composed",
		Metadata: map[string]string{intent.ParamTo: to, intent.ParamSubject: subject, "uid": draft.UID},
	}, nil
}

func (i *Integration) summarize(ctx context.Context, appCtx intent.AppContext) intent.ActionResult {
	text := appCtx.SelectedText
	if text == "" {
		return intent.RecoverableFailure("No email selected to summarize", handlers.ErrNoSelectedText,
			"Select the text of an email first")
	}
	if appCtx.WindowTitle != "" {
		text = "Subject: " + appCtx.WindowTitle + "\n\n" + text
	}
	if r := []rune(text); len(r) > MaxSummaryInput {
		text = string(r[:MaxSummaryInput])
	}

	if i.service == nil || !i.service.IsConfigured() {
		return intent.RecoverableFailure("Failed to summarize email: "+ai.ErrNotConfigured.Error(), ai.ErrNotConfigured, handlers.LLMSuggestion)
	}
	summary, err := i.service.Enhance(ctx, text, ai.SummarizationPrompt)
	if err != nil {
		return intent.RecoverableFailure(fmt.Sprintf("Failed to summarize email: %v", err), err, handlers.LLMSuggestion)
	}
	return &intent.Success{
		Msg:         "Email summarized",
		ResultText:  summary,
		ShouldPaste: true,
	}
}

// bodyOf prefers the body split out of "to X about Y" phrasing.
func bodyOf(in intent.Intent) string {
	if body := in.Param(intent.ParamBody); body != "" {
		return body
	}
	return in.Content
}

func replySubject(subject string) string {
	if subject == "" || strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
