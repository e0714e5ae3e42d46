package store

import (
	"context"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// MessageMedium is the channel an outbound message is written for.
type MessageMedium string

const (
	MediumEmail MessageMedium = "email"
	MediumChat  MessageMedium = "chat"
)

// Message is an outbound message written by voice: an email draft or a chat message.
type Message struct {
	ID  int32
	UID string

	Medium    MessageMedium
	Recipient string
	Subject   string
	Body      string
	// InReplyTo names the conversation or email being answered, empty for new messages.
	InReplyTo string

	CreatedTs int64
}

type FindMessage struct {
	ID     *int32
	UID    *string
	Medium *MessageMedium
	// Recipient matches case-insensitively.
	Recipient *string

	Limit *int
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	switch create.Medium {
	case MediumEmail, MediumChat:
	default:
		return nil, errors.Errorf("unknown message medium %q", create.Medium)
	}
	if strings.TrimSpace(create.Body) == "" && strings.TrimSpace(create.Subject) == "" {
		return nil, errors.New("message body is required")
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	return s.driver.CreateMessage(ctx, create)
}

// ListMessages returns matching messages, newest first.
func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}
