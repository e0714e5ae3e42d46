package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/talkagent/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	fields := []string{"uid", "medium", "recipient", "subject", "body", "in_reply_to"}
	args := []any{create.UID, string(create.Medium), create.Recipient, create.Subject, create.Body, create.InReplyTo}

	if create.CreatedTs != 0 {
		fields, args = append(fields, "created_ts"), append(args, create.CreatedTs)
	}

	stmt := `INSERT INTO message (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID, &create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "message.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "message.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Medium; v != nil {
		where, args = append(where, "message.medium = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := find.Recipient; v != nil {
		where, args = append(where, "message.recipient = "+placeholder(len(args)+1)+" COLLATE NOCASE"), append(args, *v)
	}

	query := `
		SELECT id, uid, medium, recipient, subject, body, in_reply_to, created_ts
		FROM message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY message.created_ts DESC, message.id DESC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	list := []*store.Message{}
	for rows.Next() {
		var message store.Message
		var medium string
		if err := rows.Scan(
			&message.ID,
			&message.UID,
			&medium,
			&message.Recipient,
			&message.Subject,
			&message.Body,
			&message.InReplyTo,
			&message.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		message.Medium = store.MessageMedium(medium)
		list = append(list, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return list, nil
}
