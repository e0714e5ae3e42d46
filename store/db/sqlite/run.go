package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/talkagent/store"
)

func (d *DB) CreateRun(ctx context.Context, create *store.Run) (*store.Run, error) {
	fields := []string{"uid", "transcription", "app_id", "action", "source", "success", "message", "duration_ms"}
	args := []any{
		create.UID, create.Transcription, create.AppID, create.Action,
		create.Source, create.Success, create.Message, create.DurationMs,
	}

	if create.CreatedTs != 0 {
		fields, args = append(fields, "created_ts"), append(args, create.CreatedTs)
	}

	stmt := `INSERT INTO run (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID, &create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return create, nil
}

func (d *DB) ListRuns(ctx context.Context, find *store.FindRun) ([]*store.Run, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UID; v != nil {
		where, args = append(where, "run.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Action; v != nil {
		where, args = append(where, "run.action = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Success; v != nil {
		where, args = append(where, "run.success = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, transcription, app_id, action, source, success, message, duration_ms, created_ts
		FROM run
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY run.created_ts DESC, run.id DESC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	list := []*store.Run{}
	for rows.Next() {
		var run store.Run
		if err := rows.Scan(
			&run.ID,
			&run.UID,
			&run.Transcription,
			&run.AppID,
			&run.Action,
			&run.Source,
			&run.Success,
			&run.Message,
			&run.DurationMs,
			&run.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		list = append(list, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return list, nil
}
