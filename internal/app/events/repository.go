package events

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/noteloom/workspace/internal/calendar"
)

const createEventsTableSQL = `
CREATE TABLE IF NOT EXISTS calendar_events (
  event_id text PRIMARY KEY,
  workspace_id text NOT NULL,
  title text NOT NULL,
  description text NOT NULL DEFAULT '',
  start_time bigint NOT NULL,
  end_time bigint NOT NULL,
  document_id text NOT NULL DEFAULT '',
  event_type text NOT NULL,
  color text NOT NULL DEFAULT '',
  priority text NOT NULL DEFAULT '',
  is_all_day boolean NOT NULL DEFAULT false,
  created_at timestamptz NOT NULL,
  updated_at timestamptz NOT NULL
)`

const createEventsRangeIndexSQL = `
CREATE INDEX IF NOT EXISTS calendar_events_range_idx
ON calendar_events (workspace_id, start_time, end_time)
`

const eventColumns = `
event_id, workspace_id, title, description, start_time, end_time,
document_id, event_type, color, priority, is_all_day, created_at, updated_at`

const insertEventSQL = `
INSERT INTO calendar_events (` + eventColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

const selectEventSQL = `
SELECT ` + eventColumns + `
FROM calendar_events
WHERE event_id = $1
`

// An event belongs to a range when it starts inside it, ends inside it, or
// spans across it entirely.
const queryRangeSQL = `
SELECT ` + eventColumns + `
FROM calendar_events
WHERE workspace_id = $1
  AND (
    (start_time >= $2 AND start_time <= $3) OR
    (end_time >= $2 AND end_time <= $3) OR
    (start_time <= $2 AND end_time >= $3)
  )
ORDER BY start_time ASC
`

const eventsForDocumentSQL = `
SELECT ` + eventColumns + `
FROM calendar_events
WHERE document_id = $1
ORDER BY start_time ASC
`

const updateEventSQL = `
UPDATE calendar_events
SET title = $2, description = $3, start_time = $4, end_time = $5,
    document_id = $6, event_type = $7, color = $8, priority = $9,
    is_all_day = $10, updated_at = $11
WHERE event_id = $1
`

const deleteEventSQL = `
DELETE FROM calendar_events WHERE event_id = $1
`

const deleteEventsForDocumentSQL = `
DELETE FROM calendar_events WHERE document_id = $1
`

type PostgresRepository struct {
	Pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, createEventsTableSQL); err != nil {
		return err
	}
	_, err := r.Pool.Exec(ctx, createEventsRangeIndexSQL)
	return err
}

func (r *PostgresRepository) CreateEvent(ctx context.Context, e calendar.Event) error {
	_, err := r.Pool.Exec(ctx, insertEventSQL,
		e.ID, e.WorkspaceID, e.Title, e.Description, e.StartTime, e.EndTime,
		e.DocumentID, string(e.Type), e.Color, string(e.Priority), e.IsAllDay,
		e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) GetEvent(ctx context.Context, id string) (calendar.Event, error) {
	e, err := scanEvent(r.Pool.QueryRow(ctx, selectEventSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return calendar.Event{}, ErrNotFound
		}
		return calendar.Event{}, err
	}
	return e, nil
}

func (r *PostgresRepository) QueryRange(ctx context.Context, workspaceID string, startMS, endMS int64) ([]calendar.Event, error) {
	rows, err := r.Pool.Query(ctx, queryRangeSQL, workspaceID, startMS, endMS)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (r *PostgresRepository) EventsForDocument(ctx context.Context, documentID string) ([]calendar.Event, error) {
	rows, err := r.Pool.Query(ctx, eventsForDocumentSQL, documentID)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (r *PostgresRepository) UpdateEvent(ctx context.Context, e calendar.Event) error {
	tag, err := r.Pool.Exec(ctx, updateEventSQL,
		e.ID, e.Title, e.Description, e.StartTime, e.EndTime,
		e.DocumentID, string(e.Type), e.Color, string(e.Priority), e.IsAllDay,
		e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteEvent(ctx context.Context, id string) error {
	tag, err := r.Pool.Exec(ctx, deleteEventSQL, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteEventsForDocument(ctx context.Context, documentID string) error {
	_, err := r.Pool.Exec(ctx, deleteEventsForDocumentSQL, documentID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (calendar.Event, error) {
	var e calendar.Event
	var eventType, priority string
	err := row.Scan(
		&e.ID, &e.WorkspaceID, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
		&e.DocumentID, &eventType, &e.Color, &priority, &e.IsAllDay,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return calendar.Event{}, err
	}
	e.Type = calendar.EventType(eventType)
	e.Priority = calendar.Priority(priority)
	return e, nil
}

func scanEvents(rows pgx.Rows) ([]calendar.Event, error) {
	defer rows.Close()
	result := make([]calendar.Event, 0, 32)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
