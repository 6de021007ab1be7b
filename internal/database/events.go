package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const eventColumns = `id, user_id, event_type, title, start_time, duration_minutes, end_time, calories, carbs, sugars, proteins, fats, steps, color, note, created_at`

func scanEvent(row interface {
	Scan(dest ...interface{}) error
}) (Event, error) {
	var e Event
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.EventType,
		&e.Title,
		&e.StartTime,
		&e.DurationMinutes,
		&e.EndTime,
		&e.Calories,
		&e.Carbs,
		&e.Sugars,
		&e.Proteins,
		&e.Fats,
		&e.Steps,
		&e.Color,
		&e.Note,
		&e.CreatedAt,
	)
	return e, err
}

func collectEvents(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}) ([]Event, error) {
	defer rows.Close()
	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const createEvent = `-- name: CreateEvent :one
INSERT INTO events (id, user_id, event_type, title, start_time, duration_minutes, end_time, calories, carbs, sugars, proteins, fats, steps, color, note)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING ` + eventColumns

type CreateEventParams struct {
	ID              string
	UserID          string
	EventType       string
	Title           pgtype.Text
	StartTime       pgtype.Timestamptz
	DurationMinutes pgtype.Int4
	EndTime         pgtype.Timestamptz
	Calories        pgtype.Float8
	Carbs           pgtype.Float8
	Sugars          pgtype.Float8
	Proteins        pgtype.Float8
	Fats            pgtype.Float8
	Steps           pgtype.Int4
	Color           pgtype.Text
	Note            pgtype.Text
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRow(ctx, createEvent,
		arg.ID,
		arg.UserID,
		arg.EventType,
		arg.Title,
		arg.StartTime,
		arg.DurationMinutes,
		arg.EndTime,
		arg.Calories,
		arg.Carbs,
		arg.Sugars,
		arg.Proteins,
		arg.Fats,
		arg.Steps,
		arg.Color,
		arg.Note,
	)
	return scanEvent(row)
}

const getEvent = `-- name: GetEvent :one
SELECT ` + eventColumns + ` FROM events WHERE id = $1`

func (q *Queries) GetEvent(ctx context.Context, id string) (Event, error) {
	return scanEvent(q.db.QueryRow(ctx, getEvent, id))
}

const listEvents = `-- name: ListEvents :many
SELECT ` + eventColumns + ` FROM events
WHERE user_id = $1
  AND ($2::text IS NULL OR event_type = $2)
  AND ($3::timestamptz IS NULL OR start_time >= $3)
  AND ($4::timestamptz IS NULL OR start_time <= $4)
ORDER BY start_time DESC`

type ListEventsParams struct {
	UserID    string
	EventType pgtype.Text
	DateFrom  pgtype.Timestamptz
	DateTo    pgtype.Timestamptz
}

func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	rows, err := q.db.Query(ctx, listEvents, arg.UserID, arg.EventType, arg.DateFrom, arg.DateTo)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

const updateEvent = `-- name: UpdateEvent :one
UPDATE events SET
    title            = COALESCE($2, title),
    start_time       = COALESCE($3, start_time),
    duration_minutes = COALESCE($4, duration_minutes),
    end_time         = COALESCE($5, end_time),
    calories         = COALESCE($6, calories),
    carbs            = COALESCE($7, carbs),
    sugars           = COALESCE($8, sugars),
    proteins         = COALESCE($9, proteins),
    fats             = COALESCE($10, fats),
    steps            = COALESCE($11, steps),
    color            = COALESCE($12, color),
    note             = COALESCE($13, note)
WHERE id = $1
RETURNING ` + eventColumns

type UpdateEventParams struct {
	ID              string
	Title           pgtype.Text
	StartTime       pgtype.Timestamptz
	DurationMinutes pgtype.Int4
	EndTime         pgtype.Timestamptz
	Calories        pgtype.Float8
	Carbs           pgtype.Float8
	Sugars          pgtype.Float8
	Proteins        pgtype.Float8
	Fats            pgtype.Float8
	Steps           pgtype.Int4
	Color           pgtype.Text
	Note            pgtype.Text
}

func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (Event, error) {
	row := q.db.QueryRow(ctx, updateEvent,
		arg.ID,
		arg.Title,
		arg.StartTime,
		arg.DurationMinutes,
		arg.EndTime,
		arg.Calories,
		arg.Carbs,
		arg.Sugars,
		arg.Proteins,
		arg.Fats,
		arg.Steps,
		arg.Color,
		arg.Note,
	)
	return scanEvent(row)
}

const deleteEvent = `-- name: DeleteEvent :exec
DELETE FROM events WHERE id = $1`

func (q *Queries) DeleteEvent(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteEvent, id)
	return err
}

const listEventsSince = `-- name: ListEventsSince :many
SELECT ` + eventColumns + ` FROM events
WHERE user_id = $1 AND start_time >= $2
ORDER BY start_time ASC`

type ListEventsSinceParams struct {
	UserID string
	Since  pgtype.Timestamptz
}

func (q *Queries) ListEventsSince(ctx context.Context, arg ListEventsSinceParams) ([]Event, error) {
	rows, err := q.db.Query(ctx, listEventsSince, arg.UserID, arg.Since)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

const listEventsForDoctor = `-- name: ListEventsForDoctor :many
SELECT e.id, e.user_id, e.event_type, e.title, e.start_time, e.duration_minutes, e.end_time, e.calories, e.carbs, e.sugars, e.proteins, e.fats, e.steps, e.color, e.note, e.created_at
FROM events e
JOIN users u ON u.user_id = e.user_id
WHERE u.doctor_id = $1
  AND ($2::text IS NULL OR e.event_type = $2)
  AND ($3::timestamptz IS NULL OR e.start_time >= $3)
  AND ($4::timestamptz IS NULL OR e.start_time <= $4)
ORDER BY e.start_time DESC`

type ListEventsForDoctorParams struct {
	DoctorID  string
	EventType pgtype.Text
	DateFrom  pgtype.Timestamptz
	DateTo    pgtype.Timestamptz
}

func (q *Queries) ListEventsForDoctor(ctx context.Context, arg ListEventsForDoctorParams) ([]Event, error) {
	rows, err := q.db.Query(ctx, listEventsForDoctor, arg.DoctorID, arg.EventType, arg.DateFrom, arg.DateTo)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}
