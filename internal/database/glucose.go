package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const glucoseColumns = `id, user_id, value, measured_at, note, created_at`

func scanGlucose(row interface {
	Scan(dest ...interface{}) error
}) (GlucoseMeasurement, error) {
	var g GlucoseMeasurement
	err := row.Scan(&g.ID, &g.UserID, &g.Value, &g.MeasuredAt, &g.Note, &g.CreatedAt)
	return g, err
}

const createGlucoseMeasurement = `-- name: CreateGlucoseMeasurement :one
INSERT INTO glucose_measurements (id, user_id, value, measured_at, note)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + glucoseColumns

type CreateGlucoseMeasurementParams struct {
	ID         string
	UserID     string
	Value      float64
	MeasuredAt pgtype.Timestamptz
	Note       pgtype.Text
}

func (q *Queries) CreateGlucoseMeasurement(ctx context.Context, arg CreateGlucoseMeasurementParams) (GlucoseMeasurement, error) {
	row := q.db.QueryRow(ctx, createGlucoseMeasurement,
		arg.ID, arg.UserID, arg.Value, arg.MeasuredAt, arg.Note)
	return scanGlucose(row)
}

const getGlucoseMeasurement = `-- name: GetGlucoseMeasurement :one
SELECT ` + glucoseColumns + ` FROM glucose_measurements WHERE id = $1`

func (q *Queries) GetGlucoseMeasurement(ctx context.Context, id string) (GlucoseMeasurement, error) {
	return scanGlucose(q.db.QueryRow(ctx, getGlucoseMeasurement, id))
}

const listGlucoseMeasurements = `-- name: ListGlucoseMeasurements :many
SELECT ` + glucoseColumns + ` FROM glucose_measurements
WHERE user_id = $1
  AND ($2::timestamptz IS NULL OR measured_at >= $2)
  AND ($3::timestamptz IS NULL OR measured_at <= $3)
  AND ($4::float8 IS NULL OR value >= $4)
  AND ($5::float8 IS NULL OR value <= $5)
ORDER BY measured_at DESC`

type ListGlucoseMeasurementsParams struct {
	UserID   string
	DateFrom pgtype.Timestamptz
	DateTo   pgtype.Timestamptz
	ValueMin pgtype.Float8
	ValueMax pgtype.Float8
}

func (q *Queries) ListGlucoseMeasurements(ctx context.Context, arg ListGlucoseMeasurementsParams) ([]GlucoseMeasurement, error) {
	rows, err := q.db.Query(ctx, listGlucoseMeasurements,
		arg.UserID, arg.DateFrom, arg.DateTo, arg.ValueMin, arg.ValueMax)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GlucoseMeasurement
	for rows.Next() {
		g, err := scanGlucose(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

const updateGlucoseMeasurement = `-- name: UpdateGlucoseMeasurement :one
UPDATE glucose_measurements SET
    value       = COALESCE($2, value),
    measured_at = COALESCE($3, measured_at),
    note        = COALESCE($4, note)
WHERE id = $1
RETURNING ` + glucoseColumns

type UpdateGlucoseMeasurementParams struct {
	ID         string
	Value      pgtype.Float8
	MeasuredAt pgtype.Timestamptz
	Note       pgtype.Text
}

func (q *Queries) UpdateGlucoseMeasurement(ctx context.Context, arg UpdateGlucoseMeasurementParams) (GlucoseMeasurement, error) {
	row := q.db.QueryRow(ctx, updateGlucoseMeasurement,
		arg.ID, arg.Value, arg.MeasuredAt, arg.Note)
	return scanGlucose(row)
}

const deleteGlucoseMeasurement = `-- name: DeleteGlucoseMeasurement :exec
DELETE FROM glucose_measurements WHERE id = $1`

func (q *Queries) DeleteGlucoseMeasurement(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteGlucoseMeasurement, id)
	return err
}

const listGlucoseSince = `-- name: ListGlucoseSince :many
SELECT ` + glucoseColumns + ` FROM glucose_measurements
WHERE user_id = $1 AND measured_at >= $2
ORDER BY measured_at ASC`

type ListGlucoseSinceParams struct {
	UserID string
	Since  pgtype.Timestamptz
}

func (q *Queries) ListGlucoseSince(ctx context.Context, arg ListGlucoseSinceParams) ([]GlucoseMeasurement, error) {
	rows, err := q.db.Query(ctx, listGlucoseSince, arg.UserID, arg.Since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GlucoseMeasurement
	for rows.Next() {
		g, err := scanGlucose(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

const listGlucoseForDoctor = `-- name: ListGlucoseForDoctor :many
SELECT g.id, g.user_id, g.value, g.measured_at, g.note, g.created_at
FROM glucose_measurements g
JOIN users u ON u.user_id = g.user_id
WHERE u.doctor_id = $1
  AND ($2::timestamptz IS NULL OR g.measured_at >= $2)
  AND ($3::timestamptz IS NULL OR g.measured_at <= $3)
  AND ($4::float8 IS NULL OR g.value >= $4)
  AND ($5::float8 IS NULL OR g.value <= $5)
ORDER BY g.measured_at DESC`

type ListGlucoseForDoctorParams struct {
	DoctorID string
	DateFrom pgtype.Timestamptz
	DateTo   pgtype.Timestamptz
	ValueMin pgtype.Float8
	ValueMax pgtype.Float8
}

func (q *Queries) ListGlucoseForDoctor(ctx context.Context, arg ListGlucoseForDoctorParams) ([]GlucoseMeasurement, error) {
	rows, err := q.db.Query(ctx, listGlucoseForDoctor,
		arg.DoctorID, arg.DateFrom, arg.DateTo, arg.ValueMin, arg.ValueMax)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GlucoseMeasurement
	for rows.Next() {
		g, err := scanGlucose(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}
