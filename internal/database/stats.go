package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listPatientsByDoctor = `-- name: ListPatientsByDoctor :many
SELECT u.user_id, u.email, u.name, u.phone, u.telegram_username, u.created_at,
    (SELECT g.value FROM glucose_measurements g
     WHERE g.user_id = u.user_id
     ORDER BY g.measured_at DESC LIMIT 1) AS last_glucose,
    (SELECT AVG(g.value) FROM glucose_measurements g
     WHERE g.user_id = u.user_id AND g.measured_at >= now() - interval '7 days') AS avg_glucose,
    (SELECT COUNT(*) FROM events e WHERE e.user_id = u.user_id) AS total_events
FROM users u
WHERE u.doctor_id = $1
  AND ($2::text IS NULL OR u.name ILIKE '%' || $2 || '%' OR u.email ILIKE '%' || $2 || '%')
ORDER BY u.name ASC`

type ListPatientsByDoctorParams struct {
	DoctorID string
	Search   pgtype.Text
}

type PatientOverviewRow struct {
	UserID           string             `json:"user_id"`
	Email            string             `json:"email"`
	Name             string             `json:"name"`
	Phone            pgtype.Text        `json:"phone"`
	TelegramUsername pgtype.Text        `json:"telegram_username"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	LastGlucose      pgtype.Float8      `json:"last_glucose"`
	AvgGlucose       pgtype.Float8      `json:"avg_glucose"`
	TotalEvents      int64              `json:"total_events"`
}

func (q *Queries) ListPatientsByDoctor(ctx context.Context, arg ListPatientsByDoctorParams) ([]PatientOverviewRow, error) {
	rows, err := q.db.Query(ctx, listPatientsByDoctor, arg.DoctorID, arg.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PatientOverviewRow
	for rows.Next() {
		var p PatientOverviewRow
		if err := rows.Scan(
			&p.UserID,
			&p.Email,
			&p.Name,
			&p.Phone,
			&p.TelegramUsername,
			&p.CreatedAt,
			&p.LastGlucose,
			&p.AvgGlucose,
			&p.TotalEvents,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const countPatientsByDoctor = `-- name: CountPatientsByDoctor :one
SELECT COUNT(*) FROM users WHERE doctor_id = $1`

func (q *Queries) CountPatientsByDoctor(ctx context.Context, doctorID string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countPatientsByDoctor, doctorID).Scan(&n)
	return n, err
}

const countActivePatientsByDoctor = `-- name: CountActivePatientsByDoctor :one
SELECT COUNT(DISTINCT u.user_id)
FROM users u
WHERE u.doctor_id = $1
  AND (EXISTS (SELECT 1 FROM glucose_measurements g
               WHERE g.user_id = u.user_id AND g.measured_at >= now() - interval '7 days')
    OR EXISTS (SELECT 1 FROM events e
               WHERE e.user_id = u.user_id AND e.start_time >= now() - interval '7 days'))`

func (q *Queries) CountActivePatientsByDoctor(ctx context.Context, doctorID string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countActivePatientsByDoctor, doctorID).Scan(&n)
	return n, err
}

const avgGlucoseAcrossPatients = `-- name: AvgGlucoseAcrossPatients :one
SELECT AVG(g.value)
FROM glucose_measurements g
JOIN users u ON u.user_id = g.user_id
WHERE u.doctor_id = $1 AND g.measured_at >= now() - interval '7 days'`

func (q *Queries) AvgGlucoseAcrossPatients(ctx context.Context, doctorID string) (pgtype.Float8, error) {
	var avg pgtype.Float8
	err := q.db.QueryRow(ctx, avgGlucoseAcrossPatients, doctorID).Scan(&avg)
	return avg, err
}

const listCriticalReadings = `-- name: ListCriticalReadings :many
SELECT g.id, g.user_id, u.name AS patient_name, g.value, g.measured_at
FROM glucose_measurements g
JOIN users u ON u.user_id = g.user_id
WHERE u.doctor_id = $1 AND (g.value > $2 OR g.value < $3)
ORDER BY g.measured_at DESC
LIMIT $4`

type ListCriticalReadingsParams struct {
	DoctorID string
	High     float64
	Low      float64
	Limit    int32
}

type CriticalReadingRow struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	PatientName string             `json:"patient_name"`
	Value       float64            `json:"value"`
	MeasuredAt  pgtype.Timestamptz `json:"measured_at"`
}

func (q *Queries) ListCriticalReadings(ctx context.Context, arg ListCriticalReadingsParams) ([]CriticalReadingRow, error) {
	rows, err := q.db.Query(ctx, listCriticalReadings, arg.DoctorID, arg.High, arg.Low, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CriticalReadingRow
	for rows.Next() {
		var r CriticalReadingRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.PatientName, &r.Value, &r.MeasuredAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
