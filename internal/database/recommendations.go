package database

import "context"

const recommendationColumns = `id, user_id, content, forecast, generated_at`

func scanRecommendation(row interface {
	Scan(dest ...interface{}) error
}) (HealthRecommendation, error) {
	var r HealthRecommendation
	err := row.Scan(&r.ID, &r.UserID, &r.Content, &r.Forecast, &r.GeneratedAt)
	return r, err
}

const createHealthRecommendation = `-- name: CreateHealthRecommendation :one
INSERT INTO health_recommendations (id, user_id, content, forecast)
VALUES ($1, $2, $3, $4)
RETURNING ` + recommendationColumns

type CreateHealthRecommendationParams struct {
	ID       string
	UserID   string
	Content  string
	Forecast []byte
}

func (q *Queries) CreateHealthRecommendation(ctx context.Context, arg CreateHealthRecommendationParams) (HealthRecommendation, error) {
	row := q.db.QueryRow(ctx, createHealthRecommendation,
		arg.ID, arg.UserID, arg.Content, arg.Forecast)
	return scanRecommendation(row)
}

const getLatestRecommendation = `-- name: GetLatestRecommendation :one
SELECT ` + recommendationColumns + ` FROM health_recommendations
WHERE user_id = $1
ORDER BY generated_at DESC
LIMIT 1`

func (q *Queries) GetLatestRecommendation(ctx context.Context, userID string) (HealthRecommendation, error) {
	return scanRecommendation(q.db.QueryRow(ctx, getLatestRecommendation, userID))
}

const listRecommendations = `-- name: ListRecommendations :many
SELECT ` + recommendationColumns + ` FROM health_recommendations
WHERE user_id = $1
ORDER BY generated_at DESC
LIMIT $2`

type ListRecommendationsParams struct {
	UserID string
	Limit  int32
}

func (q *Queries) ListRecommendations(ctx context.Context, arg ListRecommendationsParams) ([]HealthRecommendation, error) {
	rows, err := q.db.Query(ctx, listRecommendations, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []HealthRecommendation
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
