package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const telegramCodeColumns = `id, user_id, code, expires_at, used, created_at`

func scanTelegramCode(row interface {
	Scan(dest ...interface{}) error
}) (TelegramAuthCode, error) {
	var t TelegramAuthCode
	err := row.Scan(&t.ID, &t.UserID, &t.Code, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	return t, err
}

const createTelegramAuthCode = `-- name: CreateTelegramAuthCode :one
INSERT INTO telegram_auth_codes (id, user_id, code, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + telegramCodeColumns

type CreateTelegramAuthCodeParams struct {
	ID        string
	UserID    string
	Code      string
	ExpiresAt pgtype.Timestamptz
}

func (q *Queries) CreateTelegramAuthCode(ctx context.Context, arg CreateTelegramAuthCodeParams) (TelegramAuthCode, error) {
	row := q.db.QueryRow(ctx, createTelegramAuthCode,
		arg.ID, arg.UserID, arg.Code, arg.ExpiresAt)
	return scanTelegramCode(row)
}

const getActiveTelegramAuthCode = `-- name: GetActiveTelegramAuthCode :one
SELECT ` + telegramCodeColumns + ` FROM telegram_auth_codes
WHERE code = $1 AND NOT used AND expires_at > now()
ORDER BY created_at DESC
LIMIT 1`

func (q *Queries) GetActiveTelegramAuthCode(ctx context.Context, code string) (TelegramAuthCode, error) {
	return scanTelegramCode(q.db.QueryRow(ctx, getActiveTelegramAuthCode, code))
}

const markTelegramCodeUsed = `-- name: MarkTelegramCodeUsed :exec
UPDATE telegram_auth_codes SET used = true WHERE id = $1`

func (q *Queries) MarkTelegramCodeUsed(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, markTelegramCodeUsed, id)
	return err
}

const deleteExpiredTelegramCodes = `-- name: DeleteExpiredTelegramCodes :exec
DELETE FROM telegram_auth_codes WHERE expires_at < now() OR used`

func (q *Queries) DeleteExpiredTelegramCodes(ctx context.Context) error {
	_, err := q.db.Exec(ctx, deleteExpiredTelegramCodes)
	return err
}
