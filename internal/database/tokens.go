package database

import (
	"context"
	"net/netip"

	"github.com/jackc/pgx/v5/pgtype"
)

const refreshTokenColumns = `id, user_id, token_hash, device_info, ip_address, expires_at, revoked_at, created_at`

func scanRefreshToken(row interface {
	Scan(dest ...interface{}) error
}) (RefreshToken, error) {
	var t RefreshToken
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.DeviceInfo,
		&t.IpAddress,
		&t.ExpiresAt,
		&t.RevokedAt,
		&t.CreatedAt,
	)
	return t, err
}

const createRefreshToken = `-- name: CreateRefreshToken :one
INSERT INTO refresh_tokens (id, user_id, token_hash, device_info, ip_address, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + refreshTokenColumns

type CreateRefreshTokenParams struct {
	ID         string
	UserID     string
	TokenHash  string
	DeviceInfo pgtype.Text
	IpAddress  *netip.Addr
	ExpiresAt  pgtype.Timestamptz
}

func (q *Queries) CreateRefreshToken(ctx context.Context, arg CreateRefreshTokenParams) (RefreshToken, error) {
	row := q.db.QueryRow(ctx, createRefreshToken,
		arg.ID,
		arg.UserID,
		arg.TokenHash,
		arg.DeviceInfo,
		arg.IpAddress,
		arg.ExpiresAt,
	)
	return scanRefreshToken(row)
}

const getRefreshTokenByHash = `-- name: GetRefreshTokenByHash :one
SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token_hash = $1`

func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (RefreshToken, error) {
	return scanRefreshToken(q.db.QueryRow(ctx, getRefreshTokenByHash, tokenHash))
}

const revokeRefreshToken = `-- name: RevokeRefreshToken :exec
UPDATE refresh_tokens SET revoked_at = now() WHERE id = $1`

func (q *Queries) RevokeRefreshToken(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, revokeRefreshToken, id)
	return err
}

const revokeAllUserRefreshTokens = `-- name: RevokeAllUserRefreshTokens :exec
UPDATE refresh_tokens SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`

func (q *Queries) RevokeAllUserRefreshTokens(ctx context.Context, userID string) error {
	_, err := q.db.Exec(ctx, revokeAllUserRefreshTokens, userID)
	return err
}

const deleteExpiredRefreshTokens = `-- name: DeleteExpiredRefreshTokens :exec
DELETE FROM refresh_tokens WHERE expires_at < now()`

func (q *Queries) DeleteExpiredRefreshTokens(ctx context.Context) error {
	_, err := q.db.Exec(ctx, deleteExpiredRefreshTokens)
	return err
}
