package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `user_id, email, password_hash, name, role, phone, telegram_id, telegram_username, doctor_id, email_verified, provider, provider_user_id, avatar_url, created_at, updated_at`

func scanUser(row interface {
	Scan(dest ...interface{}) error
}) (User, error) {
	var u User
	err := row.Scan(
		&u.UserID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.Phone,
		&u.TelegramID,
		&u.TelegramUsername,
		&u.DoctorID,
		&u.EmailVerified,
		&u.Provider,
		&u.ProviderUserID,
		&u.AvatarUrl,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (user_id, email, password_hash, name, role, phone, doctor_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

type CreateUserParams struct {
	UserID       string
	Email        string
	PasswordHash pgtype.Text
	Name         string
	Role         string
	Phone        pgtype.Text
	DoctorID     pgtype.Text
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.UserID,
		arg.Email,
		arg.PasswordHash,
		arg.Name,
		arg.Role,
		arg.Phone,
		arg.DoctorID,
	)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

func (q *Queries) GetUserByID(ctx context.Context, userID string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, userID))
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByTelegramID = `-- name: GetUserByTelegramID :one
SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

func (q *Queries) GetUserByTelegramID(ctx context.Context, telegramID int64) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByTelegramID, telegramID))
}

const checkEmailExists = `-- name: CheckEmailExists :one
SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`

func (q *Queries) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, checkEmailExists, email).Scan(&exists)
	return exists, err
}

const upsertOAuthUser = `-- name: UpsertOAuthUser :one
INSERT INTO users (user_id, email, name, role, provider, provider_user_id, avatar_url, email_verified)
VALUES ($1, $2, $3, 'user', $4, $5, $6, true)
ON CONFLICT (email) DO UPDATE SET
    name             = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
    provider         = EXCLUDED.provider,
    provider_user_id = EXCLUDED.provider_user_id,
    avatar_url       = COALESCE(EXCLUDED.avatar_url, users.avatar_url),
    email_verified   = true,
    updated_at       = now()
RETURNING ` + userColumns

type UpsertOAuthUserParams struct {
	UserID         string
	Email          string
	Name           string
	Provider       pgtype.Text
	ProviderUserID pgtype.Text
	AvatarUrl      pgtype.Text
}

func (q *Queries) UpsertOAuthUser(ctx context.Context, arg UpsertOAuthUserParams) (User, error) {
	row := q.db.QueryRow(ctx, upsertOAuthUser,
		arg.UserID,
		arg.Email,
		arg.Name,
		arg.Provider,
		arg.ProviderUserID,
		arg.AvatarUrl,
	)
	return scanUser(row)
}

const updateUserProfile = `-- name: UpdateUserProfile :one
UPDATE users SET
    name      = COALESCE($2, name),
    phone     = COALESCE($3, phone),
    doctor_id = COALESCE($4, doctor_id),
    updated_at = now()
WHERE user_id = $1
RETURNING ` + userColumns

type UpdateUserProfileParams struct {
	UserID   string
	Name     pgtype.Text
	Phone    pgtype.Text
	DoctorID pgtype.Text
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUserProfile, arg.UserID, arg.Name, arg.Phone, arg.DoctorID)
	return scanUser(row)
}

const updateUserPassword = `-- name: UpdateUserPassword :exec
UPDATE users SET password_hash = $2, updated_at = now() WHERE user_id = $1`

func (q *Queries) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := q.db.Exec(ctx, updateUserPassword, userID, passwordHash)
	return err
}

const setEmailVerified = `-- name: SetEmailVerified :exec
UPDATE users SET email_verified = true, updated_at = now() WHERE user_id = $1`

func (q *Queries) SetEmailVerified(ctx context.Context, userID string) error {
	_, err := q.db.Exec(ctx, setEmailVerified, userID)
	return err
}

const linkTelegramAccount = `-- name: LinkTelegramAccount :one
UPDATE users SET telegram_id = $2, telegram_username = $3, updated_at = now()
WHERE user_id = $1
RETURNING ` + userColumns

type LinkTelegramAccountParams struct {
	UserID           string
	TelegramID       pgtype.Int8
	TelegramUsername pgtype.Text
}

func (q *Queries) LinkTelegramAccount(ctx context.Context, arg LinkTelegramAccountParams) (User, error) {
	row := q.db.QueryRow(ctx, linkTelegramAccount, arg.UserID, arg.TelegramID, arg.TelegramUsername)
	return scanUser(row)
}

const getDoctorIDForUser = `-- name: GetDoctorIDForUser :one
SELECT doctor_id FROM users WHERE user_id = $1`

func (q *Queries) GetDoctorIDForUser(ctx context.Context, userID string) (pgtype.Text, error) {
	var doctorID pgtype.Text
	err := q.db.QueryRow(ctx, getDoctorIDForUser, userID).Scan(&doctorID)
	return doctorID, err
}

const isDoctorOfPatient = `-- name: IsDoctorOfPatient :one
SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1 AND doctor_id = $2)`

type IsDoctorOfPatientParams struct {
	PatientID string
	DoctorID  string
}

func (q *Queries) IsDoctorOfPatient(ctx context.Context, arg IsDoctorOfPatientParams) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, isDoctorOfPatient, arg.PatientID, arg.DoctorID).Scan(&ok)
	return ok, err
}
