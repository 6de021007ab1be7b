// Package user exposes profile management for the authenticated account.
package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/utility"
)

// Store is the subset of database queries this package needs.
type Store interface {
	GetUserByID(ctx context.Context, userID string) (database.User, error)
	UpdateUserProfile(ctx context.Context, arg database.UpdateUserProfileParams) (database.User, error)
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error
}

var queries Store

func InitUserPackage(dbpool *pgxpool.Pool) {
	queries = database.New(dbpool)
}

// UpdateProfileRequest uses pointers so omitted fields keep their
// current values (COALESCE in the update query).
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	DoctorID *string `json:"doctor_id"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// GetProfileHandler handles GET /profile.
func GetProfileHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	user, err := queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateProfileHandler handles PUT /profile.
func UpdateProfileHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.DoctorID != nil && *req.DoctorID != "" {
		doctor, err := queries.GetUserByID(ctx, *req.DoctorID)
		if err != nil || doctor.Role != database.RoleDoctor {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown doctor_id"})
		}
	}

	user, err := queries.UpdateUserProfile(ctx, database.UpdateUserProfileParams{
		UserID:   userID,
		Name:     utility.TextOrNull(req.Name),
		Phone:    utility.TextOrNull(req.Phone),
		DoctorID: utility.TextOrNull(req.DoctorID),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
		}
		log.Error().Err(err).Msg("Failed to update profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update profile"})
	}

	return c.JSON(http.StatusOK, user)
}

// ChangePasswordHandler handles POST /profile/password. All refresh
// tokens are revoked after a successful change.
func ChangePasswordHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Password must be at least 8 characters"})
	}

	user, err := queries.GetUserByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch user for password change")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !user.PasswordHash.Valid {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Account uses social login"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(req.OldPassword)); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Old password is incorrect"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash new password")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if err := queries.UpdateUserPassword(ctx, userID, string(hashed)); err != nil {
		log.Error().Err(err).Msg("Failed to update password")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update password"})
	}

	if err := queries.RevokeAllUserRefreshTokens(ctx, userID); err != nil {
		log.Error().Err(err).Msg("Failed to revoke refresh tokens after password change")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Password updated"})
}
