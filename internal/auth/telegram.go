package auth

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/utility"
)

const (
	TelegramCodeLength = 6
	TelegramCodeExpiry = 30 * time.Minute
)

type ConfirmTelegramRequest struct {
	Code             string `json:"code" form:"code"`
	TelegramID       int64  `json:"telegram_id" form:"telegram_id"`
	TelegramUsername string `json:"telegram_username" form:"telegram_username"`
}

// GenerateTelegramCodeHandler issues a short-lived single-use code the
// user passes to the Telegram bot to link their account.
func GenerateTelegramCodeHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	code, err := utility.GenerateLinkCode(TelegramCodeLength)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate telegram code")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	entry, err := queries.CreateTelegramAuthCode(ctx, database.CreateTelegramAuthCodeParams{
		ID:        uuid.New().String(),
		UserID:    userID,
		Code:      code,
		ExpiresAt: pgtype.Timestamptz{Time: time.Now().Add(TelegramCodeExpiry), Valid: true},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to store telegram code")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"code":       entry.Code,
		"expires_at": entry.ExpiresAt.Time,
	})
}

// ConfirmTelegramCodeHandler is called by the Telegram bot with the code
// a user submitted in chat. The code is single use.
func ConfirmTelegramCodeHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var req ConfirmTelegramRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.Code == "" || req.TelegramID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Code and telegram_id are required"})
	}

	entry, err := queries.GetActiveTelegramAuthCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Invalid or expired code"})
		}
		log.Error().Err(err).Msg("Error looking up telegram code")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if err := queries.MarkTelegramCodeUsed(ctx, entry.ID); err != nil {
		log.Error().Err(err).Msg("Error marking telegram code used")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	user, err := queries.LinkTelegramAccount(ctx, database.LinkTelegramAccountParams{
		UserID:           entry.UserID,
		TelegramID:       pgtype.Int8{Int64: req.TelegramID, Valid: true},
		TelegramUsername: pgtype.Text{String: req.TelegramUsername, Valid: req.TelegramUsername != ""},
	})
	if err != nil {
		log.Error().Err(err).Msg("Error linking telegram account")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to link account"})
	}

	log.Info().Str("user_id", user.UserID).Int64("telegram_id", req.TelegramID).Msg("telegram account linked")
	return c.JSON(http.StatusOK, user)
}

// TelegramProfileHandler lets the bot fetch the linked profile by
// telegram ID.
func TelegramProfileHandler(c echo.Context) error {
	ctx := c.Request().Context()

	telegramIDStr := c.QueryParam("telegram_id")
	telegramID, err := strconv.ParseInt(telegramIDStr, 10, 64)
	if err != nil || telegramID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "telegram_id query parameter is required"})
	}

	user, err := queries.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No account linked to this telegram ID"})
		}
		log.Error().Err(err).Msg("Error fetching user by telegram ID")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, user)
}
