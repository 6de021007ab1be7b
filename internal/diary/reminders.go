package diary

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

type ReminderRequest struct {
	Text     string `json:"text"`
	RemindAt string `json:"remind_at"` // RFC3339
}

type UpdateReminderRequest struct {
	Text     *string `json:"text"`
	RemindAt *string `json:"remind_at"`
	IsDone   *bool   `json:"is_done"`
}

// CreateReminderHandler handles POST /diary/reminders.
func CreateReminderHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req ReminderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.Text == "" || req.RemindAt == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Text and remind_at are required"})
	}

	remindAt, err := time.Parse(time.RFC3339, req.RemindAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid remind_at format. Use RFC3339."})
	}

	record, err := queries.CreateReminder(ctx, database.CreateReminderParams{
		ID:       uuid.New().String(),
		UserID:   userID,
		Text:     req.Text,
		RemindAt: pgtype.Timestamptz{Time: remindAt, Valid: true},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create reminder")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save record"})
	}

	return c.JSON(http.StatusCreated, record)
}

// ListRemindersHandler handles GET /diary/reminders?is_done=.
func ListRemindersHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var isDone pgtype.Bool
	if raw := c.QueryParam("is_done"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid is_done"})
		}
		isDone = pgtype.Bool{Bool: b, Valid: true}
	}

	items, err := queries.ListReminders(ctx, database.ListRemindersParams{
		UserID: userID,
		IsDone: isDone,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list reminders")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if items == nil {
		items = []database.Reminder{}
	}
	return c.JSON(http.StatusOK, items)
}

// UpdateReminderHandler handles PUT /diary/reminders/:id.
func UpdateReminderHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetReminder(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch reminder")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !isOwner(c, record.UserID) {
		return forbidden(c)
	}

	var req UpdateReminderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	var remindAt pgtype.Timestamptz
	if req.RemindAt != nil {
		remindAt, err = utility.ParseRFC3339OrNull(*req.RemindAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	updated, err := queries.UpdateReminder(ctx, database.UpdateReminderParams{
		ID:       record.ID,
		Text:     utility.TextOrNull(req.Text),
		RemindAt: remindAt,
		IsDone:   utility.BoolOrNull(req.IsDone),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update reminder")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update record"})
	}

	return c.JSON(http.StatusOK, updated)
}

// MarkReminderDoneHandler handles PATCH /diary/reminders/:id/done.
func MarkReminderDoneHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetReminder(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch reminder")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !isOwner(c, record.UserID) {
		return forbidden(c)
	}

	updated, err := queries.UpdateReminder(ctx, database.UpdateReminderParams{
		ID:     record.ID,
		IsDone: pgtype.Bool{Bool: true, Valid: true},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to mark reminder done")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update record"})
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteReminderHandler handles DELETE /diary/reminders/:id.
func DeleteReminderHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetReminder(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch reminder")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !isOwner(c, record.UserID) {
		return forbidden(c)
	}

	if err := queries.DeleteReminder(ctx, record.ID); err != nil {
		log.Error().Err(err).Msg("Failed to delete reminder")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete record"})
	}

	return c.NoContent(http.StatusNoContent)
}
