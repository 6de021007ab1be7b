package diary

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/utility"
)

type StressNoteRequest struct {
	Level       int32   `json:"level"` // 1..10
	Description *string `json:"description"`
	NotedAt     string  `json:"noted_at"` // RFC3339, defaults to now
}

type UpdateStressNoteRequest struct {
	Level       *int32  `json:"level"`
	Description *string `json:"description"`
	NotedAt     *string `json:"noted_at"`
}

// CreateStressNoteHandler handles POST /diary/stress-notes.
func CreateStressNoteHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req StressNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.Level < 1 || req.Level > 10 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Stress level must be between 1 and 10"})
	}

	notedAt := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	if req.NotedAt != "" {
		notedAt, err = utility.ParseRFC3339OrNull(req.NotedAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	record, err := queries.CreateStressNote(ctx, database.CreateStressNoteParams{
		ID:          uuid.New().String(),
		UserID:      userID,
		Level:       req.Level,
		Description: utility.TextOrNull(req.Description),
		NotedAt:     notedAt,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create stress note")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save record"})
	}

	return c.JSON(http.StatusCreated, record)
}

// ListStressNotesHandler handles GET /diary/stress-notes.
func ListStressNotesHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	dateFrom, dateTo, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	items, err := queries.ListStressNotes(ctx, database.ListStressNotesParams{
		UserID:   userID,
		DateFrom: dateFrom,
		DateTo:   dateTo,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list stress notes")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if items == nil {
		items = []database.StressNote{}
	}
	return c.JSON(http.StatusOK, items)
}

// GetStressNoteHandler handles GET /diary/stress-notes/:id.
func GetStressNoteHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetStressNote(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch stress note")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !canView(ctx, c, record.UserID) {
		return forbidden(c)
	}

	return c.JSON(http.StatusOK, record)
}

// UpdateStressNoteHandler handles PUT /diary/stress-notes/:id.
func UpdateStressNoteHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetStressNote(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch stress note")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !isOwner(c, record.UserID) {
		return forbidden(c)
	}

	var req UpdateStressNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.Level != nil && (*req.Level < 1 || *req.Level > 10) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Stress level must be between 1 and 10"})
	}

	var notedAt pgtype.Timestamptz
	if req.NotedAt != nil {
		notedAt, err = utility.ParseRFC3339OrNull(*req.NotedAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	updated, err := queries.UpdateStressNote(ctx, database.UpdateStressNoteParams{
		ID:          record.ID,
		Level:       utility.Int4OrNull(req.Level),
		Description: utility.TextOrNull(req.Description),
		NotedAt:     notedAt,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update stress note")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update record"})
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteStressNoteHandler handles DELETE /diary/stress-notes/:id.
func DeleteStressNoteHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetStressNote(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch stress note")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !isOwner(c, record.UserID) {
		return forbidden(c)
	}

	if err := queries.DeleteStressNote(ctx, record.ID); err != nil {
		log.Error().Err(err).Msg("Failed to delete stress note")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete record"})
	}

	return c.NoContent(http.StatusNoContent)
}
