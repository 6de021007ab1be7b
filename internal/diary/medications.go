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

type MedicationRequest struct {
	Name    string  `json:"name"`
	Dose    *string `json:"dose"`
	TakenAt string  `json:"taken_at"` // RFC3339, defaults to now
	Note    *string `json:"note"`
}

type UpdateMedicationRequest struct {
	Name    *string `json:"name"`
	Dose    *string `json:"dose"`
	TakenAt *string `json:"taken_at"`
	Note    *string `json:"note"`
}

// CreateMedicationHandler handles POST /diary/medications.
func CreateMedicationHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req MedicationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Medication name is required"})
	}

	takenAt := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	if req.TakenAt != "" {
		takenAt, err = utility.ParseRFC3339OrNull(req.TakenAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	record, err := queries.CreateMedication(ctx, database.CreateMedicationParams{
		ID:      uuid.New().String(),
		UserID:  userID,
		Name:    req.Name,
		Dose:    utility.TextOrNull(req.Dose),
		TakenAt: takenAt,
		Note:    utility.TextOrNull(req.Note),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create medication")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save record"})
	}

	return c.JSON(http.StatusCreated, record)
}

// ListMedicationsHandler handles GET /diary/medications.
func ListMedicationsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	dateFrom, dateTo, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	items, err := queries.ListMedications(ctx, database.ListMedicationsParams{
		UserID:   userID,
		DateFrom: dateFrom,
		DateTo:   dateTo,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list medications")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if items == nil {
		items = []database.Medication{}
	}
	return c.JSON(http.StatusOK, items)
}

// GetMedicationHandler handles GET /diary/medications/:id.
func GetMedicationHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetMedication(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch medication")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !canView(ctx, c, record.UserID) {
		return forbidden(c)
	}

	return c.JSON(http.StatusOK, record)
}

// UpdateMedicationHandler handles PUT /diary/medications/:id.
func UpdateMedicationHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetMedication(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch medication")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !isOwner(c, record.UserID) {
		return forbidden(c)
	}

	var req UpdateMedicationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	var takenAt pgtype.Timestamptz
	if req.TakenAt != nil {
		takenAt, err = utility.ParseRFC3339OrNull(*req.TakenAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	updated, err := queries.UpdateMedication(ctx, database.UpdateMedicationParams{
		ID:      record.ID,
		Name:    utility.TextOrNull(req.Name),
		Dose:    utility.TextOrNull(req.Dose),
		TakenAt: takenAt,
		Note:    utility.TextOrNull(req.Note),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update medication")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update record"})
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteMedicationHandler handles DELETE /diary/medications/:id.
func DeleteMedicationHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetMedication(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch medication")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !isOwner(c, record.UserID) {
		return forbidden(c)
	}

	if err := queries.DeleteMedication(ctx, record.ID); err != nil {
		log.Error().Err(err).Msg("Failed to delete medication")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete record"})
	}

	return c.NoContent(http.StatusNoContent)
}
