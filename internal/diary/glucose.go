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

type GlucoseRequest struct {
	Value      float64 `json:"value"`
	MeasuredAt string  `json:"measured_at"` // RFC3339, defaults to now
	Note       *string `json:"note"`
}

// UpdateGlucoseRequest uses pointers so omitted fields keep their
// current values.
type UpdateGlucoseRequest struct {
	Value      *float64 `json:"value"`
	MeasuredAt *string  `json:"measured_at"`
	Note       *string  `json:"note"`
}

// CreateGlucoseHandler handles POST /diary/glucose. Critical readings
// trigger a live alert to the patient's doctor.
func CreateGlucoseHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req GlucoseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.Value <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Glucose value must be positive"})
	}

	measuredAt := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	if req.MeasuredAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.MeasuredAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid measured_at format. Use RFC3339."})
		}
		measuredAt = pgtype.Timestamptz{Time: parsed, Valid: true}
	}

	record, err := queries.CreateGlucoseMeasurement(ctx, database.CreateGlucoseMeasurementParams{
		ID:         uuid.New().String(),
		UserID:     userID,
		Value:      req.Value,
		MeasuredAt: measuredAt,
		Note:       utility.TextOrNull(req.Note),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create glucose measurement")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save record"})
	}

	if record.Value > CriticalGlucoseHigh || record.Value < CriticalGlucoseLow {
		notifyDoctorOfCriticalReading(c, record)
	}

	return c.JSON(http.StatusCreated, record)
}

// notifyDoctorOfCriticalReading pushes a websocket alert to the owner's
// assigned doctor, if any is connected.
func notifyDoctorOfCriticalReading(c echo.Context, record database.GlucoseMeasurement) {
	ctx := c.Request().Context()

	doctorID, err := queries.GetDoctorIDForUser(ctx, record.UserID)
	if err != nil || !doctorID.Valid {
		return
	}

	utility.PushDoctorAlert(doctorID.String, map[string]interface{}{
		"type":        "critical_glucose",
		"patient_id":  record.UserID,
		"value":       record.Value,
		"measured_at": record.MeasuredAt.Time,
	})
	log.Info().Str("patient_id", record.UserID).Float64("value", record.Value).Msg("critical glucose alert pushed")
}

// ListGlucoseHandler handles GET /diary/glucose with optional
// date_from/date_to/value_min/value_max filters.
func ListGlucoseHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	dateFrom, dateTo, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	valueMin, err := parseFloatParam(c, "value_min")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid value_min"})
	}
	valueMax, err := parseFloatParam(c, "value_max")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid value_max"})
	}

	items, err := queries.ListGlucoseMeasurements(ctx, database.ListGlucoseMeasurementsParams{
		UserID:   userID,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		ValueMin: valueMin,
		ValueMax: valueMax,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list glucose measurements")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if items == nil {
		items = []database.GlucoseMeasurement{}
	}
	return c.JSON(http.StatusOK, items)
}

// GetGlucoseHandler handles GET /diary/glucose/:id (owner or doctor).
func GetGlucoseHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetGlucoseMeasurement(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch glucose measurement")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !canView(ctx, c, record.UserID) {
		return forbidden(c)
	}

	return c.JSON(http.StatusOK, record)
}

// UpdateGlucoseHandler handles PUT /diary/glucose/:id (owner only).
func UpdateGlucoseHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetGlucoseMeasurement(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch glucose measurement")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !isOwner(c, record.UserID) {
		return forbidden(c)
	}

	var req UpdateGlucoseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	var measuredAt pgtype.Timestamptz
	if req.MeasuredAt != nil {
		measuredAt, err = utility.ParseRFC3339OrNull(*req.MeasuredAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	updated, err := queries.UpdateGlucoseMeasurement(ctx, database.UpdateGlucoseMeasurementParams{
		ID:         record.ID,
		Value:      utility.Float8OrNull(req.Value),
		MeasuredAt: measuredAt,
		Note:       utility.TextOrNull(req.Note),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update glucose measurement")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update record"})
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteGlucoseHandler handles DELETE /diary/glucose/:id (owner only).
func DeleteGlucoseHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetGlucoseMeasurement(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch glucose measurement")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !isOwner(c, record.UserID) {
		return forbidden(c)
	}

	if err := queries.DeleteGlucoseMeasurement(ctx, record.ID); err != nil {
		log.Error().Err(err).Msg("Failed to delete glucose measurement")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete record"})
	}

	return c.NoContent(http.StatusNoContent)
}
