package doctor

import (
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/utility"
)

// ListGlucoseHandler handles GET /doctor/glucose across all assigned
// patients, with the same filters patients get on their own diary.
func ListGlucoseHandler(c echo.Context) error {
	ctx := c.Request().Context()

	doctorID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	dateFrom, dateTo, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "dates must be RFC3339"})
	}
	valueMin, err := parseFloatParam(c, "value_min")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "value_min must be a number"})
	}
	valueMax, err := parseFloatParam(c, "value_max")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "value_max must be a number"})
	}

	measurements, err := queries.ListGlucoseForDoctor(ctx, database.ListGlucoseForDoctorParams{
		DoctorID: doctorID,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		ValueMin: valueMin,
		ValueMax: valueMax,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list patient glucose")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if measurements == nil {
		measurements = []database.GlucoseMeasurement{}
	}
	return c.JSON(http.StatusOK, measurements)
}

// ListEventsHandler handles GET /doctor/events?type=.
func ListEventsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	doctorID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	dateFrom, dateTo, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "dates must be RFC3339"})
	}

	var eventType *string
	if t := c.QueryParam("type"); t != "" {
		eventType = &t
	}

	events, err := queries.ListEventsForDoctor(ctx, database.ListEventsForDoctorParams{
		DoctorID:  doctorID,
		EventType: utility.TextOrNull(eventType),
		DateFrom:  dateFrom,
		DateTo:    dateTo,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list patient events")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if events == nil {
		events = []database.Event{}
	}
	return c.JSON(http.StatusOK, events)
}

// ListMedicationsHandler handles GET /doctor/medications.
func ListMedicationsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	doctorID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	dateFrom, dateTo, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "dates must be RFC3339"})
	}

	medications, err := queries.ListMedicationsForDoctor(ctx, database.ListMedicationsForDoctorParams{
		DoctorID: doctorID,
		DateFrom: dateFrom,
		DateTo:   dateTo,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list patient medications")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if medications == nil {
		medications = []database.Medication{}
	}
	return c.JSON(http.StatusOK, medications)
}

// parseFloatParam reads an optional float query param into a nullable
// pgtype value.
func parseFloatParam(c echo.Context, name string) (pgtype.Float8, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return pgtype.Float8{}, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return pgtype.Float8{}, err
	}
	return pgtype.Float8{Float64: f, Valid: true}, nil
}
