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

type EventRequest struct {
	EventType       string   `json:"event_type"`
	Title           *string  `json:"title"`
	StartTime       string   `json:"start_time"` // RFC3339, defaults to now
	DurationMinutes *int32   `json:"duration_minutes"`
	Calories        *float64 `json:"calories"`
	Carbs           *float64 `json:"carbs"`
	Sugars          *float64 `json:"sugars"`
	Proteins        *float64 `json:"proteins"`
	Fats            *float64 `json:"fats"`
	Steps           *int32   `json:"steps"`
	Color           *string  `json:"color"`
	Note            *string  `json:"note"`
}

type UpdateEventRequest struct {
	Title           *string  `json:"title"`
	StartTime       *string  `json:"start_time"`
	DurationMinutes *int32   `json:"duration_minutes"`
	Calories        *float64 `json:"calories"`
	Carbs           *float64 `json:"carbs"`
	Sugars          *float64 `json:"sugars"`
	Proteins        *float64 `json:"proteins"`
	Fats            *float64 `json:"fats"`
	Steps           *int32   `json:"steps"`
	Color           *string  `json:"color"`
	Note            *string  `json:"note"`
}

func validEventType(t string) bool {
	switch t {
	case database.EventTypeMeal, database.EventTypeWalk, database.EventTypeSport,
		database.EventTypeMedicine, database.EventTypeOther:
		return true
	}
	return false
}

// computeEndTime derives end_time from start + duration. A nil duration
// yields a NULL end_time.
func computeEndTime(start time.Time, durationMinutes *int32) pgtype.Timestamptz {
	if durationMinutes == nil {
		return pgtype.Timestamptz{}
	}
	end := start.Add(time.Duration(*durationMinutes) * time.Minute)
	return pgtype.Timestamptz{Time: end, Valid: true}
}

// CreateEventHandler handles POST /diary/events.
func CreateEventHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req EventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if !validEventType(req.EventType) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "event_type must be one of meal, walk, sport, medicine, other"})
	}

	startTime := time.Now()
	if req.StartTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid start_time format. Use RFC3339."})
		}
		startTime = parsed
	}

	record, err := queries.CreateEvent(ctx, database.CreateEventParams{
		ID:              uuid.New().String(),
		UserID:          userID,
		EventType:       req.EventType,
		Title:           utility.TextOrNull(req.Title),
		StartTime:       pgtype.Timestamptz{Time: startTime, Valid: true},
		DurationMinutes: utility.Int4OrNull(req.DurationMinutes),
		EndTime:         computeEndTime(startTime, req.DurationMinutes),
		Calories:        utility.Float8OrNull(req.Calories),
		Carbs:           utility.Float8OrNull(req.Carbs),
		Sugars:          utility.Float8OrNull(req.Sugars),
		Proteins:        utility.Float8OrNull(req.Proteins),
		Fats:            utility.Float8OrNull(req.Fats),
		Steps:           utility.Int4OrNull(req.Steps),
		Color:           utility.TextOrNull(req.Color),
		Note:            utility.TextOrNull(req.Note),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create event")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save record"})
	}

	return c.JSON(http.StatusCreated, record)
}

// ListEventsHandler handles GET /diary/events with optional type and
// date filters.
func ListEventsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	dateFrom, dateTo, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var eventType pgtype.Text
	if t := c.QueryParam("type"); t != "" {
		if !validEventType(t) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid event type"})
		}
		eventType = pgtype.Text{String: t, Valid: true}
	}

	items, err := queries.ListEvents(ctx, database.ListEventsParams{
		UserID:    userID,
		EventType: eventType,
		DateFrom:  dateFrom,
		DateTo:    dateTo,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list events")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if items == nil {
		items = []database.Event{}
	}
	return c.JSON(http.StatusOK, items)
}

// GetEventHandler handles GET /diary/events/:id (owner or doctor). A
// meal event includes its photo analysis when present.
func GetEventHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetEvent(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch event")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !canView(ctx, c, record.UserID) {
		return forbidden(c)
	}

	response := map[string]interface{}{"event": record}
	if record.EventType == database.EventTypeMeal {
		if photo, err := queries.GetMealPhotoByEvent(ctx, record.ID); err == nil {
			response["meal_photo"] = photo
		}
	}

	return c.JSON(http.StatusOK, response)
}

// UpdateEventHandler handles PUT /diary/events/:id (owner only).
// end_time is recomputed whenever start or duration changes.
func UpdateEventHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetEvent(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch event")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !isOwner(c, record.UserID) {
		return forbidden(c)
	}

	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	var startTime pgtype.Timestamptz
	if req.StartTime != nil {
		startTime, err = utility.ParseRFC3339OrNull(*req.StartTime)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	// Recompute end_time from the effective start and duration.
	effectiveStart := record.StartTime.Time
	if startTime.Valid {
		effectiveStart = startTime.Time
	}
	effectiveDuration := req.DurationMinutes
	if effectiveDuration == nil && record.DurationMinutes.Valid {
		effectiveDuration = &record.DurationMinutes.Int32
	}

	updated, err := queries.UpdateEvent(ctx, database.UpdateEventParams{
		ID:              record.ID,
		Title:           utility.TextOrNull(req.Title),
		StartTime:       startTime,
		DurationMinutes: utility.Int4OrNull(req.DurationMinutes),
		EndTime:         computeEndTime(effectiveStart, effectiveDuration),
		Calories:        utility.Float8OrNull(req.Calories),
		Carbs:           utility.Float8OrNull(req.Carbs),
		Sugars:          utility.Float8OrNull(req.Sugars),
		Proteins:        utility.Float8OrNull(req.Proteins),
		Fats:            utility.Float8OrNull(req.Fats),
		Steps:           utility.Int4OrNull(req.Steps),
		Color:           utility.TextOrNull(req.Color),
		Note:            utility.TextOrNull(req.Note),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update event")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update record"})
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteEventHandler handles DELETE /diary/events/:id (owner only).
func DeleteEventHandler(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := queries.GetEvent(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		log.Error().Err(err).Msg("Failed to fetch event")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !isOwner(c, record.UserID) {
		return forbidden(c)
	}

	if err := queries.DeleteEvent(ctx, record.ID); err != nil {
		log.Error().Err(err).Msg("Failed to delete event")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete record"})
	}

	return c.NoContent(http.StatusNoContent)
}
