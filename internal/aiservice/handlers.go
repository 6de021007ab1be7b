package aiservice

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/utility"
)

// GetRecommendationHandler handles GET /recommendations and returns the
// most recent stored analysis.
func GetRecommendationHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	rec, err := queries.GetLatestRecommendation(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No recommendations yet"})
		}
		log.Error().Err(err).Msg("Failed to load recommendation")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, recommendationResponse(rec))
}

// ListRecommendationsHandler handles GET /recommendations/history?limit=.
func ListRecommendationsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	limit := int32(10)
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
		}
		limit = int32(n)
	}

	recs, err := queries.ListRecommendations(ctx, database.ListRecommendationsParams{
		UserID: userID,
		Limit:  limit,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list recommendations")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	items := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		items = append(items, recommendationResponse(rec))
	}
	return c.JSON(http.StatusOK, items)
}

// GenerateRecommendationHandler handles POST /recommendations/generate.
func GenerateRecommendationHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	rec, err := GenerateWeeklyAnalysis(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to generate analysis")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Analysis service is unavailable, try again later"})
	}

	return c.JSON(http.StatusCreated, recommendationResponse(rec))
}

func recommendationResponse(rec database.HealthRecommendation) map[string]interface{} {
	var forecast []float64
	_ = json.Unmarshal(rec.Forecast, &forecast)

	return map[string]interface{}{
		"id":           rec.ID,
		"content":      rec.Content,
		"forecast":     forecast,
		"generated_at": rec.GeneratedAt.Time,
	}
}
