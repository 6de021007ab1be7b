package diary

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/utility"
)

// periodDays maps the period query parameter to a day count.
func periodDays(period string) (int, error) {
	switch period {
	case "", "month":
		return 30, nil
	case "3months":
		return 90, nil
	case "6months":
		return 180, nil
	case "year":
		return 365, nil
	}
	return 0, fmt.Errorf("period must be one of month, 3months, 6months, year")
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

type ActivityDay struct {
	Date   string         `json:"date"`
	Counts map[string]int `json:"counts"`
	Steps  int64          `json:"steps"`
}

type ActivityStats struct {
	PeriodDays int            `json:"period_days"`
	Days       []ActivityDay  `json:"days"`
	Totals     map[string]int `json:"totals"`
	TotalSteps int64          `json:"total_steps"`
}

// GroupActivityByDay buckets events per calendar day (UTC), counting
// events per type and summing steps.
func GroupActivityByDay(events []database.Event, days int) ActivityStats {
	stats := ActivityStats{
		PeriodDays: days,
		Totals:     make(map[string]int),
	}

	byDay := make(map[string]*ActivityDay)
	for _, e := range events {
		if !e.StartTime.Valid {
			continue
		}
		key := dayKey(e.StartTime.Time)
		day, ok := byDay[key]
		if !ok {
			day = &ActivityDay{Date: key, Counts: make(map[string]int)}
			byDay[key] = day
		}
		day.Counts[e.EventType]++
		stats.Totals[e.EventType]++
		if e.Steps.Valid {
			day.Steps += int64(e.Steps.Int32)
			stats.TotalSteps += int64(e.Steps.Int32)
		}
	}

	stats.Days = make([]ActivityDay, 0, len(byDay))
	for _, day := range byDay {
		stats.Days = append(stats.Days, *day)
	}
	sort.Slice(stats.Days, func(i, j int) bool { return stats.Days[i].Date < stats.Days[j].Date })
	return stats
}

type GlucoseDay struct {
	Date    string  `json:"date"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Count   int     `json:"count"`
}

type GlucoseStats struct {
	PeriodDays int          `json:"period_days"`
	Days       []GlucoseDay `json:"days"`
	Average    float64      `json:"average"`
	Min        float64      `json:"min"`
	Max        float64      `json:"max"`
	Count      int          `json:"count"`
}

// GroupGlucoseByDay computes daily average/min/max plus overall figures.
func GroupGlucoseByDay(measurements []database.GlucoseMeasurement, days int) GlucoseStats {
	stats := GlucoseStats{PeriodDays: days}

	type agg struct {
		sum      float64
		min, max float64
		count    int
	}
	byDay := make(map[string]*agg)
	var totalSum float64

	for _, m := range measurements {
		if !m.MeasuredAt.Valid {
			continue
		}
		key := dayKey(m.MeasuredAt.Time)
		a, ok := byDay[key]
		if !ok {
			a = &agg{min: math.MaxFloat64, max: -math.MaxFloat64}
			byDay[key] = a
		}
		a.sum += m.Value
		a.count++
		a.min = math.Min(a.min, m.Value)
		a.max = math.Max(a.max, m.Value)

		totalSum += m.Value
		stats.Count++
		if stats.Count == 1 {
			stats.Min, stats.Max = m.Value, m.Value
		} else {
			stats.Min = math.Min(stats.Min, m.Value)
			stats.Max = math.Max(stats.Max, m.Value)
		}
	}

	if stats.Count > 0 {
		stats.Average = round1(totalSum / float64(stats.Count))
	}

	stats.Days = make([]GlucoseDay, 0, len(byDay))
	for key, a := range byDay {
		stats.Days = append(stats.Days, GlucoseDay{
			Date:    key,
			Average: round1(a.sum / float64(a.count)),
			Min:     a.min,
			Max:     a.max,
			Count:   a.count,
		})
	}
	sort.Slice(stats.Days, func(i, j int) bool { return stats.Days[i].Date < stats.Days[j].Date })
	return stats
}

type NutritionDay struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Sugars   float64 `json:"sugars"`
	Meals    int     `json:"meals"`
}

type NutritionStats struct {
	PeriodDays    int            `json:"period_days"`
	Days          []NutritionDay `json:"days"`
	TotalCalories float64        `json:"total_calories"`
	TotalCarbs    float64        `json:"total_carbs"`
	TotalSugars   float64        `json:"total_sugars"`
	TotalMeals    int            `json:"total_meals"`
}

// GroupNutritionByDay sums meal nutrition per calendar day.
func GroupNutritionByDay(events []database.Event, days int) NutritionStats {
	stats := NutritionStats{PeriodDays: days}

	byDay := make(map[string]*NutritionDay)
	for _, e := range events {
		if e.EventType != database.EventTypeMeal || !e.StartTime.Valid {
			continue
		}
		key := dayKey(e.StartTime.Time)
		day, ok := byDay[key]
		if !ok {
			day = &NutritionDay{Date: key}
			byDay[key] = day
		}
		day.Meals++
		stats.TotalMeals++
		if e.Calories.Valid {
			day.Calories += e.Calories.Float64
			stats.TotalCalories += e.Calories.Float64
		}
		if e.Carbs.Valid {
			day.Carbs += e.Carbs.Float64
			stats.TotalCarbs += e.Carbs.Float64
		}
		if e.Sugars.Valid {
			day.Sugars += e.Sugars.Float64
			stats.TotalSugars += e.Sugars.Float64
		}
	}

	stats.Days = make([]NutritionDay, 0, len(byDay))
	for _, day := range byDay {
		stats.Days = append(stats.Days, *day)
	}
	sort.Slice(stats.Days, func(i, j int) bool { return stats.Days[i].Date < stats.Days[j].Date })
	return stats
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func filterEventsByType(events []database.Event, eventType string) []database.Event {
	filtered := make([]database.Event, 0, len(events))
	for _, e := range events {
		if e.EventType == eventType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Handlers

// ActivityStatisticsHandler handles GET /statistics/activity?period=,
// with an optional type= filter narrowing the stats to one event type.
func ActivityStatisticsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	days, err := periodDays(c.QueryParam("period"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	eventType := c.QueryParam("type")
	if eventType != "" && !validEventType(eventType) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "type must be one of meal, walk, sport, medicine, other"})
	}

	since := time.Now().AddDate(0, 0, -days)
	events, err := queries.ListEventsSince(ctx, database.ListEventsSinceParams{
		UserID: userID,
		Since:  pgtype.Timestamptz{Time: since, Valid: true},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load events for statistics")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if eventType != "" {
		events = filterEventsByType(events, eventType)
	}

	return c.JSON(http.StatusOK, GroupActivityByDay(events, days))
}

// GlucoseStatisticsHandler handles GET /statistics/glucose?period=.
func GlucoseStatisticsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	days, err := periodDays(c.QueryParam("period"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	since := time.Now().AddDate(0, 0, -days)
	measurements, err := queries.ListGlucoseSince(ctx, database.ListGlucoseSinceParams{
		UserID: userID,
		Since:  pgtype.Timestamptz{Time: since, Valid: true},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load glucose for statistics")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, GroupGlucoseByDay(measurements, days))
}

// NutritionStatisticsHandler handles GET /statistics/nutrition?period=.
func NutritionStatisticsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	days, err := periodDays(c.QueryParam("period"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	since := time.Now().AddDate(0, 0, -days)
	events, err := queries.ListEventsSince(ctx, database.ListEventsSinceParams{
		UserID: userID,
		Since:  pgtype.Timestamptz{Time: since, Valid: true},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load events for statistics")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, GroupNutritionByDay(events, days))
}
