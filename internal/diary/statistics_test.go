package diary

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucodiary/glucodiary/internal/database"
)

func ts(s string) pgtype.Timestamptz {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func TestPeriodDays(t *testing.T) {
	cases := map[string]int{
		"":        30,
		"month":   30,
		"3months": 90,
		"6months": 180,
		"year":    365,
	}
	for period, want := range cases {
		got, err := periodDays(period)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := periodDays("week")
	assert.Error(t, err)
}

func TestGroupActivityByDay(t *testing.T) {
	events := []database.Event{
		{EventType: database.EventTypeWalk, StartTime: ts("2026-03-01T08:00:00Z"), Steps: pgtype.Int4{Int32: 4000, Valid: true}},
		{EventType: database.EventTypeWalk, StartTime: ts("2026-03-01T18:00:00Z"), Steps: pgtype.Int4{Int32: 2500, Valid: true}},
		{EventType: database.EventTypeMeal, StartTime: ts("2026-03-01T12:00:00Z")},
		{EventType: database.EventTypeSport, StartTime: ts("2026-03-02T07:00:00Z")},
	}

	stats := GroupActivityByDay(events, 30)

	require.Len(t, stats.Days, 2)
	assert.Equal(t, "2026-03-01", stats.Days[0].Date)
	assert.Equal(t, 2, stats.Days[0].Counts[database.EventTypeWalk])
	assert.Equal(t, 1, stats.Days[0].Counts[database.EventTypeMeal])
	assert.Equal(t, int64(6500), stats.Days[0].Steps)

	assert.Equal(t, "2026-03-02", stats.Days[1].Date)
	assert.Equal(t, 1, stats.Days[1].Counts[database.EventTypeSport])

	assert.Equal(t, 2, stats.Totals[database.EventTypeWalk])
	assert.Equal(t, int64(6500), stats.TotalSteps)
	assert.Equal(t, 30, stats.PeriodDays)
}

func TestGroupGlucoseByDay(t *testing.T) {
	measurements := []database.GlucoseMeasurement{
		{Value: 5.0, MeasuredAt: ts("2026-03-01T08:00:00Z")},
		{Value: 7.0, MeasuredAt: ts("2026-03-01T20:00:00Z")},
		{Value: 4.0, MeasuredAt: ts("2026-03-02T08:00:00Z")},
	}

	stats := GroupGlucoseByDay(measurements, 30)

	require.Len(t, stats.Days, 2)
	assert.Equal(t, 6.0, stats.Days[0].Average)
	assert.Equal(t, 5.0, stats.Days[0].Min)
	assert.Equal(t, 7.0, stats.Days[0].Max)
	assert.Equal(t, 2, stats.Days[0].Count)

	assert.Equal(t, 4.0, stats.Days[1].Average)

	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 4.0, stats.Min)
	assert.Equal(t, 7.0, stats.Max)
	assert.InDelta(t, 5.3, stats.Average, 0.01)
}

func TestGroupGlucoseByDayEmpty(t *testing.T) {
	stats := GroupGlucoseByDay(nil, 30)
	assert.Zero(t, stats.Count)
	assert.Empty(t, stats.Days)
}

func TestGroupNutritionByDay(t *testing.T) {
	events := []database.Event{
		{
			EventType: database.EventTypeMeal,
			StartTime: ts("2026-03-01T12:00:00Z"),
			Calories:  pgtype.Float8{Float64: 450, Valid: true},
			Carbs:     pgtype.Float8{Float64: 60, Valid: true},
			Sugars:    pgtype.Float8{Float64: 12, Valid: true},
		},
		{
			EventType: database.EventTypeMeal,
			StartTime: ts("2026-03-01T19:00:00Z"),
			Calories:  pgtype.Float8{Float64: 550, Valid: true},
		},
		// non-meal events carry no nutrition
		{EventType: database.EventTypeWalk, StartTime: ts("2026-03-01T08:00:00Z")},
	}

	stats := GroupNutritionByDay(events, 30)

	require.Len(t, stats.Days, 1)
	assert.Equal(t, 2, stats.Days[0].Meals)
	assert.Equal(t, 1000.0, stats.Days[0].Calories)
	assert.Equal(t, 60.0, stats.Days[0].Carbs)
	assert.Equal(t, 12.0, stats.Days[0].Sugars)
	assert.Equal(t, 2, stats.TotalMeals)
	assert.Equal(t, 1000.0, stats.TotalCalories)
}

func TestActivityStatisticsHandlerTypeFilter(t *testing.T) {
	recent := pgtype.Timestamptz{Time: time.Now().Add(-time.Hour), Valid: true}
	queries = &mockStore{
		listEventsSince: func(_ context.Context, arg database.ListEventsSinceParams) ([]database.Event, error) {
			assert.Equal(t, "patient-1", arg.UserID)
			return []database.Event{
				{EventType: database.EventTypeWalk, StartTime: recent, Steps: pgtype.Int4{Int32: 3000, Valid: true}},
				{EventType: database.EventTypeMeal, StartTime: recent},
				{EventType: database.EventTypeSport, StartTime: recent},
			}, nil
		},
	}

	c, rec := newJSONContext(t, http.MethodGet, "/statistics/activity?type=walk", "")
	asPatient(c, "patient-1")

	require.NoError(t, ActivityStatisticsHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var stats ActivityStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, map[string]int{database.EventTypeWalk: 1}, stats.Totals)
	assert.Equal(t, int64(3000), stats.TotalSteps)
}

func TestActivityStatisticsHandlerRejectsUnknownType(t *testing.T) {
	queries = &mockStore{}

	c, rec := newJSONContext(t, http.MethodGet, "/statistics/activity?type=swim", "")
	asPatient(c, "patient-1")

	require.NoError(t, ActivityStatisticsHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
