package aiservice

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucodiary/glucodiary/internal/database"
)

func TestExtractForecast(t *testing.T) {
	reply := `Your glucose was mostly stable this week.
Try a short walk after dinner.
FORECAST: [5.5, 5.7, 5.4, 5.9, 5.6, 5.3, 5.5]`

	content, values := extractForecast(reply)

	assert.Contains(t, content, "mostly stable")
	assert.NotContains(t, content, "FORECAST")
	require.Len(t, values, 7)
	assert.Equal(t, 5.5, values[0])
	assert.Equal(t, 5.9, values[3])
}

func TestExtractForecastCaseInsensitive(t *testing.T) {
	_, values := extractForecast("all good\nforecast: [6, 6, 6, 6, 6, 6, 6]")
	require.Len(t, values, 7)
	assert.Equal(t, 6.0, values[6])
}

func TestExtractForecastMissing(t *testing.T) {
	content, values := extractForecast("no numbers here")
	assert.Equal(t, "no numbers here", content)
	assert.Nil(t, values)
}

func TestExtractForecastSkipsGarbageFields(t *testing.T) {
	_, values := extractForecast("FORECAST: [5.5, oops, 6.1]")
	require.Len(t, values, 2)
	assert.Equal(t, 6.1, values[1])
}

func TestValidateForecast(t *testing.T) {
	// clamps out-of-range values and pads short forecasts
	values := validateForecast([]float64{2.0, 20.0, 5.5})
	require.Len(t, values, forecastDays)
	assert.Equal(t, forecastMin, values[0])
	assert.Equal(t, forecastMax, values[1])
	assert.Equal(t, 5.5, values[2])
	assert.Equal(t, forecastDefault, values[3])
	assert.Equal(t, forecastDefault, values[6])

	// truncates long forecasts
	long := validateForecast([]float64{5, 5, 5, 5, 5, 5, 5, 5, 5})
	assert.Len(t, long, forecastDays)
}

func TestBuildWeeklyPrompt(t *testing.T) {
	noon := pgtype.Timestamptz{Time: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), Valid: true}
	data := &weeklyData{
		Glucose: []database.GlucoseMeasurement{
			{Value: 6.2, MeasuredAt: noon, Note: pgtype.Text{String: "after lunch", Valid: true}},
		},
		Events: []database.Event{
			{
				EventType: database.EventTypeMeal,
				Title:     pgtype.Text{String: "Pasta", Valid: true},
				StartTime: noon,
				Calories:  pgtype.Float8{Float64: 600, Valid: true},
				Carbs:     pgtype.Float8{Float64: 80, Valid: true},
			},
		},
		Medications: []database.Medication{
			{Name: "Metformin", Dose: pgtype.Text{String: "500 mg", Valid: true}, TakenAt: noon},
		},
		StressNotes: []database.StressNote{
			{Level: 7, NotedAt: noon},
		},
	}

	prompt := buildWeeklyPrompt(data)

	assert.Contains(t, prompt, "6.2")
	assert.Contains(t, prompt, "after lunch")
	assert.Contains(t, prompt, "Pasta")
	assert.Contains(t, prompt, "600 kcal")
	assert.Contains(t, prompt, "80g carbs")
	assert.Contains(t, prompt, "Metformin 500 mg")
	assert.Contains(t, prompt, "level 7")
}

func TestBuildWeeklyPromptEmptySections(t *testing.T) {
	prompt := buildWeeklyPrompt(&weeklyData{})
	assert.Contains(t, prompt, "none recorded")
}

func TestWeeklyDataEmpty(t *testing.T) {
	assert.True(t, (&weeklyData{}).empty())
	assert.False(t, (&weeklyData{Glucose: []database.GlucoseMeasurement{{Value: 5}}}).empty())
}
