package aiservice

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/glucodiary/glucodiary/internal/config"
	"github.com/glucodiary/glucodiary/internal/database"
)

const (
	analysisWindowDays = 7
	forecastDays       = 7
	forecastMin        = 3.0
	forecastMax        = 15.0
	forecastDefault    = 5.5
	cacheSize          = 256
	cacheTTL           = 24 * time.Hour
)

// Store lists the query methods this package depends on.
type Store interface {
	ListGlucoseSince(ctx context.Context, arg database.ListGlucoseSinceParams) ([]database.GlucoseMeasurement, error)
	ListEventsSince(ctx context.Context, arg database.ListEventsSinceParams) ([]database.Event, error)
	ListMedicationsSince(ctx context.Context, arg database.ListMedicationsSinceParams) ([]database.Medication, error)
	ListStressNotesSince(ctx context.Context, arg database.ListStressNotesSinceParams) ([]database.StressNote, error)
	CreateHealthRecommendation(ctx context.Context, arg database.CreateHealthRecommendationParams) (database.HealthRecommendation, error)
	GetLatestRecommendation(ctx context.Context, userID string) (database.HealthRecommendation, error)
	ListRecommendations(ctx context.Context, arg database.ListRecommendationsParams) ([]database.HealthRecommendation, error)
}

var (
	queries Store
	cfg     *config.Config

	// Generated analyses are cached per user so repeated requests within
	// a day reuse the stored recommendation instead of hitting the API.
	analysisCache *expirable.LRU[string, database.HealthRecommendation]
)

// InitAIService wires the package to the database pool and configuration.
func InitAIService(dbpool *pgxpool.Pool, c *config.Config) {
	queries = database.New(dbpool)
	cfg = c
	analysisCache = expirable.NewLRU[string, database.HealthRecommendation](cacheSize, nil, cacheTTL)
}

type weeklyData struct {
	Glucose     []database.GlucoseMeasurement
	Events      []database.Event
	Medications []database.Medication
	StressNotes []database.StressNote
}

func (d *weeklyData) empty() bool {
	return len(d.Glucose) == 0 && len(d.Events) == 0 &&
		len(d.Medications) == 0 && len(d.StressNotes) == 0
}

// gatherWeeklyData loads the last week of diary entries concurrently.
func gatherWeeklyData(ctx context.Context, userID string) (*weeklyData, error) {
	since := pgtype.Timestamptz{Time: time.Now().AddDate(0, 0, -analysisWindowDays), Valid: true}

	var data weeklyData
	var mu sync.Mutex
	g, grpCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := queries.ListGlucoseSince(grpCtx, database.ListGlucoseSinceParams{UserID: userID, Since: since})
		if err != nil {
			return fmt.Errorf("glucose: %w", err)
		}
		mu.Lock()
		data.Glucose = rows
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		rows, err := queries.ListEventsSince(grpCtx, database.ListEventsSinceParams{UserID: userID, Since: since})
		if err != nil {
			return fmt.Errorf("events: %w", err)
		}
		mu.Lock()
		data.Events = rows
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		rows, err := queries.ListMedicationsSince(grpCtx, database.ListMedicationsSinceParams{UserID: userID, Since: since})
		if err != nil {
			return fmt.Errorf("medications: %w", err)
		}
		mu.Lock()
		data.Medications = rows
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		rows, err := queries.ListStressNotesSince(grpCtx, database.ListStressNotesSinceParams{UserID: userID, Since: since})
		if err != nil {
			return fmt.Errorf("stress notes: %w", err)
		}
		mu.Lock()
		data.StressNotes = rows
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

const weeklySystemPrompt = `You are a diabetes health assistant. A patient shares one week of
their diary: glucose readings (mmol/L), meals with nutrition, activities,
medications and stress notes.

Write a short analysis in plain English: how their glucose behaved, which
meals or activities likely influenced it, and 2-4 practical recommendations
for the coming week. Do not diagnose and do not change medication doses;
suggest consulting a doctor where appropriate.

After the analysis, on its own final line, output a 7-day glucose forecast
of average daily values in mmol/L, exactly in this format:
FORECAST: [5.5, 5.6, 5.4, 5.8, 5.5, 5.3, 5.6]`

// buildWeeklyPrompt renders the diary data as plain text for the model.
func buildWeeklyPrompt(data *weeklyData) string {
	var b strings.Builder

	b.WriteString("Diary for the last 7 days.\n\n")

	b.WriteString("Glucose readings (mmol/L):\n")
	if len(data.Glucose) == 0 {
		b.WriteString("  none recorded\n")
	}
	for _, m := range data.Glucose {
		fmt.Fprintf(&b, "  %s: %.1f", m.MeasuredAt.Time.Format("Mon 15:04"), m.Value)
		if m.Note.Valid {
			fmt.Fprintf(&b, " (%s)", m.Note.String)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nEvents:\n")
	if len(data.Events) == 0 {
		b.WriteString("  none recorded\n")
	}
	for _, e := range data.Events {
		title := e.Title.String
		if title == "" {
			title = "untitled"
		}
		fmt.Fprintf(&b, "  %s %s: %s", e.StartTime.Time.Format("Mon 15:04"), e.EventType, title)
		if e.EventType == database.EventTypeMeal && e.Calories.Valid {
			fmt.Fprintf(&b, " (%.0f kcal", e.Calories.Float64)
			if e.Carbs.Valid {
				fmt.Fprintf(&b, ", %.0fg carbs", e.Carbs.Float64)
			}
			if e.Sugars.Valid {
				fmt.Fprintf(&b, ", %.0fg sugars", e.Sugars.Float64)
			}
			b.WriteString(")")
		}
		if e.DurationMinutes.Valid {
			fmt.Fprintf(&b, ", %d min", e.DurationMinutes.Int32)
		}
		if e.Steps.Valid {
			fmt.Fprintf(&b, ", %d steps", e.Steps.Int32)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nMedications:\n")
	if len(data.Medications) == 0 {
		b.WriteString("  none recorded\n")
	}
	for _, m := range data.Medications {
		fmt.Fprintf(&b, "  %s: %s", m.TakenAt.Time.Format("Mon 15:04"), m.Name)
		if m.Dose.Valid {
			fmt.Fprintf(&b, " %s", m.Dose.String)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nStress notes (level 1-10):\n")
	if len(data.StressNotes) == 0 {
		b.WriteString("  none recorded\n")
	}
	for _, s := range data.StressNotes {
		fmt.Fprintf(&b, "  %s: level %d", s.NotedAt.Time.Format("Mon 15:04"), s.Level)
		if s.Description.Valid {
			fmt.Fprintf(&b, " (%s)", s.Description.String)
		}
		b.WriteString("\n")
	}

	return b.String()
}

var forecastRe = regexp.MustCompile(`(?i)FORECAST:\s*\[([^\]]*)\]`)

// extractForecast pulls the forecast array out of the model reply and
// returns the analysis text with the forecast line removed.
func extractForecast(reply string) (string, []float64) {
	match := forecastRe.FindStringSubmatch(reply)
	if match == nil {
		return strings.TrimSpace(reply), nil
	}

	var values []float64
	for _, field := range strings.Split(match[1], ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}

	content := strings.TrimSpace(forecastRe.ReplaceAllString(reply, ""))
	return content, values
}

// validateForecast normalizes a forecast to exactly forecastDays values
// clamped to the plausible mmol/L range.
func validateForecast(values []float64) []float64 {
	out := make([]float64, forecastDays)
	for i := 0; i < forecastDays; i++ {
		v := forecastDefault
		if i < len(values) {
			v = values[i]
		}
		if v < forecastMin {
			v = forecastMin
		}
		if v > forecastMax {
			v = forecastMax
		}
		out[i] = v
	}
	return out
}

const emptyDiaryAnalysis = `There is not enough diary data from the last week to analyze yet.
Start logging glucose readings, meals and activities regularly, then request
the analysis again. Aim for at least a few glucose measurements per day.`

// GenerateWeeklyAnalysis produces and persists a recommendation with a
// 7-day glucose forecast for the user.
func GenerateWeeklyAnalysis(ctx context.Context, userID string) (database.HealthRecommendation, error) {
	if cached, ok := analysisCache.Get(userID); ok {
		return cached, nil
	}

	data, err := gatherWeeklyData(ctx, userID)
	if err != nil {
		return database.HealthRecommendation{}, err
	}

	var content string
	var forecast []float64

	if data.empty() {
		content = emptyDiaryAnalysis
		forecast = validateForecast(nil)
	} else {
		messages := []chatMessage{
			{Role: "system", Content: weeklySystemPrompt},
			{Role: "user", Content: buildWeeklyPrompt(data)},
		}
		reply, err := chatCompletion(ctx, messages)
		if err != nil {
			return database.HealthRecommendation{}, err
		}
		text, values := extractForecast(reply)
		if text == "" {
			return database.HealthRecommendation{}, fmt.Errorf("empty analysis from model")
		}
		content = text
		forecast = validateForecast(values)
	}

	forecastJSON, err := json.Marshal(forecast)
	if err != nil {
		return database.HealthRecommendation{}, fmt.Errorf("failed to marshal forecast: %w", err)
	}

	rec, err := queries.CreateHealthRecommendation(ctx, database.CreateHealthRecommendationParams{
		ID:       uuid.NewString(),
		UserID:   userID,
		Content:  content,
		Forecast: forecastJSON,
	})
	if err != nil {
		return database.HealthRecommendation{}, fmt.Errorf("failed to store recommendation: %w", err)
	}

	analysisCache.Add(userID, rec)
	log.Info().Str("user_id", userID).Msg("Generated weekly health analysis")
	return rec, nil
}
