package doctor

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/diary"
	"github.com/glucodiary/glucodiary/internal/utility"
)

// ListPatientsHandler handles GET /doctor/patients?search=&ordering=.
func ListPatientsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	doctorID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var search *string
	if s := c.QueryParam("search"); s != "" {
		search = &s
	}

	patients, err := queries.ListPatientsByDoctor(ctx, database.ListPatientsByDoctorParams{
		DoctorID: doctorID,
		Search:   utility.TextOrNull(search),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list patients")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if err := orderPatients(patients, c.QueryParam("ordering")); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if patients == nil {
		patients = []database.PatientOverviewRow{}
	}
	return c.JSON(http.StatusOK, patients)
}

// orderPatients re-sorts the name-ordered result for the other supported
// orderings. A leading "-" reverses the direction.
func orderPatients(patients []database.PatientOverviewRow, ordering string) error {
	if ordering == "" || ordering == "name" {
		return nil
	}

	desc := false
	if ordering[0] == '-' {
		desc = true
		ordering = ordering[1:]
	}

	var less func(a, b database.PatientOverviewRow) bool
	switch ordering {
	case "name":
		less = func(a, b database.PatientOverviewRow) bool { return a.Name < b.Name }
	case "created_at":
		less = func(a, b database.PatientOverviewRow) bool { return a.CreatedAt.Time.Before(b.CreatedAt.Time) }
	case "last_glucose":
		less = func(a, b database.PatientOverviewRow) bool { return a.LastGlucose.Float64 < b.LastGlucose.Float64 }
	case "avg_glucose":
		less = func(a, b database.PatientOverviewRow) bool { return a.AvgGlucose.Float64 < b.AvgGlucose.Float64 }
	case "total_events":
		less = func(a, b database.PatientOverviewRow) bool { return a.TotalEvents < b.TotalEvents }
	default:
		return errors.New("ordering must be one of name, created_at, last_glucose, avg_glucose, total_events")
	}

	sort.SliceStable(patients, func(i, j int) bool {
		if desc {
			return less(patients[j], patients[i])
		}
		return less(patients[i], patients[j])
	})
	return nil
}

// PatientStatisticsHandler handles GET /doctor/patients/:id/statistics?days=.
func PatientStatisticsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	doctorID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	patientID := c.Param("id")

	assigned, err := queries.IsDoctorOfPatient(ctx, database.IsDoctorOfPatientParams{
		PatientID: patientID,
		DoctorID:  doctorID,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to check patient assignment")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if !assigned {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Patient is not assigned to you"})
	}

	days := 30
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "days must be between 1 and 365"})
		}
		days = n
	}
	since := sinceParam(days)

	measurements, err := queries.ListGlucoseSince(ctx, database.ListGlucoseSinceParams{UserID: patientID, Since: since})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load patient glucose")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	events, err := queries.ListEventsSince(ctx, database.ListEventsSinceParams{UserID: patientID, Since: since})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load patient events")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id": patientID,
		"glucose":    diary.GroupGlucoseByDay(measurements, days),
		"activity":   diary.GroupActivityByDay(events, days),
		"nutrition":  diary.GroupNutritionByDay(events, days),
	})
}
