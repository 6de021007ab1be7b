// Package diary implements the patient-facing diary: glucose
// measurements, events, medications, stress notes, reminders and meal
// photos.
package diary

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/utility"
)

const (
	// Critical glucose thresholds in mmol/L.
	CriticalGlucoseHigh = 10.0
	CriticalGlucoseLow  = 3.0
)

// Store is the subset of database queries this package needs.
// *database.Queries satisfies it; tests substitute a mock.
type Store interface {
	CreateGlucoseMeasurement(ctx context.Context, arg database.CreateGlucoseMeasurementParams) (database.GlucoseMeasurement, error)
	GetGlucoseMeasurement(ctx context.Context, id string) (database.GlucoseMeasurement, error)
	ListGlucoseMeasurements(ctx context.Context, arg database.ListGlucoseMeasurementsParams) ([]database.GlucoseMeasurement, error)
	UpdateGlucoseMeasurement(ctx context.Context, arg database.UpdateGlucoseMeasurementParams) (database.GlucoseMeasurement, error)
	DeleteGlucoseMeasurement(ctx context.Context, id string) error
	ListGlucoseSince(ctx context.Context, arg database.ListGlucoseSinceParams) ([]database.GlucoseMeasurement, error)

	CreateEvent(ctx context.Context, arg database.CreateEventParams) (database.Event, error)
	GetEvent(ctx context.Context, id string) (database.Event, error)
	ListEvents(ctx context.Context, arg database.ListEventsParams) ([]database.Event, error)
	UpdateEvent(ctx context.Context, arg database.UpdateEventParams) (database.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEventsSince(ctx context.Context, arg database.ListEventsSinceParams) ([]database.Event, error)

	CreateMedication(ctx context.Context, arg database.CreateMedicationParams) (database.Medication, error)
	GetMedication(ctx context.Context, id string) (database.Medication, error)
	ListMedications(ctx context.Context, arg database.ListMedicationsParams) ([]database.Medication, error)
	UpdateMedication(ctx context.Context, arg database.UpdateMedicationParams) (database.Medication, error)
	DeleteMedication(ctx context.Context, id string) error

	CreateStressNote(ctx context.Context, arg database.CreateStressNoteParams) (database.StressNote, error)
	GetStressNote(ctx context.Context, id string) (database.StressNote, error)
	ListStressNotes(ctx context.Context, arg database.ListStressNotesParams) ([]database.StressNote, error)
	UpdateStressNote(ctx context.Context, arg database.UpdateStressNoteParams) (database.StressNote, error)
	DeleteStressNote(ctx context.Context, id string) error

	CreateReminder(ctx context.Context, arg database.CreateReminderParams) (database.Reminder, error)
	GetReminder(ctx context.Context, id string) (database.Reminder, error)
	ListReminders(ctx context.Context, arg database.ListRemindersParams) ([]database.Reminder, error)
	UpdateReminder(ctx context.Context, arg database.UpdateReminderParams) (database.Reminder, error)
	DeleteReminder(ctx context.Context, id string) error

	CreateMealPhoto(ctx context.Context, arg database.CreateMealPhotoParams) (database.MealPhoto, error)
	GetMealPhotoByEvent(ctx context.Context, eventID string) (database.MealPhoto, error)

	GetDoctorIDForUser(ctx context.Context, userID string) (pgtype.Text, error)
	IsDoctorOfPatient(ctx context.Context, arg database.IsDoctorOfPatientParams) (bool, error)
}

var (
	queries   Store
	uploadDir string
)

func InitDiaryPackage(dbpool *pgxpool.Pool, photoDir string) {
	queries = database.New(dbpool)
	uploadDir = photoDir
}

// canView reports whether the requester may read a record owned by
// ownerID: the owner themselves, or the owner's assigned doctor.
func canView(ctx context.Context, c echo.Context, ownerID string) bool {
	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return false
	}
	if userID == ownerID {
		return true
	}

	role, _ := c.Get("user_role").(string)
	if role != database.RoleDoctor && role != database.RoleAdmin {
		return false
	}

	ok, err := queries.IsDoctorOfPatient(ctx, database.IsDoctorOfPatientParams{
		PatientID: ownerID,
		DoctorID:  userID,
	})
	return err == nil && ok
}

// isOwner reports whether the requester owns the record. Writes are
// owner-only, even for the assigned doctor.
func isOwner(c echo.Context, ownerID string) bool {
	userID, err := utility.GetUserIDFromContext(c)
	return err == nil && userID == ownerID
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, map[string]string{"error": "Access denied"})
}

// parseDateRange reads optional date_from/date_to query params.
func parseDateRange(c echo.Context) (pgtype.Timestamptz, pgtype.Timestamptz, error) {
	from, err := utility.ParseRFC3339OrNull(c.QueryParam("date_from"))
	if err != nil {
		return pgtype.Timestamptz{}, pgtype.Timestamptz{}, err
	}
	to, err := utility.ParseRFC3339OrNull(c.QueryParam("date_to"))
	if err != nil {
		return pgtype.Timestamptz{}, pgtype.Timestamptz{}, err
	}
	return from, to, nil
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
