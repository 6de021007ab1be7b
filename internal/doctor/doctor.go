// Package doctor exposes the read side for doctors: patient lists,
// aggregated statistics, cross-patient diary queries and the dashboard.
package doctor

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/utility"
)

// Store lists the query methods this package depends on.
type Store interface {
	ListPatientsByDoctor(ctx context.Context, arg database.ListPatientsByDoctorParams) ([]database.PatientOverviewRow, error)
	CountPatientsByDoctor(ctx context.Context, doctorID string) (int64, error)
	CountActivePatientsByDoctor(ctx context.Context, doctorID string) (int64, error)
	AvgGlucoseAcrossPatients(ctx context.Context, doctorID string) (pgtype.Float8, error)
	ListCriticalReadings(ctx context.Context, arg database.ListCriticalReadingsParams) ([]database.CriticalReadingRow, error)
	ListGlucoseForDoctor(ctx context.Context, arg database.ListGlucoseForDoctorParams) ([]database.GlucoseMeasurement, error)
	ListEventsForDoctor(ctx context.Context, arg database.ListEventsForDoctorParams) ([]database.Event, error)
	ListMedicationsForDoctor(ctx context.Context, arg database.ListMedicationsForDoctorParams) ([]database.Medication, error)
	IsDoctorOfPatient(ctx context.Context, arg database.IsDoctorOfPatientParams) (bool, error)
	ListGlucoseSince(ctx context.Context, arg database.ListGlucoseSinceParams) ([]database.GlucoseMeasurement, error)
	ListEventsSince(ctx context.Context, arg database.ListEventsSinceParams) ([]database.Event, error)
}

var queries Store

// InitDoctorPackage wires the package to the database pool.
func InitDoctorPackage(dbpool *pgxpool.Pool) {
	queries = database.New(dbpool)
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

// sinceParam converts a day count to a timestamptz lower bound.
func sinceParam(days int) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: time.Now().AddDate(0, 0, -days), Valid: true}
}
