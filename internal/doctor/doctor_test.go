package doctor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucodiary/glucodiary/internal/database"
)

type mockStore struct {
	Store

	listPatients  func(ctx context.Context, arg database.ListPatientsByDoctorParams) ([]database.PatientOverviewRow, error)
	countPatients func(ctx context.Context, doctorID string) (int64, error)
	countActive   func(ctx context.Context, doctorID string) (int64, error)
	avgGlucose    func(ctx context.Context, doctorID string) (pgtype.Float8, error)
	listCritical  func(ctx context.Context, arg database.ListCriticalReadingsParams) ([]database.CriticalReadingRow, error)
	isDoctorOf    func(ctx context.Context, arg database.IsDoctorOfPatientParams) (bool, error)
}

func (m *mockStore) ListPatientsByDoctor(ctx context.Context, arg database.ListPatientsByDoctorParams) ([]database.PatientOverviewRow, error) {
	return m.listPatients(ctx, arg)
}

func (m *mockStore) CountPatientsByDoctor(ctx context.Context, doctorID string) (int64, error) {
	return m.countPatients(ctx, doctorID)
}

func (m *mockStore) CountActivePatientsByDoctor(ctx context.Context, doctorID string) (int64, error) {
	return m.countActive(ctx, doctorID)
}

func (m *mockStore) AvgGlucoseAcrossPatients(ctx context.Context, doctorID string) (pgtype.Float8, error) {
	return m.avgGlucose(ctx, doctorID)
}

func (m *mockStore) ListCriticalReadings(ctx context.Context, arg database.ListCriticalReadingsParams) ([]database.CriticalReadingRow, error) {
	return m.listCritical(ctx, arg)
}

func (m *mockStore) IsDoctorOfPatient(ctx context.Context, arg database.IsDoctorOfPatientParams) (bool, error) {
	return m.isDoctorOf(ctx, arg)
}

func newDoctorContext(t *testing.T, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "doctor-1")
	c.Set("user_role", database.RoleDoctor)
	return c, rec
}

func TestOrderPatients(t *testing.T) {
	patients := func() []database.PatientOverviewRow {
		return []database.PatientOverviewRow{
			{Name: "Alice", TotalEvents: 3, AvgGlucose: pgtype.Float8{Float64: 7.1, Valid: true}},
			{Name: "Bob", TotalEvents: 9, AvgGlucose: pgtype.Float8{Float64: 5.2, Valid: true}},
			{Name: "Carol", TotalEvents: 1, AvgGlucose: pgtype.Float8{Float64: 6.0, Valid: true}},
		}
	}

	rows := patients()
	require.NoError(t, orderPatients(rows, "-total_events"))
	assert.Equal(t, "Bob", rows[0].Name)
	assert.Equal(t, "Carol", rows[2].Name)

	rows = patients()
	require.NoError(t, orderPatients(rows, "avg_glucose"))
	assert.Equal(t, "Bob", rows[0].Name)
	assert.Equal(t, "Alice", rows[2].Name)

	rows = patients()
	require.NoError(t, orderPatients(rows, ""))
	assert.Equal(t, "Alice", rows[0].Name)

	assert.Error(t, orderPatients(rows, "shoe_size"))
}

func TestListPatientsHandlerPassesSearch(t *testing.T) {
	var captured database.ListPatientsByDoctorParams
	queries = &mockStore{
		listPatients: func(_ context.Context, arg database.ListPatientsByDoctorParams) ([]database.PatientOverviewRow, error) {
			captured = arg
			return []database.PatientOverviewRow{{UserID: "patient-1", Name: "Alice"}}, nil
		},
	}

	c, rec := newDoctorContext(t, "/doctor/patients?search=ali")

	require.NoError(t, ListPatientsHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doctor-1", captured.DoctorID)
	require.True(t, captured.Search.Valid)
	assert.Equal(t, "ali", captured.Search.String)
}

func TestListPatientsHandlerBadOrdering(t *testing.T) {
	queries = &mockStore{
		listPatients: func(_ context.Context, _ database.ListPatientsByDoctorParams) ([]database.PatientOverviewRow, error) {
			return nil, nil
		},
	}

	c, rec := newDoctorContext(t, "/doctor/patients?ordering=nope")

	require.NoError(t, ListPatientsHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandler(t *testing.T) {
	queries = &mockStore{
		countPatients: func(_ context.Context, doctorID string) (int64, error) { return 12, nil },
		countActive:   func(_ context.Context, doctorID string) (int64, error) { return 8, nil },
		avgGlucose: func(_ context.Context, doctorID string) (pgtype.Float8, error) {
			return pgtype.Float8{Float64: 6.44, Valid: true}, nil
		},
		listCritical: func(_ context.Context, arg database.ListCriticalReadingsParams) ([]database.CriticalReadingRow, error) {
			assert.Equal(t, criticalHighThreshold, arg.High)
			assert.Equal(t, criticalLowThreshold, arg.Low)
			return []database.CriticalReadingRow{
				{UserID: "patient-1", PatientName: "Alice", Value: 12.3},
			}, nil
		},
	}

	c, rec := newDoctorContext(t, "/doctor/dashboard")

	require.NoError(t, DashboardHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(12), body["total_patients"])
	assert.Equal(t, float64(8), body["active_patients"])
	assert.Equal(t, 6.4, body["avg_glucose_7d"])
	assert.Len(t, body["critical_readings"], 1)
}

func TestDashboardHandlerNoReadings(t *testing.T) {
	queries = &mockStore{
		countPatients: func(_ context.Context, doctorID string) (int64, error) { return 0, nil },
		countActive:   func(_ context.Context, doctorID string) (int64, error) { return 0, nil },
		avgGlucose: func(_ context.Context, doctorID string) (pgtype.Float8, error) {
			return pgtype.Float8{}, nil
		},
		listCritical: func(_ context.Context, _ database.ListCriticalReadingsParams) ([]database.CriticalReadingRow, error) {
			return nil, nil
		},
	}

	c, rec := newDoctorContext(t, "/doctor/dashboard")

	require.NoError(t, DashboardHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body["avg_glucose_7d"])
	assert.Empty(t, body["critical_readings"])
}

func TestPatientStatisticsHandlerDeniesUnassigned(t *testing.T) {
	queries = &mockStore{
		isDoctorOf: func(_ context.Context, arg database.IsDoctorOfPatientParams) (bool, error) {
			return false, nil
		},
	}

	c, rec := newDoctorContext(t, "/doctor/patients/patient-9/statistics")
	c.SetParamNames("id")
	c.SetParamValues("patient-9")

	require.NoError(t, PatientStatisticsHandler(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
