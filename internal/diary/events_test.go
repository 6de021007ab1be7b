package diary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucodiary/glucodiary/internal/database"
)

// mockStore embeds Store so only the methods a test touches need stubs.
type mockStore struct {
	Store

	createEvent        func(ctx context.Context, arg database.CreateEventParams) (database.Event, error)
	getEvent           func(ctx context.Context, id string) (database.Event, error)
	updateEvent        func(ctx context.Context, arg database.UpdateEventParams) (database.Event, error)
	listEventsSince    func(ctx context.Context, arg database.ListEventsSinceParams) ([]database.Event, error)
	createGlucose      func(ctx context.Context, arg database.CreateGlucoseMeasurementParams) (database.GlucoseMeasurement, error)
	getDoctorIDForUser func(ctx context.Context, userID string) (pgtype.Text, error)
	isDoctorOfPatient  func(ctx context.Context, arg database.IsDoctorOfPatientParams) (bool, error)
	getMealPhoto       func(ctx context.Context, eventID string) (database.MealPhoto, error)
}

func (m *mockStore) CreateEvent(ctx context.Context, arg database.CreateEventParams) (database.Event, error) {
	return m.createEvent(ctx, arg)
}

func (m *mockStore) GetEvent(ctx context.Context, id string) (database.Event, error) {
	return m.getEvent(ctx, id)
}

func (m *mockStore) UpdateEvent(ctx context.Context, arg database.UpdateEventParams) (database.Event, error) {
	return m.updateEvent(ctx, arg)
}

func (m *mockStore) ListEventsSince(ctx context.Context, arg database.ListEventsSinceParams) ([]database.Event, error) {
	return m.listEventsSince(ctx, arg)
}

func (m *mockStore) CreateGlucoseMeasurement(ctx context.Context, arg database.CreateGlucoseMeasurementParams) (database.GlucoseMeasurement, error) {
	return m.createGlucose(ctx, arg)
}

func (m *mockStore) GetDoctorIDForUser(ctx context.Context, userID string) (pgtype.Text, error) {
	return m.getDoctorIDForUser(ctx, userID)
}

func (m *mockStore) IsDoctorOfPatient(ctx context.Context, arg database.IsDoctorOfPatientParams) (bool, error) {
	return m.isDoctorOfPatient(ctx, arg)
}

func (m *mockStore) GetMealPhotoByEvent(ctx context.Context, eventID string) (database.MealPhoto, error) {
	return m.getMealPhoto(ctx, eventID)
}

func newJSONContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asPatient(c echo.Context, userID string) {
	c.Set("user_id", userID)
	c.Set("user_email", userID+"@example.com")
	c.Set("user_role", database.RoleUser)
}

func TestComputeEndTime(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	end := computeEndTime(start, nil)
	assert.False(t, end.Valid)

	mins := int32(45)
	end = computeEndTime(start, &mins)
	require.True(t, end.Valid)
	assert.Equal(t, start.Add(45*time.Minute), end.Time)
}

func TestCreateEventHandler(t *testing.T) {
	var captured database.CreateEventParams
	queries = &mockStore{
		createEvent: func(_ context.Context, arg database.CreateEventParams) (database.Event, error) {
			captured = arg
			return database.Event{ID: arg.ID, UserID: arg.UserID, EventType: arg.EventType}, nil
		},
	}

	body := `{"event_type":"walk","title":"Morning walk","start_time":"2026-03-01T08:00:00Z","duration_minutes":30,"steps":4000}`
	c, rec := newJSONContext(t, http.MethodPost, "/diary/events", body)
	asPatient(c, "patient-1")

	require.NoError(t, CreateEventHandler(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, "patient-1", captured.UserID)
	assert.Equal(t, database.EventTypeWalk, captured.EventType)
	require.True(t, captured.EndTime.Valid)
	assert.Equal(t, captured.StartTime.Time.Add(30*time.Minute), captured.EndTime.Time)
	require.True(t, captured.Steps.Valid)
	assert.Equal(t, int32(4000), captured.Steps.Int32)
}

func TestCreateEventHandlerRejectsUnknownType(t *testing.T) {
	queries = &mockStore{}

	c, rec := newJSONContext(t, http.MethodPost, "/diary/events", `{"event_type":"swim"}`)
	asPatient(c, "patient-1")

	require.NoError(t, CreateEventHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEventHandlerOwnerAccess(t *testing.T) {
	queries = &mockStore{
		getEvent: func(_ context.Context, id string) (database.Event, error) {
			return database.Event{ID: id, UserID: "patient-1", EventType: database.EventTypeWalk}, nil
		},
	}

	c, rec := newJSONContext(t, http.MethodGet, "/diary/events/ev-1", "")
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	asPatient(c, "patient-1")

	require.NoError(t, GetEventHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetEventHandlerStrangerForbidden(t *testing.T) {
	queries = &mockStore{
		getEvent: func(_ context.Context, id string) (database.Event, error) {
			return database.Event{ID: id, UserID: "patient-1"}, nil
		},
	}

	c, rec := newJSONContext(t, http.MethodGet, "/diary/events/ev-1", "")
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	asPatient(c, "someone-else")

	require.NoError(t, GetEventHandler(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetEventHandlerAssignedDoctorCanView(t *testing.T) {
	queries = &mockStore{
		getEvent: func(_ context.Context, id string) (database.Event, error) {
			return database.Event{ID: id, UserID: "patient-1", EventType: database.EventTypeWalk}, nil
		},
		isDoctorOfPatient: func(_ context.Context, arg database.IsDoctorOfPatientParams) (bool, error) {
			return arg.DoctorID == "doctor-1" && arg.PatientID == "patient-1", nil
		},
	}

	c, rec := newJSONContext(t, http.MethodGet, "/diary/events/ev-1", "")
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	c.Set("user_id", "doctor-1")
	c.Set("user_role", database.RoleDoctor)

	require.NoError(t, GetEventHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateEventHandlerRecomputesEndTime(t *testing.T) {
	existingStart := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	var captured database.UpdateEventParams

	queries = &mockStore{
		getEvent: func(_ context.Context, id string) (database.Event, error) {
			return database.Event{
				ID:              id,
				UserID:          "patient-1",
				EventType:       database.EventTypeWalk,
				StartTime:       pgtype.Timestamptz{Time: existingStart, Valid: true},
				DurationMinutes: pgtype.Int4{Int32: 30, Valid: true},
			}, nil
		},
		updateEvent: func(_ context.Context, arg database.UpdateEventParams) (database.Event, error) {
			captured = arg
			return database.Event{ID: arg.ID, UserID: "patient-1"}, nil
		},
	}

	// Only the duration changes; end_time must follow the stored start.
	c, rec := newJSONContext(t, http.MethodPut, "/diary/events/ev-1", `{"duration_minutes":60}`)
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	asPatient(c, "patient-1")

	require.NoError(t, UpdateEventHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.True(t, captured.EndTime.Valid)
	assert.Equal(t, existingStart.Add(time.Hour), captured.EndTime.Time)
}

func TestCreateGlucoseHandler(t *testing.T) {
	var captured database.CreateGlucoseMeasurementParams
	queries = &mockStore{
		createGlucose: func(_ context.Context, arg database.CreateGlucoseMeasurementParams) (database.GlucoseMeasurement, error) {
			captured = arg
			return database.GlucoseMeasurement{ID: arg.ID, UserID: arg.UserID, Value: arg.Value, MeasuredAt: arg.MeasuredAt}, nil
		},
	}

	c, rec := newJSONContext(t, http.MethodPost, "/diary/glucose", `{"value":5.6,"measured_at":"2026-03-01T08:00:00Z"}`)
	asPatient(c, "patient-1")

	require.NoError(t, CreateGlucoseHandler(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 5.6, captured.Value)

	var got database.GlucoseMeasurement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "patient-1", got.UserID)
}

func TestCreateGlucoseHandlerRejectsNonPositive(t *testing.T) {
	queries = &mockStore{}

	c, rec := newJSONContext(t, http.MethodPost, "/diary/glucose", `{"value":0}`)
	asPatient(c, "patient-1")

	require.NoError(t, CreateGlucoseHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGlucoseHandlerCriticalLooksUpDoctor(t *testing.T) {
	doctorLookups := 0
	queries = &mockStore{
		createGlucose: func(_ context.Context, arg database.CreateGlucoseMeasurementParams) (database.GlucoseMeasurement, error) {
			return database.GlucoseMeasurement{ID: arg.ID, UserID: arg.UserID, Value: arg.Value}, nil
		},
		getDoctorIDForUser: func(_ context.Context, userID string) (pgtype.Text, error) {
			doctorLookups++
			return pgtype.Text{}, nil
		},
	}

	c, rec := newJSONContext(t, http.MethodPost, "/diary/glucose", `{"value":12.4}`)
	asPatient(c, "patient-1")

	require.NoError(t, CreateGlucoseHandler(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, doctorLookups)
}
