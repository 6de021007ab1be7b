package diary

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucodiary/glucodiary/internal/database"
)

// newPhotoContext builds a multipart request carrying a single "photo"
// part with the given content type.
func newPhotoContext(t *testing.T, path string, payload []byte, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="photo"; filename="photo.jpg"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadMealPhoto(t *testing.T) {
	c, _ := newPhotoContext(t, "/diary/events/ev-1/photo", []byte("jpeg-bytes"), "image/jpeg")

	data, contentType, err := readMealPhoto(c)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestReadMealPhotoRejectsOversize(t *testing.T) {
	c, _ := newPhotoContext(t, "/diary/events/ev-1/photo", make([]byte, maxPhotoSize+1), "image/jpeg")

	_, _, err := readMealPhoto(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10MB limit")
}

func TestReadMealPhotoRejectsContentType(t *testing.T) {
	c, _ := newPhotoContext(t, "/diary/events/ev-1/photo", []byte("plain text"), "text/plain")

	_, _, err := readMealPhoto(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported photo type")
}

func TestReadMealPhotoRequiresPhotoPart(t *testing.T) {
	c, _ := newJSONContext(t, http.MethodPost, "/diary/events/ev-1/photo", "")

	_, _, err := readMealPhoto(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "photo file is required")
}

func TestAttachMealPhotoHandlerRejectsNonMealEvent(t *testing.T) {
	queries = &mockStore{
		getEvent: func(_ context.Context, id string) (database.Event, error) {
			return database.Event{ID: id, UserID: "patient-1", EventType: database.EventTypeWalk}, nil
		},
	}

	c, rec := newPhotoContext(t, "/diary/events/ev-1/photo", []byte("jpeg-bytes"), "image/jpeg")
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	asPatient(c, "patient-1")

	require.NoError(t, AttachMealPhotoHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "meal events")
}

func TestAttachMealPhotoHandlerRejectsDuplicate(t *testing.T) {
	queries = &mockStore{
		getEvent: func(_ context.Context, id string) (database.Event, error) {
			return database.Event{ID: id, UserID: "patient-1", EventType: database.EventTypeMeal}, nil
		},
		getMealPhoto: func(_ context.Context, eventID string) (database.MealPhoto, error) {
			return database.MealPhoto{ID: "photo-1", EventID: eventID}, nil
		},
	}

	c, rec := newPhotoContext(t, "/diary/events/ev-1/photo", []byte("jpeg-bytes"), "image/jpeg")
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	asPatient(c, "patient-1")

	require.NoError(t, AttachMealPhotoHandler(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already has a photo")
}

func TestAttachMealPhotoHandlerStrangerForbidden(t *testing.T) {
	queries = &mockStore{
		getEvent: func(_ context.Context, id string) (database.Event, error) {
			return database.Event{ID: id, UserID: "patient-1", EventType: database.EventTypeMeal}, nil
		},
	}

	c, rec := newPhotoContext(t, "/diary/events/ev-1/photo", []byte("jpeg-bytes"), "image/jpeg")
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	asPatient(c, "someone-else")

	require.NoError(t, AttachMealPhotoHandler(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAttachMealPhotoHandlerRejectsBadUpload(t *testing.T) {
	queries = &mockStore{
		getEvent: func(_ context.Context, id string) (database.Event, error) {
			return database.Event{ID: id, UserID: "patient-1", EventType: database.EventTypeMeal}, nil
		},
		getMealPhoto: func(_ context.Context, eventID string) (database.MealPhoto, error) {
			return database.MealPhoto{}, pgx.ErrNoRows
		},
	}

	c, rec := newPhotoContext(t, "/diary/events/ev-1/photo", []byte("plain text"), "text/plain")
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	asPatient(c, "patient-1")

	require.NoError(t, AttachMealPhotoHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported photo type")
}
