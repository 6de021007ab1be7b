package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/glucodiary/glucodiary/internal/database"
)

type mockStore struct {
	getUserByID     func(ctx context.Context, userID string) (database.User, error)
	updateProfile   func(ctx context.Context, arg database.UpdateUserProfileParams) (database.User, error)
	updatePassword  func(ctx context.Context, userID, passwordHash string) error
	revokeAllTokens func(ctx context.Context, userID string) error
	passwordUpdated bool
	tokensRevoked   bool
}

func (m *mockStore) GetUserByID(ctx context.Context, userID string) (database.User, error) {
	return m.getUserByID(ctx, userID)
}

func (m *mockStore) UpdateUserProfile(ctx context.Context, arg database.UpdateUserProfileParams) (database.User, error) {
	return m.updateProfile(ctx, arg)
}

func (m *mockStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	m.passwordUpdated = true
	if m.updatePassword != nil {
		return m.updatePassword(ctx, userID, passwordHash)
	}
	return nil
}

func (m *mockStore) RevokeAllUserRefreshTokens(ctx context.Context, userID string) error {
	m.tokensRevoked = true
	if m.revokeAllTokens != nil {
		return m.revokeAllTokens(ctx, userID)
	}
	return nil
}

func newJSONContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "user-1")
	return c, rec
}

func TestUpdateProfileHandlerRejectsNonDoctorID(t *testing.T) {
	queries = &mockStore{
		getUserByID: func(_ context.Context, userID string) (database.User, error) {
			return database.User{UserID: userID, Role: database.RoleUser}, nil
		},
	}

	c, rec := newJSONContext(http.MethodPut, "/profile", `{"doctor_id":"not-a-doctor"}`)

	require.NoError(t, UpdateProfileHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProfileHandlerAcceptsDoctorID(t *testing.T) {
	var captured database.UpdateUserProfileParams
	queries = &mockStore{
		getUserByID: func(_ context.Context, userID string) (database.User, error) {
			return database.User{UserID: userID, Role: database.RoleDoctor}, nil
		},
		updateProfile: func(_ context.Context, arg database.UpdateUserProfileParams) (database.User, error) {
			captured = arg
			return database.User{UserID: arg.UserID}, nil
		},
	}

	c, rec := newJSONContext(http.MethodPut, "/profile", `{"name":"Alice","doctor_id":"doctor-1"}`)

	require.NoError(t, UpdateProfileHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", captured.UserID)
	assert.Equal(t, "Alice", captured.Name.String)
	assert.Equal(t, "doctor-1", captured.DoctorID.String)
}

func TestChangePasswordHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)

	store := &mockStore{
		getUserByID: func(_ context.Context, userID string) (database.User, error) {
			return database.User{
				UserID:       userID,
				PasswordHash: pgtype.Text{String: string(hash), Valid: true},
			}, nil
		},
	}
	queries = store

	c, rec := newJSONContext(http.MethodPut, "/profile/password",
		`{"old_password":"old-password","new_password":"brand-new-password"}`)

	require.NoError(t, ChangePasswordHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.passwordUpdated)
	assert.True(t, store.tokensRevoked)
}

func TestChangePasswordHandlerWrongOldPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)

	store := &mockStore{
		getUserByID: func(_ context.Context, userID string) (database.User, error) {
			return database.User{
				UserID:       userID,
				PasswordHash: pgtype.Text{String: string(hash), Valid: true},
			}, nil
		},
	}
	queries = store

	c, rec := newJSONContext(http.MethodPut, "/profile/password",
		`{"old_password":"guess","new_password":"brand-new-password"}`)

	require.NoError(t, ChangePasswordHandler(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, store.passwordUpdated)
}

func TestChangePasswordHandlerTooShort(t *testing.T) {
	queries = &mockStore{}

	c, rec := newJSONContext(http.MethodPut, "/profile/password",
		`{"old_password":"old-password","new_password":"short"}`)

	require.NoError(t, ChangePasswordHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePasswordHandlerSocialLoginAccount(t *testing.T) {
	queries = &mockStore{
		getUserByID: func(_ context.Context, userID string) (database.User, error) {
			return database.User{UserID: userID}, nil
		},
	}

	c, rec := newJSONContext(http.MethodPut, "/profile/password",
		`{"old_password":"x","new_password":"brand-new-password"}`)

	require.NoError(t, ChangePasswordHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
