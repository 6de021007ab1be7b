package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucodiary/glucodiary/internal/database"
)

// telegramStore mimics the single-use code semantics of the real
// queries: lookups see a code only while it is unused and unexpired.
type telegramStore struct {
	Store

	codes  map[string]database.TelegramAuthCode // keyed by code
	used   map[string]bool                      // keyed by id
	linked []string
}

func newTelegramStore(codes ...database.TelegramAuthCode) *telegramStore {
	s := &telegramStore{
		codes: make(map[string]database.TelegramAuthCode),
		used:  make(map[string]bool),
	}
	for _, c := range codes {
		s.codes[c.Code] = c
	}
	return s
}

func (s *telegramStore) GetActiveTelegramAuthCode(_ context.Context, code string) (database.TelegramAuthCode, error) {
	entry, ok := s.codes[code]
	if !ok || s.used[entry.ID] || !entry.ExpiresAt.Time.After(time.Now()) {
		return database.TelegramAuthCode{}, pgx.ErrNoRows
	}
	return entry, nil
}

func (s *telegramStore) MarkTelegramCodeUsed(_ context.Context, id string) error {
	s.used[id] = true
	return nil
}

func (s *telegramStore) LinkTelegramAccount(_ context.Context, arg database.LinkTelegramAccountParams) (database.User, error) {
	s.linked = append(s.linked, arg.UserID)
	return database.User{
		UserID:           arg.UserID,
		TelegramID:       arg.TelegramID,
		TelegramUsername: arg.TelegramUsername,
	}, nil
}

func newConfirmContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/telegram/confirm", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestConfirmTelegramCodeHandlerSingleUse(t *testing.T) {
	store := newTelegramStore(database.TelegramAuthCode{
		ID:        "code-1",
		UserID:    "user-1",
		Code:      "ABC234",
		ExpiresAt: pgtype.Timestamptz{Time: time.Now().Add(TelegramCodeExpiry), Valid: true},
	})
	old := queries
	queries = store
	t.Cleanup(func() { queries = old })

	body := `{"code":"ABC234","telegram_id":777,"telegram_username":"alice_tg"}`

	c, rec := newConfirmContext(t, body)
	require.NoError(t, ConfirmTelegramCodeHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.used["code-1"])
	assert.Equal(t, []string{"user-1"}, store.linked)

	// The same code must not confirm twice.
	c, rec = newConfirmContext(t, body)
	require.NoError(t, ConfirmTelegramCodeHandler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{"user-1"}, store.linked)
}

func TestConfirmTelegramCodeHandlerRejectsExpired(t *testing.T) {
	store := newTelegramStore(database.TelegramAuthCode{
		ID:        "code-2",
		UserID:    "user-1",
		Code:      "XYZ789",
		ExpiresAt: pgtype.Timestamptz{Time: time.Now().Add(-time.Minute), Valid: true},
	})
	old := queries
	queries = store
	t.Cleanup(func() { queries = old })

	c, rec := newConfirmContext(t, `{"code":"XYZ789","telegram_id":777}`)
	require.NoError(t, ConfirmTelegramCodeHandler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, store.used["code-2"])
	assert.Empty(t, store.linked)
}

func TestConfirmTelegramCodeHandlerRequiresCodeAndID(t *testing.T) {
	old := queries
	queries = newTelegramStore()
	t.Cleanup(func() { queries = old })

	c, rec := newConfirmContext(t, `{"code":"ABC234"}`)
	require.NoError(t, ConfirmTelegramCodeHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
