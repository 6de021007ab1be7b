package utility

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserIDFromContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	_, err := GetUserIDFromContext(c)
	assert.Error(t, err)

	c.Set("user_id", "user-1")
	id, err := GetUserIDFromContext(c)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestGetRealIPPrefersForwardedFor(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "203.0.113.7", GetRealIP(c))
}

func TestNullableHelpers(t *testing.T) {
	assert.False(t, TextOrNull(nil).Valid)
	s := "hello"
	text := TextOrNull(&s)
	assert.True(t, text.Valid)
	assert.Equal(t, "hello", text.String)

	assert.False(t, Float8OrNull(nil).Valid)
	f := 5.5
	assert.Equal(t, 5.5, Float8OrNull(&f).Float64)

	assert.False(t, Int4OrNull(nil).Valid)
	i := int32(42)
	assert.Equal(t, int32(42), Int4OrNull(&i).Int32)

	assert.False(t, BoolOrNull(nil).Valid)
	b := true
	assert.True(t, BoolOrNull(&b).Bool)
}

func TestParseRFC3339OrNull(t *testing.T) {
	empty, err := ParseRFC3339OrNull("")
	require.NoError(t, err)
	assert.False(t, empty.Valid)

	parsed, err := ParseRFC3339OrNull("2026-03-01T08:00:00Z")
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	assert.Equal(t, 2026, parsed.Time.Year())

	_, err = ParseRFC3339OrNull("yesterday")
	assert.Error(t, err)
}

func TestCheckIPRateLimit(t *testing.T) {
	ip := "192.0.2.55"
	for i := 0; i < 10; i++ {
		require.NoError(t, CheckIPRateLimit(ip))
	}
	assert.Error(t, CheckIPRateLimit(ip))

	// other IPs are unaffected
	assert.NoError(t, CheckIPRateLimit("192.0.2.56"))
}

func TestGenerateLinkCode(t *testing.T) {
	code, err := GenerateLinkCode(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	// no ambiguous characters
	for _, ambiguous := range []string{"0", "O", "1", "I"} {
		assert.False(t, strings.Contains(code, ambiguous), "code %q contains %q", code, ambiguous)
	}
}

func TestGenerateSecureToken(t *testing.T) {
	token, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 64) // hex doubles the byte length

	other, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
