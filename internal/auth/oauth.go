package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog/log"

	"github.com/glucodiary/glucodiary/internal/config"
	"github.com/glucodiary/glucodiary/internal/database"
)

func initOAuthProviders(c *config.Config) error {
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
		log.Info().Msg("Google OAuth not configured, social login disabled")
		return nil
	}

	store := sessions.NewCookieStore([]byte(c.SessionSecret))
	store.MaxAge(600)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = c.IsProduction()
	store.Options.SameSite = http.SameSiteLaxMode

	gothic.Store = store

	callbackURL := fmt.Sprintf("%s/auth/google/callback", c.AppURL)
	goth.UseProviders(
		google.New(c.GoogleClientID, c.GoogleClientSecret, callbackURL),
	)

	log.Info().Str("callback", callbackURL).Msg("OAuth providers initialized")
	return nil
}

// ProviderHandler starts the OAuth flow for the provider in the URL.
func ProviderHandler(c echo.Context) error {
	provider := c.Param("provider")

	req := gothic.GetContextWithProvider(c.Request(), provider)

	gothic.BeginAuthHandler(c.Response().Writer, req)
	return nil
}

// CallbackHandler completes the OAuth flow, upserts the user and returns
// a token pair.
func CallbackHandler(c echo.Context) error {
	ctx := c.Request().Context()

	provider := c.Param("provider")
	if provider == "" {
		provider = "google"
	}

	req := gothic.GetContextWithProvider(c.Request(), provider)

	gothUser, err := gothic.CompleteUserAuth(c.Response().Writer, req)
	if err != nil {
		log.Error().Err(err).Str("provider", provider).Msg("OAuth completion error")

		// If the session is lost, restart the flow
		if strings.Contains(err.Error(), "select a provider") {
			return c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("/auth/%s", provider))
		}

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error completing authentication"})
	}

	user, err := queries.UpsertOAuthUser(ctx, database.UpsertOAuthUserParams{
		UserID:         uuid.New().String(),
		Email:          gothUser.Email,
		Name:           gothUser.Name,
		Provider:       pgtype.Text{String: gothUser.Provider, Valid: true},
		ProviderUserID: pgtype.Text{String: gothUser.UserID, Valid: true},
		AvatarUrl:      pgtype.Text{String: gothUser.AvatarURL, Valid: gothUser.AvatarURL != ""},
	})
	if err != nil {
		log.Error().Err(err).Msg("Error upserting OAuth user")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error saving user data"})
	}

	accessToken, err := generateAccessToken(&user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error generating access token"})
	}

	refreshToken, err := generateAndStoreRefreshToken(ctx, user.UserID, c.Request())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error generating refresh token"})
	}

	log.Info().Str("email", user.Email).Msg("OAuth user authenticated")
	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(AccessTokenDuration.Seconds()),
		User:         user,
	})
}
