// Package auth implements registration, login, token refresh, email
// verification and the JWT middleware guarding protected routes.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	emailverifier "github.com/AfterShip/email-verifier"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/glucodiary/glucodiary/internal/config"
	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/utility"
)

const (
	AccessTokenDuration  = 15 * time.Minute
	RefreshTokenDuration = 30 * 24 * time.Hour
	OtpExpiryDuration    = 5 * time.Minute
	OtpResendCooldown    = 1 * time.Minute
	MaxOtpAttempts       = 3
)

// Store is the subset of database queries the auth package needs.
// *database.Queries satisfies it; tests substitute a mock.
type Store interface {
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	GetUserByID(ctx context.Context, userID string) (database.User, error)
	GetUserByEmail(ctx context.Context, email string) (database.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpsertOAuthUser(ctx context.Context, arg database.UpsertOAuthUserParams) (database.User, error)
	SetEmailVerified(ctx context.Context, userID string) error
	CreateRefreshToken(ctx context.Context, arg database.CreateRefreshTokenParams) (database.RefreshToken, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (database.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string) error
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error
	CreateTelegramAuthCode(ctx context.Context, arg database.CreateTelegramAuthCodeParams) (database.TelegramAuthCode, error)
	GetActiveTelegramAuthCode(ctx context.Context, code string) (database.TelegramAuthCode, error)
	MarkTelegramCodeUsed(ctx context.Context, id string) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (database.User, error)
	LinkTelegramAccount(ctx context.Context, arg database.LinkTelegramAccountParams) (database.User, error)
}

var (
	queries  Store
	cfg      *config.Config
	verifier = emailverifier.NewVerifier()

	emailCache = sync.Map{}
	otpStore   = sync.Map{}
	otpMutex   = sync.RWMutex{}
)

type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	User         database.User `json:"user"`
}

type RegisterRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
	Name     string `json:"name" form:"name" validate:"required"`
	Role     string `json:"role" form:"role"`
	Phone    string `json:"phone" form:"phone"`
	DoctorID string `json:"doctor_id" form:"doctor_id"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	UserID  string `json:"user_id" form:"user_id"`
	OtpCode string `json:"otp_code" form:"otp_code"`
}

type ResendCodeRequest struct {
	UserID string `json:"user_id" form:"user_id"`
}

type emailVerificationResult struct {
	valid     bool
	message   string
	timestamp time.Time
}

// OtpEntry stores OTP secret and metadata
type OtpEntry struct {
	UserID      string
	Email       string
	Secret      string
	GeneratedAt time.Time
	Attempts    int
	LastAttempt time.Time
	Purpose     string
}

// InitAuth wires the package to the database and configures the OAuth
// providers. Must be called before any handler is registered.
func InitAuth(dbpool *pgxpool.Pool, c *config.Config) error {
	queries = database.New(dbpool)
	cfg = c

	if err := initOAuthProviders(c); err != nil {
		return err
	}

	startOTPCleanup()
	log.Info().Str("env", c.AppEnv).Msg("auth initialized")
	return nil
}

// RegisterHandler handles POST /auth/register.
func RegisterHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email, password, and name are required"})
	}

	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Password must be at least 8 characters"})
	}

	role := req.Role
	switch role {
	case "":
		role = database.RoleUser
	case database.RoleUser, database.RoleDoctor:
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Role must be 'user' or 'doctor'"})
	}

	// Email verification
	isValidEmail, emailError, err := verifyEmailAddressWithCache(req.Email)
	if err != nil {
		log.Error().Err(err).Msg("Email verification error")
	} else if !isValidEmail {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": emailError})
	}

	emailExists, err := queries.CheckEmailExists(ctx, req.Email)
	if err != nil {
		log.Error().Err(err).Msg("Error checking email")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if emailExists {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Email already exists"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("Error hashing password")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	userID := uuid.New().String()

	var doctorID pgtype.Text
	if req.DoctorID != "" {
		if _, err := queries.GetUserByID(ctx, req.DoctorID); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown doctor_id"})
		}
		doctorID = pgtype.Text{String: req.DoctorID, Valid: true}
	}

	user, err := queries.CreateUser(ctx, database.CreateUserParams{
		UserID:       userID,
		Email:        req.Email,
		PasswordHash: pgtype.Text{String: string(hashedPassword), Valid: true},
		Name:         req.Name,
		Role:         role,
		Phone:        pgtype.Text{String: req.Phone, Valid: req.Phone != ""},
		DoctorID:     doctorID,
	})
	if err != nil {
		log.Error().Err(err).Msg("Error creating user")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create user"})
	}

	// Verification code failure is not fatal: the account exists and the
	// code can be resent.
	if err := generateAndStoreOTP(userID, user.Email, "signup"); err != nil {
		log.Error().Err(err).Msg("Failed to send verification code")
	}

	accessToken, err := generateAccessToken(&user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error generating access token"})
	}

	refreshToken, err := generateAndStoreRefreshToken(ctx, user.UserID, c.Request())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error generating refresh token"})
	}

	log.Info().Str("user_id", userID).Str("role", role).Msg("new user registered")
	return c.JSON(http.StatusCreated, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(AccessTokenDuration.Seconds()),
		User:         user,
	})
}

// LoginHandler handles POST /auth/login.
func LoginHandler(c echo.Context) error {
	ctx := c.Request().Context()

	if err := utility.CheckIPRateLimit(utility.GetRealIP(c)); err != nil {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": err.Error()})
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email and password are required"})
	}

	user, err := queries.GetUserByEmail(ctx, req.Email)
	if err != nil {
		utility.AddRandomDelay()
		log.Info().Str("email", req.Email).Msg("login attempt for unknown email")
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
	}

	if !user.PasswordHash.Valid {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Account uses social login"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(req.Password)); err != nil {
		utility.AddRandomDelay()
		log.Info().Str("email", req.Email).Msg("failed login attempt")
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
	}

	accessToken, err := generateAccessToken(&user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error generating access token"})
	}

	refreshToken, err := generateAndStoreRefreshToken(ctx, user.UserID, c.Request())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error generating refresh token"})
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(AccessTokenDuration.Seconds()),
		User:         user,
	})
}

// RefreshHandler rotates a refresh token and issues a new access token.
func RefreshHandler(c echo.Context) error {
	ctx := c.Request().Context()
	var refreshToken string

	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		refreshToken = strings.TrimPrefix(authHeader, "Bearer ")
	} else {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.Bind(&body); err == nil {
			refreshToken = body.RefreshToken
		}
	}

	if refreshToken == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "No refresh token provided"})
	}

	user, newRefreshToken, err := useRefreshToken(ctx, refreshToken, c.Request())
	if err != nil {
		log.Info().Err(err).Msg("refresh token rejected")
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired refresh token"})
	}

	accessToken, err := generateAccessToken(user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error generating access token"})
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(AccessTokenDuration.Seconds()),
		User:         *user,
	})
}

// LogoutHandler revokes all refresh tokens of the current user.
func LogoutHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := c.Get("user_id").(string)
	if ok && userID != "" {
		if err := queries.RevokeAllUserRefreshTokens(ctx, userID); err != nil {
			log.Error().Err(err).Msg("Error revoking tokens")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// VerifyEmailHandler confirms the signup OTP code.
func VerifyEmailHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.UserID == "" || req.OtpCode == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "User ID and OTP code are required"})
	}

	valid, err := verifyOTPCode(req.UserID, req.OtpCode)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
	if !valid {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid OTP code"})
	}

	if err := queries.SetEmailVerified(ctx, req.UserID); err != nil {
		log.Error().Err(err).Msg("Error marking email verified")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Email verified"})
}

// ResendVerificationHandler resends the signup OTP code.
func ResendVerificationHandler(c echo.Context) error {
	var req ResendCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "User ID is required"})
	}

	val, ok := otpStore.Load(req.UserID)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No pending verification found"})
	}

	entry := val.(OtpEntry)
	if err := generateAndStoreOTP(req.UserID, entry.Email, entry.Purpose); err != nil {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "Verification code resent successfully",
		"expires_in": int(OtpExpiryDuration.Seconds()),
	})
}

// JwtAuthMiddleware parses the Bearer token and loads the user's identity
// into the echo context.
func JwtAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing bearer token"})
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(cfg.SessionSecret), nil
		})
		if err != nil || !token.Valid {
			log.Info().Err(err).Msg("token validation failed")
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		}

		claims, ok := token.Claims.(*JwtCustomClaims)
		if !ok || claims.UserID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		return next(c)
	}
}

// RequireDoctor allows only users with the doctor role through.
func RequireDoctor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("user_role").(string)
		if role != database.RoleDoctor && role != database.RoleAdmin {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Doctor access required"})
		}
		return next(c)
	}
}

// Helper functions

func generateAccessToken(user *database.User) (string, error) {
	claims := &JwtCustomClaims{
		UserID: user.UserID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(AccessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "glucodiary",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SessionSecret))
}

func generateAndStoreRefreshToken(ctx context.Context, userID string, r *http.Request) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	hash := sha256.Sum256([]byte(token))
	tokenHash := base64.URLEncoding.EncodeToString(hash[:])

	deviceInfo := r.UserAgent()

	var ipAddr *netip.Addr
	ipStr := strings.Split(r.RemoteAddr, ":")[0]
	if ip, err := netip.ParseAddr(ipStr); err == nil {
		ipAddr = &ip
	}

	_, err := queries.CreateRefreshToken(ctx, database.CreateRefreshTokenParams{
		ID:         uuid.New().String(),
		UserID:     userID,
		TokenHash:  tokenHash,
		DeviceInfo: pgtype.Text{String: deviceInfo, Valid: deviceInfo != ""},
		IpAddress:  ipAddr,
		ExpiresAt:  pgtype.Timestamptz{Time: time.Now().Add(RefreshTokenDuration), Valid: true},
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Database error creating refresh token")
		return "", err
	}

	return token, nil
}

func useRefreshToken(ctx context.Context, token string, r *http.Request) (*database.User, string, error) {
	hash := sha256.Sum256([]byte(token))
	tokenHash := base64.URLEncoding.EncodeToString(hash[:])

	rt, err := queries.GetRefreshTokenByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", fmt.Errorf("invalid refresh token")
		}
		return nil, "", err
	}

	if rt.RevokedAt.Valid {
		return nil, "", fmt.Errorf("token has been revoked")
	}

	if rt.ExpiresAt.Valid && time.Now().After(rt.ExpiresAt.Time) {
		return nil, "", fmt.Errorf("token has expired")
	}

	user, err := queries.GetUserByID(ctx, rt.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("user not found")
	}

	newToken, err := generateAndStoreRefreshToken(ctx, rt.UserID, r)
	if err != nil {
		return nil, "", err
	}

	if err := queries.RevokeRefreshToken(ctx, rt.ID); err != nil {
		log.Error().Err(err).Msg("failed to revoke old refresh token")
	}

	return &user, newToken, nil
}

// email verification

func verifyEmailAddress(email string) (bool, string, error) {
	ret, err := verifier.Verify(email)
	if err != nil {
		return false, "Email verification failed, please try again.", err
	}

	if !ret.Syntax.Valid {
		return false, "Invalid email address format.", nil
	}

	if ret.Disposable {
		return false, "Disposable email addresses are not allowed.", nil
	}

	if ret.Reachable == "false" || ret.Reachable == "invalid" {
		return false, "Email address is not reachable.", nil
	}

	if ret.RoleAccount {
		log.Info().Str("email", email).Msg("role account detected")
	}

	return true, "", nil
}

func verifyEmailAddressWithCache(email string) (bool, string, error) {
	if cached, ok := emailCache.Load(email); ok {
		result := cached.(emailVerificationResult)
		if time.Since(result.timestamp) < 24*time.Hour {
			return result.valid, result.message, nil
		}
	}

	valid, message, err := verifyEmailAddress(email)

	if err == nil {
		emailCache.Store(email, emailVerificationResult{
			valid:     valid,
			message:   message,
			timestamp: time.Now(),
		})
	}

	return valid, message, err
}
