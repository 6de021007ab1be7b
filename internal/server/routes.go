package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/glucodiary/glucodiary/internal/aiservice"
	"github.com/glucodiary/glucodiary/internal/auth"
	"github.com/glucodiary/glucodiary/internal/diary"
	"github.com/glucodiary/glucodiary/internal/doctor"
	"github.com/glucodiary/glucodiary/internal/user"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Platform"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)

	// Uploaded meal photos
	e.Static("/uploads", s.cfg.UploadDir)

	e.GET("/health", s.healthHandler)

	// Auth routes
	e.POST("/auth/register", auth.RegisterHandler)
	e.POST("/auth/login", auth.LoginHandler)
	e.POST("/auth/refresh", auth.RefreshHandler)
	e.POST("/auth/verify-email", auth.VerifyEmailHandler)
	e.POST("/auth/resend-verification", auth.ResendVerificationHandler)

	// OAuth routes
	e.GET("/auth/:provider", auth.ProviderHandler)
	e.GET("/auth/:provider/callback", auth.CallbackHandler)

	// Telegram bot routes
	e.POST("/auth/telegram/confirm", auth.ConfirmTelegramCodeHandler)
	e.GET("/auth/telegram/profile", auth.TelegramProfileHandler)

	// Protected routes
	protected := e.Group("")
	protected.Use(auth.JwtAuthMiddleware)

	protected.POST("/auth/logout", auth.LogoutHandler)
	protected.POST("/auth/telegram/code", auth.GenerateTelegramCodeHandler)

	// Account & profile
	protected.GET("/profile", user.GetProfileHandler)
	protected.PUT("/profile", user.UpdateProfileHandler)
	protected.POST("/profile/password", user.ChangePasswordHandler)

	// Glucose diary
	protected.POST("/diary/glucose", diary.CreateGlucoseHandler)
	protected.GET("/diary/glucose", diary.ListGlucoseHandler)
	protected.GET("/diary/glucose/:id", diary.GetGlucoseHandler)
	protected.PUT("/diary/glucose/:id", diary.UpdateGlucoseHandler)
	protected.DELETE("/diary/glucose/:id", diary.DeleteGlucoseHandler)

	// Events
	protected.POST("/diary/events", diary.CreateEventHandler)
	protected.GET("/diary/events", diary.ListEventsHandler)
	protected.GET("/diary/events/:id", diary.GetEventHandler)
	protected.PUT("/diary/events/:id", diary.UpdateEventHandler)
	protected.DELETE("/diary/events/:id", diary.DeleteEventHandler)

	// Meal photos & analysis
	protected.POST("/diary/meals/preview", diary.PreviewMealHandler)
	protected.POST("/diary/meals/with-photo", diary.CreateMealWithPhotoHandler)
	protected.POST("/diary/events/:id/photo", diary.AttachMealPhotoHandler)

	// Medications
	protected.POST("/diary/medications", diary.CreateMedicationHandler)
	protected.GET("/diary/medications", diary.ListMedicationsHandler)
	protected.GET("/diary/medications/:id", diary.GetMedicationHandler)
	protected.PUT("/diary/medications/:id", diary.UpdateMedicationHandler)
	protected.DELETE("/diary/medications/:id", diary.DeleteMedicationHandler)

	// Stress notes
	protected.POST("/diary/stress", diary.CreateStressNoteHandler)
	protected.GET("/diary/stress", diary.ListStressNotesHandler)
	protected.GET("/diary/stress/:id", diary.GetStressNoteHandler)
	protected.PUT("/diary/stress/:id", diary.UpdateStressNoteHandler)
	protected.DELETE("/diary/stress/:id", diary.DeleteStressNoteHandler)

	// Reminders
	protected.POST("/diary/reminders", diary.CreateReminderHandler)
	protected.GET("/diary/reminders", diary.ListRemindersHandler)
	protected.PUT("/diary/reminders/:id", diary.UpdateReminderHandler)
	protected.PATCH("/diary/reminders/:id/done", diary.MarkReminderDoneHandler)
	protected.DELETE("/diary/reminders/:id", diary.DeleteReminderHandler)

	// Statistics
	protected.GET("/statistics/activity", diary.ActivityStatisticsHandler)
	protected.GET("/statistics/glucose", diary.GlucoseStatisticsHandler)
	protected.GET("/statistics/nutrition", diary.NutritionStatisticsHandler)

	// AI recommendations
	protected.GET("/recommendations", aiservice.GetRecommendationHandler)
	protected.GET("/recommendations/history", aiservice.ListRecommendationsHandler)
	protected.POST("/recommendations/generate", aiservice.GenerateRecommendationHandler)

	// Doctor routes
	doctorGroup := protected.Group("/doctor")
	doctorGroup.Use(auth.RequireDoctor)

	doctorGroup.GET("/patients", doctor.ListPatientsHandler)
	doctorGroup.GET("/patients/:id/statistics", doctor.PatientStatisticsHandler)
	doctorGroup.GET("/glucose", doctor.ListGlucoseHandler)
	doctorGroup.GET("/events", doctor.ListEventsHandler)
	doctorGroup.GET("/medications", doctor.ListMedicationsHandler)
	doctorGroup.GET("/dashboard", doctor.DashboardHandler)
	doctorGroup.GET("/alerts/ws", doctor.AlertsWebsocketHandler)

	return e
}

// healthHandler reports database pool health together with basic host
// resource usage.
func (s *Server) healthHandler(c echo.Context) error {
	health := map[string]interface{}{
		"database": s.db.Health(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		health["memory_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		health["cpu_used_percent"] = percents[0]
	}

	return c.JSON(http.StatusOK, health)
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}
