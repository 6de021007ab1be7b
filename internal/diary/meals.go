package diary

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/glucodiary/glucodiary/internal/aiservice"
	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/utility"
)

const maxPhotoSize = 10 << 20 // 10 MiB

// readMealPhoto pulls the "photo" part out of a multipart request and
// returns its bytes plus the detected content type.
func readMealPhoto(c echo.Context) ([]byte, string, error) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return nil, "", fmt.Errorf("photo file is required")
	}
	if fileHeader.Size > maxPhotoSize {
		return nil, "", fmt.Errorf("photo exceeds the 10MB limit")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open uploaded photo")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxPhotoSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read uploaded photo")
	}
	if len(data) > maxPhotoSize {
		return nil, "", fmt.Errorf("photo exceeds the 10MB limit")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		return nil, "", fmt.Errorf("unsupported photo type %s", contentType)
	}

	return data, contentType, nil
}

func photoExtension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// savePhotoFile writes the uploaded photo under the configured upload
// directory and returns the stored path.
func savePhotoFile(data []byte, contentType string) (string, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.New().String() + photoExtension(contentType)
	path := filepath.Join(uploadDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// PreviewMealHandler handles POST /diary/meals/preview: the photo is
// analyzed and the result returned without persisting anything.
func PreviewMealHandler(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := utility.GetUserIDFromContext(c); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	data, contentType, err := readMealPhoto(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	analysis, err := aiservice.AnalyzeFoodPhoto(ctx, base64.StdEncoding.EncodeToString(data), contentType)
	if err != nil {
		log.Error().Err(err).Msg("Food photo analysis failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Photo analysis is temporarily unavailable"})
	}

	return c.JSON(http.StatusOK, analysis)
}

// CreateMealWithPhotoHandler handles POST /diary/meals/with-photo: a
// meal event is created, the photo stored, and the AI analysis persisted
// alongside it. Analysis failure does not lose the meal or the photo.
func CreateMealWithPhotoHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	data, contentType, err := readMealPhoto(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	startTime := time.Now()
	if raw := c.FormValue("start_time"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid start_time format. Use RFC3339."})
		}
		startTime = parsed
	}

	var analysis *aiservice.FoodAnalysis
	analysis, err = aiservice.AnalyzeFoodPhoto(ctx, base64.StdEncoding.EncodeToString(data), contentType)
	if err != nil {
		log.Error().Err(err).Msg("Food photo analysis failed, saving meal without analysis")
		analysis = nil
	}

	title := c.FormValue("title")
	if title == "" && analysis != nil {
		title = analysis.FoodName
	}

	event, err := queries.CreateEvent(ctx, database.CreateEventParams{
		ID:        uuid.New().String(),
		UserID:    userID,
		EventType: database.EventTypeMeal,
		Title:     pgtype.Text{String: title, Valid: title != ""},
		StartTime: pgtype.Timestamptz{Time: startTime, Valid: true},
		Calories:  analysisFloat(analysis, func(a *aiservice.FoodAnalysis) float64 { return a.Calories }),
		Carbs:     analysisFloat(analysis, func(a *aiservice.FoodAnalysis) float64 { return a.Carbs }),
		Sugars:    analysisFloat(analysis, func(a *aiservice.FoodAnalysis) float64 { return a.Sugars }),
		Proteins:  analysisFloat(analysis, func(a *aiservice.FoodAnalysis) float64 { return a.Proteins }),
		Fats:      analysisFloat(analysis, func(a *aiservice.FoodAnalysis) float64 { return a.Fats }),
		Note:      pgtype.Text{String: c.FormValue("note"), Valid: c.FormValue("note") != ""},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create meal event")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save meal"})
	}

	photoPath, err := savePhotoFile(data, contentType)
	if err != nil {
		log.Error().Err(err).Msg("Failed to store meal photo file")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to store photo"})
	}

	photoParams := database.CreateMealPhotoParams{
		ID:        uuid.New().String(),
		EventID:   event.ID,
		PhotoPath: photoPath,
	}
	if analysis != nil {
		photoParams.FoodName = pgtype.Text{String: analysis.FoodName, Valid: analysis.FoodName != ""}
		photoParams.Calories = pgtype.Float8{Float64: analysis.Calories, Valid: true}
		photoParams.Carbs = pgtype.Float8{Float64: analysis.Carbs, Valid: true}
		photoParams.Sugars = pgtype.Float8{Float64: analysis.Sugars, Valid: true}
		photoParams.Proteins = pgtype.Float8{Float64: analysis.Proteins, Valid: true}
		photoParams.Fats = pgtype.Float8{Float64: analysis.Fats, Valid: true}
		photoParams.Description = pgtype.Text{String: analysis.Description, Valid: analysis.Description != ""}
		photoParams.Confidence = pgtype.Float8{Float64: analysis.Confidence, Valid: true}
		photoParams.PortionSize = pgtype.Text{String: analysis.PortionSize, Valid: analysis.PortionSize != ""}
		photoParams.AnalyzedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	}

	photo, err := queries.CreateMealPhoto(ctx, photoParams)
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist meal photo")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save photo record"})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"event":      event,
		"meal_photo": photo,
		"analysis":   analysis,
	})
}

func analysisFloat(a *aiservice.FoodAnalysis, get func(*aiservice.FoodAnalysis) float64) pgtype.Float8 {
	if a == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: get(a), Valid: true}
}

// AttachMealPhotoHandler handles POST /diary/events/:id/photo for an
// existing meal event. Photos attach only to meal events.
func AttachMealPhotoHandler(c echo.Context) error {
	ctx := c.Request().Context()

	event, err := queries.GetEvent(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Event not found"})
	}

	if !isOwner(c, event.UserID) {
		return forbidden(c)
	}

	if event.EventType != database.EventTypeMeal {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Photos can only be attached to meal events"})
	}

	if _, err := queries.GetMealPhotoByEvent(ctx, event.ID); err == nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Event already has a photo"})
	}

	data, contentType, err := readMealPhoto(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	photoPath, err := savePhotoFile(data, contentType)
	if err != nil {
		log.Error().Err(err).Msg("Failed to store meal photo file")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to store photo"})
	}

	photoParams := database.CreateMealPhotoParams{
		ID:        uuid.New().String(),
		EventID:   event.ID,
		PhotoPath: photoPath,
	}

	if analysis, err := aiservice.AnalyzeFoodPhoto(ctx, base64.StdEncoding.EncodeToString(data), contentType); err == nil {
		photoParams.FoodName = pgtype.Text{String: analysis.FoodName, Valid: analysis.FoodName != ""}
		photoParams.Calories = pgtype.Float8{Float64: analysis.Calories, Valid: true}
		photoParams.Carbs = pgtype.Float8{Float64: analysis.Carbs, Valid: true}
		photoParams.Sugars = pgtype.Float8{Float64: analysis.Sugars, Valid: true}
		photoParams.Proteins = pgtype.Float8{Float64: analysis.Proteins, Valid: true}
		photoParams.Fats = pgtype.Float8{Float64: analysis.Fats, Valid: true}
		photoParams.Description = pgtype.Text{String: analysis.Description, Valid: analysis.Description != ""}
		photoParams.Confidence = pgtype.Float8{Float64: analysis.Confidence, Valid: true}
		photoParams.PortionSize = pgtype.Text{String: analysis.PortionSize, Valid: analysis.PortionSize != ""}
		photoParams.AnalyzedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	} else {
		log.Error().Err(err).Msg("Food photo analysis failed, storing photo without analysis")
	}

	photo, err := queries.CreateMealPhoto(ctx, photoParams)
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist meal photo")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save photo record"})
	}

	return c.JSON(http.StatusCreated, photo)
}
