package aiservice

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// FoodAnalysis is the structured result of analyzing a food photo.
type FoodAnalysis struct {
	FoodName    string  `json:"food_name"`
	Calories    float64 `json:"calories"`
	Carbs       float64 `json:"carbs"`
	Sugars      float64 `json:"sugars"`
	Proteins    float64 `json:"proteins"`
	Fats        float64 `json:"fats"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	PortionSize string  `json:"portion_size"`
}

const foodSystemPrompt = `You are a nutritionist assistant. You analyze a photo of a meal
and estimate its nutritional content for the visible portion.

Respond with a single JSON object and nothing else, using this exact shape:
{
  "food_name": "short dish name",
  "calories": 0,
  "carbs": 0,
  "sugars": 0,
  "proteins": 0,
  "fats": 0,
  "description": "one sentence describing the dish",
  "confidence": 0.0,
  "portion_size": "estimated portion, e.g. 250 g"
}

All nutrient values are grams for the whole visible portion, calories in kcal.
Confidence is between 0 and 1. If the photo does not contain food, set
food_name to "unknown" and confidence to 0.`

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// AnalyzeFoodPhoto sends a base64-encoded image to the vision model and
// parses the nutrition estimate out of its reply.
func AnalyzeFoodPhoto(ctx context.Context, imageBase64 string, contentType string) (*FoodAnalysis, error) {
	if imageBase64 == "" {
		return nil, fmt.Errorf("empty image")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	messages := []chatMessage{
		{Role: "system", Content: foodSystemPrompt},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: "Analyze this meal photo."},
			{Type: "image_url", ImageURL: &imageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", contentType, imageBase64),
			}},
		}},
	}

	raw, err := chatCompletion(ctx, messages)
	if err != nil {
		return nil, err
	}

	analysis, err := parseFoodAnalysis(raw)
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// parseFoodAnalysis tolerates code fences and surrounding prose around
// the JSON object.
func parseFoodAnalysis(raw string) (*FoodAnalysis, error) {
	cleaned := stripCodeFences(raw)

	var analysis FoodAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		match := jsonObjectRe.FindString(cleaned)
		if match == "" {
			return nil, fmt.Errorf("no JSON object in model reply")
		}
		if err := json.Unmarshal([]byte(match), &analysis); err != nil {
			return nil, fmt.Errorf("failed to parse analysis: %w", err)
		}
	}

	if analysis.FoodName == "" {
		return nil, fmt.Errorf("analysis missing food_name")
	}
	return &analysis, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
