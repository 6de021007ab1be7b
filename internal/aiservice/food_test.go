package aiservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFoodAnalysisPlainJSON(t *testing.T) {
	raw := `{"food_name":"Greek salad","calories":320,"carbs":12,"sugars":6,
		"proteins":9,"fats":26,"description":"A bowl of greek salad with feta.",
		"confidence":0.86,"portion_size":"350 g"}`

	analysis, err := parseFoodAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, "Greek salad", analysis.FoodName)
	assert.Equal(t, 320.0, analysis.Calories)
	assert.Equal(t, 0.86, analysis.Confidence)
	assert.Equal(t, "350 g", analysis.PortionSize)
}

func TestParseFoodAnalysisCodeFenced(t *testing.T) {
	raw := "```json\n{\"food_name\":\"Oatmeal\",\"calories\":150}\n```"

	analysis, err := parseFoodAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, "Oatmeal", analysis.FoodName)
	assert.Equal(t, 150.0, analysis.Calories)
}

func TestParseFoodAnalysisWithSurroundingProse(t *testing.T) {
	raw := `Sure! Here is the analysis:
{"food_name":"Banana","calories":105,"sugars":14}
Let me know if you need anything else.`

	analysis, err := parseFoodAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, "Banana", analysis.FoodName)
	assert.Equal(t, 14.0, analysis.Sugars)
}

func TestParseFoodAnalysisNoJSON(t *testing.T) {
	_, err := parseFoodAnalysis("I cannot identify any food in this image.")
	assert.Error(t, err)
}

func TestParseFoodAnalysisMissingName(t *testing.T) {
	_, err := parseFoodAnalysis(`{"calories":100}`)
	assert.Error(t, err)
}
