package usecase

import (
	"strings"

	"github.com/harudiet/backend/internal/domain"
)

// analysisTextKeys maps the labels of the analysis service's text output to food fields
var analysisTextKeys = map[string]string{
	"음식명":  "name",
	"칼로리":  "calories",
	"탄수화물": "carbohydrate",
	"단백질":  "protein",
	"지방":   "fat",
	"당류":   "sugar",
	"나트륨":  "sodium",
	"식이섬유": "fiber",
	"총량":   "gram",
	"분류":   "foodCategory",
}

// analysisTextFields carry the free-text form of a result when the service did not structure it
var analysisTextFields = []string{"analysis", "text", "content"}

// FoodFromAnalysis maps a structured analysis result (foodName, carbohydrates,
// total_amount, food_category, ...) onto a food item. A result with no name but a
// text body is parsed with ParseAnalysisText.
func FoodFromAnalysis(result domain.RawFoodItem) domain.FoodItem {
	if _, named := lookup(result, foodNameFields); !named {
		if text := ResolveString(result, "", analysisTextFields...); text != "" {
			return ParseAnalysisText(text)
		}
	}
	return NormalizeFood(result)
}

// ParseAnalysisText parses the "label: value" text form of an analysis result.
// Numeric values keep only digits and the decimal point ("300kcal" -> 300).
func ParseAnalysisText(text string) domain.FoodItem {
	raw := domain.RawFoodItem{}
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key, value = canonicalText(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if field, known := analysisTextKeys[key]; known {
			raw[field] = value
		}
	}
	return NormalizeFood(raw)
}
