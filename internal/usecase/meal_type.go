package usecase

import (
	"strings"

	"github.com/harudiet/backend/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// mealTypeLabels maps backend meal type codes to display labels
var mealTypeLabels = map[string]string{
	domain.MealTypeBreakfast: domain.MealLabelBreakfast,
	domain.MealTypeLunch:     domain.MealLabelLunch,
	domain.MealTypeDinner:    domain.MealLabelDinner,
	domain.MealTypeSnack:     domain.MealLabelSnack,
}

// mealTypeCodes is the reverse of mealTypeLabels
var mealTypeCodes = invert(mealTypeLabels)

// MealLabels lists the display labels in the order meals happen in a day
var MealLabels = []string{
	domain.MealLabelBreakfast,
	domain.MealLabelLunch,
	domain.MealLabelDinner,
	domain.MealLabelSnack,
}

// foodCategoryCodes maps food category labels from the analysis service to backend codes
var foodCategoryCodes = map[string]string{
	"한식": "KOREAN",
	"중식": "CHINESE",
	"일식": "JAPANESE",
	"양식": "WESTERN",
	"분식": "SNACK",
	"음료": "BEVERAGE",
}

var foodCategoryLabels = invert(foodCategoryCodes)

// FoodCategoryOther is the backend code for categories outside foodCategoryCodes
const FoodCategoryOther = "ETC"

// MealTypeLabel translates a backend code (BREAKFAST) to its label (아침).
// Unknown codes are returned unchanged.
func MealTypeLabel(code string) string {
	if label, ok := mealTypeLabels[strings.ToUpper(canonicalText(code))]; ok {
		return label
	}
	return code
}

// MealTypeCode translates a label (아침) to its backend code (BREAKFAST).
// Codes and unknown labels are returned unchanged.
func MealTypeCode(label string) string {
	key := canonicalText(label)
	if code, ok := mealTypeCodes[key]; ok {
		return code
	}
	if _, ok := mealTypeLabels[strings.ToUpper(key)]; ok {
		return strings.ToUpper(key)
	}
	return label
}

// FoodCategoryCode translates a category label (한식) to its backend code (KOREAN).
// Known codes are kept; anything else becomes ETC.
func FoodCategoryCode(label string) string {
	key := canonicalText(label)
	if code, ok := foodCategoryCodes[key]; ok {
		return code
	}
	upper := strings.ToUpper(key)
	if _, ok := foodCategoryLabels[upper]; ok || upper == FoodCategoryOther {
		return upper
	}
	return FoodCategoryOther
}

// FoodCategoryLabel translates a backend category code to its label, passing unknown codes through
func FoodCategoryLabel(code string) string {
	if label, ok := foodCategoryLabels[strings.ToUpper(canonicalText(code))]; ok {
		return label
	}
	return code
}

// canonicalText trims and NFC-normalizes so decomposed Hangul matches the map keys
func canonicalText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
