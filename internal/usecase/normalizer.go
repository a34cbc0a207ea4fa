package usecase

import (
	"fmt"
	"log"
	"time"

	"github.com/harudiet/backend/internal/domain"
)

// Logger receives diagnostics from the engine
type Logger interface {
	Printf(format string, v ...any)
}

// Candidate field names, most authoritative first
var (
	idFields       = []string{"id", "mealId"}
	mealTypeFields = []string{"mealType", "type"}
	dateFields     = []string{
		"modifiedAt", "createDate", "createdDate", "date",
		"dateTime", "created_at", "updatedDate", "updateDate",
	}

	foodNameFields     = []string{"name", "foodName"}
	foodKcalFields     = []string{"calories", "kcal"}
	foodCarbsFields    = []string{"carbohydrate", "carbohydrates", "carbs"}
	foodGramFields     = []string{"gram", "totalAmount", "total_amount"}
	foodCategoryFields = []string{"foodCategory", "food_category", "category"}
)

// NormalizeFood resolves a raw food item. Missing or malformed numbers become 0;
// missing text becomes UnknownText. Category codes are shown as their labels.
func NormalizeFood(raw domain.RawFoodItem) domain.FoodItem {
	return domain.FoodItem{
		Name:         ResolveString(raw, domain.UnknownText, foodNameFields...),
		Calories:     nonNegative(ResolveNumber(raw, 0, foodKcalFields...)),
		Carbohydrate: nonNegative(ResolveNumber(raw, 0, foodCarbsFields...)),
		Protein:      nonNegative(ResolveNumber(raw, 0, "protein")),
		Fat:          nonNegative(ResolveNumber(raw, 0, "fat")),
		Sugar:        nonNegative(ResolveNumber(raw, 0, "sugar")),
		Sodium:       nonNegative(ResolveNumber(raw, 0, "sodium")),
		Fiber:        nonNegative(ResolveNumber(raw, 0, "fiber")),
		Gram:         ResolveString(raw, domain.UnknownText, foodGramFields...),
		Category:     FoodCategoryLabel(ResolveString(raw, domain.UnknownText, foodCategoryFields...)),
		Quantity:     nonNegative(ResolveNumber(raw, 0, "quantity")),
	}
}

// NormalizeRecord converts a raw record into its canonical form. The timestamp is
// resolved once here; records without a usable date return ErrUnparsableDate.
func NormalizeRecord(raw domain.RawMealRecord, loc *time.Location) (domain.MealRecord, error) {
	ts, ok := ResolveTime(raw, loc, dateFields...)
	if !ok {
		return domain.MealRecord{}, domain.ErrUnparsableDate
	}

	foods := rawFoods(raw)
	items := make([]domain.FoodItem, 0, len(foods))
	for _, f := range foods {
		items = append(items, NormalizeFood(f))
	}

	code := ResolveString(raw, "", mealTypeFields...)

	return domain.MealRecord{
		ID:            ResolveString(raw, "", idFields...),
		MealType:      code,
		MealTypeLabel: MealTypeLabel(code),
		Timestamp:     ts,
		Totals:        RecordTotals(raw, items),
		Foods:         items,
		Memo:          ResolveString(raw, "", "memo"),
		ImageURL:      ResolveString(raw, "", "imageUrl"),
	}, nil
}

// NormalizeRecords normalizes a batch, dropping records without a usable date.
// Each drop is logged and processing continues. Survivors keep their input order;
// dropped reports how many were excluded.
func NormalizeRecords(raws []domain.RawMealRecord, loc *time.Location, logger Logger) (records []domain.MealRecord, dropped int) {
	if logger == nil {
		logger = log.Default()
	}

	records = make([]domain.MealRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := NormalizeRecord(raw, loc)
		if err != nil {
			dropped++
			logger.Printf("[NORMALIZE] dropping record #%d (id=%s): %v; date fields: %s",
				i, ResolveString(raw, "-", idFields...), err, describeDateFields(raw))
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

// rawFoods extracts the foods array, skipping entries that are not objects
func rawFoods(raw domain.RawMealRecord) []domain.RawFoodItem {
	switch foods := raw["foods"].(type) {
	case []any:
		out := make([]domain.RawFoodItem, 0, len(foods))
		for _, f := range foods {
			switch m := f.(type) {
			case map[string]any:
				out = append(out, m)
			case domain.RawFoodItem:
				out = append(out, m)
			}
		}
		return out
	case []map[string]any:
		out := make([]domain.RawFoodItem, 0, len(foods))
		for _, m := range foods {
			out = append(out, m)
		}
		return out
	case []domain.RawFoodItem:
		return foods
	default:
		return nil
	}
}

func describeDateFields(raw domain.RawMealRecord) string {
	var present []string
	for _, name := range dateFields {
		if v, ok := raw[name]; ok {
			present = append(present, fmt.Sprintf("%s=%v", name, v))
		}
	}
	if len(present) == 0 {
		return "none"
	}
	return fmt.Sprint(present)
}
