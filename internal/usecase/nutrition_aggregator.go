package usecase

import (
	"math"

	"github.com/harudiet/backend/internal/domain"
)

// Record-level fields carrying a pre-aggregated total, most authoritative first
var (
	kcalTotalFields    = []string{"totalKcal", "totalCalories", "calories"}
	carbsTotalFields   = []string{"totalCarbs", "totalCarbohydrate", "carbohydrate", "carbs"}
	proteinTotalFields = []string{"totalProtein", "protein"}
	fatTotalFields     = []string{"totalFat", "fat"}
)

// RecordTotals resolves the totals of a raw record. For each nutrient an explicit
// numeric total on the record wins; otherwise the nutrient is summed over foods.
// The choice is made per nutrient.
func RecordTotals(raw domain.RawMealRecord, foods []domain.FoodItem) domain.Totals {
	return domain.Totals{
		Kcal: resolveTotal(raw, kcalTotalFields, foods, func(f domain.FoodItem) float64 {
			return f.Calories
		}),
		Carbs: resolveTotal(raw, carbsTotalFields, foods, func(f domain.FoodItem) float64 {
			return f.Carbohydrate
		}),
		Protein: resolveTotal(raw, proteinTotalFields, foods, func(f domain.FoodItem) float64 {
			return f.Protein
		}),
		Fat: resolveTotal(raw, fatTotalFields, foods, func(f domain.FoodItem) float64 {
			return f.Fat
		}),
	}
}

func resolveTotal(raw domain.RawMealRecord, fields []string, foods []domain.FoodItem, pick func(domain.FoodItem) float64) float64 {
	if v, ok := LookupNumber(raw, fields...); ok {
		return nonNegative(v)
	}
	return sumFoods(foods, pick)
}

func sumFoods(foods []domain.FoodItem, pick func(domain.FoodItem) float64) float64 {
	var sum float64
	for _, f := range foods {
		sum += nonNegative(pick(f))
	}
	return sum
}

// FoodTotals sums the macronutrients of food items, as the analysis screen does
// before a meal is saved
func FoodTotals(foods []domain.FoodItem) domain.Totals {
	return RecordTotals(nil, foods)
}

// SumTotals adds up the resolved totals of records. Micronutrients come from the
// records' food items since the backend has no record-level field for them.
func SumTotals(records []domain.MealRecord) domain.DayTotals {
	var out domain.DayTotals
	for _, r := range records {
		out.Kcal += nonNegative(r.Totals.Kcal)
		out.Carbs += nonNegative(r.Totals.Carbs)
		out.Protein += nonNegative(r.Totals.Protein)
		out.Fat += nonNegative(r.Totals.Fat)
		for _, f := range r.Foods {
			out.Sodium += nonNegative(f.Sodium)
			out.Fiber += nonNegative(f.Fiber)
			out.Sugar += nonNegative(f.Sugar)
		}
	}
	return out
}

// GoalProgress returns intake as a percentage of goal, clamped to [0,100] for display.
// A non-positive goal reports 0.
func GoalProgress(kcal float64, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	pct := nonNegative(kcal) / float64(goal) * 100
	return math.Min(pct, 100)
}

// Default daily macronutrient goals in grams
const (
	DefaultCarbsGoal   = 300
	DefaultProteinGoal = 60
	DefaultFatGoal     = 70
)

// DefaultMacroGoals returns the goals used when none are configured
func DefaultMacroGoals() domain.MacroGoals {
	return domain.MacroGoals{Carbs: DefaultCarbsGoal, Protein: DefaultProteinGoal, Fat: DefaultFatGoal}
}

// MacroGoalProgress applies GoalProgress to each macronutrient
func MacroGoalProgress(t domain.Totals, goals domain.MacroGoals) domain.MacroProgress {
	return domain.MacroProgress{
		Carbs:   GoalProgress(t.Carbs, goals.Carbs),
		Protein: GoalProgress(t.Protein, goals.Protein),
		Fat:     GoalProgress(t.Fat, goals.Fat),
	}
}

// nonNegative coerces negative, NaN and infinite values to 0
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
