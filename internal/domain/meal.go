package domain

import "time"

// RawMealRecord is a meal record exactly as the backend sent it. Field names drift
// between endpoints (modifiedAt/createDate, totalKcal/calories, ...), so it is kept
// untyped until the normalizer resolves it.
type RawMealRecord map[string]any

// RawFoodItem is a single entry of a raw record's foods array, or an analysis result
type RawFoodItem map[string]any

// Meal type codes used by the backend
const (
	MealTypeBreakfast = "BREAKFAST"
	MealTypeLunch     = "LUNCH"
	MealTypeDinner    = "DINNER"
	MealTypeSnack     = "SNACK"
)

// Display labels for the meal type codes
const (
	MealLabelBreakfast = "아침"
	MealLabelLunch     = "점심"
	MealLabelDinner    = "저녁"
	MealLabelSnack     = "간식"
)

// UnknownText is shown for text fields the backend left empty
const UnknownText = "알 수 없음"

// MealRecord is the canonical form of a meal record
type MealRecord struct {
	ID            string     `json:"id"`
	MealType      string     `json:"mealType"`      // backend code as received
	MealTypeLabel string     `json:"mealTypeLabel"` // 아침/점심/저녁/간식, or the raw code
	Timestamp     time.Time  `json:"timestamp"`
	Totals        Totals     `json:"totals"`
	Foods         []FoodItem `json:"foods"`
	Memo          string     `json:"memo,omitempty"`
	ImageURL      string     `json:"imageUrl,omitempty"`
}

// Totals are the resolved macronutrient totals of one or more meal records
type Totals struct {
	Kcal    float64 `json:"kcal"`
	Carbs   float64 `json:"carbs"`   // grams
	Protein float64 `json:"protein"` // grams
	Fat     float64 `json:"fat"`     // grams
}

// DayTotals extends Totals with the micronutrients summed from food items
type DayTotals struct {
	Totals
	Sodium float64 `json:"sodium"` // mg
	Fiber  float64 `json:"fiber"`  // grams
	Sugar  float64 `json:"sugar"`  // grams
}

// FoodItem is a normalized food entry. Numeric fields are never negative.
type FoodItem struct {
	Name         string  `json:"name"`
	Calories     float64 `json:"calories"`
	Carbohydrate float64 `json:"carbohydrate"`
	Protein      float64 `json:"protein"`
	Fat          float64 `json:"fat"`
	Sugar        float64 `json:"sugar"`
	Sodium       float64 `json:"sodium"`
	Fiber        float64 `json:"fiber"`
	Gram         string  `json:"gram"`
	Category     string  `json:"category"`
	Quantity     float64 `json:"quantity"`
}

// FastingGap is the elapsed time between two chronologically adjacent meals.
// FromID is the earlier meal.
type FastingGap struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	Hours  int    `json:"hours"`
}

// MacroGoals are the daily macronutrient targets, in grams
type MacroGoals struct {
	Carbs   int `json:"carbs"`
	Protein int `json:"protein"`
	Fat     int `json:"fat"`
}

// MacroProgress is intake against MacroGoals, each percent clamped to [0,100]
type MacroProgress struct {
	Carbs   float64 `json:"carbs"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
}

// DailySummary is the single-day view: records newest first plus intake against the goal
type DailySummary struct {
	Date          string        `json:"date"`
	Records       []MealRecord  `json:"records"`
	Totals        DayTotals     `json:"totals"`
	CalorieGoal   int           `json:"calorieGoal"`
	Progress      float64       `json:"progress"` // percent of CalorieGoal, clamped to [0,100]
	MacroGoals    MacroGoals    `json:"macroGoals"`
	MacroProgress MacroProgress `json:"macroProgress"`
}

// TimelineDay is one calendar day of a Timeline
type TimelineDay struct {
	Date             string       `json:"date"`
	Records          []MealRecord `json:"records"`
	Totals           DayTotals    `json:"totals"`
	Gaps             []FastingGap `json:"gaps"`
	GapToPreviousDay *FastingGap  `json:"gapToPreviousDay,omitempty"`
}

// Timeline is the multi-day view, most recent day first
type Timeline struct {
	From    string        `json:"from"`
	To      string        `json:"to"`
	Days    []TimelineDay `json:"days"`
	Dropped int           `json:"dropped"` // records excluded for lack of a usable date
}

// MealCounts counts records per meal label for one month
type MealCounts struct {
	Year   int            `json:"year"`
	Month  int            `json:"month"`
	Counts map[string]int `json:"counts"`
}

// MealDraft is a meal the user wants to save
type MealDraft struct {
	MealType  string     `json:"mealType"` // label or code
	Timestamp time.Time  `json:"timestamp"`
	Memo      string     `json:"memo,omitempty"`
	ImageURL  string     `json:"imageUrl,omitempty"`
	Foods     []FoodItem `json:"foods"`
}

// MealPayload is the body sent to the backend when saving a meal
type MealPayload struct {
	MealType      string        `json:"mealType"`
	ImageURL      string        `json:"imageUrl"`
	Memo          string        `json:"memo"`
	Foods         []FoodPayload `json:"foods"`
	ModifiedAt    string        `json:"modifiedAt"`
	TotalCalories int           `json:"totalCalories"`
	TotalCarbs    int           `json:"totalCarbs"`
	TotalProtein  int           `json:"totalProtein"`
	TotalFat      int           `json:"totalFat"`
}

// FoodPayload is a single food of a MealPayload
type FoodPayload struct {
	Name         string  `json:"name"`
	Calories     float64 `json:"calories"`
	Carbohydrate float64 `json:"carbohydrate"`
	Protein      float64 `json:"protein"`
	Fat          float64 `json:"fat"`
	Sugar        float64 `json:"sugar"`
	Sodium       float64 `json:"sodium"`
	Fiber        float64 `json:"fiber"`
	Gram         string  `json:"gram"`
	FoodCategory string  `json:"foodCategory"`
	Quantity     float64 `json:"quantity,omitempty"`
}
