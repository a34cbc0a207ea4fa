package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/harudiet/backend/internal/domain"
)

// ModifiedAtLayout is the minute-precision local time the backend expects on save
const ModifiedAtLayout = "2006-01-02T15:04"

// DefaultMaxRangeDays covers the three-month history view
const DefaultMaxRangeDays = 93

// MealServiceConfig holds configuration for the meal service
type MealServiceConfig struct {
	ProfileTTL         time.Duration
	DefaultCalorieGoal int
	MacroGoals         domain.MacroGoals
	MaxRangeDays       int // inclusive days a range view may span
	Logger             Logger
	Clock              func() time.Time
}

// MealService fetches raw meal records and turns them into display aggregates.
// It keeps no state between calls: every view re-normalizes from the backend.
type MealService struct {
	backend     domain.MealBackend
	cache       domain.CacheRepository
	photos      domain.PhotoStore
	analyzer    domain.FoodAnalyzer
	profileTTL  time.Duration
	defaultGoal int
	macroGoals  domain.MacroGoals
	maxRange    int
	logger      Logger
	now         func() time.Time
}

// NewMealService creates a new meal service. photos and analyzer may be nil, in
// which case the corresponding operations report the collaborator as unavailable.
func NewMealService(
	backend domain.MealBackend,
	cache domain.CacheRepository,
	photos domain.PhotoStore,
	analyzer domain.FoodAnalyzer,
	config MealServiceConfig,
) *MealService {
	profileTTL := config.ProfileTTL
	if profileTTL == 0 {
		profileTTL = 10 * time.Minute
	}
	defaultGoal := config.DefaultCalorieGoal
	if defaultGoal <= 0 {
		defaultGoal = DefaultCalorieGoal
	}
	macroGoals := DefaultMacroGoals()
	if config.MacroGoals.Carbs > 0 {
		macroGoals.Carbs = config.MacroGoals.Carbs
	}
	if config.MacroGoals.Protein > 0 {
		macroGoals.Protein = config.MacroGoals.Protein
	}
	if config.MacroGoals.Fat > 0 {
		macroGoals.Fat = config.MacroGoals.Fat
	}
	maxRange := config.MaxRangeDays
	if maxRange <= 0 {
		maxRange = DefaultMaxRangeDays
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	return &MealService{
		backend:     backend,
		cache:       cache,
		photos:      photos,
		analyzer:    analyzer,
		profileTTL:  profileTTL,
		defaultGoal: defaultGoal,
		macroGoals:  macroGoals,
		maxRange:    maxRange,
		logger:      logger,
		now:         clock,
	}
}

// DailySummary builds the single-day view.
// Flow: fetch by date -> normalize -> keep the day -> sort -> totals -> goal
func (s *MealService) DailySummary(ctx context.Context, viewer domain.Viewer, date time.Time) (*domain.DailySummary, error) {
	if viewer.MemberID == "" {
		return nil, domain.ErrInvalidRequest
	}
	loc := viewer.Loc()

	raws, err := s.backend.FetchByDate(ctx, viewer.MemberID, date)
	if err != nil {
		return nil, fmt.Errorf("fetch daily meals: %w", err)
	}

	records, _ := NormalizeRecords(raws, loc, s.logger)
	records = FilterRange(records, date, date, loc)
	SortNewestFirst(records)

	totals := SumTotals(records)
	goal := s.calorieGoal(ctx, viewer)

	return &domain.DailySummary{
		Date:          DateKey(date, loc),
		Records:       records,
		Totals:        totals,
		CalorieGoal:   goal,
		Progress:      GoalProgress(totals.Kcal, goal),
		MacroGoals:    s.macroGoals,
		MacroProgress: MacroGoalProgress(totals.Totals, s.macroGoals),
	}, nil
}

// Timeline builds the multi-day view with intra-day and inter-day fasting gaps
func (s *MealService) Timeline(ctx context.Context, viewer domain.Viewer, from, to time.Time) (*domain.Timeline, error) {
	if viewer.MemberID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if err := s.validateRange(from, to); err != nil {
		return nil, err
	}
	loc := viewer.Loc()

	raws, err := s.backend.FetchByRange(ctx, viewer.MemberID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch meal range: %w", err)
	}

	records, dropped := NormalizeRecords(raws, loc, s.logger)
	records = FilterRange(records, from, to, loc)
	group := GroupByDate(records, loc)

	return &domain.Timeline{
		From:    DateKey(from, loc),
		To:      DateKey(to, loc),
		Days:    BuildTimeline(group),
		Dropped: dropped,
	}, nil
}

// MonthlyCounts counts the member's meals per meal label for a calendar month
func (s *MealService) MonthlyCounts(ctx context.Context, viewer domain.Viewer, year, month int) (*domain.MealCounts, error) {
	if viewer.MemberID == "" || month < 1 || month > 12 || year < 1 {
		return nil, domain.ErrInvalidRequest
	}
	loc := viewer.Loc()

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, -1)

	raws, err := s.backend.FetchByRange(ctx, viewer.MemberID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch monthly meals: %w", err)
	}

	records, _ := NormalizeRecords(raws, loc, s.logger)
	records = FilterRange(records, from, to, loc)

	counts := make(map[string]int, len(MealLabels))
	for _, label := range MealLabels {
		counts[label] = 0
	}
	for _, r := range records {
		label := r.MealTypeLabel
		if label == "" {
			label = domain.UnknownText
		}
		counts[label]++
	}

	return &domain.MealCounts{Year: year, Month: month, Counts: counts}, nil
}

// GetMeal fetches and normalizes a single meal record
func (s *MealService) GetMeal(ctx context.Context, viewer domain.Viewer, id string) (*domain.MealRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidRequest
	}

	raw, err := s.backend.FetchByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch meal %s: %w", id, err)
	}

	record, err := NormalizeRecord(raw, viewer.Loc())
	if err != nil {
		return nil, fmt.Errorf("meal %s: %w", id, err)
	}
	return &record, nil
}

// SaveMeal validates a draft, sends it to the backend and returns the saved record.
// Fields the backend does not echo back are filled from the submitted payload.
func (s *MealService) SaveMeal(ctx context.Context, viewer domain.Viewer, draft *domain.MealDraft) (*domain.MealRecord, error) {
	if err := validateDraft(viewer, draft); err != nil {
		return nil, err
	}
	loc := viewer.Loc()

	payload := BuildMealPayload(draft, loc)
	echoed, err := s.backend.Save(ctx, viewer.MemberID, payload)
	if err != nil {
		return nil, fmt.Errorf("save meal: %w", err)
	}

	merged := payloadToRaw(payload)
	for k, v := range echoed {
		if v != nil {
			merged[k] = v
		}
	}

	record, err := NormalizeRecord(merged, loc)
	if err != nil {
		return nil, fmt.Errorf("saved meal: %w", err)
	}
	return &record, nil
}

// DeleteMeal deletes a meal record by id. When a photo store is configured the
// record's photo is removed afterwards; photo cleanup failures are only logged.
func (s *MealService) DeleteMeal(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidRequest
	}

	var imageURL string
	if s.photos != nil {
		if raw, err := s.backend.FetchByID(ctx, id); err == nil {
			imageURL = ResolveString(raw, "", "imageUrl")
		} else {
			s.logger.Printf("[STORAGE] meal %s: photo lookup failed: %v", id, err)
		}
	}

	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete meal %s: %w", id, err)
	}

	if imageURL != "" {
		if err := s.photos.Delete(ctx, imageURL); err != nil {
			s.logger.Printf("[STORAGE] meal %s: photo %s not removed: %v", id, imageURL, err)
		}
	}
	return nil
}

// UploadPhoto stores a meal photo and returns its public URL
func (s *MealService) UploadPhoto(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if s.photos == nil {
		return "", domain.ErrStorageUnavailable
	}
	if len(data) == 0 {
		return "", domain.ErrInvalidRequest
	}
	return s.photos.Upload(ctx, filename, contentType, data)
}

// AnalyzePhoto sends a meal photo to the analysis service and normalizes the result
func (s *MealService) AnalyzePhoto(ctx context.Context, filename string, data []byte) (*domain.FoodItem, error) {
	if s.analyzer == nil {
		return nil, fmt.Errorf("%w: analysis service not configured", domain.ErrAnalysisFailure)
	}
	if len(data) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	result, err := s.analyzer.Analyze(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	food := FoodFromAnalysis(result)
	return &food, nil
}

// BuildMealPayload converts a draft into the backend save payload. Labels are
// translated back to codes and totals are truncated to whole units.
func BuildMealPayload(draft *domain.MealDraft, loc *time.Location) *domain.MealPayload {
	if loc == nil {
		loc = time.UTC
	}

	foods := make([]domain.FoodPayload, 0, len(draft.Foods))
	for _, f := range draft.Foods {
		foods = append(foods, domain.FoodPayload{
			Name:         textOrUnknown(f.Name),
			Calories:     nonNegative(f.Calories),
			Carbohydrate: nonNegative(f.Carbohydrate),
			Protein:      nonNegative(f.Protein),
			Fat:          nonNegative(f.Fat),
			Sugar:        nonNegative(f.Sugar),
			Sodium:       nonNegative(f.Sodium),
			Fiber:        nonNegative(f.Fiber),
			Gram:         textOrUnknown(f.Gram),
			FoodCategory: FoodCategoryCode(f.Category),
			Quantity:     nonNegative(f.Quantity),
		})
	}

	totals := FoodTotals(draft.Foods)

	return &domain.MealPayload{
		MealType:      MealTypeCode(draft.MealType),
		ImageURL:      draft.ImageURL,
		Memo:          draft.Memo,
		Foods:         foods,
		ModifiedAt:    draft.Timestamp.In(loc).Format(ModifiedAtLayout),
		TotalCalories: int(totals.Kcal),
		TotalCarbs:    int(totals.Carbs),
		TotalProtein:  int(totals.Protein),
		TotalFat:      int(totals.Fat),
	}
}

func validateDraft(viewer domain.Viewer, draft *domain.MealDraft) error {
	switch {
	case viewer.MemberID == "":
		return fmt.Errorf("%w: member id is required", domain.ErrInvalidRequest)
	case draft == nil:
		return domain.ErrInvalidRequest
	case strings.TrimSpace(draft.MealType) == "":
		return fmt.Errorf("%w: meal type is required", domain.ErrInvalidRequest)
	case draft.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp is required", domain.ErrInvalidRequest)
	case len(draft.Foods) == 0:
		return fmt.Errorf("%w: at least one food is required", domain.ErrInvalidRequest)
	}
	return nil
}

// payloadToRaw renders a payload in the record shape the normalizer reads
func payloadToRaw(p *domain.MealPayload) domain.RawMealRecord {
	foods := make([]any, 0, len(p.Foods))
	for _, f := range p.Foods {
		foods = append(foods, map[string]any{
			"name":         f.Name,
			"calories":     f.Calories,
			"carbohydrate": f.Carbohydrate,
			"protein":      f.Protein,
			"fat":          f.Fat,
			"sugar":        f.Sugar,
			"sodium":       f.Sodium,
			"fiber":        f.Fiber,
			"gram":         f.Gram,
			"foodCategory": f.FoodCategory,
			"quantity":     f.Quantity,
		})
	}
	return domain.RawMealRecord{
		"mealType":      p.MealType,
		"imageUrl":      p.ImageURL,
		"memo":          p.Memo,
		"foods":         foods,
		"modifiedAt":    p.ModifiedAt,
		"totalCalories": float64(p.TotalCalories),
		"totalCarbs":    float64(p.TotalCarbs),
		"totalProtein":  float64(p.TotalProtein),
		"totalFat":      float64(p.TotalFat),
	}
}

func textOrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.UnknownText
	}
	return s
}

func (s *MealService) validateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return fmt.Errorf("%w: invalid date range", domain.ErrInvalidRequest)
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.maxRange {
		return fmt.Errorf("%w: range exceeds %d days", domain.ErrInvalidRequest, s.maxRange)
	}
	return nil
}

// calorieGoal resolves the viewer's goal. Profile lookups go through the cache;
// any failure falls back to the default goal rather than failing the view.
func (s *MealService) calorieGoal(ctx context.Context, viewer domain.Viewer) int {
	profile, err := s.memberProfile(ctx, viewer)
	if err != nil {
		s.logger.Printf("[GOAL] member %s: %v; using default goal %d", viewer.MemberID, err, s.defaultGoal)
		return s.defaultGoal
	}
	return CalorieGoal(profile, s.now(), s.defaultGoal)
}

func (s *MealService) memberProfile(ctx context.Context, viewer domain.Viewer) (*domain.MemberProfile, error) {
	key := profileCacheKey(viewer.MemberID)

	if s.cache != nil {
		if cached, err := s.getFromCache(ctx, key); err == nil {
			return cached, nil
		}
	}

	raw, err := s.backend.FetchMember(ctx, viewer.MemberID)
	if err != nil {
		return nil, err
	}
	profile := NormalizeMember(raw, viewer.Loc())

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, &profile, s.profileTTL); err != nil {
			s.logger.Printf("[GOAL] caching profile %s failed: %v", viewer.MemberID, err)
		}
	}
	return &profile, nil
}

// profileCacheKey format: "member:{id}:profile"
func profileCacheKey(memberID string) string {
	return fmt.Sprintf("member:%s:profile", memberID)
}

func (s *MealService) getFromCache(ctx context.Context, key string) (*domain.MemberProfile, error) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case *domain.MemberProfile:
		return v, nil
	case domain.MemberProfile:
		return &v, nil
	default:
		return nil, domain.ErrCacheMiss
	}
}
