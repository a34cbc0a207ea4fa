package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harudiet/backend/config"
	"github.com/harudiet/backend/internal/domain"
	"github.com/harudiet/backend/internal/infrastructure/cache"
	"github.com/harudiet/backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var seoul = mustLoadLocation("Asia/Seoul")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// fakeBackend serves canned raw records and records what it was asked
type fakeBackend struct {
	records  []domain.RawMealRecord
	member   domain.RawMember
	err      error
	saved    *domain.MealPayload
	deleted  string
	lastFrom time.Time
	lastTo   time.Time
}

func (f *fakeBackend) FetchByDate(ctx context.Context, memberID string, date time.Time) ([]domain.RawMealRecord, error) {
	return f.records, f.err
}

func (f *fakeBackend) FetchByRange(ctx context.Context, memberID string, from, to time.Time) ([]domain.RawMealRecord, error) {
	f.lastFrom, f.lastTo = from, to
	return f.records, f.err
}

func (f *fakeBackend) FetchByID(ctx context.Context, id string) (domain.RawMealRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.records {
		if r["id"] == id {
			return r, nil
		}
	}
	return nil, domain.ErrMealNotFound
}

func (f *fakeBackend) Save(ctx context.Context, memberID string, payload *domain.MealPayload) (domain.RawMealRecord, error) {
	f.saved = payload
	return domain.RawMealRecord{"id": "99"}, f.err
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	f.deleted = id
	return f.err
}

func (f *fakeBackend) FetchMember(ctx context.Context, memberID string) (domain.RawMember, error) {
	if f.member == nil {
		return nil, domain.ErrMemberNotFound
	}
	return f.member, nil
}

type fakePhotoStore struct {
	uploaded string
}

func (f *fakePhotoStore) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	f.uploaded = filename
	return "https://cdn.example.com/food-images/1-" + filename, nil
}

func (f *fakePhotoStore) Delete(ctx context.Context, key string) error { return nil }

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(ctx context.Context, filename string, data []byte) (domain.RawFoodItem, error) {
	return domain.RawFoodItem{"foodName": "김치찌개", "calories": "320kcal", "food_category": "찌개"}, nil
}

func sampleRecords() []domain.RawMealRecord {
	return []domain.RawMealRecord{
		{"id": "1", "mealType": "BREAKFAST", "modifiedAt": "2024-03-05T08:00:00", "totalKcal": 300},
		{"id": "2", "mealType": "LUNCH", "createDate": "2024-03-05T13:00:00", "foods": []any{
			map[string]any{"name": "비빔밥", "calories": 500, "carbohydrate": 70, "sodium": 900},
		}},
		{"id": "3", "mealType": "DINNER", "modifiedAt": "2024-03-04T19:30:00", "totalKcal": 650},
		{"id": "4", "mealType": "SNACK"},
	}
}

// setupTestRouter creates a test router backed by fakes
func setupTestRouter(backend *fakeBackend, photos domain.PhotoStore) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Display:   config.DisplayConfig{Timezone: "Asia/Seoul", DefaultCalorieGoal: 2000},
		RateLimit: config.RateLimitConfig{PerIP: 6000},
	}

	memCache := cache.NewMemoryCache()
	service := usecase.NewMealService(backend, memCache, photos, fakeAnalyzer{}, usecase.MealServiceConfig{
		Clock: func() time.Time { return time.Date(2024, 3, 5, 21, 0, 0, 0, seoul) },
	})

	handler := NewHandler(service, seoul)
	handler.now = func() time.Time { return time.Date(2024, 3, 5, 21, 0, 0, 0, seoul) }

	return SetupRouter(cfg, handler)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	}
	return w, response
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter(&fakeBackend{}, nil)

	w, response := doJSON(t, router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "harudiet-backend", response["service"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
	}
}

func TestDailySummaryEndpoint(t *testing.T) {
	t.Run("returns the day newest first with totals and goal", func(t *testing.T) {
		backend := &fakeBackend{records: sampleRecords(), member: domain.RawMember{"targetCalories": 2000}}
		router := setupTestRouter(backend, nil)

		w, response := doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/daily?date=2024-03-05", "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "2024-03-05", response["date"])

		records := response["records"].([]any)
		require.Len(t, records, 2)
		assert.Equal(t, "점심", records[0].(map[string]any)["mealTypeLabel"])
		assert.Equal(t, "아침", records[1].(map[string]any)["mealTypeLabel"])

		totals := response["totals"].(map[string]any)
		assert.Equal(t, 800.0, totals["kcal"])
		assert.Equal(t, 900.0, totals["sodium"])
		assert.Equal(t, 2000.0, response["calorieGoal"])
		assert.Equal(t, 40.0, response["progress"])
	})

	t.Run("defaults to today", func(t *testing.T) {
		router := setupTestRouter(&fakeBackend{records: sampleRecords()}, nil)

		w, response := doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/daily", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2024-03-05", response["date"])
		assert.Equal(t, 2000.0, response["calorieGoal"])
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		router := setupTestRouter(&fakeBackend{}, nil)

		w, response := doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/daily?date=05-03-2024", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", response["code"])
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		router := setupTestRouter(&fakeBackend{}, nil)

		w, _ := doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/daily?tz=Mars/Base", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps backend failure to bad gateway", func(t *testing.T) {
		router := setupTestRouter(&fakeBackend{err: domain.ErrBackendFailure}, nil)

		w, response := doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/daily?date=2024-03-05", "")

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "backend_failure", response["code"])
	})
}

func TestTimelineEndpoint(t *testing.T) {
	t.Run("groups days newest first with fasting gaps", func(t *testing.T) {
		backend := &fakeBackend{records: sampleRecords()}
		router := setupTestRouter(backend, nil)

		w, response := doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/timeline?from=2024-03-04&to=2024-03-05", "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 1.0, response["dropped"])

		days := response["days"].([]any)
		require.Len(t, days, 2)

		latest := days[0].(map[string]any)
		assert.Equal(t, "2024-03-05", latest["date"])
		gaps := latest["gaps"].([]any)
		require.Len(t, gaps, 1)
		assert.Equal(t, 5.0, gaps[0].(map[string]any)["hours"])

		// 03-04 19:30 dinner -> 03-05 08:00 breakfast
		prev := latest["gapToPreviousDay"].(map[string]any)
		assert.Equal(t, "3", prev["fromId"])
		assert.Equal(t, "1", prev["toId"])
		assert.Equal(t, 12.0, prev["hours"])

		oldest := days[1].(map[string]any)
		assert.Equal(t, "2024-03-04", oldest["date"])
		assert.Nil(t, oldest["gapToPreviousDay"])
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		router := setupTestRouter(&fakeBackend{}, nil)

		w, _ := doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/timeline?from=2024-03-05&to=2024-03-01", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("requires both bounds", func(t *testing.T) {
		router := setupTestRouter(&fakeBackend{}, nil)

		w, _ := doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/timeline?from=2024-03-05", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMonthlyCountsEndpoint(t *testing.T) {
	backend := &fakeBackend{records: sampleRecords()}
	router := setupTestRouter(backend, nil)

	w, response := doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/counts?year=2024&month=3", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	counts := response["counts"].(map[string]any)
	assert.Equal(t, 1.0, counts["아침"])
	assert.Equal(t, 1.0, counts["점심"])
	assert.Equal(t, 1.0, counts["저녁"])
	assert.Equal(t, 0.0, counts["간식"])
	assert.Equal(t, "2024-03-01", backend.lastFrom.Format("2006-01-02"))
	assert.Equal(t, "2024-03-31", backend.lastTo.Format("2006-01-02"))

	w, _ = doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/counts?year=2024&month=13", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/counts?month=march", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveMealEndpoint(t *testing.T) {
	t.Run("translates labels and returns the saved record", func(t *testing.T) {
		backend := &fakeBackend{}
		router := setupTestRouter(backend, nil)

		body := `{"mealType": "점심", "timestamp": "2024-03-05T12:30", "memo": "회사 근처",
			"foods": [{"name": "비빔밥", "calories": 600.7, "carbohydrate": 80, "category": "밥류"}]}`
		w, response := doJSON(t, router, http.MethodPost, "/api/v1/members/42/meals", body)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NotNil(t, backend.saved)
		assert.Equal(t, "LUNCH", backend.saved.MealType)
		assert.Equal(t, "2024-03-05T12:30", backend.saved.ModifiedAt)
		assert.Equal(t, 600, backend.saved.TotalCalories)

		assert.Equal(t, "99", response["id"])
		assert.Equal(t, "점심", response["mealTypeLabel"])
		assert.Equal(t, "회사 근처", response["memo"])
	})

	t.Run("rejects missing foods", func(t *testing.T) {
		backend := &fakeBackend{}
		router := setupTestRouter(backend, nil)

		w, _ := doJSON(t, router, http.MethodPost, "/api/v1/members/42/meals", `{"mealType": "LUNCH", "timestamp": "2024-03-05T12:30", "foods": []}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, backend.saved)
	})

	t.Run("rejects unreadable timestamp", func(t *testing.T) {
		router := setupTestRouter(&fakeBackend{}, nil)

		w, _ := doJSON(t, router, http.MethodPost, "/api/v1/members/42/meals", `{"mealType": "LUNCH", "timestamp": "lunchtime", "foods": [{"name": "a"}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetAndDeleteMealEndpoints(t *testing.T) {
	backend := &fakeBackend{records: sampleRecords()}
	router := setupTestRouter(backend, nil)

	w, response := doJSON(t, router, http.MethodGet, "/api/v1/meals/3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "저녁", response["mealTypeLabel"])

	w, response = doJSON(t, router, http.MethodGet, "/api/v1/meals/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "meal_not_found", response["code"])

	// record without any date field
	w, _ = doJSON(t, router, http.MethodGet, "/api/v1/meals/4", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = doJSON(t, router, http.MethodDelete, "/api/v1/meals/3", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "3", backend.deleted)
}

func uploadRequest(t *testing.T, path, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPhotoEndpoints(t *testing.T) {
	t.Run("uploads a photo", func(t *testing.T) {
		photos := &fakePhotoStore{}
		router := setupTestRouter(&fakeBackend{}, photos)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "/api/v1/meals/photos", "lunch.jpg", []byte("\xff\xd8\xff\xe0jpeg")))

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "https://cdn.example.com/food-images/1-lunch.jpg")
		assert.Equal(t, "lunch.jpg", photos.uploaded)
	})

	t.Run("reports missing storage", func(t *testing.T) {
		router := setupTestRouter(&fakeBackend{}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "/api/v1/meals/photos", "lunch.jpg", []byte("jpeg")))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("requires a file", func(t *testing.T) {
		router := setupTestRouter(&fakeBackend{}, &fakePhotoStore{})

		w, _ := doJSON(t, router, http.MethodPost, "/api/v1/meals/photos", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("analyzes a photo", func(t *testing.T) {
		router := setupTestRouter(&fakeBackend{}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "/api/v1/meals/analyze", "dinner.png", []byte("png")))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var response struct {
			Food domain.FoodItem `json:"food"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "김치찌개", response.Food.Name)
		assert.Equal(t, 320.0, response.Food.Calories)
		assert.Equal(t, "찌개", response.Food.Category)
	})
}

func TestHandlerWithoutService(t *testing.T) {
	cfg := &config.Config{RateLimit: config.RateLimitConfig{PerIP: 60}}
	router := SetupRouter(cfg, NewHandler(nil, nil))

	w, response := doJSON(t, router, http.MethodGet, "/api/v1/members/42/meals/daily", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_configured", response["code"])
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrInvalidRequest, http.StatusBadRequest},
		{domain.ErrMealNotFound, http.StatusNotFound},
		{domain.ErrMemberNotFound, http.StatusNotFound},
		{domain.ErrUnparsableDate, http.StatusUnprocessableEntity},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{domain.ErrAnalysisFailure, http.StatusBadGateway},
		{domain.ErrBackendFailure, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, resp := errorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, resp.Error)
		})
	}
}
