package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harudiet/backend/internal/domain"
	"github.com/harudiet/backend/internal/usecase"
)

// maxUploadBytes caps meal photo uploads
const maxUploadBytes = 10 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	meals    *usecase.MealService
	location *time.Location
	now      func() time.Time
}

// NewHandler creates a new HTTP handler. Dates are interpreted in loc unless a
// request overrides it with ?tz=.
func NewHandler(meals *usecase.MealService, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		meals:    meals,
		location: loc,
		now:      time.Now,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "harudiet-backend",
		"version": "1.0.0",
	})
}

// mealRequest is the body of POST /members/:memberId/meals
type mealRequest struct {
	MealType  string            `json:"mealType" binding:"required"`
	Timestamp string            `json:"timestamp" binding:"required"`
	Memo      string            `json:"memo"`
	ImageURL  string            `json:"imageUrl"`
	Foods     []domain.FoodItem `json:"foods" binding:"required,min=1"`
}

// DailySummary handles GET /members/:memberId/meals/daily?date=YYYY-MM-DD
func (h *Handler) DailySummary(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	date := h.now().In(viewer.Loc())
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(usecase.DateKeyLayout, raw, viewer.Loc())
		if err != nil {
			h.badRequest(c, "date 형식은 YYYY-MM-DD 이어야 합니다.")
			return
		}
		date = parsed
	}

	summary, err := h.meals.DailySummary(c.Request.Context(), viewer, date)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Timeline handles GET /members/:memberId/meals/timeline?from=&to=
func (h *Handler) Timeline(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	from, errFrom := time.ParseInLocation(usecase.DateKeyLayout, c.Query("from"), viewer.Loc())
	to, errTo := time.ParseInLocation(usecase.DateKeyLayout, c.Query("to"), viewer.Loc())
	if errFrom != nil || errTo != nil {
		h.badRequest(c, "from, to 는 YYYY-MM-DD 형식이어야 합니다.")
		return
	}

	timeline, err := h.meals.Timeline(c.Request.Context(), viewer, from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, timeline)
}

// MonthlyCounts handles GET /members/:memberId/meals/counts?year=&month=
func (h *Handler) MonthlyCounts(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	now := h.now().In(viewer.Loc())
	year, errYear := intQuery(c, "year", now.Year())
	month, errMonth := intQuery(c, "month", int(now.Month()))
	if errYear != nil || errMonth != nil {
		h.badRequest(c, "year, month 는 숫자여야 합니다.")
		return
	}

	counts, err := h.meals.MonthlyCounts(c.Request.Context(), viewer, year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// SaveMeal handles POST /members/:memberId/meals
func (h *Handler) SaveMeal(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	var req mealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "식단 정보가 올바르지 않습니다.")
		return
	}

	timestamp, ok := usecase.ResolveTime(map[string]any{"timestamp": req.Timestamp}, viewer.Loc(), "timestamp")
	if !ok {
		h.badRequest(c, "식사 시간을 읽을 수 없습니다.")
		return
	}

	record, err := h.meals.SaveMeal(c.Request.Context(), viewer, &domain.MealDraft{
		MealType:  req.MealType,
		Timestamp: timestamp,
		Memo:      req.Memo,
		ImageURL:  req.ImageURL,
		Foods:     req.Foods,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// GetMeal handles GET /meals/:id
func (h *Handler) GetMeal(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	loc, ok := h.requestLocation(c)
	if !ok {
		return
	}

	record, err := h.meals.GetMeal(c.Request.Context(), domain.Viewer{Location: loc}, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteMeal handles DELETE /meals/:id
func (h *Handler) DeleteMeal(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	if err := h.meals.DeleteMeal(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPhoto handles POST /meals/photos (multipart field "file")
func (h *Handler) UploadPhoto(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	filename, contentType, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	url, err := h.meals.UploadPhoto(c.Request.Context(), filename, contentType, data)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imageUrl": url})
}

// AnalyzePhoto handles POST /meals/analyze (multipart field "file")
func (h *Handler) AnalyzePhoto(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	filename, _, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	food, err := h.meals.AnalyzePhoto(c.Request.Context(), filename, data)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": food})
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.meals == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "meal service not configured",
			Code:  "not_configured",
		})
		return false
	}
	return true
}

// viewer builds the per-request viewer from :memberId and ?tz=
func (h *Handler) viewer(c *gin.Context) (domain.Viewer, bool) {
	memberID := strings.TrimSpace(c.Param("memberId"))
	if memberID == "" {
		h.badRequest(c, "회원 ID가 필요합니다.")
		return domain.Viewer{}, false
	}
	loc, ok := h.requestLocation(c)
	if !ok {
		return domain.Viewer{}, false
	}
	return domain.Viewer{MemberID: memberID, Location: loc}, true
}

func (h *Handler) requestLocation(c *gin.Context) (*time.Location, bool) {
	tz := c.Query("tz")
	if tz == "" {
		return h.location, true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		h.badRequest(c, fmt.Sprintf("알 수 없는 시간대입니다: %s", tz))
		return nil, false
	}
	return loc, true
}

func (h *Handler) readUpload(c *gin.Context) (filename, contentType string, data []byte, ok bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "사진 파일(file)이 필요합니다.")
		return "", "", nil, false
	}
	f, err := header.Open()
	if err != nil {
		h.badRequest(c, "사진 파일을 읽을 수 없습니다.")
		return "", "", nil, false
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil || len(data) == 0 {
		h.badRequest(c, "사진 파일을 읽을 수 없습니다.")
		return "", "", nil, false
	}

	contentType = header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return header.Filename, contentType, data, true
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "invalid_request"})
}

// handleError maps domain errors to status codes and user-facing messages
func (h *Handler) handleError(c *gin.Context, err error) {
	status, resp := errorResponse(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, resp)
}

func errorResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, ErrorResponse{Error: "요청이 올바르지 않습니다.", Code: "invalid_request"}
	case errors.Is(err, domain.ErrMealNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "식단 기록을 찾을 수 없습니다.", Code: "meal_not_found"}
	case errors.Is(err, domain.ErrMemberNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "회원 정보를 찾을 수 없습니다.", Code: "member_not_found"}
	case errors.Is(err, domain.ErrUnparsableDate):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "식단 기록의 날짜를 읽을 수 없습니다.", Code: "unparsable_date"}
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{Error: "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.", Code: "rate_limited"}
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "사진을 저장할 수 없습니다.", Code: "storage_unavailable"}
	case errors.Is(err, domain.ErrAnalysisFailure):
		return http.StatusBadGateway, ErrorResponse{Error: "음식 분석에 실패했습니다.", Code: "analysis_failed"}
	case errors.Is(err, domain.ErrBackendFailure):
		return http.StatusBadGateway, ErrorResponse{Error: "식단 정보를 불러오지 못했습니다.", Code: "backend_failure"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "요청 시간이 초과되었습니다.", Code: "timeout"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "일시적인 오류가 발생했습니다.", Code: "internal"}
	}
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
