package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MealBackend defines the interface for the meal REST backend.
// Dates are sent as calendar days (YYYY-MM-DD) in the caller's location.
type MealBackend interface {
	FetchByDate(ctx context.Context, memberID string, date time.Time) ([]RawMealRecord, error)
	FetchByRange(ctx context.Context, memberID string, from, to time.Time) ([]RawMealRecord, error)
	FetchByID(ctx context.Context, id string) (RawMealRecord, error)
	Save(ctx context.Context, memberID string, payload *MealPayload) (RawMealRecord, error)
	Delete(ctx context.Context, id string) error
	FetchMember(ctx context.Context, memberID string) (RawMember, error)
}

// FoodAnalyzer sends a meal photo to the analysis service
type FoodAnalyzer interface {
	Analyze(ctx context.Context, filename string, data []byte) (RawFoodItem, error)
}

// PhotoStore uploads meal photos to a public storage bucket
type PhotoStore interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}
