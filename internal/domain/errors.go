package domain

import "errors"

var (
	// ErrMealNotFound is returned when the backend has no meal record for the given id
	ErrMealNotFound = errors.New("meal record not found")

	// ErrMemberNotFound is returned when the backend has no member for the given id
	ErrMemberNotFound = errors.New("member not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnparsableDate is returned when a raw record carries no usable date field
	ErrUnparsableDate = errors.New("meal record has no parsable date")

	// ErrBackendFailure is returned when the meal backend request fails
	ErrBackendFailure = errors.New("meal backend request failed")

	// ErrAnalysisFailure is returned when the photo analysis service fails
	ErrAnalysisFailure = errors.New("photo analysis failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrStorageUnavailable is returned when no photo bucket is configured
	ErrStorageUnavailable = errors.New("photo storage unavailable")
)
