package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/harudiet/backend/internal/domain"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 4 << 20

// dateLayout is the calendar-day format the backend expects in query strings
const dateLayout = "2006-01-02"

// ClientConfig holds tuning for the meal backend client
type ClientConfig struct {
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	BackoffBase   time.Duration
}

// Client handles communication with the meal REST backend
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	maxRetries  int
	backoffBase time.Duration
	debug       bool
}

// NewClient creates a new meal backend client
func NewClient(baseURL string, cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, v ...any) {
	if c.debug {
		log.Printf("[BACKEND] "+format, v...)
	}
}

// FetchByDate returns the member's raw meal records for one calendar day
func (c *Client) FetchByDate(ctx context.Context, memberID string, date time.Time) ([]domain.RawMealRecord, error) {
	params := url.Values{}
	params.Set("date", date.Format(dateLayout))

	endpoint := fmt.Sprintf("/api/meals/modified-date/member/%s", url.PathEscape(memberID))
	body, err := c.get(ctx, endpoint, params, domain.ErrMealNotFound)
	if err != nil {
		if errors.Is(err, domain.ErrMealNotFound) {
			return []domain.RawMealRecord{}, nil
		}
		return nil, err
	}
	return decodeRecordList(body)
}

// FetchByRange returns the member's raw meal records between two calendar days, inclusive
func (c *Client) FetchByRange(ctx context.Context, memberID string, from, to time.Time) ([]domain.RawMealRecord, error) {
	params := url.Values{}
	params.Set("startDate", from.Format(dateLayout))
	params.Set("endDate", to.Format(dateLayout))

	endpoint := fmt.Sprintf("/api/meals/modified-date/member/%s/range", url.PathEscape(memberID))
	body, err := c.get(ctx, endpoint, params, domain.ErrMealNotFound)
	if err != nil {
		if errors.Is(err, domain.ErrMealNotFound) {
			return []domain.RawMealRecord{}, nil
		}
		return nil, err
	}
	return decodeRecordList(body)
}

// FetchByID returns a single raw meal record
func (c *Client) FetchByID(ctx context.Context, id string) (domain.RawMealRecord, error) {
	body, err := c.get(ctx, "/api/meals/"+url.PathEscape(id), nil, domain.ErrMealNotFound)
	if err != nil {
		return nil, err
	}
	obj, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, domain.ErrMealNotFound
	}
	return domain.RawMealRecord(obj), nil
}

// FetchMember returns the raw profile of a member
func (c *Client) FetchMember(ctx context.Context, memberID string) (domain.RawMember, error) {
	body, err := c.get(ctx, "/api/members/"+url.PathEscape(memberID), nil, domain.ErrMemberNotFound)
	if err != nil {
		return nil, err
	}
	obj, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, domain.ErrMemberNotFound
	}
	return domain.RawMember(obj), nil
}

// Save posts a meal payload. The backend echoes the saved record, which may be
// partial or empty.
func (c *Client) Save(ctx context.Context, memberID string, payload *domain.MealPayload) (domain.RawMealRecord, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	params := url.Values{}
	params.Set("memberId", memberID)
	reqURL := fmt.Sprintf("%s/api/meals?%s", c.baseURL, params.Encode())

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, statusError(status, body, domain.ErrMealNotFound)
	}

	v, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}
	v, err = unwrap(v)
	if err != nil {
		return nil, err
	}

	switch t := v.(type) {
	case map[string]any:
		return domain.RawMealRecord(t), nil
	case json.Number, string:
		// bare id
		return domain.RawMealRecord{"id": t}, nil
	default:
		return domain.RawMealRecord{}, nil
	}
}

// Delete removes a meal record. Any 2xx, including 204, is success.
func (c *Client) Delete(ctx context.Context, id string) error {
	reqURL := fmt.Sprintf("%s/api/meals/%s", c.baseURL, url.PathEscape(id))

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return statusError(status, body, domain.ErrMealNotFound)
	}

	// some endpoints answer 200 with {"success": false, ...}
	if v, err := decodeJSON(body); err == nil {
		if _, err := unwrap(v); err != nil {
			return err
		}
	}
	return nil
}

// get executes a GET with retries. 5xx, 429 and transport errors are retried with
// exponential backoff; a 404 maps to notFound; other statuses fail immediately.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, notFound error) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[BACKEND] Rate limiter error: %v", err)
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		c.debugLog("GET %s (attempt %d)", reqURL, attempt)
		status, body, err := c.do(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			log.Printf("[BACKEND] Request error (attempt %d): %v", attempt, err)
			lastErr = err
			c.sleep(ctx, attempt)
			continue
		}

		switch {
		case status >= 200 && status < 300:
			return body, nil
		case status == http.StatusTooManyRequests || status >= 500:
			log.Printf("[BACKEND] API error (attempt %d) - Status: %d, Body: %s", attempt, status, truncate(body, 200))
			lastErr = statusError(status, body, notFound)
			c.sleep(ctx, attempt)
		default:
			return nil, statusError(status, body, notFound)
		}
	}

	log.Printf("[BACKEND] All retries failed for %s", endpoint)
	return nil, lastErr
}

// do executes a single request and reads the (size-limited) body
func (c *Client) do(ctx context.Context, method, reqURL string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "HaruDiet/1.0")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrBackendFailure, err)
	}
	defer resp.Body.Close()

	data, err := readLimitedBody(resp.Body, maxBodyBytes)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading body: %v", domain.ErrBackendFailure, err)
	}
	c.debugLog("%s %s -> %d (%d bytes)", method, reqURL, resp.StatusCode, len(data))
	return resp.StatusCode, data, nil
}

func (c *Client) sleep(ctx context.Context, attempt int) {
	if attempt >= c.maxRetries {
		return
	}
	timer := time.NewTimer(exponentialBackoff(c.backoffBase, attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// exponentialBackoff returns base * 2^(attempt-1)
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

// statusError maps a non-2xx status to a domain error, keeping the backend's message
func statusError(status int, body []byte, notFound error) error {
	if status == http.StatusNotFound {
		return notFound
	}
	if msg := errorMessage(body); msg != "" {
		return fmt.Errorf("%w: status %d: %s", domain.ErrBackendFailure, status, msg)
	}
	return fmt.Errorf("%w: status %d", domain.ErrBackendFailure, status)
}

// readLimitedBody reads at most limit bytes of r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
