package backend

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/harudiet/backend/internal/domain"
)

// AnalysisClient sends meal photos to the food analysis service
type AnalysisClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewAnalysisClient creates a client for the analysis service at baseURL
func NewAnalysisClient(baseURL string, timeout time.Duration) *AnalysisClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnalysisClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// Analyze uploads one photo as multipart field "file" and returns the raw analysis result
func (c *AnalysisClient) Analyze(ctx context.Context, filename string, data []byte) (domain.RawFoodItem, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/food/analyze", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisFailure, err)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrAnalysisFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[ANALYSIS] Status: %d, Body: %s", resp.StatusCode, truncate(body, 200))
		return nil, fmt.Errorf("%w: status %d", domain.ErrAnalysisFailure, resp.StatusCode)
	}

	obj, err := decodeObject(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisFailure, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: empty result", domain.ErrAnalysisFailure)
	}
	return domain.RawFoodItem(obj), nil
}
