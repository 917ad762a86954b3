package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
)

// DefaultTimeout per call; covers two inference round trips.
const DefaultTimeout = 60 * time.Second

// Client talks to the gateway endpoint served by cmd/api.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Result is the gateway's analysis response.
type Result struct {
	ID                string `json:"id"`
	ImageKey          string `json:"image_key"`
	SignDescription   string `json:"sign_description"`
	Context           string `json:"context"`
	PrecautionWarning string `json:"precaution_warning"`
	Timestamp         string `json:"timestamp"`
}

// Record converts the response into a domain record.
func (r Result) Record() domain.AnalysisRecord {
	return domain.RecordFromItem(map[string]string{
		"id":                 r.ID,
		"image_key":          r.ImageKey,
		"sign_description":   r.SignDescription,
		"context":            r.Context,
		"precaution_warning": r.PrecautionWarning,
		"timestamp":          r.Timestamp,
	})
}

// Analyze posts {image_key, context} and decodes the stored record.
func (c *Client) Analyze(ctx context.Context, imageKey, drivingContext string) (Result, error) {
	body, err := json.Marshal(domain.AnalysisRequest{ImageKey: imageKey, Context: drivingContext})
	if err != nil {
		return Result{}, err
	}
	var out Result
	if err := c.do(ctx, http.MethodPost, "/v1/analyze", body, &out); err != nil {
		return Result{}, err
	}
	return out, nil
}

// Images returns the candidate filenames known to the gateway.
func (c *Client) Images(ctx context.Context) ([]string, error) {
	var out struct {
		Images []string `json:"images"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/images", nil, &out); err != nil {
		return nil, err
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	return out.Images, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, dst any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return &domain.TransportError{Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &domain.TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.TransportError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
