// Package resto provides a client and federation plugin for resto-style
// OpenSearch catalogs such as PEPS and Theia.
package resto

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultMaxRecords is the default number of results per page.
	DefaultMaxRecords = 20

	// MaxRecordsLimit is the largest page size resto serves.
	MaxRecordsLimit = 500
)

// Client handles communication with a resto catalog.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new resto API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// WithAPIKey sets the bearer token sent on download and order requests.
func (c *Client) WithAPIKey(apiKey string) *Client {
	c.apiKey = apiKey
	return c
}

// Search performs a granule search in one backend collection.
func (c *Client) Search(ctx context.Context, collection string, params *SearchParams) (*FeatureCollection, error) {
	searchURL := fmt.Sprintf("%s/api/collections/%s/search.json?%s",
		c.baseURL, url.PathEscape(collection), params.ToQueryString())

	c.logger.DebugContext(ctx, "executing resto search",
		slog.String("url", searchURL),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fedeo-stac-gateway/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "resto API request failed",
			slog.String("error", err.Error()),
			slog.String("url", searchURL),
		)
		return nil, fmt.Errorf("resto API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.ErrorContext(ctx, "resto API returned non-200 status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(body)),
		)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.ErrorContext(ctx, "failed to decode resto response",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to decode resto response: %w", err)
	}

	c.logger.DebugContext(ctx, "resto search completed",
		slog.Int("feature_count", len(result.Features)),
	)

	return &result, nil
}

// GetFeature retrieves a single product by identifier.
func (c *Client) GetFeature(ctx context.Context, collection, identifier string) (*Feature, error) {
	params := &SearchParams{
		Identifier: identifier,
		MaxRecords: 1,
	}

	result, err := c.Search(ctx, collection, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search for product: %w", err)
	}
	if len(result.Features) == 0 {
		return nil, nil
	}
	return &result.Features[0], nil
}

// Fetch opens a raw authenticated GET against a backend URL. The caller
// owns the response body.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resto API request failed: %w", err)
	}
	return resp, nil
}

// PostJSON sends an authenticated JSON POST and decodes the JSON reply.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resto API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode resto response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// APIError is a non-2xx reply from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resto API returned status %d: %s", e.StatusCode, e.Body)
}
