// Package gammaapi is the Polymarket Gamma API client, used for event
// and market metadata.
package gammaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/polyresearch/backend/internal/config"
	"github.com/polyresearch/backend/internal/metrics"
)

// Client handles communication with the Polymarket Gamma API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Gamma API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.GammaAPIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(cfg.GammaAPIEventsRPS), 1),
	}
}

// EventParams holds parameters for the Events call
type EventParams struct {
	Limit  int
	Active bool
	Closed bool
	Tag    string
	Order  string // e.g. volume24hr
}

// Events lists events ordered by the Gamma API's default or the
// requested field.
func (c *Client) Events(ctx context.Context, params EventParams) ([]Event, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Active {
		q.Set("active", "true")
	}
	q.Set("closed", strconv.FormatBool(params.Closed))
	if params.Tag != "" {
		q.Set("tag_slug", params.Tag)
	}
	if params.Order != "" {
		q.Set("order", params.Order)
		q.Set("ascending", "false")
	}

	body, err := c.get(ctx, "/events", q)
	if err != nil {
		return nil, err
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

// EventBySlug resolves one event, trying the slug query first and the
// path form the API also serves as a fallback.
func (c *Client) EventBySlug(ctx context.Context, slug string) (*Event, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("slug", slug)

	body, err := c.get(ctx, "/events", q)
	if err == nil {
		var events []Event
		if jerr := json.Unmarshal(body, &events); jerr == nil && len(events) > 0 {
			return &events[0], nil
		}
	}

	body, err = c.get(ctx, "/events/slug/"+url.PathEscape(slug), nil)
	if err != nil {
		return nil, err
	}

	// This form returns either a single object or a one-element array.
	var event Event
	if jerr := json.Unmarshal(body, &event); jerr == nil && event.Slug != "" {
		return &event, nil
	}
	var events []Event
	if jerr := json.Unmarshal(body, &events); jerr == nil && len(events) > 0 {
		return &events[0], nil
	}

	return nil, fmt.Errorf("no event found for slug %s", slug)
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Gamma API is public - no auth headers needed
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest("gamma", path, "error", time.Since(start))
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest("gamma", path, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
