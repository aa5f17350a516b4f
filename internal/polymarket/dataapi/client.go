// Package dataapi is the Polymarket Data API client. Trade and
// activity rows come back as loosely-typed objects on purpose: field
// presence and value types drift between endpoints, and the record
// normalizer deals with that downstream.
package dataapi

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
	"github.com/polyresearch/backend/internal/record"
)

// Client handles communication with the Polymarket Data API
type Client struct {
	baseURL      string
	httpClient   *http.Client
	authMode     config.AuthMode
	bearerToken  string
	apiKey       string
	extraHeaders map[string]string

	tradesLimiter   *rate.Limiter
	activityLimiter *rate.Limiter
}

// NewClient creates a new Data API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:         cfg.DataAPIBaseURL,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		authMode:        cfg.DataAPIAuthMode,
		bearerToken:     cfg.DataAPIBearerToken,
		apiKey:          cfg.DataAPIAPIKey,
		extraHeaders:    cfg.DataAPIExtraHeaders,
		tradesLimiter:   rate.NewLimiter(rate.Limit(cfg.DataAPITradesRPS), 1),
		activityLimiter: rate.NewLimiter(rate.Limit(cfg.DataAPIActivityRPS), 1),
	}
}

// RecentTrades fetches trades newer than the lookback window.
func (c *Client) RecentTrades(ctx context.Context, lookbackHours, limit int) ([]record.Raw, error) {
	if err := c.tradesLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if lookbackHours > 0 {
		cutoff := time.Now().Add(-time.Duration(lookbackHours) * time.Hour).Unix()
		q.Set("timestamp_gte", strconv.FormatInt(cutoff, 10))
	}
	q.Set("takerOnly", "true")

	return c.listRecords(ctx, "/trades", q)
}

// WalletActivity fetches the activity log (trades, redemptions, splits)
// for one wallet, most recent first.
func (c *Client) WalletActivity(ctx context.Context, wallet string, limit int) ([]record.Raw, error) {
	if err := c.activityLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("user", wallet)
	q.Set("sortBy", "TIMESTAMP")
	q.Set("sortDirection", "DESC")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	return c.listRecords(ctx, "/activity", q)
}

// Profile returns a display handle for a wallet, taken from the
// name/pseudonym on its most recent activity row. Empty when the
// wallet has no activity or no profile fields.
func (c *Client) Profile(ctx context.Context, wallet string) (string, error) {
	if err := c.activityLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("user", wallet)
	q.Set("limit", "1")

	rows, err := c.listRecords(ctx, "/activity", q)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	for _, field := range []string{"name", "pseudonym"} {
		if v, ok := rows[0][field].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", nil
}

// listRecords performs one GET and decodes a list of raw objects,
// tolerating both a bare JSON array and the {data:[...]}/{trades:[...]}
// envelopes the API has shipped at various times.
func (c *Client) listRecords(ctx context.Context, path string, q url.Values) ([]record.Raw, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAuthHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest("data", path, "error", time.Since(start))
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest("data", path, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("401 Unauthorized (auth_mode=%s) - check credentials", c.authMode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return decodeRecordList(body)
}

func decodeRecordList(body []byte) ([]record.Raw, error) {
	var rows []record.Raw
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: not a list or envelope")
	}
	for _, key := range []string{"data", "trades", "activity"} {
		inner, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &rows); err != nil {
			return nil, fmt.Errorf("decode %s envelope: %w", key, err)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("decode response: no recognized list field")
}

func (c *Client) setAuthHeaders(req *http.Request) {
	switch c.authMode {
	case config.AuthModeBearer:
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	case config.AuthModeAPIKey:
		req.Header.Set("X-API-KEY", c.apiKey)
	case config.AuthModeNone:
		// No auth headers
	}

	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}
}
