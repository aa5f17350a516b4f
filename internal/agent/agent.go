// Package agent translates natural-language queries into API
// parameters with a Gemini extraction call. It is a pure translation
// step: routing and execution stay in the serving layer.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polyresearch/backend/internal/config"
)

const extractionPrompt = `You are an API parameter extractor for a Polymarket trading analytics API.

Given a user's natural language query, pick the endpoint and extract its parameters.

Endpoints:
- "gainers": top profitable wallets. Params: hours (1-720), limit (1-100), min_profit (float), sort_by (profit|trades|activity_gain|markets)
- "trending": markets with the most volume. Params: period (24h|1wk|1mo), limit (1-50)
- "search": find markets by keyword. Params: query (string), limit (1-50)
- "watch": markets worth watching by opportunity score. Params: limit (1-50)

Return a JSON object: {"endpoint": ..., "hours": ..., "limit": ..., "min_profit": ..., "sort_by": ..., "period": ..., "query": ...}
Only include parameters the query mentions explicitly or implicitly.

Examples:
- "Show me the biggest winners today" -> {"endpoint": "gainers", "hours": 24, "limit": 10}
- "Top 5 traders this week" -> {"endpoint": "gainers", "hours": 168, "limit": 5}
- "What's hot this month" -> {"endpoint": "trending", "period": "1mo", "limit": 10}
- "Any election markets?" -> {"endpoint": "search", "query": "election"}
- "Which markets should I look at" -> {"endpoint": "watch", "limit": 10}`

// QueryParams is the extraction result. Zero values mean the query did
// not mention the parameter; the serving layer applies defaults and
// clamps.
type QueryParams struct {
	Endpoint  string  `json:"endpoint"`
	Hours     int     `json:"hours"`
	Limit     int     `json:"limit"`
	MinProfit float64 `json:"min_profit"`
	SortBy    string  `json:"sort_by"`
	Period    string  `json:"period"`
	Query     string  `json:"query"`
}

// Extractor calls the Gemini generateContent REST endpoint. Disabled
// when no API key is configured.
type Extractor struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

func New(cfg *config.Config, log *logrus.Logger) *Extractor {
	return &Extractor{
		apiKey:     cfg.GeminiAPIKey,
		model:      cfg.GeminiModel,
		baseURL:    cfg.GeminiBaseURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		log:        log,
	}
}

// Enabled reports whether an API key is configured.
func (e *Extractor) Enabled() bool {
	return e.apiKey != ""
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Extract asks the model which endpoint and parameters the query maps
// to.
func (e *Extractor) Extract(ctx context.Context, query string) (QueryParams, error) {
	var params QueryParams
	if !e.Enabled() {
		return params, fmt.Errorf("no Gemini API key configured")
	}

	prompt := fmt.Sprintf("%s\n\nUser query: %s\n\nRespond with only valid JSON, no markdown.", extractionPrompt, query)
	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0,
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		return params, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		e.baseURL, url.PathEscape(e.model), url.QueryEscape(e.apiKey))

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return params, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return params, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return params, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return params, fmt.Errorf("decode response: %w", err)
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return params, fmt.Errorf("empty completion")
	}

	text := gen.Candidates[0].Content.Parts[0].Text
	params, err = parseParams(text)
	if err != nil {
		return params, err
	}
	e.log.WithFields(logrus.Fields{
		"endpoint": params.Endpoint,
		"hours":    params.Hours,
		"limit":    params.Limit,
	}).Debug("Extracted query parameters")
	return params, nil
}

// parseParams decodes the model output, salvaging the first JSON
// object when the model wraps it in prose despite instructions.
func parseParams(text string) (QueryParams, error) {
	var params QueryParams
	if err := json.Unmarshal([]byte(text), &params); err == nil {
		return params, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return params, fmt.Errorf("no JSON object in completion")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &params); err != nil {
		return params, fmt.Errorf("parse completion: %w", err)
	}
	return params, nil
}
