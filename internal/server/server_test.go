package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyresearch/backend/internal/agent"
	"github.com/polyresearch/backend/internal/config"
	"github.com/polyresearch/backend/internal/gainers"
	"github.com/polyresearch/backend/internal/markets"
	"github.com/polyresearch/backend/internal/polymarket/gammaapi"
	"github.com/polyresearch/backend/internal/record"
)

type stubTrades struct {
	rows      []record.Raw
	lastHours int
}

func (s *stubTrades) RecentTrades(_ context.Context, hours, _ int) ([]record.Raw, error) {
	s.lastHours = hours
	return s.rows, nil
}

type stubEvents struct {
	events []gammaapi.Event
	bySlug map[string]*gammaapi.Event
}

func (s *stubEvents) Events(_ context.Context, _ gammaapi.EventParams) ([]gammaapi.Event, error) {
	return s.events, nil
}

func (s *stubEvents) EventBySlug(_ context.Context, slug string) (*gammaapi.Event, error) {
	if e, ok := s.bySlug[slug]; ok {
		return e, nil
	}
	return nil, errors.New("no event found")
}

func testServer(trades *stubTrades, events *stubEvents) *Server {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{
		Environment:          "test",
		DefaultLookbackHours: 24,
		MaxLookbackHours:     720,
		DefaultLimit:         20,
		MaxLimit:             100,
		MaxMarketLimit:       50,
		EventFetchLimit:      200,
		TradeFetchLimit:      2000,
		TradeFetchLimitLong:  5000,
		ProfileWorkers:       2,
		ProfileTimeoutSec:    1,
		GeminiModel:          "gemini-1.5-flash",
	}

	if trades == nil {
		trades = &stubTrades{}
	}
	if events == nil {
		events = &stubEvents{}
	}

	gainersSvc := gainers.NewService(trades, nil, nil, cfg, log)
	marketsSvc := markets.NewService(events, cfg, log)
	extractor := agent.New(cfg, log)

	return New(cfg, log, gainersSvc, marketsSvc, extractor)
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	w := doRequest(t, testServer(nil, nil), "GET", "/health", "")
	require.Equal(t, 200, w.Code)

	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["agent_enabled"])
}

func TestGainersEndpoint(t *testing.T) {
	trades := &stubTrades{rows: []record.Raw{
		{"proxyWallet": "0xaaa", "side": "SELL", "size": 10.0, "price": 0.9},
		{"proxyWallet": "0xbbb", "side": "SELL", "size": 5.0, "price": 0.5},
	}}
	s := testServer(trades, nil)

	w := doRequest(t, s, "GET", "/api/gainers?hours=48&limit=1", "")
	require.Equal(t, 200, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, 48, trades.lastHours)

	results := body["results"].([]any)
	first := results[0].(map[string]any)
	assert.Equal(t, "0xaaa", first["wallet"])
	assert.InDelta(t, 9.0, first["profit"].(float64), 1e-9)
}

func TestGainersClamps(t *testing.T) {
	trades := &stubTrades{}
	s := testServer(trades, nil)

	w := doRequest(t, s, "GET", "/api/gainers?hours=99999&limit=10000", "")
	require.Equal(t, 200, w.Code)

	body := decode(t, w)
	filters := body["filters"].(map[string]any)
	assert.Equal(t, float64(720), filters["hours"])
	assert.Equal(t, float64(100), filters["limit"])
	assert.Equal(t, 720, trades.lastHours)
}

func TestGainersPostBody(t *testing.T) {
	trades := &stubTrades{rows: []record.Raw{
		{"proxyWallet": "0xaaa", "side": "SELL", "size": 10.0, "price": 0.9},
	}}
	s := testServer(trades, nil)

	w := doRequest(t, s, "POST", "/api/gainers", `{"hours": 12, "limit": 5, "min_profit": 1.0}`)
	require.Equal(t, 200, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, 12, trades.lastHours)
}

func TestGainersUnknownCategoryIsEmpty(t *testing.T) {
	trades := &stubTrades{rows: []record.Raw{
		{"proxyWallet": "0xaaa", "side": "SELL", "size": 10.0, "price": 0.9},
	}}
	// Event source has no events, so the category resolves to nothing.
	s := testServer(trades, &stubEvents{})

	w := doRequest(t, s, "GET", "/api/gainers?category=politics", "")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestMarketsWatchEndpoint(t *testing.T) {
	events := &stubEvents{events: []gammaapi.Event{
		{Slug: "hot", Title: "Hot", Volume24hr: 120_000, Volume1wk: 40_000, Liquidity: 15_000},
	}}
	s := testServer(nil, events)

	w := doRequest(t, s, "GET", "/api/markets/watch?limit=10", "")
	require.Equal(t, 200, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	results := body["results"].([]any)
	first := results[0].(map[string]any)
	// Growth + liquidity + high volume rules trigger.
	assert.Equal(t, float64(55), first["score"])
}

func TestMarketsSearchRequiresQuery(t *testing.T) {
	s := testServer(nil, nil)

	w := doRequest(t, s, "GET", "/api/markets/search", "")
	assert.Equal(t, 400, w.Code)

	w = doRequest(t, s, "GET", "/api/markets/search?q=%20%20", "")
	assert.Equal(t, 400, w.Code)
}

func TestMarketDetail(t *testing.T) {
	events := &stubEvents{bySlug: map[string]*gammaapi.Event{
		"us-election": {Slug: "us-election", Title: "US Election"},
	}}
	s := testServer(nil, events)

	w := doRequest(t, s, "GET", "/api/markets/us-election", "")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "us-election", decode(t, w)["slug"])

	w = doRequest(t, s, "GET", "/api/markets/nope", "")
	assert.Equal(t, 404, w.Code)
}

func TestAgentDisabled(t *testing.T) {
	s := testServer(nil, nil)

	w := doRequest(t, s, "POST", "/api/agent/query", `{"query": "top traders"}`)
	assert.Equal(t, 503, w.Code)
}

func TestAgentEmptyQuery(t *testing.T) {
	s := testServer(nil, nil)
	s.cfg.GeminiAPIKey = "key"
	s.agent = agent.New(s.cfg, s.log)

	w := doRequest(t, s, "POST", "/api/agent/query", `{}`)
	assert.Equal(t, 400, w.Code)
}

func TestCORSHeaders(t *testing.T) {
	s := testServer(nil, nil)

	w := doRequest(t, s, "GET", "/health", "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = doRequest(t, s, "OPTIONS", "/api/gainers", "")
	assert.Equal(t, 204, w.Code)
}
