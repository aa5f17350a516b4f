package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/polyresearch/backend/internal/secrets"
)

// AuthMode represents the authentication mode for the Data API
type AuthMode string

const (
	AuthModeNone   AuthMode = "none"
	AuthModeBearer AuthMode = "bearer"
	AuthModeAPIKey AuthMode = "api_key"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string
	ListenAddr  string
	LogLevel    string

	// Data API
	DataAPIBaseURL      string
	DataAPIAuthMode     AuthMode
	DataAPIBearerToken  string
	DataAPIAPIKey       string
	DataAPIExtraHeaders map[string]string

	// Gamma API
	GammaAPIBaseURL string

	// Gainers engine
	DefaultLookbackHours int
	MaxLookbackHours     int
	DefaultLimit         int
	MaxLimit             int
	TradeFetchLimit      int // rows pulled per /trades request
	TradeFetchLimitLong  int // when the lookback exceeds 24h
	ActivityFetchLimit   int // rows pulled per wallet activity log

	// Markets engine
	MaxMarketLimit  int
	EventFetchLimit int

	// Rate limits (requests per second)
	DataAPITradesRPS   float64
	DataAPIActivityRPS float64
	GammaAPIEventsRPS  float64

	// Profile enrichment worker pool
	ProfileWorkers    int
	ProfileTimeoutSec int

	// NL agent (Gemini)
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
}

const maxProfileWorkers = 10

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment:          getEnv("ENVIRONMENT", "production"),
		ListenAddr:           getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DataAPIBaseURL:       getEnv("DATA_API_BASE_URL", "https://data-api.polymarket.com"),
		DataAPIAuthMode:      AuthMode(getEnv("DATA_API_AUTH_MODE", "none")),
		DataAPIBearerToken:   secrets.GetOptionalSecret("DATA_API_BEARER_TOKEN", ""),
		DataAPIAPIKey:        secrets.GetOptionalSecret("DATA_API_API_KEY", ""),
		GammaAPIBaseURL:      getEnv("GAMMA_API_BASE_URL", "https://gamma-api.polymarket.com"),
		DefaultLookbackHours: getEnvInt("DEFAULT_LOOKBACK_HOURS", 24),
		MaxLookbackHours:     getEnvInt("MAX_LOOKBACK_HOURS", 720),
		DefaultLimit:         getEnvInt("DEFAULT_LIMIT", 20),
		MaxLimit:             getEnvInt("MAX_LIMIT", 100),
		TradeFetchLimit:      getEnvInt("TRADE_FETCH_LIMIT", 2000),
		TradeFetchLimitLong:  getEnvInt("TRADE_FETCH_LIMIT_LONG", 5000),
		ActivityFetchLimit:   getEnvInt("ACTIVITY_FETCH_LIMIT", 500),
		MaxMarketLimit:       getEnvInt("MAX_MARKET_LIMIT", 50),
		EventFetchLimit:      getEnvInt("EVENT_FETCH_LIMIT", 200),
		DataAPITradesRPS:     getEnvFloat("DATA_API_TRADES_RPS", 2.0),
		DataAPIActivityRPS:   getEnvFloat("DATA_API_ACTIVITY_RPS", 1.0),
		GammaAPIEventsRPS:    getEnvFloat("GAMMA_API_EVENTS_RPS", 5.0),
		ProfileWorkers:       getEnvInt("PROFILE_WORKERS", 10),
		ProfileTimeoutSec:    getEnvInt("PROFILE_TIMEOUT_SEC", 5),
		GeminiAPIKey:         secrets.GetOptionalSecret("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:        getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
	}

	// Parse extra headers JSON
	extraHeadersJSON := getEnv("DATA_API_EXTRA_HEADERS", "{}")
	if err := json.Unmarshal([]byte(extraHeadersJSON), &cfg.DataAPIExtraHeaders); err != nil {
		return nil, fmt.Errorf("invalid DATA_API_EXTRA_HEADERS JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	switch c.DataAPIAuthMode {
	case AuthModeNone:
		// No validation needed
	case AuthModeBearer:
		if c.DataAPIBearerToken == "" {
			return fmt.Errorf("DATA_API_BEARER_TOKEN is required when AUTH_MODE is bearer")
		}
	case AuthModeAPIKey:
		if c.DataAPIAPIKey == "" {
			return fmt.Errorf("DATA_API_API_KEY is required when AUTH_MODE is api_key")
		}
	default:
		return fmt.Errorf("invalid DATA_API_AUTH_MODE: %s (must be none, bearer, or api_key)", c.DataAPIAuthMode)
	}

	if c.MaxLookbackHours <= 0 {
		return fmt.Errorf("MAX_LOOKBACK_HOURS must be positive")
	}
	if c.MaxLimit <= 0 || c.MaxMarketLimit <= 0 {
		return fmt.Errorf("MAX_LIMIT and MAX_MARKET_LIMIT must be positive")
	}
	if c.ProfileWorkers < 1 {
		c.ProfileWorkers = 1
	}
	if c.ProfileWorkers > maxProfileWorkers {
		c.ProfileWorkers = maxProfileWorkers
	}

	return nil
}

// ProfileTimeout is the per-lookup deadline for handle enrichment.
func (c *Config) ProfileTimeout() time.Duration {
	return time.Duration(c.ProfileTimeoutSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
