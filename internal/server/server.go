// Package server is the gin HTTP surface over the gainers and markets
// engines.
package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/polyresearch/backend/internal/agent"
	"github.com/polyresearch/backend/internal/config"
	"github.com/polyresearch/backend/internal/gainers"
	"github.com/polyresearch/backend/internal/markets"
)

type Server struct {
	cfg     *config.Config
	log     *logrus.Logger
	gainers *gainers.Service
	markets *markets.Service
	agent   *agent.Extractor
}

func New(cfg *config.Config, log *logrus.Logger, gainersSvc *gainers.Service, marketsSvc *markets.Service, extractor *agent.Extractor) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		gainers: gainersSvc,
		markets: marketsSvc,
		agent:   extractor,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if s.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), corsMiddleware())

	r.GET("/", s.handleIndex)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/gainers", s.handleGainers)
		api.POST("/gainers", s.handleGainers)
		api.GET("/markets/watch", s.handleMarketsWatch)
		api.GET("/markets/trending", s.handleMarketsTrending)
		api.GET("/markets/search", s.handleMarketsSearch)
		api.GET("/markets/:slug", s.handleMarketDetail)
		api.POST("/agent/query", s.handleAgentQuery)
	}

	return r
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(200, gin.H{
		"name":    "PolyResearch API",
		"version": "1.0.0",
		"endpoints": []string{
			"GET /health",
			"GET|POST /api/gainers",
			"GET /api/markets/watch",
			"GET /api/markets/trending",
			"GET /api/markets/search",
			"GET /api/markets/:slug",
			"POST /api/agent/query",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":        "healthy",
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"agent_enabled": s.agent.Enabled(),
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
