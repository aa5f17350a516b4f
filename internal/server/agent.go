package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polyresearch/backend/internal/gainers"
	"github.com/polyresearch/backend/internal/markets"
	"github.com/polyresearch/backend/internal/metrics"
	"github.com/polyresearch/backend/internal/pipeline"
)

type agentRequest struct {
	Query string `json:"query"`
}

// handleAgentQuery runs the natural-language flow: extract parameters
// with Gemini, clamp them like the plain endpoints would, route to the
// matching engine.
func (s *Server) handleAgentQuery(c *gin.Context) {
	if !s.agent.Enabled() {
		metrics.RecordAgentQuery("disabled")
		c.JSON(503, gin.H{"error": "agent is not configured (missing GEMINI_API_KEY)"})
		return
	}

	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		c.JSON(400, gin.H{"error": "No query provided"})
		return
	}

	params, err := s.agent.Extract(c.Request.Context(), req.Query)
	if err != nil {
		metrics.RecordAgentQuery("parse_error")
		s.log.WithError(err).Warn("Agent extraction failed")
		c.JSON(502, gin.H{"error": "could not interpret query"})
		return
	}

	switch params.Endpoint {
	case "trending":
		period := params.Period
		if period == "" {
			period = "24h"
		}
		limit := clamp(defaultInt(params.Limit, 20), 1, s.cfg.MaxMarketLimit)
		results := s.markets.Trending(c.Request.Context(), period, limit, 0)
		metrics.RecordAgentQuery("ok")
		c.JSON(200, gin.H{
			"query":          req.Query,
			"interpreted_as": gin.H{"endpoint": "trending", "period": period, "limit": limit},
			"count":          len(results),
			"results":        results,
		})

	case "search":
		if params.Query == "" {
			params.Query = req.Query
		}
		limit := clamp(defaultInt(params.Limit, 20), 1, s.cfg.MaxMarketLimit)
		results := s.markets.Search(c.Request.Context(), params.Query, limit)
		metrics.RecordAgentQuery("ok")
		c.JSON(200, gin.H{
			"query":          req.Query,
			"interpreted_as": gin.H{"endpoint": "search", "q": params.Query, "limit": limit},
			"count":          len(results),
			"results":        results,
		})

	case "watch":
		limit := clamp(defaultInt(params.Limit, 20), 1, s.cfg.MaxMarketLimit)
		results := s.markets.Watch(c.Request.Context(), markets.ScoreParams{Limit: limit})
		metrics.RecordAgentQuery("ok")
		c.JSON(200, gin.H{
			"query":          req.Query,
			"interpreted_as": gin.H{"endpoint": "watch", "limit": limit},
			"count":          len(results),
			"results":        results,
		})

	default: // gainers
		hours := clamp(defaultInt(params.Hours, s.cfg.DefaultLookbackHours), 1, s.cfg.MaxLookbackHours)
		limit := clamp(defaultInt(params.Limit, s.cfg.DefaultLimit), 1, s.cfg.MaxLimit)

		p := gainers.Params{
			SortBy:    params.SortBy,
			SortOrder: pipeline.Descending,
			Limit:     limit,
		}
		if params.MinProfit > 0 {
			p.MinProfit = pipeline.Float(params.MinProfit)
		}

		results := s.gainers.TopGainers(c.Request.Context(), hours, p)
		metrics.RecordAgentQuery("ok")
		c.JSON(200, gin.H{
			"query": req.Query,
			"interpreted_as": gin.H{
				"endpoint":   "gainers",
				"hours":      hours,
				"limit":      limit,
				"min_profit": params.MinProfit,
				"sort_by":    params.SortBy,
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"count":     len(results),
			"results":   results,
		})
	}
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
