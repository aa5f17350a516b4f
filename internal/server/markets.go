package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polyresearch/backend/internal/markets"
)

func (s *Server) handleMarketsWatch(c *gin.Context) {
	limit := clamp(intQuery(c, "limit", 20), 1, s.cfg.MaxMarketLimit)

	params := markets.ScoreParams{
		Limit:        limit,
		MinScore:     floatQuery(c, "min_score", 0),
		MinVolume:    floatQuery(c, "min_volume", 0),
		MinLiquidity: floatQuery(c, "min_liquidity", 0),
		MaxAgeDays:   intQuery(c, "created_days", 0),
	}

	results := s.markets.Watch(c.Request.Context(), params)

	c.JSON(200, gin.H{
		"filters": gin.H{
			"limit":         limit,
			"min_score":     params.MinScore,
			"min_volume":    params.MinVolume,
			"min_liquidity": params.MinLiquidity,
			"created_days":  params.MaxAgeDays,
		},
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleMarketsTrending(c *gin.Context) {
	period := c.DefaultQuery("period", "24h")
	switch period {
	case "24h", "1wk", "1mo":
	default:
		period = "24h"
	}
	limit := clamp(intQuery(c, "limit", 20), 1, s.cfg.MaxMarketLimit)
	minVolume := floatQuery(c, "min_volume", 0)

	results := s.markets.Trending(c.Request.Context(), period, limit, minVolume)

	c.JSON(200, gin.H{
		"filters": gin.H{
			"period":     period,
			"limit":      limit,
			"min_volume": minVolume,
		},
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleMarketsSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(400, gin.H{"error": `Query parameter "q" is required`})
		return
	}
	limit := clamp(intQuery(c, "limit", 20), 1, s.cfg.MaxMarketLimit)

	results := s.markets.Search(c.Request.Context(), query, limit)

	c.JSON(200, gin.H{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleMarketDetail(c *gin.Context) {
	slug := c.Param("slug")

	detail := s.markets.BySlug(c.Request.Context(), slug)
	if detail == nil {
		c.JSON(404, gin.H{"error": "Market not found"})
		return
	}
	c.JSON(200, detail)
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func floatQuery(c *gin.Context, name string, def float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}
