package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polyresearch/backend/internal/gainers"
	"github.com/polyresearch/backend/internal/pipeline"
)

// gainersRequest carries the leaderboard query, bound from the query
// string on GET and the JSON body on POST. Pointers distinguish
// "absent" from zero.
type gainersRequest struct {
	Hours           *int     `form:"hours" json:"hours"`
	Limit           *int     `form:"limit" json:"limit"`
	Offset          *int     `form:"offset" json:"offset"`
	MinProfit       *float64 `form:"min_profit" json:"min_profit"`
	MaxProfit       *float64 `form:"max_profit" json:"max_profit"`
	MinTrades       *float64 `form:"min_trades" json:"min_trades"`
	MaxTrades       *float64 `form:"max_trades" json:"max_trades"`
	SortBy          string   `form:"sort_by" json:"sort_by"`
	SortOrder       string   `form:"sort_order" json:"sort_order"`
	AccountAgeHours *int     `form:"account_age_hours" json:"account_age_hours"`
	AccountAgeMode  string   `form:"account_age_mode" json:"account_age_mode"`
	Category        string   `form:"category" json:"category"`
	GainBasis       string   `form:"gain_basis" json:"gain_basis"`
}

func (s *Server) handleGainers(c *gin.Context) {
	var req gainersRequest
	var err error
	if c.Request.Method == "POST" {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBindQuery(&req)
	}
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid parameters: " + err.Error()})
		return
	}

	hours := s.cfg.DefaultLookbackHours
	if req.Hours != nil {
		hours = *req.Hours
	}
	hours = clamp(hours, 1, s.cfg.MaxLookbackHours)

	limit := s.cfg.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	limit = clamp(limit, 1, s.cfg.MaxLimit)

	offset := 0
	if req.Offset != nil && *req.Offset > 0 {
		offset = *req.Offset
	}

	ageHours := 0
	if req.AccountAgeHours != nil && *req.AccountAgeHours > 0 {
		ageHours = *req.AccountAgeHours
	}
	ageMode := gainers.ParseAgeMode(req.AccountAgeMode)
	if ageHours == 0 {
		ageMode = gainers.AgeModeNone
	}

	params := gainers.Params{
		MinProfit:       req.MinProfit,
		MaxProfit:       req.MaxProfit,
		MinTrades:       req.MinTrades,
		MaxTrades:       req.MaxTrades,
		AccountAgeHours: ageHours,
		AccountAgeMode:  ageMode,
		Basis:           gainers.ParseBasis(req.GainBasis),
		SortBy:          req.SortBy,
		SortOrder:       pipeline.ParseOrder(req.SortOrder),
		Limit:           limit,
		Offset:          offset,
	}

	filters := gin.H{
		"hours":      hours,
		"limit":      limit,
		"offset":     offset,
		"sort_by":    req.SortBy,
		"sort_order": req.SortOrder,
		"gain_basis": req.GainBasis,
	}
	if req.Category != "" {
		filters["category"] = req.Category
	}

	if req.Category != "" {
		tokens := s.markets.TokenIDsForCategory(c.Request.Context(), req.Category)
		if len(tokens) == 0 {
			// Unknown category matches nothing; never fall back to
			// the unfiltered batch.
			c.JSON(200, gin.H{
				"filters":   filters,
				"count":     0,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"results":   []gainers.Result{},
			})
			return
		}
		params.MarketAllowList = tokens
	}

	results := s.gainers.TopGainers(c.Request.Context(), hours, params)

	c.JSON(200, gin.H{
		"filters":   filters,
		"count":     len(results),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"results":   results,
	})
}
