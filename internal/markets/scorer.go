// Package markets ranks Gamma API events: a weighted "worth watching"
// score, trending-by-volume lists, search and detail lookups.
package markets

import (
	"fmt"
	"math"
	"time"

	"github.com/polyresearch/backend/internal/pipeline"
	"github.com/polyresearch/backend/internal/polymarket/gammaapi"
)

// ScoreParams drives one ranking computation.
type ScoreParams struct {
	MinVolume    float64
	MinLiquidity float64
	MinScore     float64

	// MaxAgeDays excludes events older than this many days when
	// positive. Events with an unparseable creation date pass.
	MaxAgeDays int

	Limit int

	// Now anchors age computation; zero means time.Now.
	Now time.Time
}

// ScoredMarket is one ranked event. Money and volume figures are
// rounded to 2 decimal places.
type ScoredMarket struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Score     int      `json:"score"`
	Reasons   []string `json:"reasons"`
	Volume24h float64  `json:"volume_24h"`
	Volume1wk float64  `json:"volume_1wk"`
	Liquidity float64  `json:"liquidity"`
	AgeDays   *int     `json:"days_old"`
	URL       string   `json:"url"`
}

// Score weights. Each rule triggers independently; contributions are
// additive and uncapped.
const (
	growthPoints      = 30
	recencyPoints     = 20
	liquidityPoints   = 15
	competitivePoints = 25
	volumePoints      = 10

	growthRatioMin     = 2.0
	recencyMaxDays     = 7
	liquidityThreshold = 10_000
	volumeThreshold    = 50_000
	competitiveLow     = 0.30
	competitiveHigh    = 0.70
)

// ComputeRanking scores events and returns them ordered by score
// descending with stable ties. Pure: empty input yields an empty list
// and no error ever crosses this boundary.
func ComputeRanking(events []gammaapi.Event, p ScoreParams) []ScoredMarket {
	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	scored := make([]ScoredMarket, 0, len(events))
	for _, event := range events {
		vol24 := event.Volume24hr.Float64()
		vol1wk := event.Volume1wk.Float64()
		liquidity := event.Liquidity.Float64()

		// Base filters short-circuit before any scoring work.
		if vol24 < p.MinVolume || liquidity < p.MinLiquidity {
			continue
		}

		ageDays := eventAgeDays(event, now)
		if p.MaxAgeDays > 0 && ageDays != nil && *ageDays > p.MaxAgeDays {
			continue
		}

		score := 0
		reasons := []string{}

		if vol1wk > 0 {
			ratio := vol24 / vol1wk
			if ratio > growthRatioMin {
				score += growthPoints
				reasons = append(reasons, fmt.Sprintf("%.1fx volume growth", ratio))
			}
		}

		if ageDays != nil && *ageDays <= recencyMaxDays {
			score += recencyPoints
			reasons = append(reasons, fmt.Sprintf("Created %d days ago", *ageDays))
		}

		if liquidity > liquidityThreshold {
			score += liquidityPoints
			reasons = append(reasons, fmt.Sprintf("High liquidity ($%.0f)", liquidity))
		}

		if isCompetitive(event) {
			score += competitivePoints
			reasons = append(reasons, "Competitive market")
		}

		if vol24 > volumeThreshold {
			score += volumePoints
			reasons = append(reasons, fmt.Sprintf("High volume ($%.0f)", vol24))
		}

		scored = append(scored, ScoredMarket{
			Slug:      event.Slug,
			Title:     event.Title,
			Score:     score,
			Reasons:   reasons,
			Volume24h: round2(vol24),
			Volume1wk: round2(vol1wk),
			Liquidity: round2(liquidity),
			AgeDays:   ageDays,
			URL:       eventURL(event.Slug),
		})
	}

	return pipeline.Apply(scored, pipeline.Options[ScoredMarket]{
		Bounds: []pipeline.Bound[ScoredMarket]{
			{Value: func(m ScoredMarket) float64 { return float64(m.Score) }, Min: minScoreBound(p.MinScore)},
		},
		SortKeys: map[string]func(ScoredMarket) float64{
			"score": func(m ScoredMarket) float64 { return float64(m.Score) },
		},
		SortKey:    "score",
		DefaultKey: "score",
		Limit:      p.Limit,
	})
}

func minScoreBound(min float64) *float64 {
	if min <= 0 {
		return nil
	}
	return &min
}

// isCompetitive checks the first nested market's outcome prices: a
// maximum price inside the competitive band means the crowd has not
// settled the question yet. Any parse failure skips the rule silently.
func isCompetitive(event gammaapi.Event) bool {
	if len(event.Markets) == 0 {
		return false
	}
	prices, ok := gammaapi.DecodeNumberList(event.Markets[0].OutcomePrices)
	if !ok || len(prices) == 0 {
		return false
	}
	max := prices[0]
	for _, price := range prices[1:] {
		if price > max {
			max = price
		}
	}
	return max >= competitiveLow && max <= competitiveHigh
}

// eventAgeDays parses the creation timestamp; nil when missing or
// unparseable.
func eventAgeDays(event gammaapi.Event, now time.Time) *int {
	created := event.Created()
	if created == "" {
		return nil
	}
	t, ok := parseEventTime(created)
	if !ok {
		return nil
	}
	days := int(now.Sub(t).Hours() / 24)
	return &days
}

func parseEventTime(s string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func eventURL(slug string) string {
	return "https://polymarket.com/event/" + slug
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
