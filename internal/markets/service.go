package markets

import (
	"context"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/polyresearch/backend/internal/config"
	"github.com/polyresearch/backend/internal/metrics"
	"github.com/polyresearch/backend/internal/pipeline"
	"github.com/polyresearch/backend/internal/polymarket/gammaapi"
)

// EventSource lists and resolves Gamma API events.
type EventSource interface {
	Events(ctx context.Context, params gammaapi.EventParams) ([]gammaapi.Event, error)
	EventBySlug(ctx context.Context, slug string) (*gammaapi.Event, error)
}

// Service wraps the Gamma API behind the market ranking, trending,
// search and detail operations. Upstream failures are logged and
// surface as empty results.
type Service struct {
	events EventSource
	cfg    *config.Config
	log    *logrus.Logger
}

func NewService(events EventSource, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{events: events, cfg: cfg, log: log}
}

// TrendingMarket is one row of the trending-by-volume list.
type TrendingMarket struct {
	Slug         string  `json:"slug"`
	Title        string  `json:"title"`
	Volume       float64 `json:"volume"`
	Volume24h    float64 `json:"volume_24h"`
	Liquidity    float64 `json:"liquidity"`
	CommentCount int     `json:"comment_count"`
	URL          string  `json:"url"`
}

// SearchResult is one row of a title/slug substring search.
type SearchResult struct {
	Slug      string  `json:"slug"`
	Title     string  `json:"title"`
	Volume24h float64 `json:"volume_24h"`
	Liquidity float64 `json:"liquidity"`
	URL       string  `json:"url"`
}

// Outcome is one outcome with its implied probability.
type Outcome struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Group       string  `json:"group"`
}

// Detail is the full view of one event.
type Detail struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Volume      float64   `json:"volume"`
	Volume24h   float64   `json:"volume_24h"`
	Liquidity   float64   `json:"liquidity"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Active      bool      `json:"active"`
	Outcomes    []Outcome `json:"outcomes"`
	URL         string    `json:"url"`
}

// Watch returns the "worth watching" ranking over currently active
// events.
func (s *Service) Watch(ctx context.Context, p ScoreParams) []ScoredMarket {
	metrics.MarketRankings.WithLabelValues("watch").Inc()

	events, err := s.events.Events(ctx, gammaapi.EventParams{
		Limit:  s.cfg.EventFetchLimit,
		Active: true,
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to fetch events for watch ranking")
		return []ScoredMarket{}
	}
	return ComputeRanking(events, p)
}

var periodVolume = map[string]func(gammaapi.Event) float64{
	"24h": func(e gammaapi.Event) float64 { return e.Volume24hr.Float64() },
	"1wk": func(e gammaapi.Event) float64 { return e.Volume1wk.Float64() },
	"1mo": func(e gammaapi.Event) float64 { return e.Volume1mo.Float64() },
}

// Trending returns active events ordered by the period volume. Unknown
// periods fall back to 24h.
func (s *Service) Trending(ctx context.Context, period string, limit int, minVolume float64) []TrendingMarket {
	metrics.MarketRankings.WithLabelValues("trending").Inc()

	volumeOf, ok := periodVolume[period]
	if !ok {
		volumeOf = periodVolume["24h"]
	}

	events, err := s.events.Events(ctx, gammaapi.EventParams{Limit: 100, Active: true})
	if err != nil {
		s.log.WithError(err).Error("Failed to fetch events for trending")
		return []TrendingMarket{}
	}

	rows := make([]TrendingMarket, 0, len(events))
	for _, event := range events {
		rows = append(rows, TrendingMarket{
			Slug:         event.Slug,
			Title:        event.Title,
			Volume:       round2(volumeOf(event)),
			Volume24h:    round2(event.Volume24hr.Float64()),
			Liquidity:    round2(event.Liquidity.Float64()),
			CommentCount: event.CommentCount,
			URL:          eventURL(event.Slug),
		})
	}

	return pipeline.Apply(rows, pipeline.Options[TrendingMarket]{
		Bounds: []pipeline.Bound[TrendingMarket]{
			{Value: func(m TrendingMarket) float64 { return m.Volume }, Min: volumeBound(minVolume)},
		},
		SortKeys: map[string]func(TrendingMarket) float64{
			"volume": func(m TrendingMarket) float64 { return m.Volume },
		},
		SortKey:    "volume",
		DefaultKey: "volume",
		Limit:      limit,
	})
}

// Search matches the query as a case-insensitive substring of event
// title or slug.
func (s *Service) Search(ctx context.Context, query string, limit int) []SearchResult {
	metrics.MarketRankings.WithLabelValues("search").Inc()

	events, err := s.events.Events(ctx, gammaapi.EventParams{
		Limit:  s.cfg.EventFetchLimit,
		Active: true,
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to fetch events for search")
		return []SearchResult{}
	}

	needle := strings.ToLower(query)
	results := []SearchResult{}
	for _, event := range events {
		if !strings.Contains(strings.ToLower(event.Title), needle) &&
			!strings.Contains(strings.ToLower(event.Slug), needle) {
			continue
		}
		results = append(results, SearchResult{
			Slug:      event.Slug,
			Title:     event.Title,
			Volume24h: round2(event.Volume24hr.Float64()),
			Liquidity: round2(event.Liquidity.Float64()),
			URL:       eventURL(event.Slug),
		})
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

// BySlug resolves one event with parsed outcomes. Nil when the event
// does not exist.
func (s *Service) BySlug(ctx context.Context, slug string) *Detail {
	event, err := s.events.EventBySlug(ctx, slug)
	if err != nil {
		s.log.WithError(err).WithField("slug", slug).Warn("Event lookup failed")
		return nil
	}
	if event == nil {
		return nil
	}

	return &Detail{
		Slug:        event.Slug,
		Title:       event.Title,
		Description: event.Description,
		Volume:      round2(event.Volume.Float64()),
		Volume24h:   round2(event.Volume24hr.Float64()),
		Liquidity:   round2(event.Liquidity.Float64()),
		StartDate:   event.StartDate,
		EndDate:     event.EndDate,
		Active:      event.Active,
		Outcomes:    parseOutcomes(event.Markets),
		URL:         eventURL(event.Slug),
	}
}

// TokenIDsForCategory flattens the clob token ids of all markets under
// a tag into the allow-list the gainers engine filters by. Empty when
// the tag matches nothing.
func (s *Service) TokenIDsForCategory(ctx context.Context, category string) map[string]struct{} {
	events, err := s.events.Events(ctx, gammaapi.EventParams{
		Limit:  s.cfg.EventFetchLimit,
		Active: true,
		Tag:    category,
	})
	if err != nil {
		s.log.WithError(err).WithField("category", category).Error("Failed to resolve category tokens")
		return nil
	}

	tokens := make(map[string]struct{})
	for _, event := range events {
		for _, market := range event.Markets {
			ids, ok := gammaapi.DecodeStringList(market.ClobTokenIDs)
			if !ok {
				continue
			}
			for _, id := range ids {
				if id != "" {
					tokens[id] = struct{}{}
				}
			}
		}
	}
	return tokens
}

// parseOutcomes pairs outcome names with prices per nested market.
// Malformed markets are skipped, not fatal.
func parseOutcomes(list []gammaapi.Market) []Outcome {
	outcomes := []Outcome{}
	for _, market := range list {
		names, ok := gammaapi.DecodeStringList(market.Outcomes)
		if !ok {
			continue
		}
		prices, _ := gammaapi.DecodeNumberList(market.OutcomePrices)

		group := market.GroupItemTitle
		if group == "" {
			group = "Main"
		}
		for i, name := range names {
			price := 0.0
			if i < len(prices) {
				price = prices[i]
			}
			outcomes = append(outcomes, Outcome{
				Name:        name,
				Probability: math.Round(price*1000) / 10,
				Group:       group,
			})
		}
	}
	return outcomes
}

func volumeBound(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
