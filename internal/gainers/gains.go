package gainers

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyresearch/backend/internal/pipeline"
	"github.com/polyresearch/backend/internal/record"
)

// Basis selects which realized-gain figure drives filtering and
// sorting. The two figures are never merged silently.
type Basis int

const (
	// BasisTrade uses trade cash flow only (sell proceeds - buy cost).
	BasisTrade Basis = iota
	// BasisBest uses the larger of the trade figure and the
	// activity-log figure, which also sees redemptions.
	BasisBest
)

// ParseBasis maps the query-string value to a Basis. Trade cash flow
// is the default.
func ParseBasis(s string) Basis {
	if s == "best" {
		return BasisBest
	}
	return BasisTrade
}

// ActivityLookup returns the raw activity-log rows for one wallet, or
// nil when the log is unavailable. Only consulted under BasisBest.
type ActivityLookup func(wallet string) []record.Raw

// Params drives one leaderboard computation.
type Params struct {
	MinProfit *float64
	MaxProfit *float64
	MinTrades *float64
	MaxTrades *float64

	AccountAgeHours int
	AccountAgeMode  AgeMode

	// MarketAllowList restricts aggregation to these token ids when
	// non-empty.
	MarketAllowList map[string]struct{}

	Basis Basis

	SortBy    string
	SortOrder pipeline.Order
	Limit     int
	Offset    int

	// Now anchors the account-age cutoff; zero means time.Now.
	Now time.Time
}

// Result is one leaderboard row. Money fields are rounded to 2 decimal
// places at construction, which is the serialization edge for this
// package.
type Result struct {
	Wallet        string   `json:"wallet"`
	Handle        string   `json:"handle,omitempty"`
	Profit        float64  `json:"profit"`
	Losses        float64  `json:"losses"`
	TotalSpent    float64  `json:"total_spent"`
	TotalProceeds float64  `json:"total_proceeds"`
	Trades        int      `json:"trades"`
	Markets       int      `json:"markets"`
	ActivityGain  *float64 `json:"activity_gain,omitempty"`
	IsNewAccount  bool     `json:"is_new_account"`
	FirstTrade    string   `json:"first_trade,omitempty"`
}

var sortKeys = map[string]func(Result) float64{
	"profit": func(r Result) float64 { return r.Profit },
	"trades": func(r Result) float64 { return float64(r.Trades) },
	"activity_gain": func(r Result) float64 {
		if r.ActivityGain == nil {
			return 0
		}
		return *r.ActivityGain
	},
	"markets": func(r Result) float64 { return float64(r.Markets) },
}

// ComputeLeaderboard is the pure core of the gainers endpoint: raw
// trade rows in, ordered leaderboard page out. Deterministic for a
// given input; empty input yields an empty page.
func ComputeLeaderboard(trades []record.Raw, activity ActivityLookup, p Params) ([]Result, record.SkipCounts) {
	wallets, skips := Aggregate(trades, p.MarketAllowList)

	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	cutoff := now.Add(-time.Duration(p.AccountAgeHours) * time.Hour)

	// Wallet-id order gives the pipeline a deterministic tie order
	// regardless of map iteration.
	ordered := make([]*Accumulator, 0, len(wallets))
	for _, acc := range wallets {
		ordered = append(ordered, acc)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Wallet < ordered[j].Wallet
	})

	results := make([]Result, 0, len(ordered))
	for _, acc := range ordered {
		if p.AccountAgeMode != AgeModeNone && !keepByAge(acc, p.AccountAgeMode, cutoff) {
			continue
		}
		results = append(results, buildResult(acc, activity, p.Basis, cutoff))
	}

	results = pipeline.Apply(results, pipeline.Options[Result]{
		Bounds: []pipeline.Bound[Result]{
			{Value: sortKeys["profit"], Min: p.MinProfit, Max: p.MaxProfit},
			{Value: sortKeys["trades"], Min: p.MinTrades, Max: p.MaxTrades},
		},
		SortKeys:   sortKeys,
		SortKey:    p.SortBy,
		DefaultKey: "profit",
		SortOrder:  p.SortOrder,
		Offset:     p.Offset,
		Limit:      p.Limit,
	})
	return results, skips
}

func buildResult(acc *Accumulator, activity ActivityLookup, basis Basis, cutoff time.Time) Result {
	tradeGain := acc.SellTotal.Sub(acc.BuyTotal)
	gain := tradeGain

	var activityGain *float64
	if basis == BasisBest && activity != nil {
		if rows := activity(acc.Wallet); rows != nil {
			ag := activityGainOf(rows)
			v := round2(ag)
			activityGain = &v
			if ag.GreaterThan(gain) {
				gain = ag
			}
		}
	}

	losses := decimal.Zero
	if gain.IsNegative() {
		losses = gain.Neg()
	}

	r := Result{
		Wallet:        acc.Wallet,
		Profit:        round2(gain),
		Losses:        round2(losses),
		TotalSpent:    round2(acc.BuyTotal),
		TotalProceeds: round2(acc.SellTotal),
		Trades:        acc.Trades,
		Markets:       len(acc.Markets),
		ActivityGain:  activityGain,
		IsNewAccount:  acc.isNew(cutoff),
	}
	if acc.HasEarliest {
		r.FirstTrade = acc.EarliestTrade.Format(time.RFC3339)
	}
	return r
}

// activityGainOf folds the activity log into a realized figure:
// redemptions add the settlement amount, trades add proceeds on SELL
// and subtract cost on BUY.
func activityGainOf(rows []record.Raw) decimal.Decimal {
	gain := decimal.Zero
	for _, raw := range rows {
		a := record.NormalizeActivity(raw)
		amount := decimal.NewFromFloat(a.Amount)
		switch a.Type {
		case "REDEEM":
			gain = gain.Add(amount)
		case "TRADE":
			switch a.Side {
			case "SELL":
				gain = gain.Add(amount)
			case "BUY":
				gain = gain.Sub(amount)
			}
		}
	}
	return gain
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
