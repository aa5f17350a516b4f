// Package gainers builds the realized-gain wallet leaderboard from raw
// Data API trade and activity rows.
package gainers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyresearch/backend/internal/record"
)

// Accumulator is the per-wallet running state over one trade batch.
// Money stays in decimals until serialization.
type Accumulator struct {
	Wallet    string
	BuyTotal  decimal.Decimal
	SellTotal decimal.Decimal
	Trades    int
	Markets   map[string]struct{}

	EarliestTrade time.Time
	HasEarliest   bool
}

// Aggregate folds raw trade rows into per-wallet accumulators. Rows
// without a wallet id are dropped. A non-empty allowList keeps only
// trades whose market/token id is in the set; if nothing survives the
// result is empty, there is no fallback to the unfiltered batch.
func Aggregate(raws []record.Raw, allowList map[string]struct{}) (map[string]*Accumulator, record.SkipCounts) {
	wallets := make(map[string]*Accumulator)
	var skips record.SkipCounts

	for _, raw := range raws {
		trade, ok := record.NormalizeTrade(raw)
		if !ok {
			skips.Wallet++
			continue
		}
		if len(allowList) > 0 {
			if _, ok := allowList[trade.Market]; !ok {
				continue
			}
		}
		if !trade.HasPrice {
			skips.Price++
		}
		if !trade.HasSize {
			skips.Size++
		}
		if !trade.HasTimestamp {
			skips.Timestamp++
		}

		acc, ok := wallets[trade.Wallet]
		if !ok {
			acc = &Accumulator{
				Wallet:  trade.Wallet,
				Markets: make(map[string]struct{}),
			}
			wallets[trade.Wallet] = acc
		}

		notional := decimal.NewFromFloat(trade.Price).Mul(decimal.NewFromFloat(trade.Size))
		switch trade.Side {
		case "BUY":
			acc.BuyTotal = acc.BuyTotal.Add(notional)
		case "SELL":
			acc.SellTotal = acc.SellTotal.Add(notional)
		}
		acc.Trades++
		if trade.Market != "" {
			acc.Markets[trade.Market] = struct{}{}
		}
		if trade.HasTimestamp {
			if !acc.HasEarliest || trade.Timestamp.Before(acc.EarliestTrade) {
				acc.EarliestTrade = trade.Timestamp
				acc.HasEarliest = true
			}
		}
	}

	return wallets, skips
}
