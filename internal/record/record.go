// Package record normalizes raw trade and activity rows from the
// Polymarket Data API. Rows arrive as loosely-typed JSON objects whose
// field names and value types drift between endpoints, so every field
// goes through a candidate list and a typed parse outcome instead of a
// struct tag.
package record

import (
	"strconv"
	"strings"
	"time"
)

// Raw is one decoded JSON object from an upstream list response.
type Raw map[string]any

// Candidate field names, first present wins. Fields are never combined
// across candidates.
var (
	walletFields = []string{"proxyWallet", "user", "wallet"}
	marketFields = []string{"asset", "tokenId", "market"}
	sizeFields   = []string{"size", "usdcSize"}
	amountFields = []string{"usdcSize", "amount"}
)

// Trade is a normalized trade row. Boolean companions report whether
// the corresponding field parsed; a false value means the field was
// skipped, not that it was zero.
type Trade struct {
	Wallet string
	Side   string
	Price  float64
	Size   float64
	Market string

	HasPrice     bool
	HasSize      bool
	Timestamp    time.Time
	HasTimestamp bool
}

// Activity is a normalized activity-log row (TRADE / REDEEM / etc).
type Activity struct {
	Type   string
	Side   string
	Amount float64
}

// SkipCounts tallies fields that could not be parsed across a batch.
type SkipCounts struct {
	Wallet    int
	Timestamp int
	Price     int
	Size      int
}

// NormalizeTrade extracts the fields the gain pipeline needs from one
// raw trade row. Missing wallet means the row is unusable; everything
// else degrades to a skipped field.
func NormalizeTrade(raw Raw) (Trade, bool) {
	t := Trade{}

	wallet, ok := stringField(raw, walletFields...)
	if !ok {
		return t, false
	}
	t.Wallet = wallet
	t.Market, _ = stringField(raw, marketFields...)

	if side, ok := stringField(raw, "side"); ok {
		side = strings.ToUpper(side)
		if side == "BUY" || side == "SELL" {
			t.Side = side
		}
	}

	if price, ok := numericField(raw, "price"); ok && price >= 0 {
		t.Price = price
		t.HasPrice = true
	}

	t.Size, t.HasSize = sizeOf(raw)
	t.Timestamp, t.HasTimestamp = timestampOf(raw)

	return t, true
}

// NormalizeActivity extracts type, side and settlement amount from one
// raw activity row. Amount prefers usdcSize and falls back to amount.
func NormalizeActivity(raw Raw) Activity {
	a := Activity{}
	if typ, ok := stringField(raw, "type"); ok {
		a.Type = strings.ToUpper(typ)
	}
	if side, ok := stringField(raw, "side"); ok {
		a.Side = strings.ToUpper(side)
	}
	for _, field := range amountFields {
		if amount, ok := numericField(raw, field); ok {
			a.Amount = amount
			break
		}
	}
	return a
}

// sizeOf prefers size and falls back to usdcSize when size is absent
// or zero. A zero size with no fallback still counts as parsed.
func sizeOf(raw Raw) (float64, bool) {
	primary, ok := numericField(raw, sizeFields[0])
	if ok && primary > 0 {
		return primary, true
	}
	if fallback, fok := numericField(raw, sizeFields[1]); fok {
		return fallback, true
	}
	return primary, ok
}

func timestampOf(raw Raw) (time.Time, bool) {
	v, ok := raw["timestamp"]
	if !ok || v == nil {
		return time.Time{}, false
	}
	return parseTimestamp(v)
}

// parseTimestamp accepts numeric epoch seconds or an ISO-8601 string.
// Anything unparseable is reported as absent, never as an error.
func parseTimestamp(v any) (time.Time, bool) {
	switch ts := v.(type) {
	case float64:
		return time.Unix(int64(ts), 0).UTC(), true
	case int64:
		return time.Unix(ts, 0).UTC(), true
	case int:
		return time.Unix(int64(ts), 0).UTC(), true
	case string:
		s := strings.TrimSpace(ts)
		if s == "" {
			return time.Time{}, false
		}
		if epoch, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Unix(int64(epoch), 0).UTC(), true
		}
		// The API mixes "Z" and "+00:00" suffixes.
		if strings.HasSuffix(s, "Z") {
			s = strings.TrimSuffix(s, "Z") + "+00:00"
		}
		for _, layout := range []string{
			"2006-01-02T15:04:05.999999999-07:00",
			"2006-01-02T15:04:05.999999999",
			"2006-01-02 15:04:05.999999999-07:00",
			"2006-01-02 15:04:05.999999999",
		} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func stringField(raw Raw, candidates ...string) (string, bool) {
	for _, field := range candidates {
		v, ok := raw[field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		return s, true
	}
	return "", false
}

// numericField handles the API's habit of sending numbers as either
// JSON numbers or quoted strings.
func numericField(raw Raw, field string) (float64, bool) {
	v, ok := raw[field]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
