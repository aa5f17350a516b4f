package gainers

import "time"

// AgeMode selects which side of the account-age cutoff survives the
// filter.
type AgeMode int

const (
	// AgeModeNone disables the age filter.
	AgeModeNone AgeMode = iota
	// AgeModeNewer keeps wallets whose first observed trade is at or
	// after the cutoff (new accounts).
	AgeModeNewer
	// AgeModeOlder keeps the complement: first trade strictly before
	// the cutoff.
	AgeModeOlder
)

// ParseAgeMode maps the query-string value to an AgeMode. Unknown
// values disable the filter.
func ParseAgeMode(s string) AgeMode {
	switch s {
	case "newer", "newer_than", "new":
		return AgeModeNewer
	case "older", "older_than", "old":
		return AgeModeOlder
	}
	return AgeModeNone
}

// isNew reports whether the wallet's first observed trade falls inside
// the window starting at cutoff. A wallet with no parsed timestamp is
// never new.
func (a *Accumulator) isNew(cutoff time.Time) bool {
	return a.HasEarliest && !a.EarliestTrade.Before(cutoff)
}

// keepByAge applies the age filter. When a mode is active, wallets
// without a parsed first-trade timestamp are excluded on either side.
func keepByAge(a *Accumulator, mode AgeMode, cutoff time.Time) bool {
	switch mode {
	case AgeModeNewer:
		return a.isNew(cutoff)
	case AgeModeOlder:
		return a.HasEarliest && a.EarliestTrade.Before(cutoff)
	}
	return true
}
