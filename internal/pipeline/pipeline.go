// Package pipeline is the shared filter / sort / paginate stage used by
// both the gainer leaderboard and the market rankings. It is generic
// over the entity type so the two result shapes share one set of
// bound, ordering and slicing rules.
package pipeline

import "sort"

// Order of the sort stage.
type Order int

const (
	Descending Order = iota
	Ascending
)

// ParseOrder maps the query-string value to an Order. Anything that is
// not "asc" sorts descending.
func ParseOrder(s string) Order {
	if s == "asc" {
		return Ascending
	}
	return Descending
}

// Bound is a numeric range filter over one accessor. Min is inclusive,
// Max is exclusive; a nil pointer means no bound on that side.
type Bound[T any] struct {
	Value func(T) float64
	Min   *float64
	Max   *float64
}

func (b Bound[T]) keep(item T) bool {
	v := b.Value(item)
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v >= *b.Max {
		return false
	}
	return true
}

// Options drives one Apply pass.
type Options[T any] struct {
	Bounds []Bound[T]

	// SortKeys maps sort field names to accessors. An unknown SortKey
	// falls back to DefaultKey rather than erroring.
	SortKeys   map[string]func(T) float64
	SortKey    string
	DefaultKey string
	SortOrder  Order

	// Offset/Limit window the sorted result. Limit <= 0 means no limit;
	// an offset past the end yields an empty page.
	Offset int
	Limit  int
}

// Apply filters, stable-sorts and windows items. The input slice is
// not modified.
func Apply[T any](items []T, opts Options[T]) []T {
	kept := make([]T, 0, len(items))
	for _, item := range items {
		keep := true
		for _, b := range opts.Bounds {
			if !b.keep(item) {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, item)
		}
	}

	if key := sortAccessor(opts); key != nil {
		sort.SliceStable(kept, func(i, j int) bool {
			if opts.SortOrder == Ascending {
				return key(kept[i]) < key(kept[j])
			}
			return key(kept[i]) > key(kept[j])
		})
	}

	return window(kept, opts.Offset, opts.Limit)
}

func sortAccessor[T any](opts Options[T]) func(T) float64 {
	if len(opts.SortKeys) == 0 {
		return nil
	}
	if key, ok := opts.SortKeys[opts.SortKey]; ok {
		return key
	}
	return opts.SortKeys[opts.DefaultKey]
}

func window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Float returns a pointer bound from a literal, for call sites that
// build Bounds inline.
func Float(v float64) *float64 {
	return &v
}
