package gammaapi

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Number is a float64 the Gamma API sometimes sends as a quoted
// string. Empty or unparseable values decode to zero.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

func (n Number) Float64() float64 {
	return float64(n)
}

// Event represents a Gamma API event
type Event struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`

	Volume     Number `json:"volume"`
	Volume24hr Number `json:"volume24hr"`
	Volume1wk  Number `json:"volume1wk"`
	Volume1mo  Number `json:"volume1mo"`
	Liquidity  Number `json:"liquidity"`

	// The API has shipped both creation fields; CreationTime prefers
	// createdAt.
	CreatedAt    string `json:"createdAt"`
	CreationDate string `json:"creationDate"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`

	Active       bool `json:"active"`
	Closed       bool `json:"closed"`
	CommentCount int  `json:"commentCount"`

	Markets []Market `json:"markets"`
}

// Market is one nested outcome market inside an event. The list-valued
// fields arrive either as native JSON arrays or as JSON-encoded
// strings, so they stay raw until parsed.
type Market struct {
	ID             string `json:"id"`
	ConditionID    string `json:"conditionId"`
	Question       string `json:"question"`
	GroupItemTitle string `json:"groupItemTitle"`

	Outcomes      json.RawMessage `json:"outcomes"`
	OutcomePrices json.RawMessage `json:"outcomePrices"`
	ClobTokenIDs  json.RawMessage `json:"clobTokenIds"`
}

// Created returns the event's creation timestamp field, preferring
// createdAt over creationDate. Empty when neither is set.
func (e Event) Created() string {
	if e.CreatedAt != "" {
		return e.CreatedAt
	}
	return e.CreationDate
}

// DecodeStringList parses a raw field that is either a JSON array or a
// JSON string containing an encoded array ("[\"a\",\"b\"]").
func DecodeStringList(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		raw = json.RawMessage(inner)
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// DecodeNumberList is DecodeStringList for numeric arrays whose
// elements may themselves be quoted.
func DecodeNumberList(raw json.RawMessage) ([]float64, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		raw = json.RawMessage(inner)
	}
	var items []Number
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]float64, len(items))
	for i, n := range items {
		out[i] = n.Float64()
	}
	return out, true
}
