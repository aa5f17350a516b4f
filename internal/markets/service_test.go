package markets

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyresearch/backend/internal/config"
	"github.com/polyresearch/backend/internal/polymarket/gammaapi"
)

type fakeEvents struct {
	events  []gammaapi.Event
	bySlug  map[string]*gammaapi.Event
	lastTag string
	err     error
}

func (f *fakeEvents) Events(_ context.Context, params gammaapi.EventParams) ([]gammaapi.Event, error) {
	f.lastTag = params.Tag
	return f.events, f.err
}

func (f *fakeEvents) EventBySlug(_ context.Context, slug string) (*gammaapi.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.bySlug[slug]
	if !ok {
		return nil, errors.New("no event found")
	}
	return e, nil
}

func newTestService(events *fakeEvents) *Service {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewService(events, &config.Config{EventFetchLimit: 200}, log)
}

func TestTrendingSortsByPeriodVolume(t *testing.T) {
	src := &fakeEvents{events: []gammaapi.Event{
		{Slug: "a", Volume24hr: 100, Volume1wk: 900},
		{Slug: "b", Volume24hr: 300, Volume1wk: 100},
		{Slug: "c", Volume24hr: 200, Volume1wk: 500},
	}}
	svc := newTestService(src)

	rows := svc.Trending(context.Background(), "24h", 10, 0)
	require.Len(t, rows, 3)
	assert.Equal(t, "b", rows[0].Slug)
	assert.Equal(t, "c", rows[1].Slug)

	rows = svc.Trending(context.Background(), "1wk", 10, 0)
	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0].Slug)

	// Unknown period falls back to 24h.
	rows = svc.Trending(context.Background(), "5min", 10, 0)
	assert.Equal(t, "b", rows[0].Slug)
}

func TestTrendingMinVolumeAndLimit(t *testing.T) {
	src := &fakeEvents{events: []gammaapi.Event{
		{Slug: "a", Volume24hr: 100},
		{Slug: "b", Volume24hr: 300},
		{Slug: "c", Volume24hr: 200},
	}}
	svc := newTestService(src)

	rows := svc.Trending(context.Background(), "24h", 1, 150)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].Slug)
}

func TestTrendingUpstreamFailureIsEmpty(t *testing.T) {
	svc := newTestService(&fakeEvents{err: errors.New("gamma down")})
	assert.Empty(t, svc.Trending(context.Background(), "24h", 10, 0))
}

func TestSearchMatchesTitleAndSlug(t *testing.T) {
	src := &fakeEvents{events: []gammaapi.Event{
		{Slug: "us-election-2024", Title: "US Election"},
		{Slug: "btc-100k", Title: "Bitcoin above $100k"},
		{Slug: "fed-rates", Title: "Fed rate decision"},
	}}
	svc := newTestService(src)

	results := svc.Search(context.Background(), "ELECTION", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "us-election-2024", results[0].Slug)

	results = svc.Search(context.Background(), "btc", 10)
	require.Len(t, results, 1)

	assert.Empty(t, svc.Search(context.Background(), "nothing", 10))
}

func TestBySlugParsesOutcomes(t *testing.T) {
	src := &fakeEvents{bySlug: map[string]*gammaapi.Event{
		"us-election": {
			Slug:       "us-election",
			Title:      "US Election",
			Volume24hr: 1000,
			Active:     true,
			Markets: []gammaapi.Market{
				{
					GroupItemTitle: "Winner",
					Outcomes:       json.RawMessage(`"[\"Yes\", \"No\"]"`),
					OutcomePrices:  json.RawMessage(`"[\"0.55\", \"0.45\"]"`),
				},
				{
					// Malformed market is skipped, not fatal.
					Outcomes: json.RawMessage(`"oops"`),
				},
			},
		},
	}}
	svc := newTestService(src)

	detail := svc.BySlug(context.Background(), "us-election")
	require.NotNil(t, detail)
	require.Len(t, detail.Outcomes, 2)
	assert.Equal(t, Outcome{Name: "Yes", Probability: 55.0, Group: "Winner"}, detail.Outcomes[0])
	assert.Equal(t, Outcome{Name: "No", Probability: 45.0, Group: "Winner"}, detail.Outcomes[1])

	assert.Nil(t, svc.BySlug(context.Background(), "missing"))
}

func TestTokenIDsForCategory(t *testing.T) {
	src := &fakeEvents{events: []gammaapi.Event{
		{Markets: []gammaapi.Market{
			{ClobTokenIDs: json.RawMessage(`"[\"tok1\", \"tok2\"]"`)},
			{ClobTokenIDs: json.RawMessage(`["tok3"]`)},
			{ClobTokenIDs: json.RawMessage(`"broken`)},
		}},
	}}
	svc := newTestService(src)

	tokens := svc.TokenIDsForCategory(context.Background(), "politics")
	assert.Equal(t, "politics", src.lastTag)
	assert.Equal(t, map[string]struct{}{"tok1": {}, "tok2": {}, "tok3": {}}, tokens)
}
