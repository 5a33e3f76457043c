package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routefinder/graph"
)

type countryMap map[string]string

func (m countryMap) Country(code string) string { return m[code] }

var countries = countryMap{"JFK": "US", "LAX": "US", "LHR": "GB"}

func TestSyntheticProvider_Deterministic(t *testing.T) {
	a := NewSyntheticProvider(countries, DefaultSyntheticModel(), 42)
	b := NewSyntheticProvider(countries, DefaultSyntheticModel(), 42)
	ctx := context.Background()

	for _, pair := range [][2]string{{"JFK", "LAX"}, {"JFK", "LHR"}, {"LHR", "LAX"}} {
		qa, err := a.GetQuote(ctx, pair[0], pair[1], searchDate)
		require.NoError(t, err)
		qb, err := b.GetQuote(ctx, pair[0], pair[1], searchDate)
		require.NoError(t, err)
		assert.Equal(t, qa, qb)
	}
}

func TestSyntheticProvider_ResetRestartsSequence(t *testing.T) {
	p := NewSyntheticProvider(countries, DefaultSyntheticModel(), 99)
	ctx := context.Background()

	first, err := p.GetQuote(ctx, "JFK", "LHR", searchDate)
	require.NoError(t, err)
	_, err = p.GetQuote(ctx, "JFK", "LAX", searchDate)
	require.NoError(t, err)

	p.Reset()
	again, err := p.GetQuote(ctx, "JFK", "LHR", searchDate)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestSyntheticProvider_Bounds(t *testing.T) {
	p := NewSyntheticProvider(countries, DefaultSyntheticModel(), 7)
	clock := regexp.MustCompile(`^([01]\d|2[0-3]):(00|15|30|45)$`)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		dom, err := p.GetQuote(ctx, "JFK", "LAX", searchDate)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, dom.Price, 89.0)
		assert.LessOrEqual(t, dom.Price, 299.0)
		require.NotNil(t, dom.DurationMinutes)
		assert.GreaterOrEqual(t, *dom.DurationMinutes, 60)
		assert.LessOrEqual(t, *dom.DurationMinutes, 6*60+45)
		assert.Regexp(t, clock, dom.DepartureTime)
		assert.Regexp(t, clock, dom.ArrivalTime)
		assert.Contains(t, []int{0, 1, 2}, dom.Stops)
		assert.Equal(t, graph.SourceEstimated, dom.Source)
		require.NoError(t, dom.Validate())

		intl, err := p.GetQuote(ctx, "JFK", "LHR", searchDate)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, intl.Price, 89.0+200)
		assert.LessOrEqual(t, intl.Price, 299.0+800)
		assert.GreaterOrEqual(t, *intl.DurationMinutes, 6*60)
		assert.LessOrEqual(t, *intl.DurationMinutes, 16*60+45)
		assert.Contains(t, majorAirlines, intl.Airline)
	}
}

func TestSyntheticProvider_UnknownCountryDefaults(t *testing.T) {
	model := DefaultSyntheticModel()
	model.InternationalFee = IntRange{10000, 10000}
	p := NewSyntheticProvider(countries, model, 1)

	// unknown codes are treated as domestic to the default country
	q, err := p.GetQuote(context.Background(), "JFK", "ZZZ", searchDate)
	require.NoError(t, err)
	assert.Less(t, q.Price, 10000.0)

	q, err = p.GetQuote(context.Background(), "LHR", "ZZZ", searchDate)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, q.Price, 10000.0)
}

func TestWeightedIndex(t *testing.T) {
	p := NewSyntheticProvider(nil, DefaultSyntheticModel(), 3)
	for i := 0; i < 50; i++ {
		assert.Equal(t, 1, weightedIndex(p.rng, []int{0, 1}))
		assert.Equal(t, 0, weightedIndex(p.rng, nil))
	}
}
