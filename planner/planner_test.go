package planner_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routefinder/graph"
	"routefinder/planner"
)

func quote(price float64) graph.FlightQuote {
	return graph.FlightQuote{Price: price, Airline: "Test Air", Source: graph.SourceEstimated}
}

func build(t *testing.T, edges map[[2]string]float64) *graph.RouteGraph {
	t.Helper()
	g := graph.New()
	for k, price := range edges {
		require.NoError(t, g.AddNodes(k[0], k[1]))
		_, err := g.SetEdge(k[0], k[1], quote(price))
		require.NoError(t, err)
	}
	return g
}

func assertCostIsLegSum(t *testing.T, it *planner.Itinerary) {
	t.Helper()
	require.Len(t, it.Legs, len(it.Nodes)-1)
	sum := 0.0
	for i, leg := range it.Legs {
		assert.Equal(t, it.Nodes[i], leg.Origin)
		assert.Equal(t, it.Nodes[i+1], leg.Destination)
		sum += leg.Quote.Price
	}
	assert.Equal(t, sum, it.TotalCost)
}

func TestPlanRoute_DirectWithinTolerance(t *testing.T) {
	g := build(t, map[[2]string]float64{
		{"AAA", "BBB"}: 100,
		{"BBB", "CCC"}: 100,
		{"AAA", "CCC"}: 250,
	})

	it, err := planner.New(planner.DefaultTolerance).PlanRoute(g, "AAA", "CCC")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "CCC"}, it.Nodes)
	assert.Equal(t, 250.0, it.TotalCost)
	assert.Equal(t, 200.0, it.CheapestCost)
	assert.True(t, it.Direct)
	assert.Zero(t, it.Stops())
	assertCostIsLegSum(t, it)
}

func TestPlanRoute_ConnectionWhenDirectTooExpensive(t *testing.T) {
	g := build(t, map[[2]string]float64{
		{"AAA", "BBB"}: 100,
		{"BBB", "CCC"}: 100,
		{"AAA", "CCC"}: 400,
	})

	it, err := planner.New(planner.DefaultTolerance).PlanRoute(g, "AAA", "CCC")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, it.Nodes)
	assert.Equal(t, 200.0, it.TotalCost)
	assert.False(t, it.Direct)
	assert.Equal(t, 1, it.Stops())
	assert.Equal(t, []string{"BBB"}, it.Via())
	assertCostIsLegSum(t, it)
}

func TestPlanRoute_ToleranceBoundary(t *testing.T) {
	cases := []struct {
		direct     float64
		wantDirect bool
	}{
		{259.99, true},
		{260, true},
		{260.01, false},
	}
	for _, c := range cases {
		t.Run(fmt.Sprint(c.direct), func(t *testing.T) {
			g := build(t, map[[2]string]float64{
				{"AAA", "BBB"}: 100,
				{"BBB", "CCC"}: 100,
				{"AAA", "CCC"}: c.direct,
			})
			it, err := planner.New(1.30).PlanRoute(g, "AAA", "CCC")
			require.NoError(t, err)
			assert.Equal(t, c.wantDirect, it.Direct)
			if c.wantDirect {
				assert.Equal(t, c.direct, it.TotalCost)
			} else {
				assert.Equal(t, 200.0, it.TotalCost)
			}
		})
	}
}

func TestPlanRoute_CheapestOnlyTolerance(t *testing.T) {
	g := build(t, map[[2]string]float64{
		{"AAA", "BBB"}: 100,
		{"BBB", "CCC"}: 100,
		{"AAA", "CCC"}: 201,
	})
	for _, tol := range []float64{1, 0, -3} {
		it, err := planner.New(tol).PlanRoute(g, "AAA", "CCC")
		require.NoError(t, err)
		assert.Equal(t, 200.0, it.TotalCost)
	}

	var zero planner.Planner
	it, err := zero.PlanRoute(g, "AAA", "CCC")
	require.NoError(t, err)
	assert.False(t, it.Direct)
}

func TestPlanRoute_DirectOnly(t *testing.T) {
	g := build(t, map[[2]string]float64{{"AAA", "BBB"}: 321})
	it, err := planner.New(planner.DefaultTolerance).PlanRoute(g, "aaa", " bbb ")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, it.Nodes)
	assert.Equal(t, 321.0, it.TotalCost)
	assert.True(t, it.Direct)
}

func TestPlanRoute_DirectIsCheapest(t *testing.T) {
	g := build(t, map[[2]string]float64{
		{"AAA", "BBB"}: 100,
		{"BBB", "CCC"}: 100,
		{"AAA", "CCC"}: 150,
	})
	it, err := planner.New(planner.DefaultTolerance).PlanRoute(g, "AAA", "CCC")
	require.NoError(t, err)
	assert.True(t, it.Direct)
	assert.Equal(t, 150.0, it.TotalCost)
	assert.Equal(t, 150.0, it.CheapestCost)
}

func TestPlanRoute_InvalidQuery(t *testing.T) {
	g := build(t, map[[2]string]float64{{"AAA", "BBB"}: 100})
	p := planner.New(planner.DefaultTolerance)

	for _, q := range [][2]string{
		{"AAA", "AAA"},
		{"aaa", "AAA "},
		{"ZZZ", "ZZZ"},
		{"", "BBB"},
		{"AAA", "B1B"},
		{"AAAA", "BBB"},
	} {
		_, err := p.PlanRoute(g, q[0], q[1])
		assert.ErrorIs(t, err, planner.ErrInvalidQuery, "%v", q)
	}
}

func TestPlanRoute_NoRoute(t *testing.T) {
	g := build(t, map[[2]string]float64{
		{"AAA", "BBB"}: 100,
		{"CCC", "DDD"}: 100,
	})
	p := planner.New(planner.DefaultTolerance)

	for _, q := range [][2]string{
		{"AAA", "DDD"},
		{"BBB", "AAA"},
		{"AAA", "ZZZ"},
		{"XXX", "YYY"},
	} {
		it, err := p.PlanRoute(g, q[0], q[1])
		assert.ErrorIs(t, err, planner.ErrNoRoute, "%v", q)
		assert.Nil(t, it)
	}
}

func TestPlanRoute_CostIsSumOfLegs(t *testing.T) {
	for hops := 1; hops <= 5; hops++ {
		t.Run(fmt.Sprintf("%d hops", hops), func(t *testing.T) {
			edges := map[[2]string]float64{}
			nodes := []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF"}
			want := 0.0
			for i := 0; i < hops; i++ {
				price := 10.25 * float64(i+1)
				edges[[2]string{nodes[i], nodes[i+1]}] = price
				want += price
			}
			g := build(t, edges)

			it, err := planner.New(planner.DefaultTolerance).PlanRoute(g, "AAA", nodes[hops])
			require.NoError(t, err)
			assert.Len(t, it.Nodes, hops+1)
			assert.Equal(t, want, it.TotalCost)
			assert.Equal(t, hops-1, it.Stops())
			assertCostIsLegSum(t, it)
		})
	}
}

func TestPlan_UsesSnapshot(t *testing.T) {
	g := build(t, map[[2]string]float64{{"AAA", "BBB"}: 100})
	snap := g.Snapshot()
	_, err := g.SetEdge("AAA", "BBB", quote(50))
	require.NoError(t, err)

	it, err := planner.New(planner.DefaultTolerance).Plan(snap, "AAA", "BBB")
	require.NoError(t, err)
	assert.Equal(t, 100.0, it.TotalCost)
}
