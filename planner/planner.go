// Package planner answers route queries over a RouteGraph: the cheapest
// itinerary by total price, with a preference for a direct flight when it is
// not much more expensive than the cheapest connection.
package planner

import (
	"errors"
	"fmt"

	"routefinder/catalog"
	"routefinder/graph"
)

var (
	// ErrInvalidQuery means the origin or destination is malformed, or both are the same.
	ErrInvalidQuery = errors.New("planner: invalid query")
	// ErrNoRoute means the graph has no path between the two airports.
	ErrNoRoute = errors.New("planner: no route")
)

// DefaultTolerance accepts a direct flight up to 30% dearer than the cheapest
// connection.
const DefaultTolerance = 1.30

// Itinerary is a planned trip. Legs[i] goes from Nodes[i] to Nodes[i+1] and
// TotalCost is the sum of the leg prices.
type Itinerary struct {
	Nodes     []string          `json:"nodes"`
	Legs      []graph.RouteEdge `json:"legs"`
	TotalCost float64           `json:"total_cost"`
	Direct    bool              `json:"direct"`
	// CheapestCost is the lowest total price found, which is below TotalCost
	// when a direct flight was preferred over a cheaper connection.
	CheapestCost float64 `json:"cheapest_cost"`
}

// Stops is the number of intermediate airports.
func (it Itinerary) Stops() int {
	if n := len(it.Nodes) - 2; n > 0 {
		return n
	}
	return 0
}

// Via returns the intermediate airports in travel order.
func (it Itinerary) Via() []string {
	if len(it.Nodes) <= 2 {
		return nil
	}
	return append([]string(nil), it.Nodes[1:len(it.Nodes)-1]...)
}

// Origin is the first airport of the trip.
func (it Itinerary) Origin() string { return it.Nodes[0] }

// Destination is the last airport of the trip.
func (it Itinerary) Destination() string { return it.Nodes[len(it.Nodes)-1] }

// Planner holds the selection policy.
type Planner struct {
	// Tolerance is the largest direct/cheapest price ratio at which the
	// direct flight is still chosen. 1 always picks the cheapest path.
	Tolerance float64
}

// New returns a Planner with the given tolerance; values below 1 are raised to 1.
func New(tolerance float64) *Planner {
	if !(tolerance >= 1) {
		tolerance = 1
	}
	return &Planner{Tolerance: tolerance}
}

// PlanRoute plans origin→destination on a snapshot of g. Codes are
// normalized first. It returns ErrInvalidQuery for malformed or identical
// codes and ErrNoRoute when either airport is not in the graph or no path
// connects them.
func (p *Planner) PlanRoute(g *graph.RouteGraph, origin, destination string) (*Itinerary, error) {
	return p.Plan(g.Snapshot(), origin, destination)
}

// Plan is PlanRoute over an existing snapshot.
func (p *Planner) Plan(s *graph.Snapshot, origin, destination string) (*Itinerary, error) {
	origin = catalog.NormalizeIATA(origin)
	destination = catalog.NormalizeIATA(destination)
	switch {
	case !catalog.ValidIATA(origin):
		return nil, fmt.Errorf("%w: bad origin %q", ErrInvalidQuery, origin)
	case !catalog.ValidIATA(destination):
		return nil, fmt.Errorf("%w: bad destination %q", ErrInvalidQuery, destination)
	case origin == destination:
		return nil, fmt.Errorf("%w: origin and destination are both %s", ErrInvalidQuery, origin)
	}
	if !s.HasNode(origin) || !s.HasNode(destination) {
		return nil, fmt.Errorf("%w: %s→%s not in graph", ErrNoRoute, origin, destination)
	}

	best, ok := graph.ShortestPath(s, origin, destination)
	if !ok {
		return nil, fmt.Errorf("%w: %s→%s", ErrNoRoute, origin, destination)
	}

	it := fromPath(best)
	if best.Hops() > 1 {
		if direct, ok := s.Edge(origin, destination); ok && direct.Quote.Price/best.Cost <= p.tolerance() {
			it = fromPath(graph.Path{
				Nodes: []string{origin, destination},
				Edges: []graph.RouteEdge{direct},
				Cost:  direct.Quote.Price,
			})
		}
	}
	it.CheapestCost = best.Cost
	return it, nil
}

func (p *Planner) tolerance() float64 {
	if p == nil || !(p.Tolerance >= 1) {
		return 1
	}
	return p.Tolerance
}

func fromPath(path graph.Path) *Itinerary {
	return &Itinerary{
		Nodes:     path.Nodes,
		Legs:      path.Edges,
		TotalCost: path.Cost,
		Direct:    len(path.Nodes) == 2,
	}
}
