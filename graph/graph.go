// Package graph holds the directed route graph built from flight quotes.
//
// A RouteGraph has at most one edge per ordered (origin, destination) pair.
// Writing an edge for a pair that already has one replaces it entirely.
// Nodes are never removed. All methods are safe for concurrent use; readers
// that need a consistent view across several calls should take a Snapshot.
package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Sentinel errors for graph mutations.
var (
	ErrEmptyNode     = errors.New("graph: node code is empty")
	ErrNodeNotFound  = errors.New("graph: node not found")
	ErrSelfLoop      = errors.New("graph: origin and destination are the same")
	ErrInvalidPrice  = errors.New("graph: price must be positive")
	ErrEdgeNotFound  = errors.New("graph: edge not found")
	ErrUnknownSource = errors.New("graph: unknown quote source")
)

// Currency is the only currency quotes are requested and stored in.
const Currency = "USD"

// UnknownTime marks a departure or arrival time the source did not provide.
const UnknownTime = "unknown"

// QuoteSource tells where a quote came from.
type QuoteSource string

const (
	SourceLive      QuoteSource = "live"
	SourceEstimated QuoteSource = "estimated"
)

// FlightQuote is the single cheapest offer found for one origin/destination/date search.
type FlightQuote struct {
	Price           float64     `json:"price"`
	Currency        string      `json:"currency"`
	Airline         string      `json:"airline"`
	Date            time.Time   `json:"date"`
	DepartureTime   string      `json:"departure_time"`
	ArrivalTime     string      `json:"arrival_time"`
	DurationMinutes *int        `json:"duration_minutes,omitempty"`
	Stops           int         `json:"stops"`
	Aircraft        *string     `json:"aircraft,omitempty"`
	Source          QuoteSource `json:"source"`
}

// Validate reports whether q may be stored as an edge weight.
func (q FlightQuote) Validate() error {
	if !(q.Price > 0) || math.IsInf(q.Price, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, q.Price)
	}
	switch q.Source {
	case SourceLive, SourceEstimated:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, q.Source)
	}
	return nil
}

// RouteEdge is a directed, priced connection between two airports.
type RouteEdge struct {
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	Quote       FlightQuote `json:"quote"`
}

type pair struct {
	from, to string
}

// RouteGraph is the mutable route graph. Edges are stored by value, so a
// reader never sees a partially written edge.
type RouteGraph struct {
	mu    sync.RWMutex
	nodes map[string]struct{}
	edges map[pair]RouteEdge
	out   map[string]map[string]struct{}
}

// New returns an empty RouteGraph.
func New() *RouteGraph {
	return &RouteGraph{
		nodes: make(map[string]struct{}),
		edges: make(map[pair]RouteEdge),
		out:   make(map[string]map[string]struct{}),
	}
}

// AddNode adds an airport code. Adding an existing node is a no-op.
func (g *RouteGraph) AddNode(code string) error {
	if code == "" {
		return ErrEmptyNode
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[code] = struct{}{}
	return nil
}

// AddNodes adds every code in codes.
func (g *RouteGraph) AddNodes(codes ...string) error {
	for _, c := range codes {
		if err := g.AddNode(c); err != nil {
			return err
		}
	}
	return nil
}

// HasNode reports whether code is a node.
func (g *RouteGraph) HasNode(code string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[code]
	return ok
}

// SetEdge inserts or replaces the edge origin→destination. Both endpoints must
// already be nodes, they must differ and the quote price must be positive.
// It reports whether an existing edge was replaced.
func (g *RouteGraph) SetEdge(origin, destination string, q FlightQuote) (bool, error) {
	if origin == destination {
		return false, fmt.Errorf("%w: %s", ErrSelfLoop, origin)
	}
	if err := q.Validate(); err != nil {
		return false, err
	}
	if q.Currency == "" {
		q.Currency = Currency
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[origin]; !ok {
		return false, fmt.Errorf("%w: %s", ErrNodeNotFound, origin)
	}
	if _, ok := g.nodes[destination]; !ok {
		return false, fmt.Errorf("%w: %s", ErrNodeNotFound, destination)
	}

	key := pair{origin, destination}
	_, replaced := g.edges[key]
	g.edges[key] = RouteEdge{Origin: origin, Destination: destination, Quote: q}
	adj, ok := g.out[origin]
	if !ok {
		adj = make(map[string]struct{})
		g.out[origin] = adj
	}
	adj[destination] = struct{}{}
	return replaced, nil
}

// Edge returns the edge origin→destination if present.
func (g *RouteGraph) Edge(origin, destination string) (RouteEdge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[pair{origin, destination}]
	return e, ok
}

// NodeCount returns the number of nodes.
func (g *RouteGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *RouteGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Nodes returns all node codes in ascending order.
func (g *RouteGraph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.nodes)
}

// Edges returns every edge ordered by origin, then destination.
func (g *RouteGraph) Edges() []RouteEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := make([]RouteEdge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, e)
	}
	sortEdges(edges)
	return edges
}

// Snapshot copies the graph into an immutable view.
func (g *RouteGraph) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := &Snapshot{
		nodes: make(map[string]struct{}, len(g.nodes)),
		edges: make(map[pair]RouteEdge, len(g.edges)),
		out:   make(map[string][]string, len(g.out)),
	}
	for n := range g.nodes {
		s.nodes[n] = struct{}{}
	}
	for k, e := range g.edges {
		s.edges[k] = e
	}
	for from, adj := range g.out {
		s.out[from] = sortedKeys(adj)
	}
	return s
}

// Snapshot is a read-only copy of a RouteGraph taken at one instant.
type Snapshot struct {
	nodes map[string]struct{}
	edges map[pair]RouteEdge
	out   map[string][]string
}

// HasNode reports whether code was a node when the snapshot was taken.
func (s *Snapshot) HasNode(code string) bool {
	_, ok := s.nodes[code]
	return ok
}

// Edge returns the edge origin→destination if present.
func (s *Snapshot) Edge(origin, destination string) (RouteEdge, bool) {
	e, ok := s.edges[pair{origin, destination}]
	return e, ok
}

// Successors returns the destinations reachable in one hop from code, sorted.
func (s *Snapshot) Successors(code string) []string {
	return s.out[code]
}

// EdgeCount returns the number of edges in the snapshot.
func (s *Snapshot) EdgeCount() int { return len(s.edges) }

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortEdges(edges []RouteEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Origin != edges[j].Origin {
			return edges[i].Origin < edges[j].Origin
		}
		return edges[i].Destination < edges[j].Destination
	})
}
