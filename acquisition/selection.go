package acquisition

import (
	"math/rand"
	"sort"
	"sync"

	"routefinder/services"
)

// Route is one origin and the destinations to quote from it, in call order.
type Route struct {
	Origin       string   `json:"origin"`
	Destinations []string `json:"destinations"`
}

// WorkingSet is the ordered list of routes a run will quote.
type WorkingSet []Route

// Pairs counts the origin/destination pairs in ws.
func (ws WorkingSet) Pairs() int {
	n := 0
	for _, r := range ws {
		n += len(r.Destinations)
	}
	return n
}

// Strategy picks the destinations to quote for one origin out of the
// candidate airports, which never include the origin itself.
type Strategy interface {
	Destinations(origin string, candidates []string) []string
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(origin string, candidates []string) []string

func (f StrategyFunc) Destinations(origin string, candidates []string) []string {
	return f(origin, candidates)
}

// Select builds a working set: for each origin, in order, the destinations
// chosen by s among the other airports. Airports are sorted first so the
// result only depends on s for a given input set.
func Select(origins, airports []string, s Strategy) WorkingSet {
	sorted := append([]string(nil), airports...)
	sort.Strings(sorted)

	ws := make(WorkingSet, 0, len(origins))
	for _, origin := range origins {
		candidates := make([]string, 0, len(sorted))
		for _, code := range sorted {
			if code != origin {
				candidates = append(candidates, code)
			}
		}
		dests := s.Destinations(origin, candidates)
		if len(dests) == 0 {
			continue
		}
		ws = append(ws, Route{Origin: origin, Destinations: dests})
	}
	return ws
}

// All quotes every other airport.
func All() Strategy {
	return StrategyFunc(func(_ string, candidates []string) []string {
		return append([]string(nil), candidates...)
	})
}

// sampler is a seeded random source shared by the strategies of one run.
type sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSampler(seed int64) *sampler {
	return &sampler{rng: rand.New(rand.NewSource(seed))}
}

func (s *sampler) sample(codes []string, n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sampleWith(s.rng, codes, n)
}

func (s *sampler) between(r services.IntRange) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + s.rng.Intn(r.Max-r.Min+1)
}

func sampleWith(rng *rand.Rand, codes []string, n int) []string {
	if n <= 0 {
		return nil
	}
	out := append([]string(nil), codes...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// Sample returns up to n codes drawn without replacement. The same seed and
// input give the same result.
func Sample(codes []string, n int, seed int64) []string {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	return sampleWith(rand.New(rand.NewSource(seed)), sorted, n)
}

// RandomSample quotes n random other airports per origin.
func RandomSample(n int, seed int64) Strategy {
	s := newSampler(seed)
	return StrategyFunc(func(_ string, candidates []string) []string {
		return s.sample(candidates, n)
	})
}

// DefaultHubs are the airports treated as hubs by HubCaps.
var DefaultHubs = []string{"JFK", "LAX", "LHR", "CDG", "DXB", "NRT", "SIN", "DEL", "BOM"}

// HubCaps quotes a random number of destinations per origin: drawn from
// hubRange for hub airports and from otherRange for the rest.
func HubCaps(hubs []string, hubRange, otherRange services.IntRange, seed int64) Strategy {
	isHub := make(map[string]bool, len(hubs))
	for _, h := range hubs {
		isHub[h] = true
	}
	s := newSampler(seed)
	return StrategyFunc(func(origin string, candidates []string) []string {
		r := otherRange
		if isHub[origin] {
			r = hubRange
		}
		return s.sample(candidates, s.between(r))
	})
}
