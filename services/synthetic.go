package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"routefinder/graph"
)

// CountryLookup resolves an airport code to its ISO country.
type CountryLookup interface {
	Country(code string) string
}

// IntRange is an inclusive integer range.
type IntRange struct {
	Min, Max int
}

func (r IntRange) draw(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// SyntheticModel holds the knobs of the generated fares.
type SyntheticModel struct {
	BasePrice          IntRange // USD, every route
	InternationalFee   IntRange // USD, added when countries differ
	DepartureHour      IntRange
	DomesticHours      IntRange
	InternationalHours IntRange
	// StopWeights[i] is the relative weight of i stops.
	StopWeights []int
	// DefaultCountry is assumed for airports the lookup does not know.
	DefaultCountry string
}

// DefaultSyntheticModel mirrors typical economy fares: most flights direct,
// long-haul surcharges between countries.
func DefaultSyntheticModel() SyntheticModel {
	return SyntheticModel{
		BasePrice:          IntRange{89, 299},
		InternationalFee:   IntRange{200, 800},
		DepartureHour:      IntRange{6, 22},
		DomesticHours:      IntRange{1, 6},
		InternationalHours: IntRange{6, 16},
		StopWeights:        []int{70, 25, 5},
		DefaultCountry:     "US",
	}
}

var (
	majorAirlines = []string{
		"American Airlines", "Delta Air Lines", "United Airlines", "Southwest Airlines",
		"British Airways", "Lufthansa", "Air France", "KLM Royal Dutch Airlines",
		"Emirates", "Qatar Airways", "Singapore Airlines", "Cathay Pacific",
		"Japan Airlines", "ANA All Nippon Airways", "Turkish Airlines",
		"Iberia", "ITA Airways", "Air Canada", "Qantas", "Korean Air",
	}
	regionalAirlines = []string{
		"Alaska Airlines", "JetBlue Airways", "Frontier Airlines", "Spirit Airlines",
		"Allegiant Air", "Hawaiian Airlines", "WestJet", "Porter Airlines",
	}
	aircraftTypes = []string{"Boeing 737", "Airbus A320", "Boeing 777", "Airbus A350", "Boeing 787"}
	quarterHours  = []int{0, 15, 30, 45}
)

// SyntheticProvider produces plausible quotes without any network access.
// It never fails. Output is a pure function of the seed and the sequence
// of calls since the last Reset, so a run with the same seed and pair order
// is reproducible.
type SyntheticProvider struct {
	countries CountryLookup
	model     SyntheticModel
	seed      int64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticProvider returns a generator seeded with seed.
func NewSyntheticProvider(countries CountryLookup, model SyntheticModel, seed int64) *SyntheticProvider {
	return &SyntheticProvider{
		countries: countries,
		model:     model,
		seed:      seed,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Reset restarts the sequence from the seed, typically at the start of a run.
func (s *SyntheticProvider) Reset() {
	s.mu.Lock()
	s.rng = rand.New(rand.NewSource(s.seed))
	s.mu.Unlock()
}

func (s *SyntheticProvider) country(code string) string {
	if s.countries != nil {
		if c := s.countries.Country(code); c != "" {
			return c
		}
	}
	return s.model.DefaultCountry
}

// GetQuote generates a quote for origin→destination on date.
func (s *SyntheticProvider) GetQuote(ctx context.Context, origin, destination string, date time.Time) (graph.FlightQuote, error) {
	if err := ctx.Err(); err != nil {
		return graph.FlightQuote{}, err
	}
	international := s.country(origin) != s.country(destination)

	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.model

	price := m.BasePrice.draw(s.rng)
	pool := append(append([]string{}, majorAirlines...), regionalAirlines...)
	if international {
		price += m.InternationalFee.draw(s.rng)
		pool = majorAirlines
	}

	depHour := m.DepartureHour.draw(s.rng)
	depMinute := quarterHours[s.rng.Intn(len(quarterHours))]

	hours := m.DomesticHours
	if international {
		hours = m.InternationalHours
	}
	duration := hours.draw(s.rng)*60 + quarterHours[s.rng.Intn(len(quarterHours))]

	arrival := (depHour*60 + depMinute + duration) % (24 * 60)
	aircraft := aircraftTypes[s.rng.Intn(len(aircraftTypes))]

	return graph.FlightQuote{
		Price:           float64(price),
		Currency:        graph.Currency,
		Airline:         pool[s.rng.Intn(len(pool))],
		Date:            date,
		DepartureTime:   fmt.Sprintf("%02d:%02d", depHour, depMinute),
		ArrivalTime:     fmt.Sprintf("%02d:%02d", arrival/60, arrival%60),
		DurationMinutes: &duration,
		Stops:           weightedIndex(s.rng, m.StopWeights),
		Aircraft:        &aircraft,
		Source:          graph.SourceEstimated,
	}, nil
}

// weightedIndex picks i with probability weights[i]/sum(weights).
func weightedIndex(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return 0
	}
	n := rng.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if n < w {
			return i
		}
		n -= w
	}
	return 0
}
