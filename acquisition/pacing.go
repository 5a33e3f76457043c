package acquisition

import (
	"math/rand"
	"time"
)

// DelayRange is a pause drawn uniformly from [Min, Max].
type DelayRange struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
}

func (d DelayRange) pick(rng *rand.Rand) time.Duration {
	if d.Max <= d.Min || rng == nil {
		return d.Min
	}
	return d.Min + time.Duration(rng.Int63n(int64(d.Max-d.Min)+1))
}

// Pacing spaces out live lookups. Destinations of one origin are quoted in
// batches of BatchSize with BatchDelay between batches, and OriginDelay
// separates consecutive origins. Zero delays are allowed.
type Pacing struct {
	BatchSize   int        `json:"batch_size"`
	BatchDelay  DelayRange `json:"batch_delay"`
	OriginDelay DelayRange `json:"origin_delay"`
}

// DefaultPacing keeps a single caller under the free-tier request rate of
// the flight search API.
func DefaultPacing() Pacing {
	return Pacing{
		BatchSize:   3,
		BatchDelay:  DelayRange{5 * time.Second, 10 * time.Second},
		OriginDelay: DelayRange{10 * time.Second, 15 * time.Second},
	}
}

// NoDelay keeps batching but never sleeps.
func NoDelay() Pacing {
	return Pacing{BatchSize: 3}
}

func (p Pacing) batches(dests []string) [][]string {
	size := p.BatchSize
	if size <= 0 {
		size = len(dests)
	}
	var out [][]string
	for start := 0; start < len(dests); start += size {
		end := start + size
		if end > len(dests) {
			end = len(dests)
		}
		out = append(out, dests[start:end])
	}
	return out
}
