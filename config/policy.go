package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"routefinder/acquisition"
	"routefinder/services"
)

// Range is an inclusive count range.
type Range struct {
	Min int `yaml:"min" validate:"gte=0"`
	Max int `yaml:"max" validate:"gtefield=Min"`
}

// DurationRange is an inclusive delay range. YAML values use Go duration
// syntax ("5s", "1m30s").
type DurationRange struct {
	Min time.Duration `yaml:"min" validate:"gte=0"`
	Max time.Duration `yaml:"max" validate:"gtefield=Min"`
}

// Policy controls which pairs a run quotes and how fast.
type Policy struct {
	// Strategy is one of all, sample or hub.
	Strategy   string `yaml:"strategy" validate:"oneof=all sample hub"`
	SampleSize int    `yaml:"sample_size" validate:"gte=1"`
	// Origins is how many origins the startup run samples; 0 means every airport.
	Origins           int      `yaml:"origins" validate:"gte=0"`
	Hubs              []string `yaml:"hubs" validate:"dive,len=3,uppercase"`
	HubDestinations   Range    `yaml:"hub_destinations"`
	OtherDestinations Range    `yaml:"other_destinations"`

	BatchSize   int           `yaml:"batch_size" validate:"gte=1"`
	BatchDelay  DurationRange `yaml:"batch_delay"`
	OriginDelay DurationRange `yaml:"origin_delay"`

	RateLimitCooldown   time.Duration `yaml:"rate_limit_cooldown" validate:"gte=0"`
	MaxTransientRetries int           `yaml:"max_transient_retries" validate:"gte=0,lte=10"`
	TransientBackoff    time.Duration `yaml:"transient_backoff" validate:"gte=0"`
}

// DefaultPolicy samples ten origins with a hub-weighted destination count and
// keeps the request pacing of the free API tier.
func DefaultPolicy() Policy {
	pacing := acquisition.DefaultPacing()
	retrier := services.DefaultRetrier()
	return Policy{
		Strategy:            "hub",
		SampleSize:          10,
		Origins:             10,
		Hubs:                append([]string(nil), acquisition.DefaultHubs...),
		HubDestinations:     Range{8, 15},
		OtherDestinations:   Range{3, 8},
		BatchSize:           pacing.BatchSize,
		BatchDelay:          DurationRange{pacing.BatchDelay.Min, pacing.BatchDelay.Max},
		OriginDelay:         DurationRange{pacing.OriginDelay.Min, pacing.OriginDelay.Max},
		RateLimitCooldown:   retrier.RateLimitCooldown,
		MaxTransientRetries: retrier.MaxTransientRetries,
		TransientBackoff:    retrier.Backoff,
	}
}

// LoadPolicy reads a YAML policy file over the defaults. A missing file
// yields the defaults when optional is true.
func LoadPolicy(path string, optional bool) (Policy, error) {
	p := DefaultPolicy()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("read policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if err := validator.New().Struct(p); err != nil {
		return p, fmt.Errorf("invalid policy %s: %w", path, err)
	}
	return p, nil
}

// Selection returns the destination strategy named by the policy.
func (p Policy) Selection(seed int64) acquisition.Strategy {
	switch p.Strategy {
	case "all":
		return acquisition.All()
	case "sample":
		return acquisition.RandomSample(p.SampleSize, seed)
	}
	return acquisition.HubCaps(p.Hubs,
		services.IntRange{Min: p.HubDestinations.Min, Max: p.HubDestinations.Max},
		services.IntRange{Min: p.OtherDestinations.Min, Max: p.OtherDestinations.Max},
		seed)
}

// Pacing returns the batch and delay settings of the policy.
func (p Policy) Pacing() acquisition.Pacing {
	return acquisition.Pacing{
		BatchSize:   p.BatchSize,
		BatchDelay:  acquisition.DelayRange{Min: p.BatchDelay.Min, Max: p.BatchDelay.Max},
		OriginDelay: acquisition.DelayRange{Min: p.OriginDelay.Min, Max: p.OriginDelay.Max},
	}
}

// Retrier returns the retry settings of the policy with no logger or sleep set.
func (p Policy) Retrier() services.Retrier {
	r := services.DefaultRetrier()
	r.RateLimitCooldown = p.RateLimitCooldown
	r.MaxTransientRetries = p.MaxTransientRetries
	r.Backoff = p.TransientBackoff
	return r
}
