// Package config loads process configuration from the environment, an
// optional .env file and an optional YAML acquisition policy.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"routefinder/planner"
	"routefinder/services"
)

const defaultPolicyFile = "policy.yaml"

type Config struct {
	Port         string   `validate:"required,numeric"`
	GinMode      string   `validate:"omitempty,oneof=debug release test"`
	FrontendURLs []string `validate:"dive,url"`

	AirportsCSV string `validate:"required"`
	// MaxAirports caps the catalog to the first N codes; 0 keeps all.
	MaxAirports int `validate:"gte=0"`

	// DatabaseDSN is empty when no database is configured.
	DatabaseDSN string

	Quote            services.LiveConfig
	QuoteMinInterval time.Duration `validate:"gte=0"`

	DepartureOffsetDays int     `validate:"gte=0,lte=330"`
	DirectTolerance     float64 `validate:"gte=1"`
	SyntheticSeed       int64
	AcquireOnStart      bool

	PolicyFile string
	Policy     Policy
}

// Load reads .env (when present), the environment and the policy file.
func Load() (Config, error) {
	// a missing .env is normal in production
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Malformed values are errors, not
// silently replaced by defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	e := envReader{getenv: getenv}

	cfg := Config{
		Port:         e.str("PORT", "8080"),
		GinMode:      e.str("GIN_MODE", ""),
		FrontendURLs: e.list("FRONTEND_URL"),
		AirportsCSV:  e.str("AIRPORTS_CSV", "airports.csv"),
		MaxAirports:  e.integer("MAX_AIRPORTS", 0),
		DatabaseDSN:  databaseDSN(getenv),
		Quote: services.LiveConfig{
			BaseURL: e.str("QUOTE_API_URL", ""),
			APIKey:  e.str("QUOTE_API_KEY", ""),
			APIHost: e.str("QUOTE_API_HOST", ""),
			Timeout: e.duration("QUOTE_TIMEOUT", 30*time.Second),
		},
		QuoteMinInterval:    e.duration("QUOTE_MIN_INTERVAL", time.Second),
		DepartureOffsetDays: e.integer("DEPARTURE_OFFSET_DAYS", 7),
		DirectTolerance:     e.number("DIRECT_TOLERANCE", planner.DefaultTolerance),
		SyntheticSeed:       int64(e.integer("SYNTHETIC_SEED", int(time.Now().UnixNano()%1_000_000_007))),
		AcquireOnStart:      e.flag("ACQUIRE_ON_START", true),
		PolicyFile:          e.str("POLICY_FILE", defaultPolicyFile),
	}
	if err := errors.Join(e.errs...); err != nil {
		return cfg, err
	}

	// the default file is optional, an explicitly named one is not
	policy, err := LoadPolicy(cfg.PolicyFile, getenv("POLICY_FILE") == "")
	if err != nil {
		return cfg, err
	}
	cfg.Policy = policy

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// DatabaseEnabled reports whether a database was configured.
func (c Config) DatabaseEnabled() bool {
	return c.DatabaseDSN != ""
}

// databaseDSN prefers DATABASE_URL and falls back to DB_* parts when DB_HOST
// is set. It returns "" when neither is present.
func databaseDSN(getenv func(string) string) string {
	if url := getenv("DATABASE_URL"); url != "" {
		return url
	}
	if getenv("DB_HOST") == "" {
		return ""
	}
	e := envReader{getenv: getenv}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		e.str("DB_HOST", "localhost"),
		e.str("DB_PORT", "5432"),
		e.str("DB_USER", "postgres"),
		e.str("DB_PASSWORD", "postgres"),
		e.str("DB_NAME", "routefinder"),
		e.str("DB_SSLMODE", "disable"))
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

type envReader struct {
	getenv func(string) string
	errs   []error
}

func (e *envReader) str(key, fallback string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (e *envReader) list(key string) []string {
	var out []string
	for _, u := range strings.Split(e.getenv(key), ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (e *envReader) parse(key string, parse func(string) error) {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return
	}
	if err := parse(v); err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s=%q: %w", key, v, err))
	}
}

func (e *envReader) integer(key string, fallback int) int {
	out := fallback
	e.parse(key, func(v string) (err error) {
		out, err = strconv.Atoi(v)
		return err
	})
	return out
}

func (e *envReader) number(key string, fallback float64) float64 {
	out := fallback
	e.parse(key, func(v string) (err error) {
		out, err = strconv.ParseFloat(v, 64)
		return err
	})
	return out
}

func (e *envReader) flag(key string, fallback bool) bool {
	out := fallback
	e.parse(key, func(v string) (err error) {
		out, err = strconv.ParseBool(v)
		return err
	})
	return out
}

func (e *envReader) duration(key string, fallback time.Duration) time.Duration {
	out := fallback
	e.parse(key, func(v string) (err error) {
		out, err = time.ParseDuration(v)
		return err
	})
	return out
}
