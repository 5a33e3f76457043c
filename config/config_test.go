package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routefinder/acquisition"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"SYNTHETIC_SEED": "42"}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "airports.csv", cfg.AirportsCSV)
	assert.Equal(t, 7, cfg.DepartureOffsetDays)
	assert.Equal(t, 1.30, cfg.DirectTolerance)
	assert.Equal(t, int64(42), cfg.SyntheticSeed)
	assert.Equal(t, 30*time.Second, cfg.Quote.Timeout)
	assert.True(t, cfg.AcquireOnStart)
	assert.False(t, cfg.DatabaseEnabled())
	assert.Equal(t, DefaultPolicy(), cfg.Policy)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"PORT":                  "9000",
		"FRONTEND_URL":          "https://a.example.com, https://b.example.com,",
		"QUOTE_API_URL":         "https://flights.example.com",
		"QUOTE_API_KEY":         "k",
		"QUOTE_TIMEOUT":         "5s",
		"DEPARTURE_OFFSET_DAYS": "14",
		"DIRECT_TOLERANCE":      "1.1",
		"ACQUIRE_ON_START":      "false",
		"MAX_AIRPORTS":          "25",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.FrontendURLs)
	assert.Equal(t, "https://flights.example.com", cfg.Quote.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Quote.Timeout)
	assert.Equal(t, 14, cfg.DepartureOffsetDays)
	assert.Equal(t, 1.1, cfg.DirectTolerance)
	assert.False(t, cfg.AcquireOnStart)
	assert.Equal(t, 25, cfg.MaxAirports)
}

func TestFromEnv_Invalid(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"bad int":       {"MAX_AIRPORTS": "lots"},
		"bad duration":  {"QUOTE_TIMEOUT": "5"},
		"bad bool":      {"ACQUIRE_ON_START": "maybe"},
		"low tolerance": {"DIRECT_TOLERANCE": "0.8"},
		"bad port":      {"PORT": "http"},
		"missing file":  {"POLICY_FILE": filepath.Join(t.TempDir(), "nope.yaml")},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envMap(env))
			assert.Error(t, err)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	assert.Equal(t, "", databaseDSN(envMap(nil)))
	assert.Equal(t, "postgres://u:p@db:5432/x",
		databaseDSN(envMap(map[string]string{"DATABASE_URL": "postgres://u:p@db:5432/x", "DB_HOST": "ignored"})))
	assert.Equal(t, "host=db port=5432 user=postgres password=postgres dbname=routefinder sslmode=disable",
		databaseDSN(envMap(map[string]string{"DB_HOST": "db"})))
}

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadPolicy(t *testing.T) {
	path := writePolicy(t, `
strategy: sample
sample_size: 4
batch_size: 2
batch_delay: {min: 0s, max: 0s}
origin_delay: {min: 1s, max: 2s}
rate_limit_cooldown: 10s
max_transient_retries: 1
`)
	p, err := LoadPolicy(path, false)
	require.NoError(t, err)

	assert.Equal(t, "sample", p.Strategy)
	assert.Equal(t, acquisition.Pacing{
		BatchSize:   2,
		OriginDelay: acquisition.DelayRange{Min: time.Second, Max: 2 * time.Second},
	}, p.Pacing())
	r := p.Retrier()
	assert.Equal(t, 10*time.Second, r.RateLimitCooldown)
	assert.Equal(t, 1, r.MaxTransientRetries)
	assert.Equal(t, 1, r.MaxRateLimitRetries)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultPolicy().Hubs, p.Hubs)

	ws := acquisition.Select([]string{"AAA"}, []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF"}, p.Selection(1))
	require.Len(t, ws, 1)
	assert.Len(t, ws[0].Destinations, 4)
}

func TestLoadPolicy_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"strategy":       "strategy: everything\n",
		"inverted range": "batch_delay: {min: 10s, max: 1s}\n",
		"batch size":     "batch_size: 0\n",
		"hub code":       "hubs: [jfk]\n",
		"syntax":         "strategy: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadPolicy(writePolicy(t, body), false)
			assert.Error(t, err)
		})
	}

	p, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)
}
