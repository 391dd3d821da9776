package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-planner/internal/distance"
	"tour-planner/internal/routing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

// isolate keeps Load away from the real home directory and environment
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"TOURPLAN_CONFIG", "SERVER_ADDR", "OSRM_BASE_URL", "OSRM_PROFILE", "COST_METRIC",
		"DISTANCE_CACHE", "DISTANCE_CACHE_PATH", "NOMINATIM_BASE_URL", "MAX_WAYPOINTS",
	} {
		t.Setenv(key, "")
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, routing.DefaultTuning(), cfg.Solver)
	assert.Equal(t, distance.MetricDuration, cfg.CostMetric())
	assert.Equal(t, CacheFile, cfg.DistanceCache.Backend)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
server:
  addr: 0.0.0.0:9000
  max_waypoints: 25
osrm:
  base_url: http://osrm.local:5000
  profile: bike
  timeout: 5s
  max_attempts: 2
metric: distance
distance_cache:
  backend: sqlite
  path: /tmp/distances.db
geocoding:
  enabled: false
solver:
  brute_force_max_n: 6
  multi_start_max_n: 12
  multi_start_count: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, 25, cfg.Server.MaxWaypoints)
	assert.Equal(t, "http://osrm.local:5000", cfg.OSRM.BaseURL)
	assert.Equal(t, "bike", cfg.OSRM.Profile)
	assert.Equal(t, 5*time.Second, cfg.OSRM.Timeout)
	assert.Equal(t, distance.MetricDistance, cfg.CostMetric())
	assert.Equal(t, CacheSQLite, cfg.DistanceCache.Backend)
	assert.False(t, cfg.Geocoding.Enabled)

	assert.Equal(t, 6, cfg.Solver.BruteForceMaxN)
	assert.Equal(t, 12, cfg.Solver.MultiStartMaxN)
	assert.Equal(t, 3, cfg.Solver.MultiStartCount)
	// keys absent from the file keep their defaults
	assert.Equal(t, routing.DefaultTuning().TwoOptMaxIterations, cfg.Solver.TwoOptMaxIterations)
	assert.Equal(t, routing.DefaultTuning().OrOptMaxSegment, cfg.Solver.OrOptMaxSegment)
}

func TestLoad_ConfigFromEnvPath(t *testing.T) {
	isolate(t)
	t.Setenv("TOURPLAN_CONFIG", writeConfig(t, "metric: distance\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "distance", cfg.Metric)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "server:\n  addr: 127.0.0.1:1111\nmetric: distance\n")
	t.Setenv("SERVER_ADDR", "127.0.0.1:2222")
	t.Setenv("COST_METRIC", "duration")
	t.Setenv("DISTANCE_CACHE", "none")
	t.Setenv("OSRM_BASE_URL", "http://localhost:5000")
	t.Setenv("NOMINATIM_BASE_URL", "http://localhost:8088")
	t.Setenv("MAX_WAYPOINTS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:2222", cfg.Server.Addr)
	assert.Equal(t, "duration", cfg.Metric)
	assert.Equal(t, CacheNone, cfg.DistanceCache.Backend)
	assert.Equal(t, "http://localhost:5000", cfg.OSRM.BaseURL)
	assert.Equal(t, "http://localhost:8088", cfg.Geocoding.BaseURL)
	assert.Equal(t, 7, cfg.Server.MaxWaypoints)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "malformed yaml", body: "server: [unterminated"},
		{name: "unknown metric", body: "metric: fuel"},
		{name: "unknown backend", body: "distance_cache:\n  backend: redis"},
		{name: "bad tuning", body: "solver:\n  brute_force_max_n: 12"},
		{name: "bad max waypoints env", body: "", env: map[string]string{"MAX_WAYPOINTS": "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty addr", mutate: func(c *Config) { c.Server.Addr = "" }, wantErr: true},
		{name: "negative max waypoints", mutate: func(c *Config) { c.Server.MaxWaypoints = -1 }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.OSRM.MaxAttempts = 0 }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.OSRM.Timeout = -time.Second }, wantErr: true},
		{name: "memory backend", mutate: func(c *Config) { c.DistanceCache.Backend = CacheMemory }},
		{name: "multi-start below brute force", mutate: func(c *Config) { c.Solver.MultiStartMaxN = 2 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOSRMProviderConfig(t *testing.T) {
	cfg := Default()
	cfg.Metric = "distance"
	cfg.OSRM.Profile = "foot"
	cfg.OSRM.Timeout = 0

	osrm := cfg.OSRMProviderConfig()
	assert.Equal(t, distance.MetricDistance, osrm.Metric)
	assert.Equal(t, "foot", osrm.Profile)
	assert.Equal(t, distance.DefaultOSRMConfig().Timeout, osrm.Timeout)
}
