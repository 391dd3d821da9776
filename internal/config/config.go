package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"tour-planner/internal/database"
	"tour-planner/internal/distance"
	"tour-planner/internal/routing"
)

// Distance cache backends
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheSQLite = "sqlite"
	CacheNone   = "none"
)

// Config is the full application configuration. Values are read from an
// optional YAML file and then overridden by environment variables.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	OSRM          OSRMConfig          `yaml:"osrm"`
	Metric        string              `yaml:"metric"`
	DistanceCache DistanceCacheConfig `yaml:"distance_cache"`
	Geocoding     GeocodingConfig     `yaml:"geocoding"`
	Solver        routing.Tuning      `yaml:"solver"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// MaxWaypoints caps a single optimize request; 0 disables the cap
	MaxWaypoints int `yaml:"max_waypoints"`
}

type OSRMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Profile     string        `yaml:"profile"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type DistanceCacheConfig struct {
	Backend string `yaml:"backend"`
	// Path of the cache file or database; empty uses ~/.tour-planner/cache
	Path string `yaml:"path"`
}

type GeocodingConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	osrm := distance.DefaultOSRMConfig()
	return Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			MaxWaypoints: 100,
		},
		OSRM: OSRMConfig{
			BaseURL:     osrm.BaseURL,
			Profile:     osrm.Profile,
			Timeout:     osrm.Timeout,
			MaxAttempts: osrm.MaxAttempts,
		},
		Metric: string(distance.MetricDuration),
		DistanceCache: DistanceCacheConfig{
			Backend: CacheFile,
		},
		Geocoding: GeocodingConfig{
			Enabled: true,
		},
		Solver: routing.DefaultTuning(),
	}
}

// Load reads the YAML file at path on top of the defaults and applies
// environment overrides. An empty path falls back to TOURPLAN_CONFIG and
// then to ~/.tour-planner/config.yaml; only an explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := true
	if path == "" {
		path = os.Getenv("TOURPLAN_CONFIG")
	}
	if path == "" {
		explicit = false
		defaultPath, err := database.GetConfigFilePath()
		if err != nil {
			log.Printf("[CONFIG] No default config location: err=%v", err)
		}
		path = defaultPath
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			log.Printf("[CONFIG] Loaded %s", path)
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.OSRM.BaseURL = getEnv("OSRM_BASE_URL", c.OSRM.BaseURL)
	c.OSRM.Profile = getEnv("OSRM_PROFILE", c.OSRM.Profile)
	c.Metric = getEnv("COST_METRIC", c.Metric)
	c.DistanceCache.Backend = getEnv("DISTANCE_CACHE", c.DistanceCache.Backend)
	c.DistanceCache.Path = getEnv("DISTANCE_CACHE_PATH", c.DistanceCache.Path)
	c.Geocoding.BaseURL = getEnv("NOMINATIM_BASE_URL", c.Geocoding.BaseURL)

	if v := os.Getenv("MAX_WAYPOINTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_WAYPOINTS %q: %w", v, err)
		}
		c.Server.MaxWaypoints = n
	}
	return nil
}

// Validate rejects settings the application cannot run with
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.Server.MaxWaypoints < 0 {
		return fmt.Errorf("server.max_waypoints must not be negative, got %d", c.Server.MaxWaypoints)
	}
	if _, err := distance.ParseCostMetric(c.Metric); err != nil {
		return fmt.Errorf("metric: %w", err)
	}
	switch c.DistanceCache.Backend {
	case CacheMemory, CacheFile, CacheSQLite, CacheNone:
	default:
		return fmt.Errorf("distance_cache.backend must be one of memory, file, sqlite, none; got %q", c.DistanceCache.Backend)
	}
	if c.OSRM.MaxAttempts < 1 {
		return fmt.Errorf("osrm.max_attempts must be at least 1, got %d", c.OSRM.MaxAttempts)
	}
	if c.OSRM.Timeout < 0 {
		return fmt.Errorf("osrm.timeout must not be negative, got %s", c.OSRM.Timeout)
	}
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	return nil
}

// CostMetric returns the parsed metric; call after Validate
func (c Config) CostMetric() distance.CostMetric {
	m, _ := distance.ParseCostMetric(c.Metric)
	return m
}

// OSRMProviderConfig converts the osrm section into provider settings
func (c Config) OSRMProviderConfig() distance.OSRMConfig {
	cfg := distance.DefaultOSRMConfig()
	cfg.BaseURL = c.OSRM.BaseURL
	cfg.Profile = c.OSRM.Profile
	cfg.Metric = c.CostMetric()
	if c.OSRM.Timeout > 0 {
		cfg.Timeout = c.OSRM.Timeout
	}
	cfg.MaxAttempts = c.OSRM.MaxAttempts
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
