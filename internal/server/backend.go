package server

import (
	"fmt"
	"log"

	"tour-planner/internal/config"
	"tour-planner/internal/database"
	"tour-planner/internal/distance"
	"tour-planner/internal/geocoding"
	"tour-planner/internal/handlers"
	"tour-planner/internal/routing"
	"tour-planner/internal/sqlite"
)

// Matrix providers selectable by name
const (
	ProviderOSRM      = "osrm"
	ProviderHaversine = "haversine"
)

// Backend holds the optimizer and the caches and clients behind it. The
// HTTP server and the CLI build theirs the same way.
type Backend struct {
	Optimizer     routing.RouteOptimizer
	Matrices      *distance.CachedProvider
	DistanceCache database.DistanceCacheRepository
	Geocoder      geocoding.Geocoder

	store *sqlite.Store
}

// NewBackend wires the distance cache, the named matrix provider, the matrix
// cache, and the optimizer from cfg. Close releases the sqlite store, if any.
func NewBackend(cfg config.Config, provider string) (*Backend, error) {
	b := &Backend{}

	log.Printf("Initializing distance cache: backend=%s", cfg.DistanceCache.Backend)
	switch cfg.DistanceCache.Backend {
	case config.CacheMemory:
		b.DistanceCache = database.NewMemoryDistanceCache()
	case config.CacheFile:
		fileCache, err := database.NewFileDistanceCache(cfg.DistanceCache.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize distance cache: %w", err)
		}
		b.DistanceCache = fileCache
	case config.CacheSQLite:
		path := cfg.DistanceCache.Path
		if path == "" {
			var err error
			path, err = database.GetDefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("failed to resolve database path: %w", err)
			}
		}
		store, err := sqlite.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize data store: %w", err)
		}
		b.store = store
		b.DistanceCache = store.DistanceCache()
	case config.CacheNone:
	default:
		return nil, fmt.Errorf("unknown distance cache backend %q", cfg.DistanceCache.Backend)
	}

	var inner distance.MatrixProvider
	switch provider {
	case "", ProviderOSRM:
		inner = distance.NewOSRMProvider(cfg.OSRMProviderConfig(), b.DistanceCache)
	case ProviderHaversine:
		inner = distance.NewHaversineProvider(cfg.CostMetric(), distance.DefaultAverageSpeedKmh)
	default:
		b.Close()
		return nil, fmt.Errorf("unknown matrix provider %q (want %s or %s)", provider, ProviderOSRM, ProviderHaversine)
	}

	b.Matrices = distance.NewCachedProvider(inner, nil)
	b.Optimizer = routing.NewOptimizer(b.Matrices, cfg.Solver)

	if cfg.Geocoding.Enabled {
		geoCfg := geocoding.DefaultNominatimConfig()
		if cfg.Geocoding.BaseURL != "" {
			geoCfg.BaseURL = cfg.Geocoding.BaseURL
		}
		b.Geocoder = geocoding.NewNominatimGeocoder(geoCfg)
	}

	return b, nil
}

// Store returns the health checker of the persistent store, or nil
func (b *Backend) Store() handlers.HealthChecker {
	if b.store == nil {
		return nil
	}
	return b.store
}

// Close closes the sqlite store if one was opened
func (b *Backend) Close() error {
	if b.store == nil {
		return nil
	}
	return b.store.Close()
}
