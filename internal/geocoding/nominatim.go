package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tour-planner/internal/models"
)

// DefaultNominatimBaseURL is the public OpenStreetMap geocoding service
const DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

// GeocodingResult contains the result of a geocoding operation
type GeocodingResult struct {
	Coords      models.Coordinates `json:"coords"`
	DisplayName string             `json:"display_name"`
}

// Geocoder provides address-to-coordinates conversion
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*GeocodingResult, error)
	GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*GeocodingResult, error)
	Search(ctx context.Context, query string, limit int) ([]GeocodingResult, error)
}

// ErrGeocodingFailed is returned when an address cannot be geocoded
type ErrGeocodingFailed struct {
	Address string
	Reason  string
}

func (e *ErrGeocodingFailed) Error() string {
	return fmt.Sprintf("geocoding failed for address: %s - %s", e.Address, e.Reason)
}

// NominatimConfig configures the Nominatim client
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// MinInterval is the minimum spacing between requests; the public
	// service allows one per second.
	MinInterval time.Duration
	// RetryBaseDelay is the first backoff of GeocodeWithRetry, doubled per attempt
	RetryBaseDelay time.Duration
}

// DefaultNominatimConfig returns settings suitable for the public service
func DefaultNominatimConfig() NominatimConfig {
	return NominatimConfig{
		BaseURL:        DefaultNominatimBaseURL,
		UserAgent:      "TourPlanner/1.0",
		Timeout:        10 * time.Second,
		MinInterval:    time.Second,
		RetryBaseDelay: time.Second,
	}
}

type nominatimGeocoder struct {
	cfg         NominatimConfig
	httpClient  *http.Client
	rateLimiter *time.Ticker
}

type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatimGeocoder creates a new Nominatim geocoder with rate limiting.
// Zero fields of cfg fall back to DefaultNominatimConfig.
func NewNominatimGeocoder(cfg NominatimConfig) Geocoder {
	def := DefaultNominatimConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = def.MinInterval
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = def.RetryBaseDelay
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &nominatimGeocoder{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: time.NewTicker(cfg.MinInterval),
	}
}

// query performs one rate-limited search request and decodes the raw results
func (g *nominatimGeocoder) query(ctx context.Context, q string, limit int) ([]nominatimResponse, error) {
	select {
	case <-g.rateLimiter.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	queryURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=%d", g.cfg.BaseURL, url.QueryEscape(q), limit)
	log.Printf("[GEOCODING] Request: query=%s limit=%d", q, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to create geocoding request: query=%s err=%v", q, err)
		return nil, &ErrGeocodingFailed{Address: q, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Printf("[ERROR] Geocoding API request failed: query=%s err=%v", q, err)
		return nil, &ErrGeocodingFailed{Address: q, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("[ERROR] Geocoding API error: query=%s status=%d body=%s", q, resp.StatusCode, string(body))
		return nil, &ErrGeocodingFailed{
			Address: q,
			Reason:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		log.Printf("[ERROR] Failed to decode geocoding response: query=%s err=%v", q, err)
		return nil, &ErrGeocodingFailed{Address: q, Reason: err.Error()}
	}
	return results, nil
}

func parseResult(r nominatimResponse) (GeocodingResult, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return GeocodingResult{}, fmt.Errorf("invalid latitude %q", r.Lat)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return GeocodingResult{}, fmt.Errorf("invalid longitude %q", r.Lon)
	}
	coords := models.Coordinates{Lat: lat, Lng: lng}
	if !coords.ValidCoords() {
		return GeocodingResult{}, fmt.Errorf("coordinates out of range: %s,%s", r.Lat, r.Lon)
	}
	return GeocodingResult{Coords: coords, DisplayName: r.DisplayName}, nil
}

func (g *nominatimGeocoder) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	results, err := g.query(ctx, address, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		log.Printf("[ERROR] No geocoding results found: address=%s", address)
		return nil, &ErrGeocodingFailed{Address: address, Reason: "no results found"}
	}

	result, err := parseResult(results[0])
	if err != nil {
		log.Printf("[ERROR] Bad geocoding result: address=%s err=%v", address, err)
		return nil, &ErrGeocodingFailed{Address: address, Reason: err.Error()}
	}

	log.Printf("[GEOCODING] Response: address=%s lat=%.6f lng=%.6f display_name=%s",
		address, result.Coords.Lat, result.Coords.Lng, result.DisplayName)
	return &result, nil
}

func (g *nominatimGeocoder) GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*GeocodingResult, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		result, err := g.Geocode(ctx, address)
		if err == nil {
			log.Printf("[GEOCODING] Success after %d attempt(s): address=%s", i+1, address)
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err

		if i < maxRetries-1 {
			backoff := g.cfg.RetryBaseDelay * time.Duration(1<<uint(i))
			log.Printf("[GEOCODING] Retry %d/%d: address=%s backoff=%v err=%v", i+1, maxRetries, address, backoff, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	log.Printf("[ERROR] Geocoding failed after %d retries: address=%s err=%v", maxRetries, address, lastErr)
	return nil, lastErr
}

func (g *nominatimGeocoder) Search(ctx context.Context, query string, limit int) ([]GeocodingResult, error) {
	if limit <= 0 {
		limit = 5
	}
	results, err := g.query(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	log.Printf("[GEOCODING] Search response: query=%s results_count=%d", query, len(results))

	out := make([]GeocodingResult, 0, len(results))
	for _, r := range results {
		result, err := parseResult(r)
		if err != nil {
			log.Printf("[ERROR] Skipping search result: query=%s err=%v", query, err)
			continue
		}
		out = append(out, result)
	}
	return out, nil
}
