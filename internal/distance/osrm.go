package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"tour-planner/internal/database"
	"tour-planner/internal/models"
)

// DefaultOSRMBaseURL is the public OSRM demo server
const DefaultOSRMBaseURL = "https://router.project-osrm.org"

// maxOSRMCoordinates is the maximum number of coordinates OSRM public API accepts
const maxOSRMCoordinates = 80

// OSRMConfig configures the OSRM table client
type OSRMConfig struct {
	BaseURL        string
	Profile        string
	Metric         CostMetric
	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
	// BatchPause is the delay between batched table requests
	BatchPause time.Duration
}

// DefaultOSRMConfig returns settings for the public OSRM server
func DefaultOSRMConfig() OSRMConfig {
	return OSRMConfig{
		BaseURL:        DefaultOSRMBaseURL,
		Profile:        "driving",
		Metric:         MetricDuration,
		Timeout:        30 * time.Second,
		MaxAttempts:    3,
		RetryBaseDelay: time.Second,
		BatchPause:     100 * time.Millisecond,
	}
}

type osrmProvider struct {
	cfg        OSRMConfig
	httpClient *http.Client
	cache      database.DistanceCacheRepository
}

// osrmTableResponse uses pointers so unroutable pairs (null) can be told apart from zero
type osrmTableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// NewOSRMProvider creates an OSRM table-service matrix provider. Pairs already
// in the per-pair cache are not requested again; cache may be nil.
func NewOSRMProvider(cfg OSRMConfig, cache database.DistanceCacheRepository) MatrixProvider {
	def := DefaultOSRMConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = def.Profile
	}
	if cfg.Metric == "" {
		cfg.Metric = def.Metric
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBaseDelay < 0 {
		cfg.RetryBaseDelay = 0
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &osrmProvider{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: cache,
	}
}

func (c *osrmProvider) FetchMatrix(ctx context.Context, points []models.Coordinates) (models.CostMatrix, error) {
	n := len(points)
	matrix := models.NewCostMatrix(n)
	if n == 0 {
		return matrix, nil
	}

	// First, check cache for all pairs
	missing := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || samePoint(points[i], points[j]) {
				continue
			}

			cached, err := c.cachedPair(ctx, points[i], points[j])
			if err != nil {
				return nil, err
			}
			if cached != nil {
				matrix[i][j] = c.cfg.Metric.pick(cached.DistanceMeters, cached.DurationSecs)
			} else {
				missing++
			}
		}
	}

	if missing == 0 {
		log.Printf("[OSRM] Distance matrix all cached: points=%d", n)
		return matrix, nil
	}

	log.Printf("[OSRM] Distance matrix request: points=%d cached=%d missing=%d", n, n*(n-1)-missing, missing)

	if n <= maxOSRMCoordinates {
		return c.fetchSingle(ctx, points, matrix)
	}

	log.Printf("[OSRM] Using batched requests: points=%d batches=%d", n, (n+maxOSRMCoordinates-1)/maxOSRMCoordinates)
	return c.fetchBatched(ctx, points, matrix)
}

func (c *osrmProvider) cachedPair(ctx context.Context, origin, dest models.Coordinates) (*models.DistanceCacheEntry, error) {
	if c.cache == nil {
		return nil, nil
	}
	entry, err := c.cache.Get(ctx, origin, dest)
	if err != nil {
		return nil, fmt.Errorf("failed to read distance cache: %w", err)
	}
	return entry, nil
}

// fetchSingle fetches the whole matrix in one table request
func (c *osrmProvider) fetchSingle(ctx context.Context, points []models.Coordinates, matrix models.CostMatrix) (models.CostMatrix, error) {
	n := len(points)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	entries, err := c.fetchBlock(ctx, points, all, all, matrix)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, entries); err != nil {
		return nil, err
	}
	return matrix, nil
}

// fetchBatched splits the points into blocks of at most maxOSRMCoordinates
// and requests every (source block, destination block) pair.
func (c *osrmProvider) fetchBatched(ctx context.Context, points []models.Coordinates, matrix models.CostMatrix) (models.CostMatrix, error) {
	n := len(points)

	var batches [][]int
	for i := 0; i < n; i += maxOSRMCoordinates {
		end := i + maxOSRMCoordinates
		if end > n {
			end = n
		}
		batch := make([]int, end-i)
		for j := i; j < end; j++ {
			batch[j-i] = j
		}
		batches = append(batches, batch)
	}

	var allEntries []models.DistanceCacheEntry
	requestCount := 0

	for bi, batchI := range batches {
		for bj, batchJ := range batches {
			entries, err := c.fetchBlock(ctx, points, batchI, batchJ, matrix)
			if err != nil {
				return nil, err
			}
			allEntries = append(allEntries, entries...)
			requestCount++

			// Rate limit between batch requests
			if (bi < len(batches)-1 || bj < len(batches)-1) && c.cfg.BatchPause > 0 {
				select {
				case <-time.After(c.cfg.BatchPause):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
	}

	log.Printf("[OSRM] Batched requests complete: requests=%d entries=%d", requestCount, len(allEntries))

	if err := c.store(ctx, allEntries); err != nil {
		return nil, err
	}
	return matrix, nil
}

// fetchBlock requests costs from sources to destinations (global indices)
// and writes them into matrix. Unroutable pairs become Unreachable.
func (c *osrmProvider) fetchBlock(ctx context.Context, points []models.Coordinates, sources, destinations []int, matrix models.CostMatrix) ([]models.DistanceCacheEntry, error) {
	// Local coordinate list: sources first, then destinations not already present
	local := make(map[int]int, len(sources)+len(destinations))
	var blockPoints []models.Coordinates
	for _, group := range [][]int{sources, destinations} {
		for _, idx := range group {
			if _, ok := local[idx]; ok {
				continue
			}
			local[idx] = len(blockPoints)
			blockPoints = append(blockPoints, points[idx])
		}
	}

	coords := make([]string, len(blockPoints))
	for i, p := range blockPoints {
		coords[i] = fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat)
	}
	srcParams := make([]string, len(sources))
	for i, idx := range sources {
		srcParams[i] = fmt.Sprintf("%d", local[idx])
	}
	dstParams := make([]string, len(destinations))
	for i, idx := range destinations {
		dstParams[i] = fmt.Sprintf("%d", local[idx])
	}

	queryURL := fmt.Sprintf("%s/table/v1/%s/%s?annotations=distance,duration",
		c.cfg.BaseURL, c.cfg.Profile, strings.Join(coords, ";"))
	if len(blockPoints) != len(sources) || len(blockPoints) != len(destinations) {
		queryURL += fmt.Sprintf("&sources=%s&destinations=%s", strings.Join(srcParams, ";"), strings.Join(dstParams, ";"))
	}

	osrmResp, err := c.requestWithRetry(ctx, queryURL, len(blockPoints))
	if err != nil {
		return nil, err
	}

	if len(osrmResp.Durations) != len(sources) || len(osrmResp.Distances) != len(sources) {
		return nil, &ErrMatrixRequestFailed{
			Points: len(blockPoints),
			Reason: fmt.Sprintf("response has %d rows, want %d", len(osrmResp.Durations), len(sources)),
		}
	}

	var entries []models.DistanceCacheEntry
	unreachable := 0
	for si, srcIdx := range sources {
		if len(osrmResp.Durations[si]) != len(destinations) || len(osrmResp.Distances[si]) != len(destinations) {
			return nil, &ErrMatrixRequestFailed{
				Points: len(blockPoints),
				Reason: fmt.Sprintf("response row %d has wrong length", si),
			}
		}
		for di, dstIdx := range destinations {
			if srcIdx == dstIdx || samePoint(points[srcIdx], points[dstIdx]) {
				continue
			}
			dist, dur := osrmResp.Distances[si][di], osrmResp.Durations[si][di]
			if dist == nil || dur == nil {
				matrix[srcIdx][dstIdx] = models.Unreachable()
				unreachable++
				continue
			}
			matrix[srcIdx][dstIdx] = c.cfg.Metric.pick(*dist, *dur)
			entries = append(entries, models.DistanceCacheEntry{
				Origin:         points[srcIdx],
				Destination:    points[dstIdx],
				DistanceMeters: *dist,
				DurationSecs:   *dur,
			})
		}
	}

	if unreachable > 0 {
		log.Printf("[OSRM] Table response has unroutable pairs: points=%d unreachable=%d", len(blockPoints), unreachable)
	}
	return entries, nil
}

func (c *osrmProvider) store(ctx context.Context, entries []models.DistanceCacheEntry) error {
	if c.cache == nil || len(entries) == 0 {
		return nil
	}
	if err := c.cache.SetBatch(ctx, entries); err != nil {
		return fmt.Errorf("failed to write distance cache: %w", err)
	}
	return nil
}

// requestWithRetry performs one table request, retrying on transport errors,
// 429 and 5xx responses with exponential backoff.
func (c *osrmProvider) requestWithRetry(ctx context.Context, queryURL string, points int) (*osrmTableResponse, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		resp, retry, err := c.request(ctx, queryURL, points)
		if err == nil {
			if attempt > 0 {
				log.Printf("[OSRM] Success after %d attempt(s): points=%d", attempt+1, points)
			}
			return resp, nil
		}

		lastErr = err
		if !retry || attempt == c.cfg.MaxAttempts-1 {
			break
		}

		backoff := c.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt))
		log.Printf("[OSRM] Retry %d/%d: points=%d backoff=%v err=%v", attempt+1, c.cfg.MaxAttempts, points, backoff, err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	log.Printf("[ERROR] OSRM table request failed: points=%d err=%v", points, lastErr)
	return nil, lastErr
}

func (c *osrmProvider) request(ctx context.Context, queryURL string, points int) (*osrmTableResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to create OSRM request: points=%d err=%v", points, err)
		return nil, false, &ErrMatrixRequestFailed{Points: points, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", "TourPlanner/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, &ErrMatrixRequestFailed{Points: points, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		log.Printf("[ERROR] OSRM API error: points=%d status=%d body=%s", points, resp.StatusCode, string(body))
		return nil, retry, &ErrMatrixRequestFailed{
			Points:     points,
			StatusCode: resp.StatusCode,
			Reason:     string(body),
		}
	}

	var osrmResp osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&osrmResp); err != nil {
		log.Printf("[ERROR] Failed to decode OSRM response: points=%d err=%v", points, err)
		return nil, false, &ErrMatrixRequestFailed{Points: points, Reason: err.Error()}
	}

	if osrmResp.Code != "Ok" {
		log.Printf("[ERROR] OSRM returned error code: points=%d code=%s message=%s", points, osrmResp.Code, osrmResp.Message)
		return nil, false, &ErrMatrixRequestFailed{Points: points, Reason: fmt.Sprintf("OSRM error: %s", osrmResp.Code)}
	}

	log.Printf("[OSRM] Table response: points=%d code=%s", points, osrmResp.Code)
	return &osrmResp, false, nil
}
