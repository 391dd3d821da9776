package distance

import (
	"context"
	"sync"

	"golang.org/x/exp/rand"

	"tour-planner/internal/models"
)

type randomProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
	max float64
}

// NewRandomProvider returns a provider that ignores coordinates and fills
// the matrix with asymmetric costs drawn uniformly from [1, maxCost).
// The same seed always produces the same sequence of matrices. Used for
// benchmarking the solver without a routing service.
func NewRandomProvider(seed uint64, maxCost float64) MatrixProvider {
	if maxCost <= 1 {
		maxCost = 1000
	}
	return &randomProvider{
		rng: rand.New(rand.NewSource(seed)),
		max: maxCost,
	}
}

func (p *randomProvider) FetchMatrix(ctx context.Context, points []models.Coordinates) (models.CostMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Matrix(len(points)), nil
}

// Matrix draws an n×n matrix directly
func (p *randomProvider) Matrix(n int) models.CostMatrix {
	p.mu.Lock()
	defer p.mu.Unlock()

	matrix := models.NewCostMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			matrix[i][j] = 1 + p.rng.Float64()*(p.max-1)
		}
	}
	return matrix
}

// RandomMatrix is a convenience for tests and benchmarks
func RandomMatrix(n int, seed uint64) models.CostMatrix {
	return NewRandomProvider(seed, 1000).(*randomProvider).Matrix(n)
}
