package models

import (
	"fmt"
	"math"
)

// CostMatrix maps (origin index, destination index) to a travel cost.
// Row and column order follows the waypoint list it was fetched for.
type CostMatrix [][]float64

// Unreachable is the sentinel cost for a pair with no route
func Unreachable() float64 {
	return math.Inf(1)
}

// IsUnreachable reports whether a cost is the unreachable sentinel
func IsUnreachable(cost float64) bool {
	return math.IsInf(cost, 1)
}

// NewCostMatrix allocates an n×n zero matrix
func NewCostMatrix(n int) CostMatrix {
	m := make(CostMatrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// Size returns the matrix dimension
func (m CostMatrix) Size() int {
	return len(m)
}

// Validate checks that the matrix is n×n with non-negative, non-NaN entries.
// Diagonal values are ignored.
func (m CostMatrix) Validate(n int) error {
	if len(m) != n {
		return fmt.Errorf("matrix has %d rows, want %d", len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("matrix row %d has %d columns, want %d", i, len(row), n)
		}
		for j, v := range row {
			if i == j {
				continue
			}
			if math.IsNaN(v) {
				return fmt.Errorf("matrix[%d][%d] is NaN", i, j)
			}
			if v < 0 {
				return fmt.Errorf("matrix[%d][%d] is negative: %v", i, j, v)
			}
		}
	}
	return nil
}

// Clone returns a deep copy
func (m CostMatrix) Clone() CostMatrix {
	if m == nil {
		return nil
	}
	out := make(CostMatrix, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Permuted returns a new matrix where out[i][j] = m[pos[i]][pos[j]]
func (m CostMatrix) Permuted(pos []int) CostMatrix {
	out := NewCostMatrix(len(pos))
	for i := range pos {
		for j := range pos {
			out[i][j] = m[pos[i]][pos[j]]
		}
	}
	return out
}
