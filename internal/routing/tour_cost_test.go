package routing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"tour-planner/internal/models"
)

func triangleMatrix() models.CostMatrix {
	return models.CostMatrix{
		{0, 5, 5},
		{5, 0, 5},
		{5, 5, 0},
	}
}

func TestTourCost_OpenTourCountsEveryLeg(t *testing.T) {
	opts := models.DefaultRouteOptions()
	assert.Equal(t, 10.0, TourCost([]int{0, 1, 2}, triangleMatrix(), opts))
	assert.Equal(t, 10.0, TourCost([]int{0, 2, 1}, triangleMatrix(), opts))
}

func TestTourCost_ClosedLoopAddsReturnLeg(t *testing.T) {
	opts := models.DefaultRouteOptions()
	opts.IsClosedLoop = true
	assert.Equal(t, 15.0, TourCost([]int{0, 1, 2}, triangleMatrix(), opts))
}

func TestTourCost_Asymmetric(t *testing.T) {
	m := models.CostMatrix{
		{0, 1, 9},
		{7, 0, 2},
		{3, 8, 0},
	}
	opts := models.DefaultRouteOptions()

	assert.Equal(t, 3.0, TourCost([]int{0, 1, 2}, m, opts))
	assert.Equal(t, 17.0, TourCost([]int{0, 2, 1}, m, opts))

	opts.IsClosedLoop = true
	assert.Equal(t, 6.0, TourCost([]int{0, 1, 2}, m, opts))
}

func TestTourCost_ShortTours(t *testing.T) {
	opts := models.DefaultRouteOptions()
	opts.IsClosedLoop = true
	assert.Equal(t, 0.0, TourCost([]int{}, triangleMatrix(), opts))
	assert.Equal(t, 0.0, TourCost([]int{1}, triangleMatrix(), opts))
}

func TestTourCost_Unreachable(t *testing.T) {
	m := triangleMatrix()
	m[1][2] = models.Unreachable()

	cost := TourCost([]int{0, 1, 2}, m, models.DefaultRouteOptions())
	assert.True(t, math.IsInf(cost, 1))

	assert.Equal(t, 10.0, TourCost([]int{0, 2, 1}, m, models.DefaultRouteOptions()))
}

func TestLegCosts(t *testing.T) {
	m := models.CostMatrix{
		{0, 1, 9},
		{7, 0, 2},
		{3, models.Unreachable(), 0},
	}
	opts := models.DefaultRouteOptions()
	opts.IsClosedLoop = true

	legs := LegCosts([]int{0, 1, 2}, m, opts)
	assert.Equal(t, []models.Leg{
		{From: 0, To: 1, Cost: 1, CumulativeCost: 1, Reachable: true},
		{From: 1, To: 2, Cost: 2, CumulativeCost: 3, Reachable: true},
		{From: 2, To: 0, Cost: 3, CumulativeCost: 6, Reachable: true},
	}, legs)

	legs = LegCosts([]int{0, 2, 1}, m, models.DefaultRouteOptions())
	assert.Len(t, legs, 2)
	assert.False(t, legs[1].Reachable)

	assert.Empty(t, LegCosts([]int{0}, m, opts))
}
