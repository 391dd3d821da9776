package routing

import (
	"context"
	"errors"
	"fmt"

	"tour-planner/internal/models"
)

// RouteOptimizer orders waypoints to minimize total travel cost
type RouteOptimizer interface {
	Optimize(ctx context.Context, waypoints []models.Waypoint, opts models.RouteOptions) (*models.OptimizationResult, error)
}

// Error kinds surfaced by the optimizer. Match with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrMatrixFetchFailed  = errors.New("matrix fetch failed")
	ErrInfeasibleTour     = errors.New("infeasible tour")
	ErrInvariantViolation = errors.New("tour invariant violated")
)

// InvalidInputError is returned before any external call when waypoints or options are malformed
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MatrixFetchError is returned when the cost matrix provider fails or returns a malformed matrix
type MatrixFetchError struct {
	Reason string
	Err    error
}

func (e *MatrixFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("matrix fetch failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("matrix fetch failed: %s", e.Reason)
}

func (e *MatrixFetchError) Unwrap() error {
	return e.Err
}

func (e *MatrixFetchError) Is(target error) bool {
	return target == ErrMatrixFetchFailed
}

// InfeasibleTourError is returned when the best tour found still crosses an unreachable leg
type InfeasibleTourError struct {
	Tour     []int
	Strategy Strategy
}

func (e *InfeasibleTourError) Error() string {
	return fmt.Sprintf("infeasible tour: the best order found crosses an unreachable leg (strategy=%s)", e.Strategy)
}

func (e *InfeasibleTourError) Is(target error) bool {
	return target == ErrInfeasibleTour
}

// invariantError reports an internal fault such as a stage returning a non-permutation
type invariantError struct {
	stage  Strategy
	reason string
}

func (e *invariantError) Error() string {
	return fmt.Sprintf("tour invariant violated after %s: %s", e.stage, e.reason)
}

func (e *invariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}
