package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/energinet-labs/prosumer/core/opt"
)

// ErrInfeasible indicates the model admits no feasible solution.
var ErrInfeasible = errors.New("model infeasible")

// SolverError reports any termination that is neither optimal nor a proven
// infeasibility.
type SolverError struct {
	Status string
	Err    error
}

func (e *SolverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("solver failed (%s): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("solver failed (%s)", e.Status)
}

func (e *SolverError) Unwrap() error { return e.Err }

// Solver is the solve oracle: one call per scenario, returning variable
// values, duals per named constraint and the objective, or a failure.
type Solver interface {
	Solve(ctx context.Context, p *opt.Problem) (*opt.Solution, error)
}

// Config tunes the bundled simplex backend.
type Config struct {
	// Tol is the pivot tolerance passed to the simplex method.
	Tol float64 `json:"tol"`
	// Segments is the piecewise-linearization resolution for quadratic
	// objective terms.
	Segments int `json:"segments"`
}

// SetDefaults applies the default tolerance and segment count.
func (c *Config) SetDefaults() {
	if c.Tol == 0 {
		c.Tol = 1e-7
	}
	if c.Segments == 0 {
		c.Segments = 16
	}
}

// Validate checks the tuning parameters.
func (c Config) Validate() error {
	if c.Tol < 0 {
		return fmt.Errorf("tol must be non-negative")
	}
	if c.Segments < 0 {
		return fmt.Errorf("segments must be non-negative")
	}
	return nil
}
