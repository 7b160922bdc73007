package solver

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/energinet-labs/prosumer/core/model"
	"github.com/energinet-labs/prosumer/core/opt"
)

// Simplex solves boxed LP/QP problems with gonum's dense simplex method.
// Separable convex quadratic objective terms are replaced by an increasing
// piecewise-linear approximation before the solve; duals are obtained by
// solving the explicit dual of the standard-form program.
type Simplex struct {
	cfg Config
}

// NewSimplex returns a backend with defaults applied to cfg.
func NewSimplex(cfg Config) *Simplex {
	cfg.SetDefaults()
	return &Simplex{cfg: cfg}
}

// simplexSolve points to the LP routine. Tests override it to simulate
// solver failures.
var simplexSolve = lp.Simplex

// Solve implements the Solver interface.
func (s *Simplex) Solve(ctx context.Context, p *opt.Problem) (*opt.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ln, err := linearize(p, s.cfg.Segments)
	if err != nil {
		return nil, err
	}
	std := ln.standardForm()
	if std.m == 0 || std.n == 0 {
		return solveDegenerate(ln, std)
	}

	optF, z, err := simplexSolve(std.c, mat.NewDense(std.m, std.n, std.a), std.b, s.cfg.Tol, nil)
	if err != nil {
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return nil, ErrInfeasible
		case errors.Is(err, lp.ErrUnbounded):
			return nil, &SolverError{Status: "unbounded", Err: err}
		default:
			return nil, &SolverError{Status: "numerical_failure", Err: err}
		}
	}

	sol := &opt.Solution{
		Values:    ln.recover(z),
		Objective: ln.objective(optF),
	}
	if duals, ok := std.solveDual(s.cfg.Tol); ok {
		sol.Duals = make(map[model.ConstraintKey]float64, len(ln.rows)+len(ln.dropped))
		sign := 1.0
		if p.Maximize {
			sign = -1
		}
		for i, row := range ln.rows {
			sol.Duals[row.key] = sign * duals[i]
		}
		for _, key := range ln.dropped {
			sol.Duals[key] = 0
		}
	}
	return sol, nil
}

// solveDegenerate handles the empty standard forms the simplex routine
// rejects: no rows (every column unbounded above) or no columns (every
// variable fixed).
func solveDegenerate(ln *linProblem, std *stdProblem) (*opt.Solution, error) {
	if std.n == 0 {
		for _, rhs := range std.b {
			if math.Abs(rhs) > 1e-9 {
				return nil, ErrInfeasible
			}
		}
	} else {
		for _, cost := range std.c {
			if cost < 0 {
				return nil, &SolverError{Status: "unbounded"}
			}
		}
	}
	z := make([]float64, std.n)
	sol := &opt.Solution{
		Values:    ln.recover(z),
		Objective: ln.objective(0),
		Duals:     map[model.ConstraintKey]float64{},
	}
	for _, row := range ln.rows {
		sol.Duals[row.key] = 0
	}
	for _, key := range ln.dropped {
		sol.Duals[key] = 0
	}
	return sol, nil
}

// linProblem is the pure LP left after constant substitution of fixed
// variables and piecewise expansion of quadratic terms. Objective is in
// minimization sense.
type linProblem struct {
	nOrig  int
	fixed  []float64 // value per fixed original variable, NaN otherwise
	cols   []int     // owning original variable per column
	starts []int     // first column per original variable, -1 when fixed
	counts []int     // column count per original variable
	base   []float64 // substituted lower bound per quadratic variable
	lo, hi []float64 // column bounds, hi may be +Inf
	c      []float64
	rows   []linRow
	// dropped holds the keys of rows that collapsed to constants during
	// substitution; they are feasible by construction and carry a 0 dual.
	dropped []model.ConstraintKey
	offset  float64 // constant of the minimized objective
	maxim   bool
}

type linRow struct {
	key   model.ConstraintKey
	terms []opt.Term // indices refer to columns
	sense opt.Sense
	rhs   float64
}

func linearize(p *opt.Problem, segments int) (*linProblem, error) {
	sign := 1.0
	if p.Maximize {
		sign = -1
	}
	if segments <= 0 {
		segments = 1
	}

	quad := make(map[int]opt.QuadTerm, len(p.Quad))
	for _, q := range p.Quad {
		if sign*q.Coef < 0 {
			return nil, &SolverError{Status: "nonconvex_objective"}
		}
		quad[q.Var] = q
	}

	ln := &linProblem{
		nOrig:  len(p.Vars),
		fixed:  make([]float64, len(p.Vars)),
		starts: make([]int, len(p.Vars)),
		counts: make([]int, len(p.Vars)),
		base:   make([]float64, len(p.Vars)),
		maxim:  p.Maximize,
	}
	for i, v := range p.Vars {
		ln.fixed[i] = math.NaN()
		ln.starts[i] = -1
		cost := sign * p.Obj[i]
		q, hasQuad := quad[i]

		switch {
		case v.Upper < v.Lower:
			return nil, ErrInfeasible
		case v.Upper == v.Lower:
			ln.fixed[i] = v.Lower
			ln.offset += cost * v.Lower
			if hasQuad {
				d := v.Lower - q.Center
				ln.offset += sign * q.Coef * d * d
			}
		case hasQuad:
			if math.IsInf(v.Upper, 1) || math.IsInf(v.Lower, -1) {
				return nil, &SolverError{Status: "unbounded_quadratic_variable"}
			}
			// f(x) = cost·x + |q|·(x−center)², split into segments with
			// increasing slopes so the simplex fills them in order.
			qc := sign * q.Coef
			f := func(x float64) float64 {
				d := x - q.Center
				return cost*x + qc*d*d
			}
			width := (v.Upper - v.Lower) / float64(segments)
			ln.starts[i] = len(ln.cols)
			ln.counts[i] = segments
			ln.base[i] = v.Lower
			for k := 0; k < segments; k++ {
				xa := v.Lower + float64(k)*width
				ln.cols = append(ln.cols, i)
				ln.lo = append(ln.lo, 0)
				ln.hi = append(ln.hi, width)
				ln.c = append(ln.c, (f(xa+width)-f(xa))/width)
			}
			ln.offset += f(v.Lower)
		default:
			ln.starts[i] = len(ln.cols)
			ln.counts[i] = 1
			ln.cols = append(ln.cols, i)
			ln.lo = append(ln.lo, v.Lower)
			ln.hi = append(ln.hi, v.Upper)
			ln.c = append(ln.c, cost)
		}
	}

	for _, con := range p.Cons {
		row := linRow{key: con.Key, sense: con.Sense, rhs: con.RHS}
		for _, term := range con.Terms {
			i := term.Var
			switch {
			case !math.IsNaN(ln.fixed[i]):
				row.rhs -= term.Coef * ln.fixed[i]
			case ln.counts[i] == 1:
				row.terms = append(row.terms, opt.Term{Var: ln.starts[i], Coef: term.Coef})
			default:
				// Segment columns measure offsets from the lower bound.
				row.rhs -= term.Coef * p.Vars[i].Lower
				for k := 0; k < ln.counts[i]; k++ {
					row.terms = append(row.terms, opt.Term{Var: ln.starts[i] + k, Coef: term.Coef})
				}
			}
		}
		// Substitution can leave a row without live coefficients, e.g. the
		// SOC rows of a zero-capacity battery. The simplex rejects all-zero
		// rows, so check the residual constant here and drop the row.
		if rowIsConstant(row) {
			if constantRowInfeasible(row) {
				return nil, ErrInfeasible
			}
			ln.dropped = append(ln.dropped, row.key)
			continue
		}
		ln.rows = append(ln.rows, row)
	}
	return ln, nil
}

func rowIsConstant(row linRow) bool {
	for _, term := range row.terms {
		if term.Coef != 0 {
			return false
		}
	}
	return true
}

func constantRowInfeasible(row linRow) bool {
	const tol = 1e-9
	switch row.sense {
	case opt.EQ:
		return math.Abs(row.rhs) > tol
	case opt.LE:
		return row.rhs < -tol
	default: // GE
		return row.rhs > tol
	}
}

// recover maps a standard-form solution vector back to original variables.
func (ln *linProblem) recover(z []float64) []float64 {
	out := make([]float64, ln.nOrig)
	for i := range out {
		if !math.IsNaN(ln.fixed[i]) {
			out[i] = ln.fixed[i]
			continue
		}
		start, count := ln.starts[i], ln.counts[i]
		if count == 1 {
			out[i] = ln.lo[start] + z[start]
			continue
		}
		// Quadratic variable: substituted lower bound plus the filled
		// segment offsets.
		v := ln.base[i]
		for k := 0; k < count; k++ {
			v += z[start+k]
		}
		out[i] = v
	}
	return out
}

// objective reports the optimum in the problem's own sense.
func (ln *linProblem) objective(optF float64) float64 {
	minObj := optF + ln.offset
	if ln.maxim {
		return -minObj
	}
	return minObj
}

// stdProblem is the equality standard form min c·z, A z = b, z ≥ 0.
// Structural rows come first, bound rows after, slack columns last.
type stdProblem struct {
	m, n int
	a    []float64 // row-major m×n
	b    []float64
	c    []float64
	// nStruct is the number of structural rows whose duals are exported.
	nStruct int
}

// standardForm shifts every column to a zero lower bound, materializes
// finite upper bounds as rows and adds slack/surplus columns.
func (ln *linProblem) standardForm() *stdProblem {
	type boundRow struct {
		col int
		ub  float64
	}
	var bounds []boundRow
	for j := range ln.cols {
		if !math.IsInf(ln.hi[j], 1) {
			bounds = append(bounds, boundRow{col: j, ub: ln.hi[j] - ln.lo[j]})
		}
	}

	m := len(ln.rows) + len(bounds)
	// One slack per LE/GE structural row and per bound row.
	slacks := len(bounds)
	for _, row := range ln.rows {
		if row.sense != opt.EQ {
			slacks++
		}
	}
	n := len(ln.cols) + slacks

	std := &stdProblem{m: m, n: n, nStruct: len(ln.rows)}
	std.a = make([]float64, m*n)
	std.b = make([]float64, m)
	std.c = make([]float64, n)
	copy(std.c, ln.c)
	// Shifting z = x − lo adds a constant to the objective.
	for j := range ln.cols {
		ln.offset += ln.c[j] * ln.lo[j]
	}

	slack := len(ln.cols)
	for i, row := range ln.rows {
		rhs := row.rhs
		for _, term := range row.terms {
			std.a[i*n+term.Var] += term.Coef
			rhs -= term.Coef * ln.lo[term.Var]
		}
		std.b[i] = rhs
		switch row.sense {
		case opt.LE:
			std.a[i*n+slack] = 1
			slack++
		case opt.GE:
			std.a[i*n+slack] = -1
			slack++
		}
	}
	for k, br := range bounds {
		i := len(ln.rows) + k
		std.a[i*n+br.col] = 1
		std.a[i*n+slack] = 1
		std.b[i] = br.ub
		slack++
	}
	return std
}

// solveDual solves max b·y s.t. Aᵀy ≤ c with y free, via the same simplex
// routine, and returns the dual value per row. Dual extraction is
// best-effort: a failed dual solve never fails a solved schedule.
func (std *stdProblem) solveDual(tol float64) ([]float64, bool) {
	m, n := std.m, std.n
	// Columns: y⁺ (m), y⁻ (m), slack w (n). Rows: Aᵀy + w = c.
	dn := 2*m + n
	da := make([]float64, n*dn)
	dc := make([]float64, dn)
	db := make([]float64, n)
	for i := 0; i < m; i++ {
		dc[i] = -std.b[i]
		dc[m+i] = std.b[i]
	}
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			v := std.a[i*n+j]
			da[j*dn+i] = v
			da[j*dn+m+i] = -v
		}
		da[j*dn+2*m+j] = 1
		db[j] = std.c[j]
	}
	_, y, err := simplexSolve(dc, mat.NewDense(n, dn, da), db, tol, nil)
	if err != nil {
		return nil, false
	}
	duals := make([]float64, m)
	for i := 0; i < m; i++ {
		duals[i] = y[i] - y[m+i]
	}
	return duals, true
}
