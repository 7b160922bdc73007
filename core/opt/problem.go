package opt

import (
	"github.com/energinet-labs/prosumer/core/model"
)

// Sense is the direction of a constraint row.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

// Variable is a bounded decision variable. Upper may be +Inf.
type Variable struct {
	Name  string
	Lower float64
	Upper float64
}

// Term is one linear coefficient of a constraint row.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is a named linear row.
type Constraint struct {
	Key   model.ConstraintKey
	Terms []Term
	Sense Sense
	RHS   float64
}

// QuadTerm contributes Coef·(x−Center)² to the objective. The solver only
// accepts convex contributions, i.e. Coef ≥ 0 when minimizing.
type QuadTerm struct {
	Var    int
	Coef   float64
	Center float64
}

// Problem is a boxed LP/QP in natural form. It is built once per scenario
// and owns no state after the solve.
type Problem struct {
	Maximize bool
	Vars     []Variable
	// Obj holds the linear objective coefficient per variable.
	Obj []float64
	// Quad holds separable quadratic objective contributions.
	Quad []QuadTerm
	Cons []Constraint
}

// AddVar appends a bounded variable and returns its index.
func (p *Problem) AddVar(name string, lower, upper float64) int {
	p.Vars = append(p.Vars, Variable{Name: name, Lower: lower, Upper: upper})
	p.Obj = append(p.Obj, 0)
	return len(p.Vars) - 1
}

// AddCon appends a constraint row.
func (p *Problem) AddCon(key model.ConstraintKey, sense Sense, rhs float64, terms ...Term) {
	p.Cons = append(p.Cons, Constraint{Key: key, Terms: terms, Sense: sense, RHS: rhs})
}

// Solution carries the solver output for one problem.
type Solution struct {
	// Values holds one entry per Problem variable.
	Values []float64
	// Objective is in the problem's own sense (maximized problems report
	// the maximum).
	Objective float64
	// Duals maps each named constraint to its shadow price with respect to
	// the problem's own sense. Nil when dual extraction failed.
	Duals map[model.ConstraintKey]float64
}
