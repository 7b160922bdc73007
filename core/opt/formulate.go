package opt

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/energinet-labs/prosumer/core/model"
)

// DefaultEpsilon is the objective penalty on the exclusivity selectors. It
// is small enough not to distort dispatch profit yet breaks ties toward
// zero simultaneous import/export and charge/discharge.
const DefaultEpsilon = 1e-4

// DefaultMaxCapacityKWh bounds the Big-M rows of the sizing variant.
const DefaultMaxCapacityKWh = 1000

// Options configures the formulation of one scenario.
type Options struct {
	Variant  model.Variant
	NumHours int
	// VaryTariff perturbs each hourly import/export tariff once, before
	// construction, by a factor drawn from the supplied random source.
	VaryTariff bool
	// FixedDA replaces the whole day-ahead price series with a constant.
	FixedDA *float64
	// Epsilon overrides DefaultEpsilon when positive.
	Epsilon float64
	// MaxCapacityKWh overrides DefaultMaxCapacityKWh when positive. Only
	// the sizing variant reads it.
	MaxCapacityKWh float64
}

func (o Options) epsilon() float64 {
	if o.Epsilon > 0 {
		return o.Epsilon
	}
	return DefaultEpsilon
}

func (o Options) maxCapacity() float64 {
	if o.MaxCapacityKWh > 0 {
		return o.MaxCapacityKWh
	}
	return DefaultMaxCapacityKWh
}

// Formulation is one scenario's model instance: the problem plus the
// variable layout and effective price series needed for extraction.
type Formulation struct {
	Problem *Problem

	consumer model.Consumer
	der      model.DER
	variant  model.Variant

	// Effective series after perturbation and overrides.
	importTariff []float64
	exportTariff []float64
	daPrice      []float64

	imp, exp, load, pv []int
	ysel, zsel         []int
	charge, discharge  []int
	soc                []int
	capVar             int
}

// Formulate builds the optimization problem for one (variant, scenario)
// pair. The entities must already be scenario-scaled and validated. rng is
// only consulted when VaryTariff is set; passing it explicitly keeps
// scenario solves reproducible under a caller-chosen seed.
func Formulate(consumer model.Consumer, der model.DER, grid model.Grid, o Options, rng *rand.Rand) (*Formulation, error) {
	n := o.NumHours
	if n <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", n)
	}
	if err := consumer.Validate(n); err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}
	if err := der.Validate(n); err != nil {
		return nil, fmt.Errorf("DER: %w", err)
	}
	if err := grid.Validate(n); err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	if o.VaryTariff && rng == nil {
		return nil, errors.New("tariff variation requires a random source")
	}

	f := &Formulation{
		Problem:  &Problem{Maximize: true},
		consumer: consumer,
		der:      der,
		variant:  o.Variant,

		importTariff: effectiveTariff(grid.ImportTariff, o.VaryTariff, rng),
		exportTariff: effectiveTariff(grid.ExportTariff, o.VaryTariff, rng),
		daPrice:      effectivePrice(grid.EnergyPrice, o.FixedDA),
	}

	f.addVariables(grid, o)
	f.addObjective(o)
	f.addConstraints(grid, o)
	return f, nil
}

// effectiveTariff copies the series, applying a ±20% multiplicative
// perturbation per hour when vary is set.
func effectiveTariff(series []float64, vary bool, rng *rand.Rand) []float64 {
	out := make([]float64, len(series))
	for t, v := range series {
		if vary {
			v *= 0.8 + 0.4*rng.Float64()
		}
		out[t] = v
	}
	return out
}

func effectivePrice(series []float64, fixed *float64) []float64 {
	out := make([]float64, len(series))
	for t, v := range series {
		if fixed != nil {
			v = *fixed
		}
		out[t] = v
	}
	return out
}

func (f *Formulation) addVariables(grid model.Grid, o Options) {
	n := o.NumHours
	p := f.Problem
	s := f.consumer.Storage

	// Battery capacity first: hourly bounds depend on it in the fixed
	// variants.
	if o.Variant.SizesBattery() {
		f.capVar = p.AddVar("p_bat_cap", 0, math.Inf(1))
	} else {
		f.capVar = p.AddVar("p_bat_cap", s.CapacityKWh, s.CapacityKWh)
	}
	chargeCap, dischargeCap, socCap := f.hourlyCaps(o)

	f.imp = make([]int, n)
	f.exp = make([]int, n)
	f.load = make([]int, n)
	f.pv = make([]int, n)
	f.ysel = make([]int, n)
	f.zsel = make([]int, n)
	f.charge = make([]int, n)
	f.discharge = make([]int, n)
	f.soc = make([]int, n)

	socLower := s.MinSOC * s.CapacityKWh
	if o.Variant.SizesBattery() {
		// The floor scales with the capacity variable via ConSOCFloor rows.
		socLower = 0
	}
	for t := 0; t < n; t++ {
		f.imp[t] = p.AddVar(fmt.Sprintf("p_import_%d", t), 0, grid.MaxImportKW)
		f.exp[t] = p.AddVar(fmt.Sprintf("p_export_%d", t), 0, grid.MaxExportKW)
		f.load[t] = p.AddVar(fmt.Sprintf("p_load_%d", t), 0, f.consumer.MaxLoadPerHour[t])
		f.pv[t] = p.AddVar(fmt.Sprintf("p_pv_actual_%d", t), 0, f.der.AvailableKW(t))
		f.ysel[t] = p.AddVar(fmt.Sprintf("y_%d", t), 0, 1)
		f.zsel[t] = p.AddVar(fmt.Sprintf("z_%d", t), 0, 1)
		f.charge[t] = p.AddVar(fmt.Sprintf("p_bat_charge_%d", t), 0, chargeCap)
		f.discharge[t] = p.AddVar(fmt.Sprintf("p_bat_discharge_%d", t), 0, dischargeCap)
		f.soc[t] = p.AddVar(fmt.Sprintf("soc_%d", t), socLower, socCap)
	}
}

// hourlyCaps returns the box bounds for charge, discharge and SOC. In the
// sizing variant they stretch to the capacity search bound; the real
// coupling to p_bat_cap is enforced by dedicated rows.
func (f *Formulation) hourlyCaps(o Options) (chargeCap, dischargeCap, socCap float64) {
	s := f.consumer.Storage
	capKWh := s.CapacityKWh
	if o.Variant.SizesBattery() {
		capKWh = o.maxCapacity()
	}
	return s.MaxChargeKW(capKWh), s.MaxDischargeKW(capKWh), capKWh
}

func (f *Formulation) addObjective(o Options) {
	p := f.Problem
	eps := o.epsilon()
	for t := 0; t < o.NumHours; t++ {
		p.Obj[f.exp[t]] = f.exportTariff[t] + f.daPrice[t]
		p.Obj[f.imp[t]] = -(f.importTariff[t] + f.daPrice[t])
		p.Obj[f.ysel[t]] = -eps
		p.Obj[f.zsel[t]] = -eps
	}
	if o.Variant.PenalizesDeviation() && f.consumer.DiscomfortCost > 0 {
		for t := 0; t < o.NumHours; t++ {
			p.Quad = append(p.Quad, QuadTerm{
				Var:    f.load[t],
				Coef:   -f.consumer.DiscomfortCost,
				Center: f.consumer.ReferenceProfile[t],
			})
		}
	}
	if o.Variant.SizesBattery() {
		p.Obj[f.capVar] = -f.consumer.BatteryPriceDKKPerKWh
	}
}

func (f *Formulation) addConstraints(grid model.Grid, o Options) {
	n := o.NumHours
	p := f.Problem
	s := f.consumer.Storage
	sizing := o.Variant.SizesBattery()
	chargeCap, dischargeCap, _ := f.hourlyCaps(o)

	// Hourly energy balance: import + pv + discharge = load + export + charge.
	for t := 0; t < n; t++ {
		p.AddCon(model.ConstraintKey{Kind: model.ConHourlyBalance, Hour: t}, EQ, 0,
			Term{f.imp[t], 1}, Term{f.pv[t], 1}, Term{f.discharge[t], 1},
			Term{f.load[t], -1}, Term{f.exp[t], -1}, Term{f.charge[t], -1},
		)
	}

	// Total served energy within the usage preference bounds.
	minTerms := make([]Term, n)
	maxTerms := make([]Term, n)
	for t := 0; t < n; t++ {
		minTerms[t] = Term{f.load[t], 1}
		maxTerms[t] = Term{f.load[t], 1}
	}
	p.AddCon(model.ConstraintKey{Kind: model.ConTotalLoadMin, Hour: -1}, GE, f.consumer.MinTotalEnergy, minTerms...)
	p.AddCon(model.ConstraintKey{Kind: model.ConTotalLoadMax, Hour: -1}, LE, f.consumer.MaxTotalEnergy, maxTerms...)

	// SOC dynamics with charge/discharge efficiencies. The configured
	// initial SOC is the pre-horizon state.
	for t := 0; t < n; t++ {
		terms := []Term{
			{f.soc[t], 1},
			{f.charge[t], -s.ChargeEfficiency},
			{f.discharge[t], 1 / s.DischargeEfficiency},
		}
		rhs := 0.0
		if t == 0 {
			if sizing {
				terms = append(terms, Term{f.capVar, -s.InitialSOC})
			} else {
				rhs = s.InitialSOC * s.CapacityKWh
			}
		} else {
			terms = append(terms, Term{f.soc[t-1], -1})
		}
		p.AddCon(model.ConstraintKey{Kind: model.ConSOCDynamics, Hour: t}, EQ, rhs, terms...)
	}

	// End-of-horizon SOC target.
	finalSense := EQ
	if s.FinalSOCIsMinimum {
		finalSense = GE
	}
	if sizing {
		p.AddCon(model.ConstraintKey{Kind: model.ConSOCFinal, Hour: -1}, finalSense, 0,
			Term{f.soc[n-1], 1}, Term{f.capVar, -s.FinalSOC})
	} else {
		p.AddCon(model.ConstraintKey{Kind: model.ConSOCFinal, Hour: -1}, finalSense, s.FinalSOC*s.CapacityKWh,
			Term{f.soc[n-1], 1})
	}

	// Big-M exclusivity on import/export and charge/discharge. The
	// selectors stay continuous in [0,1]; the objective penalty keeps them
	// at their bounds.
	for t := 0; t < n; t++ {
		p.AddCon(model.ConstraintKey{Kind: model.ConImportExcl, Hour: t}, LE, 0,
			Term{f.imp[t], 1}, Term{f.ysel[t], -grid.MaxImportKW})
		p.AddCon(model.ConstraintKey{Kind: model.ConExportExcl, Hour: t}, LE, grid.MaxExportKW,
			Term{f.exp[t], 1}, Term{f.ysel[t], grid.MaxExportKW})
		p.AddCon(model.ConstraintKey{Kind: model.ConChargeExcl, Hour: t}, LE, 0,
			Term{f.charge[t], 1}, Term{f.zsel[t], -chargeCap})
		p.AddCon(model.ConstraintKey{Kind: model.ConDischargeExcl, Hour: t}, LE, dischargeCap,
			Term{f.discharge[t], 1}, Term{f.zsel[t], dischargeCap})
	}

	// Sizing variant: power and SOC limits scale with the capacity
	// decision instead of a nameplate constant.
	if sizing {
		for t := 0; t < n; t++ {
			p.AddCon(model.ConstraintKey{Kind: model.ConChargeCap, Hour: t}, LE, 0,
				Term{f.charge[t], 1}, Term{f.capVar, -s.ChargeRatio})
			p.AddCon(model.ConstraintKey{Kind: model.ConDischargeCap, Hour: t}, LE, 0,
				Term{f.discharge[t], 1}, Term{f.capVar, -s.DischargeRatio})
			p.AddCon(model.ConstraintKey{Kind: model.ConSOCCap, Hour: t}, LE, 0,
				Term{f.soc[t], 1}, Term{f.capVar, -1})
			p.AddCon(model.ConstraintKey{Kind: model.ConSOCFloor, Hour: t}, GE, 0,
				Term{f.soc[t], 1}, Term{f.capVar, -s.MinSOC})
		}
	}
}
