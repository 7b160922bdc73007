package opt

import (
	"fmt"

	"github.com/energinet-labs/prosumer/core/model"
)

// Extract converts a solved formulation into an immutable Result. It must
// only be called after an optimal solve.
func (f *Formulation) Extract(scenario string, sol *Solution) (*model.Result, error) {
	if sol == nil || len(sol.Values) != len(f.Problem.Vars) {
		return nil, fmt.Errorf("solution does not match formulation")
	}
	n := len(f.imp)

	series := func(idx []int, clampNonNeg bool) []float64 {
		out := make([]float64, n)
		for t, v := range idx {
			val := sol.Values[v]
			if clampNonNeg && val < 0 {
				val = 0
			}
			out[t] = val
		}
		return out
	}

	capacity := f.consumer.Storage.CapacityKWh
	if f.variant.SizesBattery() {
		capacity = sol.Values[f.capVar]
		if capacity < 0 {
			capacity = 0
		}
	}

	imp := series(f.imp, true)
	exp := series(f.exp, true)
	pv := series(f.pv, true)
	soc := series(f.soc, false)

	curtailment := make([]float64, n)
	socNormal := make([]float64, n)
	for t := 0; t < n; t++ {
		curtailment[t] = f.der.AvailableKW(t) - pv[t]
		if curtailment[t] < 0 {
			curtailment[t] = 0
		}
		if capacity > 0 {
			socNormal[t] = soc[t] / capacity
		}
	}

	// True cash-flow profit: grid exchanges only, no penalty, discomfort
	// or investment terms.
	profit := 0.0
	for t := 0; t < n; t++ {
		profit += (f.exportTariff[t]+f.daPrice[t])*exp[t] - (f.importTariff[t]+f.daPrice[t])*imp[t]
	}

	duals := make(map[model.ConstraintKey]float64, len(sol.Duals))
	for k, v := range sol.Duals {
		duals[k] = v
	}

	return &model.Result{
		Scenario: scenario,
		Variant:  f.variant,
		Series: map[string][]float64{
			model.SeriesImport:      imp,
			model.SeriesExport:      exp,
			model.SeriesLoad:        series(f.load, true),
			model.SeriesPVActual:    pv,
			model.SeriesCharge:      series(f.charge, true),
			model.SeriesDischarge:   series(f.discharge, true),
			model.SeriesSOC:         soc,
			model.SeriesSOCNormal:   socNormal,
			model.SeriesCurtailment: curtailment,
			model.SeriesImportSel:   series(f.ysel, true),
			model.SeriesChargeSel:   series(f.zsel, true),
		},
		BatteryCapacityKWh: capacity,
		Objective:          sol.Objective,
		ActualProfit:       profit,
		Duals:              duals,
	}, nil
}
