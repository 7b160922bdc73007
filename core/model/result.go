package model

import "fmt"

// ConstraintKind identifies a family of model constraints.
type ConstraintKind int

const (
	ConHourlyBalance ConstraintKind = iota
	ConTotalLoadMin
	ConTotalLoadMax
	ConSOCDynamics
	ConSOCFinal
	ConImportExcl
	ConExportExcl
	ConChargeExcl
	ConDischargeExcl
	ConChargeCap
	ConDischargeCap
	ConSOCCap
	ConSOCFloor
)

var constraintNames = map[ConstraintKind]string{
	ConHourlyBalance: "hourly_balance",
	ConTotalLoadMin:  "total_load_min",
	ConTotalLoadMax:  "total_load_max",
	ConSOCDynamics:   "soc_dynamics",
	ConSOCFinal:      "soc_final",
	ConImportExcl:    "import_excl",
	ConExportExcl:    "export_excl",
	ConChargeExcl:    "charge_excl",
	ConDischargeExcl: "discharge_excl",
	ConChargeCap:     "charge_cap",
	ConDischargeCap:  "discharge_cap",
	ConSOCCap:        "soc_cap",
	ConSOCFloor:      "soc_floor",
}

func (k ConstraintKind) String() string {
	if n, ok := constraintNames[k]; ok {
		return n
	}
	return "unknown"
}

// ConstraintKey identifies a single constraint row. Hour is -1 for
// horizon-wide constraints.
type ConstraintKey struct {
	Kind ConstraintKind
	Hour int
}

// String renders the flat constraint name used in text exports, e.g.
// "hourly_balance_7" or "total_load_min".
func (k ConstraintKey) String() string {
	if k.Hour < 0 {
		return k.Kind.String()
	}
	return fmt.Sprintf("%s_%d", k.Kind, k.Hour)
}

// Timeseries names exposed in Result.Series.
const (
	SeriesImport      = "p_import"
	SeriesExport      = "p_export"
	SeriesLoad        = "p_load"
	SeriesPVActual    = "p_pv_actual"
	SeriesCharge      = "p_bat_charge"
	SeriesDischarge   = "p_bat_discharge"
	SeriesSOC         = "soc"
	SeriesSOCNormal   = "soc_normal"
	SeriesCurtailment = "p_curtailment"
	SeriesImportSel   = "y"
	SeriesChargeSel   = "z"
)

// Result is the immutable outcome of one solved scenario.
type Result struct {
	Scenario string
	Variant  Variant
	// Series maps a variable name to its hourly values.
	Series map[string][]float64
	// BatteryCapacityKWh is the nameplate capacity, or the solved capacity
	// in the sizing variant.
	BatteryCapacityKWh float64
	// Objective is the raw solver objective, including penalty, discomfort
	// and investment terms.
	Objective float64
	// ActualProfit is the cash-flow profit from grid exchanges only.
	ActualProfit float64
	// Duals holds the shadow price of every named constraint.
	Duals map[ConstraintKey]float64
}
