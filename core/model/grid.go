package model

import "fmt"

// Grid describes the connection to the distribution grid and the market
// prices seen by the prosumer. All series are in DKK/kWh per hour.
type Grid struct {
	ImportTariff []float64
	ExportTariff []float64
	// EnergyPrice is the day-ahead wholesale price.
	EnergyPrice []float64
	MaxImportKW  float64
	MaxExportKW  float64
}

// Validate checks series lengths and sign conventions.
func (g Grid) Validate(numHours int) error {
	for name, series := range map[string][]float64{
		"import tariff": g.ImportTariff,
		"export tariff": g.ExportTariff,
		"energy price":  g.EnergyPrice,
	} {
		if len(series) != numHours {
			return fmt.Errorf("%s has %d entries, want %d", name, len(series), numHours)
		}
		for t, v := range series {
			if v < 0 {
				return fmt.Errorf("%s is negative (%.3f) at hour %d", name, v, t)
			}
		}
	}
	if g.MaxImportKW < 0 || g.MaxExportKW < 0 {
		return fmt.Errorf("grid power limits must be non-negative")
	}
	return nil
}
