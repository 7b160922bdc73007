package inputs

import (
	"encoding/json"
	"fmt"
)

// FloatOrSeries accepts either a single number or an hourly array in the
// parameter files. A scalar is broadcast to the horizon length on demand.
type FloatOrSeries struct {
	scalar *float64
	series []float64
}

// Scalar returns a FloatOrSeries holding a single broadcastable value.
func Scalar(v float64) FloatOrSeries {
	return FloatOrSeries{scalar: &v}
}

// Series returns a FloatOrSeries holding explicit hourly values.
func Series(vs ...float64) FloatOrSeries {
	return FloatOrSeries{series: vs}
}

// UnmarshalJSON accepts a JSON number or a JSON array of numbers.
func (f *FloatOrSeries) UnmarshalJSON(b []byte) error {
	var scalar float64
	if err := json.Unmarshal(b, &scalar); err == nil {
		f.scalar = &scalar
		f.series = nil
		return nil
	}
	var series []float64
	if err := json.Unmarshal(b, &series); err != nil {
		return fmt.Errorf("value must be a number or an array of numbers")
	}
	f.scalar = nil
	f.series = series
	return nil
}

// MarshalJSON mirrors UnmarshalJSON.
func (f FloatOrSeries) MarshalJSON() ([]byte, error) {
	if f.scalar != nil {
		return json.Marshal(*f.scalar)
	}
	return json.Marshal(f.series)
}

// IsSet reports whether any value was provided.
func (f FloatOrSeries) IsSet() bool { return f.scalar != nil || f.series != nil }

// Hourly expands the value to numHours entries. A declared array whose
// length disagrees with the horizon is a ConfigurationError, as is an
// absent value.
func (f FloatOrSeries) Hourly(field string, numHours int) ([]float64, error) {
	switch {
	case f.scalar != nil:
		out := make([]float64, numHours)
		for t := range out {
			out[t] = *f.scalar
		}
		return out, nil
	case f.series != nil:
		if len(f.series) != numHours {
			return nil, configErr(field, "has %d entries, want %d", len(f.series), numHours)
		}
		out := make([]float64, numHours)
		copy(out, f.series)
		return out, nil
	default:
		return nil, configErr(field, "required value is missing")
	}
}

// BusParams holds the grid-connection section of a question's data. JSON
// tags match the parameter files verbatim, units included.
type BusParams struct {
	ImportTariff FloatOrSeries `json:"import_tariff_DKK/kWh"`
	ExportTariff FloatOrSeries `json:"export_tariff_DKK/kWh"`
	EnergyPrice  FloatOrSeries `json:"energy_price_DKK_per_kWh"`
	MaxImportKW  *float64      `json:"max_import_kW"`
	MaxExportKW  *float64      `json:"max_export_kW"`
}

// LoadParams describes the flexible load appliance.
type LoadParams struct {
	MaxLoadPerHour FloatOrSeries `json:"max_load_kWh_per_hour"`
}

// StorageParams describes the battery appliance. Efficiencies and power
// ratios default to 1, SOC ratios to 0, when omitted.
type StorageParams struct {
	CapacityKWh         *float64 `json:"storage_capacity_kWh"`
	ChargeRatio         *float64 `json:"max_charging_power_ratio"`
	DischargeRatio      *float64 `json:"max_discharging_power_ratio"`
	ChargeEfficiency    *float64 `json:"charging_efficiency"`
	DischargeEfficiency *float64 `json:"discharging_efficiency"`
	InitialSOC          *float64 `json:"initial_soc_ratio"`
	MinSOC              *float64 `json:"min_soc_ratio"`
	FinalSOC            *float64 `json:"final_soc_ratio"`
	FinalSOCIsMinimum   bool     `json:"final_soc_is_minimum"`
	BatteryPrice        *float64 `json:"battery_price_DKK_per_kWh"`
}

// DERParams describes the PV appliance.
type DERParams struct {
	MaxPowerKW *float64 `json:"max_power_kW"`
}

// ApplianceParams groups the appliance sections.
type ApplianceParams struct {
	Load    []LoadParams    `json:"load"`
	DER     []DERParams     `json:"DER"`
	Storage []StorageParams `json:"storage"`
}

// DERProduction holds the hourly PV availability.
type DERProduction struct {
	HourlyProfileRatio FloatOrSeries `json:"hourly_profile_ratio"`
}

// LoadPreferences holds the usage preferences of the flexible load.
type LoadPreferences struct {
	MinTotalEnergy   *float64      `json:"min_total_energy_per_day_hour_equivalent"`
	MaxTotalEnergy   *float64      `json:"max_total_energy_per_day_hour_equivalent"`
	ReferenceProfile FloatOrSeries `json:"reference_profile_kWh_per_hour"`
	DiscomfortCost   *float64      `json:"discomfort_cost_per_kWh"`
}

// UsagePreference wraps the per-load preferences.
type UsagePreference struct {
	LoadPreferences []LoadPreferences `json:"load_preferences"`
}

// QuestionData is the merged content of a question's parameter files.
type QuestionData struct {
	BusParams       []BusParams       `json:"bus_params"`
	ApplianceParams ApplianceParams   `json:"appliance_params"`
	DERProduction   []DERProduction   `json:"DER_production"`
	UsagePreference []UsagePreference `json:"usage_preference"`
}

func orDefault(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}
