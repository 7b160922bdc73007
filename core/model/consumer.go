package model

import "fmt"

// Storage holds the battery parameters of a consumer. All SOC ratios are
// expressed as fractions of the usable capacity.
type Storage struct {
	CapacityKWh         float64
	ChargeEfficiency    float64
	DischargeEfficiency float64
	// ChargeRatio and DischargeRatio bound the hourly charge and discharge
	// power as a fraction of the capacity.
	ChargeRatio    float64
	DischargeRatio float64
	InitialSOC     float64
	MinSOC         float64
	FinalSOC       float64
	// FinalSOCIsMinimum relaxes the end-of-horizon SOC target from an
	// equality to a lower bound.
	FinalSOCIsMinimum bool
}

// MaxChargeKW returns the hourly charge power limit for the given capacity.
func (s Storage) MaxChargeKW(capacityKWh float64) float64 {
	return s.ChargeRatio * capacityKWh
}

// MaxDischargeKW returns the hourly discharge power limit for the given capacity.
func (s Storage) MaxDischargeKW(capacityKWh float64) float64 {
	return s.DischargeRatio * capacityKWh
}

// Consumer describes the flexible load and the battery of the prosumer after
// scenario scaling has been applied. Hourly series have one entry per hour
// of the optimization horizon.
type Consumer struct {
	// ReferenceProfile is the preferred consumption in kWh per hour.
	ReferenceProfile []float64
	// MaxLoadPerHour caps the served load in kWh per hour.
	MaxLoadPerHour []float64
	// MinTotalEnergy and MaxTotalEnergy bound the total energy served over
	// the horizon in hour-equivalent kWh.
	MinTotalEnergy float64
	MaxTotalEnergy float64
	// DiscomfortCost weights the squared deviation from the reference
	// profile in the discomfort objective, DKK per kWh².
	DiscomfortCost float64
	// BatteryPriceDKKPerKWh penalizes installed capacity in the sizing
	// objective.
	BatteryPriceDKKPerKWh float64
	Storage               Storage
}

// Validate checks consistency of the consumer against the horizon length.
func (c Consumer) Validate(numHours int) error {
	if len(c.ReferenceProfile) != numHours {
		return fmt.Errorf("reference profile has %d entries, want %d", len(c.ReferenceProfile), numHours)
	}
	if len(c.MaxLoadPerHour) != numHours {
		return fmt.Errorf("max load series has %d entries, want %d", len(c.MaxLoadPerHour), numHours)
	}
	if c.MinTotalEnergy > c.MaxTotalEnergy {
		return fmt.Errorf("min total energy %.3f exceeds max %.3f", c.MinTotalEnergy, c.MaxTotalEnergy)
	}
	if c.DiscomfortCost < 0 {
		return fmt.Errorf("discomfort cost must be non-negative")
	}
	s := c.Storage
	if s.CapacityKWh < 0 {
		return fmt.Errorf("storage capacity must be non-negative")
	}
	if s.ChargeEfficiency <= 0 || s.ChargeEfficiency > 1 {
		return fmt.Errorf("charge efficiency %.3f outside (0,1]", s.ChargeEfficiency)
	}
	if s.DischargeEfficiency <= 0 || s.DischargeEfficiency > 1 {
		return fmt.Errorf("discharge efficiency %.3f outside (0,1]", s.DischargeEfficiency)
	}
	for _, soc := range []float64{s.InitialSOC, s.MinSOC, s.FinalSOC} {
		if soc < 0 || soc > 1 {
			return fmt.Errorf("soc ratio %.3f outside [0,1]", soc)
		}
	}
	if s.ChargeRatio < 0 || s.DischargeRatio < 0 {
		return fmt.Errorf("charge and discharge power ratios must be non-negative")
	}
	return nil
}
