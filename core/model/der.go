package model

import "fmt"

// DER describes the local PV production unit.
type DER struct {
	// ProfileRatio is the hourly availability of the PV unit in [0,1].
	ProfileRatio []float64
	// MaxPowerKW is the nameplate PV capacity.
	MaxPowerKW float64
}

// AvailableKW returns the maximum PV power available at hour t.
func (d DER) AvailableKW(t int) float64 {
	return d.MaxPowerKW * d.ProfileRatio[t]
}

// Validate checks the availability profile against the horizon length.
func (d DER) Validate(numHours int) error {
	if len(d.ProfileRatio) != numHours {
		return fmt.Errorf("PV profile has %d entries, want %d", len(d.ProfileRatio), numHours)
	}
	if d.MaxPowerKW < 0 {
		return fmt.Errorf("PV capacity must be non-negative")
	}
	for t, r := range d.ProfileRatio {
		if r < 0 || r > 1 {
			return fmt.Errorf("PV availability ratio %.3f at hour %d outside [0,1]", r, t)
		}
	}
	return nil
}
