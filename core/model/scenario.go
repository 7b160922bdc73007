package model

// Scenario is a named set of multiplicative scaling factors applied to the
// base entity parameters before model construction. Keys that are absent
// default to a factor of 1. A handful of keys are absolute overrides rather
// than multipliers; those are looked up through Override.
type Scenario struct {
	Name    string
	Factors map[string]float64
}

// Factor returns the multiplier for key, defaulting to 1 when unset.
func (s Scenario) Factor(key string) float64 {
	if v, ok := s.Factors[key]; ok {
		return v
	}
	return 1
}

// Override returns the raw value for key and whether it was present.
func (s Scenario) Override(key string) (float64, bool) {
	v, ok := s.Factors[key]
	return v, ok
}
