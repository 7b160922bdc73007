package model

import (
	"fmt"
	"strings"
)

// Variant selects the objective terms of the optimization and whether the
// battery capacity is a fixed constant or a sizing decision.
type Variant int

const (
	// VariantBase maximizes plain dispatch profit.
	VariantBase Variant = iota
	// VariantDiscomfort adds a quadratic penalty on deviation from the
	// reference consumption profile.
	VariantDiscomfort
	// VariantSizing frees the battery capacity and penalizes it linearly
	// with the battery investment price.
	VariantSizing
)

// String returns the canonical question identifier for the variant.
func (v Variant) String() string {
	switch v {
	case VariantBase:
		return "1a"
	case VariantDiscomfort:
		return "1c"
	case VariantSizing:
		return "2b"
	default:
		return "unknown"
	}
}

// SizesBattery reports whether the battery capacity is a decision variable.
func (v Variant) SizesBattery() bool { return v == VariantSizing }

// PenalizesDeviation reports whether the discomfort term is part of the
// objective. The sizing variant carries it as well; a zero discomfort cost
// makes it vanish.
func (v Variant) PenalizesDeviation() bool { return v != VariantBase }

// ParseVariant maps a question identifier to its variant. Both the short
// form ("1c") and the prefixed form ("question_1c") are accepted.
func ParseVariant(question string) (Variant, error) {
	q := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(question)), "question_")
	switch q {
	case "1a", "1b":
		return VariantBase, nil
	case "1c":
		return VariantDiscomfort, nil
	case "2b":
		return VariantSizing, nil
	default:
		return 0, fmt.Errorf("unknown question %q", question)
	}
}
