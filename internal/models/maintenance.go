package models

import (
	"fmt"
	"math"
	"strings"
)

// CostStrategy selects how the final cost of a maintenance is derived
// from its base cost.
type CostStrategy int

const (
	BasicCost CostStrategy = iota
	CorrectiveCost
)

// correctiveSurcharge is applied on top of the base cost of corrective work.
const correctiveSurcharge = 1.20

// StrategyFor returns the cost strategy for a maintenance kind. Only
// corrective maintenance ("Corretiva" / "corrective") carries a surcharge.
func StrategyFor(kind string) CostStrategy {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "corretiva", "corrective":
		return CorrectiveCost
	default:
		return BasicCost
	}
}

// Multiplier returns the factor applied to the base cost.
func (s CostStrategy) Multiplier() float64 {
	switch s {
	case CorrectiveCost:
		return correctiveSurcharge
	default:
		return 1.0
	}
}

// FinalCost computes the final cost from a base cost.
func (s CostStrategy) FinalCost(baseCost float64) float64 {
	return baseCost * s.Multiplier()
}

func (s CostStrategy) String() string {
	switch s {
	case CorrectiveCost:
		return "corrective"
	default:
		return "basic"
	}
}

// Maintenance represents a vehicle maintenance record. FinalCost is fixed
// when the record is created and is never recomputed.
type Maintenance struct {
	Date        string  `json:"date" bson:"date"`
	Kind        string  `json:"kind" bson:"kind"`
	BaseCost    float64 `json:"base_cost" bson:"base_cost"`
	FinalCost   float64 `json:"final_cost" bson:"final_cost"`
	Description string  `json:"description" bson:"description"`
}

// NewMaintenance builds a maintenance record, applying the cost strategy
// selected by kind.
func NewMaintenance(date, kind string, baseCost float64, description string) (Maintenance, error) {
	if math.IsNaN(baseCost) || math.IsInf(baseCost, 0) || baseCost < 0 {
		return Maintenance{}, fmt.Errorf("%w: base cost must be a non-negative number, got %v", ErrValidation, baseCost)
	}
	return Maintenance{
		Date:        strings.TrimSpace(date),
		Kind:        strings.TrimSpace(kind),
		BaseCost:    baseCost,
		FinalCost:   StrategyFor(kind).FinalCost(baseCost),
		Description: strings.TrimSpace(description),
	}, nil
}
