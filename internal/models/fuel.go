package models

import (
	"fmt"
	"math"
	"strings"
)

// FuelEntry represents a single fill-up of a vehicle.
type FuelEntry struct {
	Date       string  `json:"date" bson:"date"`
	FuelType   string  `json:"fuel_type" bson:"fuel_type"`
	Liters     float64 `json:"liters" bson:"liters"`
	AmountPaid float64 `json:"amount_paid" bson:"amount_paid"`
}

// NewFuelEntry validates and builds a fuel entry.
func NewFuelEntry(date, fuelType string, liters, amountPaid float64) (FuelEntry, error) {
	if math.IsNaN(liters) || math.IsInf(liters, 0) || liters <= 0 {
		return FuelEntry{}, fmt.Errorf("%w: liters must be greater than zero, got %v", ErrValidation, liters)
	}
	if math.IsNaN(amountPaid) || math.IsInf(amountPaid, 0) || amountPaid < 0 {
		return FuelEntry{}, fmt.Errorf("%w: amount paid must not be negative, got %v", ErrValidation, amountPaid)
	}
	return FuelEntry{
		Date:       strings.TrimSpace(date),
		FuelType:   strings.TrimSpace(fuelType),
		Liters:     liters,
		AmountPaid: amountPaid,
	}, nil
}
