package fleet

import (
	"fmt"
	"math"
	"strings"

	"github.com/ukydev/fleet-ledger/internal/models"
)

// LicenseCompatible reports whether a driver holding category may drive a
// vehicle requiring required. Categories C, D and E subsume B, and D and E
// subsume C. The motorcycle category A is never implied by another letter.
func LicenseCompatible(category, required string) bool {
	category = strings.ToUpper(category)
	switch strings.ToUpper(required) {
	case "A":
		return strings.Contains(category, "A")
	case "B":
		return strings.ContainsAny(category, "BCDE")
	case "C":
		return strings.ContainsAny(category, "CDE")
	case "":
		return false
	default:
		return strings.Contains(category, strings.ToUpper(required))
	}
}

// AllocateTrip checks that driver may take vehicle on a trip of distance
// and, if so, advances the vehicle odometer. Checks run in order: vehicle
// status, license compatibility, distance. Persisting the vehicle and
// logging the trip are left to the caller.
func AllocateTrip(driver models.Driver, vehicle *models.Vehicle, destination string, distance float64) (models.Trip, error) {
	if vehicle.Status() != models.StatusActive {
		return models.Trip{}, fmt.Errorf("%w: vehicle %s is %s", models.ErrAllocationInvalid, vehicle.Plate, vehicle.Status())
	}

	required := vehicle.Kind.MinimumLicenseCategory()
	if !LicenseCompatible(driver.LicenseCategory, required) {
		return models.Trip{}, fmt.Errorf("%w: license category %s cannot drive a %s (requires %s)",
			models.ErrAllocationInvalid, driver.LicenseCategory, vehicle.Kind, required)
	}

	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance <= 0 {
		return models.Trip{}, fmt.Errorf("%w: distance must be greater than zero, got %v", models.ErrValidation, distance)
	}

	if err := vehicle.SetOdometer(vehicle.Odometer() + distance); err != nil {
		return models.Trip{}, err
	}

	return models.Trip{
		DriverRef:   driver.PersonID,
		VehicleRef:  vehicle.Plate,
		Destination: strings.TrimSpace(destination),
		Distance:    distance,
	}, nil
}
