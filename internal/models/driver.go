package models

import (
	"fmt"
	"strings"
)

// Driver represents a licensed driver. PersonID is the natural key.
type Driver struct {
	Name            string
	PersonID        string
	LicenseCategory string
	licenseID       string
}

// DriverRecord is the persisted form of a Driver.
type DriverRecord struct {
	Name            string `json:"name" bson:"name"`
	PersonID        string `json:"person_id" bson:"person_id"`
	LicenseID       string `json:"license_id" bson:"license_id"`
	LicenseCategory string `json:"license_category" bson:"license_category"`
}

// NewDriver validates and builds a driver. The license category is
// normalized to upper case.
func NewDriver(name, personID, licenseID, licenseCategory string) (Driver, error) {
	name = strings.TrimSpace(name)
	personID = strings.TrimSpace(personID)
	licenseID = strings.TrimSpace(licenseID)
	category := strings.ToUpper(strings.TrimSpace(licenseCategory))

	if name == "" {
		return Driver{}, fmt.Errorf("%w: driver name is required", ErrValidation)
	}
	if personID == "" {
		return Driver{}, fmt.Errorf("%w: person id is required", ErrValidation)
	}
	if category == "" {
		return Driver{}, fmt.Errorf("%w: license category is required", ErrValidation)
	}
	for _, r := range category {
		if r < 'A' || r > 'Z' {
			return Driver{}, fmt.Errorf("%w: license category %q must contain only letters", ErrValidation, category)
		}
	}

	return Driver{
		Name:            name,
		PersonID:        personID,
		LicenseCategory: category,
		licenseID:       licenseID,
	}, nil
}

// LicenseID returns the driver's license number, fixed at creation.
func (d Driver) LicenseID() string {
	return d.licenseID
}

// Record returns the persisted form of the driver.
func (d Driver) Record() DriverRecord {
	return DriverRecord{
		Name:            d.Name,
		PersonID:        d.PersonID,
		LicenseID:       d.licenseID,
		LicenseCategory: d.LicenseCategory,
	}
}

// Driver restores a driver from its persisted form.
func (r DriverRecord) Driver() (Driver, error) {
	return NewDriver(r.Name, r.PersonID, r.LicenseID, r.LicenseCategory)
}
