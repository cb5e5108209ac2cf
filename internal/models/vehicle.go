package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// VehicleKind identifies the vehicle variant. Each kind fixes the minimum
// license category required to drive it.
type VehicleKind string

const (
	KindCar        VehicleKind = "car"
	KindMotorcycle VehicleKind = "motorcycle"
	KindTruck      VehicleKind = "truck"
)

// MinimumLicenseCategory returns the license category required by the kind.
func (k VehicleKind) MinimumLicenseCategory() string {
	switch k {
	case KindMotorcycle:
		return "A"
	case KindTruck:
		return "C"
	default:
		return "B"
	}
}

// ParseVehicleKind maps user input to a vehicle kind. English and
// Portuguese labels are accepted, case-insensitively.
func ParseVehicleKind(s string) (VehicleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "car", "carro":
		return KindCar, nil
	case "motorcycle", "moto":
		return KindMotorcycle, nil
	case "truck", "caminhão", "caminhao":
		return KindTruck, nil
	default:
		return "", fmt.Errorf("%w: unknown vehicle kind %q", ErrValidation, s)
	}
}

// kindFromRecord is the lenient variant used when restoring persisted
// records: anything unrecognized is a car.
func kindFromRecord(s string) VehicleKind {
	kind, err := ParseVehicleKind(s)
	if err != nil {
		return KindCar
	}
	return kind
}

// VehicleStatus is the state of the vehicle lifecycle.
type VehicleStatus string

const (
	StatusActive        VehicleStatus = "active"
	StatusInMaintenance VehicleStatus = "in_maintenance"
	StatusInactive      VehicleStatus = "inactive"
)

// ParseVehicleStatus maps a persisted status to a VehicleStatus. An empty
// value restores as active.
func ParseVehicleStatus(s string) (VehicleStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active", "ativo":
		return StatusActive, nil
	case "in_maintenance", "maintenance", "em manutenção", "em manutencao":
		return StatusInMaintenance, nil
	case "inactive", "inativo":
		return StatusInactive, nil
	default:
		return "", fmt.Errorf("%w: unknown vehicle status %q", ErrValidation, s)
	}
}

// Vehicle represents a fleet vehicle. Odometer and status are only
// mutated through methods that enforce their invariants.
type Vehicle struct {
	Kind  VehicleKind
	Plate string
	Brand string
	Model string
	Year  int

	odometer      float64
	entryOdometer float64
	status        VehicleStatus
	maintenance   []Maintenance
	fuel          []FuelEntry
}

// VehicleRecord is the persisted form of a Vehicle. Kind is the variant
// discriminator.
type VehicleRecord struct {
	Kind               VehicleKind   `json:"kind" bson:"kind"`
	Plate              string        `json:"plate" bson:"plate"`
	Brand              string        `json:"brand" bson:"brand"`
	Model              string        `json:"model" bson:"model"`
	Year               int           `json:"year" bson:"year"`
	Odometer           float64       `json:"odometer" bson:"odometer"`
	EntryOdometer      *float64      `json:"entry_odometer,omitempty" bson:"entry_odometer,omitempty"`
	Status             VehicleStatus `json:"status" bson:"status"`
	MaintenanceHistory []Maintenance `json:"maintenance_history" bson:"maintenance_history"`
	FuelHistory        []FuelEntry   `json:"fuel_history" bson:"fuel_history"`
}

// NewVehicle validates and builds an active vehicle. The given odometer
// also becomes the entry odometer.
func NewVehicle(kind VehicleKind, plate, brand, model string, year int, odometer float64) (*Vehicle, error) {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrValidation)
	}
	if year <= 0 {
		return nil, fmt.Errorf("%w: year must be positive, got %d", ErrValidation, year)
	}
	if !validReading(odometer) {
		return nil, fmt.Errorf("%w: odometer must be a non-negative number, got %v", ErrValidation, odometer)
	}
	if kind == "" {
		kind = KindCar
	}
	return &Vehicle{
		Kind:          kind,
		Plate:         plate,
		Brand:         strings.TrimSpace(brand),
		Model:         strings.TrimSpace(model),
		Year:          year,
		odometer:      odometer,
		entryOdometer: odometer,
		status:        StatusActive,
	}, nil
}

func validReading(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Odometer returns the current odometer reading.
func (v *Vehicle) Odometer() float64 { return v.odometer }

// EntryOdometer returns the reading at the time the vehicle was registered.
func (v *Vehicle) EntryOdometer() float64 { return v.entryOdometer }

// Status returns the current lifecycle status.
func (v *Vehicle) Status() VehicleStatus { return v.status }

// SetOdometer updates the odometer. Readings below the current value are
// rejected and leave the vehicle unchanged.
func (v *Vehicle) SetOdometer(reading float64) error {
	if !validReading(reading) {
		return fmt.Errorf("%w: odometer must be a non-negative number, got %v", ErrValidation, reading)
	}
	if reading < v.odometer {
		return fmt.Errorf("%w: odometer of %s cannot be reduced from %.1f to %.1f", ErrValidation, v.Plate, v.odometer, reading)
	}
	v.odometer = reading
	return nil
}

// EnterMaintenance records a maintenance and moves an active vehicle into
// maintenance.
func (v *Vehicle) EnterMaintenance(m Maintenance) error {
	if v.status != StatusActive {
		return fmt.Errorf("%w: vehicle already is in state %s", ErrMaintenanceInvalid, v.status)
	}
	v.maintenance = append(v.maintenance, m)
	v.status = StatusInMaintenance
	return nil
}

// ExitMaintenance returns a vehicle in maintenance to the active state.
func (v *Vehicle) ExitMaintenance() error {
	if v.status != StatusInMaintenance {
		return fmt.Errorf("%w: vehicle is not in maintenance", ErrMaintenanceInvalid)
	}
	v.status = StatusActive
	return nil
}

// AddFuel appends a fill-up to the fuel history.
func (v *Vehicle) AddFuel(entry FuelEntry) {
	v.fuel = append(v.fuel, entry)
}

// MaintenanceHistory returns a copy of the maintenance records in the
// order they were added.
func (v *Vehicle) MaintenanceHistory() []Maintenance {
	return append([]Maintenance(nil), v.maintenance...)
}

// FuelHistory returns a copy of the fuel entries in the order they were added.
func (v *Vehicle) FuelHistory() []FuelEntry {
	return append([]FuelEntry(nil), v.fuel...)
}

// Equal reports whether both vehicles share the same plate. Plates are
// compared case-insensitively; other fields are ignored.
func (v *Vehicle) Equal(other *Vehicle) bool {
	if v == nil || other == nil {
		return v == other
	}
	return SamePlate(v.Plate, other.Plate)
}

// Less orders vehicles by odometer.
func (v *Vehicle) Less(other *Vehicle) bool {
	return v.odometer < other.odometer
}

// SamePlate compares two plates case-insensitively.
func SamePlate(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// SortByOdometer sorts vehicles by ascending odometer, keeping the
// relative order of equal readings.
func SortByOdometer(vehicles []*Vehicle) {
	sort.SliceStable(vehicles, func(i, j int) bool {
		return vehicles[i].Less(vehicles[j])
	})
}

// Record returns the persisted form of the vehicle.
func (v *Vehicle) Record() VehicleRecord {
	entry := v.entryOdometer
	maintenance := v.MaintenanceHistory()
	if maintenance == nil {
		maintenance = []Maintenance{}
	}
	fuel := v.FuelHistory()
	if fuel == nil {
		fuel = []FuelEntry{}
	}
	return VehicleRecord{
		Kind:               v.Kind,
		Plate:              v.Plate,
		Brand:              v.Brand,
		Model:              v.Model,
		Year:               v.Year,
		Odometer:           v.odometer,
		EntryOdometer:      &entry,
		Status:             v.status,
		MaintenanceHistory: maintenance,
		FuelHistory:        fuel,
	}
}

// Vehicle restores a vehicle from its persisted form. Unknown kinds
// restore as cars and a missing entry odometer defaults to the odometer.
func (r VehicleRecord) Vehicle() (*Vehicle, error) {
	plate := strings.TrimSpace(r.Plate)
	if plate == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrValidation)
	}
	if !validReading(r.Odometer) {
		return nil, fmt.Errorf("%w: odometer of %s must be a non-negative number", ErrValidation, plate)
	}
	entry := r.Odometer
	if r.EntryOdometer != nil {
		if !validReading(*r.EntryOdometer) {
			return nil, fmt.Errorf("%w: entry odometer of %s must be a non-negative number", ErrValidation, plate)
		}
		entry = *r.EntryOdometer
	}
	status, err := ParseVehicleStatus(string(r.Status))
	if err != nil {
		return nil, err
	}
	return &Vehicle{
		Kind:          kindFromRecord(string(r.Kind)),
		Plate:         plate,
		Brand:         r.Brand,
		Model:         r.Model,
		Year:          r.Year,
		odometer:      r.Odometer,
		entryOdometer: entry,
		status:        status,
		maintenance:   append([]Maintenance(nil), r.MaintenanceHistory...),
		fuel:          append([]FuelEntry(nil), r.FuelHistory...),
	}, nil
}
