package fleet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/events"
	"github.com/ukydev/fleet-ledger/internal/models"
)

// VehicleInput carries raw user input for registering a vehicle. Numeric
// fields are parsed by the service.
type VehicleInput struct {
	Kind     string
	Plate    string
	Brand    string
	Model    string
	Year     string
	Odometer string
}

// DriverInput carries raw user input for registering a driver.
type DriverInput struct {
	Name            string
	PersonID        string
	LicenseID       string
	LicenseCategory string
}

// Service runs fleet operations against a store. Each operation loads the
// collections it needs, applies the rules, and saves them back before the
// next operation starts.
type Service struct {
	mu        sync.Mutex
	store     db.Store
	publisher events.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewService creates a fleet service. A nil publisher discards events and a
// nil logger uses the logrus standard logger.
func NewService(store db.Store, publisher events.Publisher, logger logrus.FieldLogger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		log:       logger,
		now:       time.Now,
	}
}

// RegisterVehicle validates the input and adds a new active vehicle.
func (s *Service) RegisterVehicle(ctx context.Context, in VehicleInput) (*models.Vehicle, error) {
	kind, err := models.ParseVehicleKind(in.Kind)
	if err != nil {
		return nil, err
	}
	year, err := parseYear(in.Year)
	if err != nil {
		return nil, err
	}
	odometer, err := parseNumber("odometer", in.Odometer)
	if err != nil {
		return nil, err
	}
	vehicle, err := models.NewVehicle(kind, in.Plate, in.Brand, in.Model, year, odometer)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, func() (events.Event, error) {
		vehicles, err := s.store.LoadVehicles(ctx)
		if err != nil {
			return events.Event{}, err
		}
		if indexVehicle(vehicles, vehicle.Plate) >= 0 {
			return events.Event{}, fmt.Errorf("%w: plate %s is already registered", models.ErrDuplicateKey, vehicle.Plate)
		}
		if err := s.store.SaveVehicles(ctx, append(vehicles, vehicle)); err != nil {
			return events.Event{}, fmt.Errorf("save vehicles: %w", err)
		}

		s.log.WithFields(logrus.Fields{
			"plate":    vehicle.Plate,
			"kind":     vehicle.Kind,
			"odometer": vehicle.Odometer(),
		}).Info("Registered vehicle")
		return events.Event{Type: events.VehicleRegistered, Plate: vehicle.Plate, Data: vehicle.Record()}, nil
	})
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

// UpdateVehicle changes the descriptive fields of a vehicle. Empty brand
// or model keep the current value.
func (s *Service) UpdateVehicle(ctx context.Context, plate, brand, model, rawYear string) (*models.Vehicle, error) {
	var year int
	if strings.TrimSpace(rawYear) != "" {
		var err error
		if year, err = parseYear(rawYear); err != nil {
			return nil, err
		}
	}

	var vehicle *models.Vehicle
	err := s.mutate(ctx, func() (events.Event, error) {
		vehicles, found, err := s.loadVehicle(ctx, plate)
		if err != nil {
			return events.Event{}, err
		}
		if b := strings.TrimSpace(brand); b != "" {
			found.Brand = b
		}
		if m := strings.TrimSpace(model); m != "" {
			found.Model = m
		}
		if year > 0 {
			found.Year = year
		}
		if err := s.store.SaveVehicles(ctx, vehicles); err != nil {
			return events.Event{}, fmt.Errorf("save vehicles: %w", err)
		}
		vehicle = found

		s.log.WithField("plate", vehicle.Plate).Info("Updated vehicle")
		return events.Event{Type: events.VehicleUpdated, Plate: vehicle.Plate, Data: vehicle.Record()}, nil
	})
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

// RegisterDriver validates the input and adds a new driver.
func (s *Service) RegisterDriver(ctx context.Context, in DriverInput) (models.Driver, error) {
	driver, err := models.NewDriver(in.Name, in.PersonID, in.LicenseID, in.LicenseCategory)
	if err != nil {
		return models.Driver{}, err
	}

	err = s.mutate(ctx, func() (events.Event, error) {
		drivers, err := s.store.LoadDrivers(ctx)
		if err != nil {
			return events.Event{}, err
		}
		if indexDriver(drivers, driver.PersonID) >= 0 {
			return events.Event{}, fmt.Errorf("%w: person id %s is already registered", models.ErrDuplicateKey, driver.PersonID)
		}
		if err := s.store.SaveDrivers(ctx, append(drivers, driver)); err != nil {
			return events.Event{}, fmt.Errorf("save drivers: %w", err)
		}

		s.log.WithFields(logrus.Fields{
			"person_id":        driver.PersonID,
			"license_category": driver.LicenseCategory,
		}).Info("Registered driver")
		return events.Event{Type: events.DriverRegistered, PersonID: driver.PersonID, Data: driver.Record()}, nil
	})
	if err != nil {
		return models.Driver{}, err
	}
	return driver, nil
}

// FindVehicle looks a vehicle up by plate, ignoring case.
func (s *Service) FindVehicle(ctx context.Context, plate string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, vehicle, err := s.loadVehicle(ctx, plate)
	return vehicle, err
}

// FindDriver looks a driver up by person id.
func (s *Service) FindDriver(ctx context.Context, personID string) (models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadDriver(ctx, personID)
}

// ListVehicles returns every vehicle in registration order.
func (s *Service) ListVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.LoadVehicles(ctx)
}

// ListDrivers returns every driver in registration order.
func (s *Service) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.LoadDrivers(ctx)
}

// ListTrips returns the trip log.
func (s *Service) ListTrips(ctx context.Context) ([]models.TripRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.LoadTripRecords(ctx)
}

// RecordTrip allocates a trip for the driver and vehicle, saves the new
// odometer and appends the trip to the log.
func (s *Service) RecordTrip(ctx context.Context, personID, plate, destination, rawDistance string) (models.TripRecord, error) {
	var record models.TripRecord
	err := s.mutate(ctx, func() (events.Event, error) {
		driver, err := s.loadDriver(ctx, personID)
		if err != nil {
			return events.Event{}, err
		}
		vehicles, vehicle, err := s.loadVehicle(ctx, plate)
		if err != nil {
			return events.Event{}, err
		}
		// an unparseable distance only surfaces once status and license pass
		distance, parseErr := parseNumber("distance", rawDistance)
		if parseErr != nil {
			distance = math.NaN()
		}

		trip, err := AllocateTrip(driver, vehicle, destination, distance)
		if err != nil {
			if parseErr != nil && errors.Is(err, models.ErrValidation) {
				err = parseErr
			}
			s.log.WithError(err).WithFields(logrus.Fields{
				"plate":     vehicle.Plate,
				"person_id": driver.PersonID,
			}).Warn("Trip rejected")
			return events.Event{}, err
		}
		if err := s.store.SaveVehicles(ctx, vehicles); err != nil {
			return events.Event{}, fmt.Errorf("save vehicles: %w", err)
		}
		record = trip.Record(driver, vehicle, s.now())
		if err := s.store.AppendTripRecord(ctx, record); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"plate":     vehicle.Plate,
				"person_id": driver.PersonID,
				"distance":  trip.Distance,
				"odometer":  vehicle.Odometer(),
			}).Error("Odometer saved but trip log append failed")
			return events.Event{}, fmt.Errorf("append trip record: %w", err)
		}

		s.log.WithFields(logrus.Fields{
			"plate":       vehicle.Plate,
			"person_id":   driver.PersonID,
			"destination": trip.Destination,
			"distance":    trip.Distance,
			"odometer":    vehicle.Odometer(),
		}).Info("Recorded trip")
		return events.Event{Type: events.TripRecorded, Plate: vehicle.Plate, Data: record}, nil
	})
	if err != nil {
		return models.TripRecord{}, err
	}
	return record, nil
}

// StartMaintenance records a maintenance and moves the vehicle into
// maintenance.
func (s *Service) StartMaintenance(ctx context.Context, plate, date, kind, rawBaseCost, description string) (models.Maintenance, error) {
	baseCost, err := parseNumber("base cost", rawBaseCost)
	if err != nil {
		return models.Maintenance{}, err
	}
	maintenance, err := models.NewMaintenance(date, kind, baseCost, description)
	if err != nil {
		return models.Maintenance{}, err
	}

	err = s.mutate(ctx, func() (events.Event, error) {
		vehicles, vehicle, err := s.loadVehicle(ctx, plate)
		if err != nil {
			return events.Event{}, err
		}
		if err := vehicle.EnterMaintenance(maintenance); err != nil {
			return events.Event{}, err
		}
		if err := s.store.SaveVehicles(ctx, vehicles); err != nil {
			return events.Event{}, fmt.Errorf("save vehicles: %w", err)
		}

		s.log.WithFields(logrus.Fields{
			"plate":      vehicle.Plate,
			"kind":       maintenance.Kind,
			"strategy":   models.StrategyFor(maintenance.Kind),
			"final_cost": maintenance.FinalCost,
		}).Info("Vehicle entered maintenance")
		return events.Event{Type: events.MaintenanceStarted, Plate: vehicle.Plate, Data: maintenance}, nil
	})
	if err != nil {
		return models.Maintenance{}, err
	}
	return maintenance, nil
}

// FinishMaintenance returns a vehicle in maintenance to service.
func (s *Service) FinishMaintenance(ctx context.Context, plate string) (*models.Vehicle, error) {
	var vehicle *models.Vehicle
	err := s.mutate(ctx, func() (events.Event, error) {
		vehicles, found, err := s.loadVehicle(ctx, plate)
		if err != nil {
			return events.Event{}, err
		}
		if err := found.ExitMaintenance(); err != nil {
			return events.Event{}, err
		}
		if err := s.store.SaveVehicles(ctx, vehicles); err != nil {
			return events.Event{}, fmt.Errorf("save vehicles: %w", err)
		}
		vehicle = found

		s.log.WithField("plate", vehicle.Plate).Info("Vehicle left maintenance")
		return events.Event{Type: events.MaintenanceFinished, Plate: vehicle.Plate}, nil
	})
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

// RecordFuel appends a fill-up to the vehicle's fuel history.
func (s *Service) RecordFuel(ctx context.Context, plate, date, fuelType, rawLiters, rawAmount string) (models.FuelEntry, error) {
	liters, err := parseNumber("liters", rawLiters)
	if err != nil {
		return models.FuelEntry{}, err
	}
	amount, err := parseNumber("amount paid", rawAmount)
	if err != nil {
		return models.FuelEntry{}, err
	}
	entry, err := models.NewFuelEntry(date, fuelType, liters, amount)
	if err != nil {
		return models.FuelEntry{}, err
	}

	err = s.mutate(ctx, func() (events.Event, error) {
		vehicles, vehicle, err := s.loadVehicle(ctx, plate)
		if err != nil {
			return events.Event{}, err
		}
		vehicle.AddFuel(entry)
		if err := s.store.SaveVehicles(ctx, vehicles); err != nil {
			return events.Event{}, fmt.Errorf("save vehicles: %w", err)
		}

		s.log.WithFields(logrus.Fields{
			"plate":  vehicle.Plate,
			"liters": entry.Liters,
			"amount": entry.AmountPaid,
		}).Info("Recorded fuel")
		return events.Event{Type: events.FuelRecorded, Plate: vehicle.Plate, Data: entry}, nil
	})
	if err != nil {
		return models.FuelEntry{}, err
	}
	return entry, nil
}

// MaintenanceCostReport builds the cost report over the current fleet.
func (s *Service) MaintenanceCostReport(ctx context.Context) ([]CostLine, error) {
	vehicles, err := s.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	return CostReport(vehicles), nil
}

// FuelEfficiencyReport builds the efficiency ranking over the current fleet.
func (s *Service) FuelEfficiencyReport(ctx context.Context) ([]EfficiencyLine, error) {
	vehicles, err := s.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	return EfficiencyReport(vehicles), nil
}

func (s *Service) loadVehicle(ctx context.Context, plate string) ([]*models.Vehicle, *models.Vehicle, error) {
	vehicles, err := s.store.LoadVehicles(ctx)
	if err != nil {
		return nil, nil, err
	}
	i := indexVehicle(vehicles, plate)
	if i < 0 {
		return nil, nil, fmt.Errorf("%w: vehicle with plate %s", models.ErrNotFound, strings.TrimSpace(plate))
	}
	return vehicles, vehicles[i], nil
}

func (s *Service) loadDriver(ctx context.Context, personID string) (models.Driver, error) {
	drivers, err := s.store.LoadDrivers(ctx)
	if err != nil {
		return models.Driver{}, err
	}
	i := indexDriver(drivers, personID)
	if i < 0 {
		return models.Driver{}, fmt.Errorf("%w: driver with person id %s", models.ErrNotFound, strings.TrimSpace(personID))
	}
	return drivers[i], nil
}

// mutate runs fn under the service lock and publishes the event it returns
// after the lock is released.
func (s *Service) mutate(ctx context.Context, fn func() (events.Event, error)) error {
	event, err := func() (events.Event, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn()
	}()
	if err != nil {
		return err
	}
	s.publish(ctx, event)
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	event.ID = uuid.NewString()
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithField("event", event.Type).Warn("Failed to publish event")
	}
}

func indexVehicle(vehicles []*models.Vehicle, plate string) int {
	for i, v := range vehicles {
		if models.SamePlate(v.Plate, plate) {
			return i
		}
	}
	return -1
}

func indexDriver(drivers []models.Driver, personID string) int {
	personID = strings.TrimSpace(personID)
	for i, d := range drivers {
		if d.PersonID == personID {
			return i
		}
	}
	return -1
}

func parseNumber(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", models.ErrValidation, field, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative, got %v", models.ErrValidation, field, v)
	}
	return v, nil
}

func parseYear(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	year, err := strconv.Atoi(raw)
	if err != nil || year <= 0 {
		return 0, fmt.Errorf("%w: year must be a positive integer, got %q", models.ErrValidation, raw)
	}
	return year, nil
}
