package db

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-ledger/internal/models"
)

// Store is the persistence contract required by the fleet service.
// Collections are loaded and saved whole. Loads degrade to an empty
// collection when the backing data is missing or malformed; only context
// errors are returned from them.
type Store interface {
	LoadVehicles(ctx context.Context) ([]*models.Vehicle, error)
	SaveVehicles(ctx context.Context, vehicles []*models.Vehicle) error
	LoadDrivers(ctx context.Context) ([]models.Driver, error)
	SaveDrivers(ctx context.Context, drivers []models.Driver) error
	AppendTripRecord(ctx context.Context, record models.TripRecord) error
	LoadTripRecords(ctx context.Context) ([]models.TripRecord, error)
}

func vehicleRecords(vehicles []*models.Vehicle) []models.VehicleRecord {
	records := make([]models.VehicleRecord, 0, len(vehicles))
	for _, v := range vehicles {
		records = append(records, v.Record())
	}
	return records
}

func driverRecords(drivers []models.Driver) []models.DriverRecord {
	records := make([]models.DriverRecord, 0, len(drivers))
	for _, d := range drivers {
		records = append(records, d.Record())
	}
	return records
}

// restoreVehicles rebuilds vehicles from records, skipping records that
// fail validation.
func restoreVehicles(records []models.VehicleRecord, logger logrus.FieldLogger) []*models.Vehicle {
	vehicles := make([]*models.Vehicle, 0, len(records))
	for i, rec := range records {
		v, err := rec.Vehicle()
		if err != nil {
			logger.WithError(err).WithField("index", i).Warn("Skipping invalid vehicle record")
			continue
		}
		vehicles = append(vehicles, v)
	}
	return vehicles
}

func restoreDrivers(records []models.DriverRecord, logger logrus.FieldLogger) []models.Driver {
	drivers := make([]models.Driver, 0, len(records))
	for i, rec := range records {
		d, err := rec.Driver()
		if err != nil {
			logger.WithError(err).WithField("index", i).Warn("Skipping invalid driver record")
			continue
		}
		drivers = append(drivers, d)
	}
	return drivers
}
