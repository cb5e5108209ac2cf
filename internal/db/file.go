package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-ledger/internal/models"
)

// File names used by FileStore inside its data directory.
const (
	VehiclesFile = "vehicles.json"
	DriversFile  = "drivers.json"
	TripsFile    = "trips.json"
)

// FileStore persists collections as JSON arrays in flat files under Dir.
type FileStore struct {
	Dir    string
	Logger logrus.FieldLogger
}

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string, logger logrus.FieldLogger) *FileStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileStore{Dir: dir, Logger: logger}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Dir, name)
}

// readJSON decodes the named file as a JSON array. A missing or malformed
// file yields nil; a file that fails to decode is never partially returned.
func readJSON[T any](s *FileStore, name string) []T {
	path := s.path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.Logger.WithError(err).WithField("file", path).Warn("Failed to read data file, starting empty")
		}
		return nil
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		s.Logger.WithError(err).WithField("file", path).Warn("Malformed data file, starting empty")
		return nil
	}
	return records
}

// writeJSON replaces the named file with the JSON encoding of v. The
// content is written to a temporary file first and renamed into place.
func (s *FileStore) writeJSON(name string, v interface{}) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.Dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// LoadVehicles reads the vehicle collection.
func (s *FileStore) LoadVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := readJSON[models.VehicleRecord](s, VehiclesFile)
	return restoreVehicles(records, s.Logger), nil
}

// SaveVehicles overwrites the vehicle collection.
func (s *FileStore) SaveVehicles(ctx context.Context, vehicles []*models.Vehicle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writeJSON(VehiclesFile, vehicleRecords(vehicles))
}

// LoadDrivers reads the driver collection.
func (s *FileStore) LoadDrivers(ctx context.Context) ([]models.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := readJSON[models.DriverRecord](s, DriversFile)
	return restoreDrivers(records, s.Logger), nil
}

// SaveDrivers overwrites the driver collection.
func (s *FileStore) SaveDrivers(ctx context.Context, drivers []models.Driver) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writeJSON(DriversFile, driverRecords(drivers))
}

// AppendTripRecord adds a row to the trip log.
func (s *FileStore) AppendTripRecord(ctx context.Context, record models.TripRecord) error {
	records, err := s.LoadTripRecords(ctx)
	if err != nil {
		return err
	}
	return s.writeJSON(TripsFile, append(records, record))
}

// LoadTripRecords reads the trip log.
func (s *FileStore) LoadTripRecords(ctx context.Context) ([]models.TripRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := readJSON[models.TripRecord](s, TripsFile)
	if records == nil {
		records = []models.TripRecord{}
	}
	return records, nil
}
