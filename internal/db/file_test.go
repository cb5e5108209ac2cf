package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-ledger/internal/models"
)

func newTestFileStore(t *testing.T) (*FileStore, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	return NewFileStore(filepath.Join(t.TempDir(), "data"), logger), hook
}

func TestFileStore_EmptyWhenMissing(t *testing.T) {
	store, hook := newTestFileStore(t)
	ctx := context.Background()

	vehicles, err := store.LoadVehicles(ctx)
	require.NoError(t, err)
	assert.Empty(t, vehicles)

	drivers, err := store.LoadDrivers(ctx)
	require.NoError(t, err)
	assert.Empty(t, drivers)

	trips, err := store.LoadTripRecords(ctx)
	require.NoError(t, err)
	assert.NotNil(t, trips)
	assert.Empty(t, trips)

	assert.Empty(t, hook.AllEntries())
}

func TestFileStore_EmptyWhenMalformed(t *testing.T) {
	store, hook := newTestFileStore(t)
	require.NoError(t, os.MkdirAll(store.Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, VehiclesFile), []byte("{not json"), 0o644))

	vehicles, err := store.LoadVehicles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vehicles)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestFileStore_EmptyWhenFieldTypesMismatch(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		load func(store *FileStore) (int, error)
	}{
		{
			name: "vehicles",
			file: VehiclesFile,
			body: `[{"kind":"car","plate":"AAA-1","year":2020,"odometer":100},{"plate":"BBB-2","year":"twenty","odometer":"lots"}]`,
			load: func(store *FileStore) (int, error) {
				v, err := store.LoadVehicles(context.Background())
				return len(v), err
			},
		},
		{
			name: "drivers",
			file: DriversFile,
			body: `[{"name":"Ana","person_id":"1","license_category":"B"},{"name":"Bia","person_id":2,"license_category":"B"}]`,
			load: func(store *FileStore) (int, error) {
				d, err := store.LoadDrivers(context.Background())
				return len(d), err
			},
		},
		{
			name: "trips",
			file: TripsFile,
			body: `[{"driver_ref":"1","vehicle_ref":"AAA-1","distance":10},{"driver_ref":"1","distance":"far"}]`,
			load: func(store *FileStore) (int, error) {
				r, err := store.LoadTripRecords(context.Background())
				return len(r), err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, hook := newTestFileStore(t)
			require.NoError(t, os.MkdirAll(store.Dir, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(store.Dir, tt.file), []byte(tt.body), 0o644))

			count, err := tt.load(store)
			require.NoError(t, err)
			assert.Zero(t, count)

			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		})
	}
}

func TestFileStore_VehiclesRoundTrip(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	car, err := models.NewVehicle(models.KindCar, "ABC-1234", "Toyota", "Corolla", 2022, 15000)
	require.NoError(t, err)
	truck, err := models.NewVehicle(models.KindTruck, "XYZ-9090", "Volvo", "FH 540", 2020, 120000)
	require.NoError(t, err)
	require.NoError(t, truck.SetOdometer(120500.5))
	m, err := models.NewMaintenance("01/01/2025", "Corretiva", 100, "Freio")
	require.NoError(t, err)
	require.NoError(t, truck.EnterMaintenance(m))
	fuel, err := models.NewFuelEntry("02/01/2025", "Diesel", 300, 1800)
	require.NoError(t, err)
	truck.AddFuel(fuel)

	require.NoError(t, store.SaveVehicles(ctx, []*models.Vehicle{car, truck}))

	loaded, err := store.LoadVehicles(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "ABC-1234", loaded[0].Plate)
	assert.Equal(t, models.KindCar, loaded[0].Kind)

	got := loaded[1]
	assert.Equal(t, models.KindTruck, got.Kind)
	assert.Equal(t, 120500.5, got.Odometer())
	assert.Equal(t, 120000.0, got.EntryOdometer())
	assert.Equal(t, models.StatusInMaintenance, got.Status())
	assert.Equal(t, []models.Maintenance{m}, got.MaintenanceHistory())
	assert.Equal(t, []models.FuelEntry{fuel}, got.FuelHistory())
}

func TestFileStore_SkipsInvalidRecords(t *testing.T) {
	store, hook := newTestFileStore(t)
	require.NoError(t, os.MkdirAll(store.Dir, 0o755))
	content := `[
  {"plate": "", "year": 2020, "odometer": 10},
  {"plate": "OK-1", "year": 2020, "odometer": 10}
]`
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, VehiclesFile), []byte(content), 0o644))

	loaded, err := store.LoadVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "OK-1", loaded[0].Plate)
	assert.Len(t, hook.AllEntries(), 1)
}

func TestFileStore_DriversRoundTrip(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	d, err := models.NewDriver("João Silva", "111.222.333-00", "123456789", "C")
	require.NoError(t, err)
	require.NoError(t, store.SaveDrivers(ctx, []models.Driver{d}))

	loaded, err := store.LoadDrivers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Driver{d}, loaded)
}

func TestFileStore_AppendTripRecord(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	first := models.TripRecord{DriverRef: "1", VehicleRef: "CAR-01", Destination: "Praia", Distance: 100, RecordedAt: at}
	second := models.TripRecord{DriverRef: "2", VehicleRef: "CAR-02", Destination: "Centro", Distance: 12.5, RecordedAt: at}
	require.NoError(t, store.AppendTripRecord(ctx, first))
	require.NoError(t, store.AppendTripRecord(ctx, second))

	records, err := store.LoadTripRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.TripRecord{first, second}, records)
}

func TestFileStore_CancelledContext(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.LoadVehicles(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.SaveDrivers(ctx, nil), context.Canceled)
}
