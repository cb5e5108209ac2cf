package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVehicle(t *testing.T, kind VehicleKind, plate string, odometer float64) *Vehicle {
	t.Helper()
	v, err := NewVehicle(kind, plate, "Fiat", "Uno", 2020, odometer)
	require.NoError(t, err)
	return v
}

func TestNewVehicle(t *testing.T) {
	v := newTestVehicle(t, KindCar, "ABC-1234", 10000)

	assert.Equal(t, "ABC-1234", v.Plate)
	assert.Equal(t, 10000.0, v.Odometer())
	assert.Equal(t, 10000.0, v.EntryOdometer())
	assert.Equal(t, StatusActive, v.Status())
	assert.Empty(t, v.MaintenanceHistory())
	assert.Empty(t, v.FuelHistory())
}

func TestNewVehicle_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		plate    string
		year     int
		odometer float64
	}{
		{"empty plate", "  ", 2020, 0},
		{"zero year", "ABC-1", 0, 0},
		{"negative odometer", "ABC-1", 2020, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewVehicle(KindCar, tt.plate, "Fiat", "Uno", tt.year, tt.odometer)
			assert.Nil(t, v)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestVehicleKind_MinimumLicenseCategory(t *testing.T) {
	assert.Equal(t, "B", KindCar.MinimumLicenseCategory())
	assert.Equal(t, "A", KindMotorcycle.MinimumLicenseCategory())
	assert.Equal(t, "C", KindTruck.MinimumLicenseCategory())
}

func TestParseVehicleKind(t *testing.T) {
	tests := []struct {
		input    string
		expected VehicleKind
	}{
		{"Carro", KindCar},
		{"car", KindCar},
		{"Moto", KindMotorcycle},
		{"MOTORCYCLE", KindMotorcycle},
		{"Caminhão", KindTruck},
		{"truck", KindTruck},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, err := ParseVehicleKind(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, kind)
		})
	}

	_, err := ParseVehicleKind("boat")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVehicle_SetOdometer(t *testing.T) {
	v := newTestVehicle(t, KindTruck, "TST-0001", 0)

	require.NoError(t, v.SetOdometer(50000))
	assert.Equal(t, 50000.0, v.Odometer())

	err := v.SetOdometer(20000)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "cannot be reduced")
	assert.Equal(t, 50000.0, v.Odometer())

	require.NoError(t, v.SetOdometer(50000))
	assert.Equal(t, 50000.0, v.Odometer())
	assert.Equal(t, 0.0, v.EntryOdometer())
}

func TestVehicle_MaintenanceCycle(t *testing.T) {
	v := newTestVehicle(t, KindMotorcycle, "MTO-9999", 1000)
	m, err := NewMaintenance("01/01", "Preventiva", 50, "Revisão")
	require.NoError(t, err)

	require.NoError(t, v.EnterMaintenance(m))
	assert.Equal(t, StatusInMaintenance, v.Status())
	assert.Len(t, v.MaintenanceHistory(), 1)

	err = v.EnterMaintenance(m)
	assert.ErrorIs(t, err, ErrMaintenanceInvalid)
	assert.Contains(t, err.Error(), "already is in state in_maintenance")
	assert.Len(t, v.MaintenanceHistory(), 1)

	require.NoError(t, v.ExitMaintenance())
	assert.Equal(t, StatusActive, v.Status())

	err = v.ExitMaintenance()
	assert.ErrorIs(t, err, ErrMaintenanceInvalid)
	assert.Contains(t, err.Error(), "not in maintenance")
}

func TestVehicle_InactiveHasNoTransitions(t *testing.T) {
	inactive := StatusInactive
	v, err := VehicleRecord{Plate: "OFF-1", Year: 2010, Status: inactive}.Vehicle()
	require.NoError(t, err)

	m, _ := NewMaintenance("01/01", "Preventiva", 10, "")
	assert.ErrorIs(t, v.EnterMaintenance(m), ErrMaintenanceInvalid)
	assert.ErrorIs(t, v.ExitMaintenance(), ErrMaintenanceInvalid)
	assert.Equal(t, StatusInactive, v.Status())
}

func TestVehicle_EqualityByPlate(t *testing.T) {
	a := newTestVehicle(t, KindCar, "abc-1234", 10)
	b, err := NewVehicle(KindTruck, "ABC-1234", "Volvo", "FH", 2019, 999)
	require.NoError(t, err)
	c := newTestVehicle(t, KindCar, "XYZ-0001", 10)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestVehicle_OrderingByOdometer(t *testing.T) {
	v1 := newTestVehicle(t, KindCar, "A", 100)
	v2 := newTestVehicle(t, KindCar, "B", 200)
	v3 := newTestVehicle(t, KindCar, "C", 100)
	assert.True(t, v1.Less(v2))
	assert.False(t, v2.Less(v1))

	vehicles := []*Vehicle{v2, v1, v3}
	SortByOdometer(vehicles)
	assert.Equal(t, []string{"A", "C", "B"}, []string{vehicles[0].Plate, vehicles[1].Plate, vehicles[2].Plate})
}

func TestVehicle_HistoryIsCopied(t *testing.T) {
	v := newTestVehicle(t, KindCar, "ITR-000", 0)
	entry, err := NewFuelEntry("D1", "Gasolina", 10, 50)
	require.NoError(t, err)
	v.AddFuel(entry)

	history := v.FuelHistory()
	history[0].Liters = 999
	assert.Equal(t, 10.0, v.FuelHistory()[0].Liters)
}

func TestVehicleRecord_RoundTrip(t *testing.T) {
	v := newTestVehicle(t, KindTruck, "XYZ-9090", 120000)
	require.NoError(t, v.SetOdometer(120500.5))
	m, _ := NewMaintenance("02/02/2025", "Corretiva", 100, "Freio")
	require.NoError(t, v.EnterMaintenance(m))

	data, err := json.Marshal(v.Record())
	require.NoError(t, err)

	var rec VehicleRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	restored, err := rec.Vehicle()
	require.NoError(t, err)

	assert.Equal(t, KindTruck, restored.Kind)
	assert.Equal(t, 120500.5, restored.Odometer())
	assert.Equal(t, 120000.0, restored.EntryOdometer())
	assert.Equal(t, StatusInMaintenance, restored.Status())
	assert.Equal(t, v.MaintenanceHistory(), restored.MaintenanceHistory())
}

func TestVehicleRecord_Defaults(t *testing.T) {
	var rec VehicleRecord
	require.NoError(t, json.Unmarshal([]byte(`{"plate":"OLD-1","year":2001,"odometer":700}`), &rec))

	v, err := rec.Vehicle()
	require.NoError(t, err)
	assert.Equal(t, KindCar, v.Kind)
	assert.Equal(t, "B", v.Kind.MinimumLicenseCategory())
	assert.Equal(t, 700.0, v.EntryOdometer())
	assert.Equal(t, StatusActive, v.Status())

	rec.Kind = "hovercraft"
	v, err = rec.Vehicle()
	require.NoError(t, err)
	assert.Equal(t, KindCar, v.Kind)
}

func TestVehicleRecord_Invalid(t *testing.T) {
	_, err := VehicleRecord{Plate: "", Odometer: 1}.Vehicle()
	assert.ErrorIs(t, err, ErrValidation)

	_, err = VehicleRecord{Plate: "X", Odometer: -5}.Vehicle()
	assert.ErrorIs(t, err, ErrValidation)

	_, err = VehicleRecord{Plate: "X", Status: "scrapped"}.Vehicle()
	assert.ErrorIs(t, err, ErrValidation)
}
