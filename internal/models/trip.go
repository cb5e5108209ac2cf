package models

import (
	"time"
)

// Trip links a driver and a vehicle by their natural keys. It is built
// and applied by the allocation rules and then logged as a TripRecord.
type Trip struct {
	DriverRef   string
	VehicleRef  string
	Destination string
	Distance    float64 // in kilometers
}

// TripRecord is a row of the trip log. It is never turned back into a Trip.
type TripRecord struct {
	DriverRef     string      `json:"driver_ref" bson:"driver_ref"`
	DriverName    string      `json:"driver_name" bson:"driver_name"`
	VehicleRef    string      `json:"vehicle_ref" bson:"vehicle_ref"`
	VehicleKind   VehicleKind `json:"vehicle_kind" bson:"vehicle_kind"`
	Destination   string      `json:"destination" bson:"destination"`
	Distance      float64     `json:"distance" bson:"distance"`
	OdometerAfter float64     `json:"odometer_after" bson:"odometer_after"`
	RecordedAt    time.Time   `json:"recorded_at" bson:"recorded_at"`
}

// Record builds the log row for a trip that has been applied to vehicle.
func (t Trip) Record(driver Driver, vehicle *Vehicle, at time.Time) TripRecord {
	return TripRecord{
		DriverRef:     t.DriverRef,
		DriverName:    driver.Name,
		VehicleRef:    t.VehicleRef,
		VehicleKind:   vehicle.Kind,
		Destination:   t.Destination,
		Distance:      t.Distance,
		OdometerAfter: vehicle.Odometer(),
		RecordedAt:    at.UTC(),
	}
}
