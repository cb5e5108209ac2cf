package events

import (
	"context"
	"errors"
	"time"
)

// Event types emitted by the fleet service.
const (
	VehicleRegistered   = "vehicle.registered"
	VehicleUpdated      = "vehicle.updated"
	DriverRegistered    = "driver.registered"
	TripRecorded        = "trip.recorded"
	MaintenanceStarted  = "maintenance.started"
	MaintenanceFinished = "maintenance.finished"
	FuelRecorded        = "fuel.recorded"
)

// Event is a notification about a completed fleet operation.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Plate      string      `json:"plate,omitempty"`
	PersonID   string      `json:"person_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data,omitempty"`
}

// Publisher delivers events to interested parties. Delivery is best
// effort: the fleet service logs publish failures and carries on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

type multiPublisher []Publisher

// Multi fans every event out to all publishers. Every publisher is tried
// and their errors are joined.
func Multi(publishers ...Publisher) Publisher {
	switch len(publishers) {
	case 0:
		return NopPublisher{}
	case 1:
		return publishers[0]
	}
	return multiPublisher(publishers)
}

func (m multiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
