package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics this service publishes to and consumes from.
const (
	TopicBookingEvents = "rental.booking.events"
	TopicFleetEvents   = "rental.fleet.events"
)

// Event types carried in the CloudEvent envelope.
const (
	BookingCreated   = "rental.booking.created"
	BookingUpdated   = "rental.booking.updated"
	BookingCompleted = "rental.booking.completed"
	BookingCancelled = "rental.booking.cancelled"
	BookingDeleted   = "rental.booking.deleted"

	FleetVehicleReturned = "rental.fleet.vehicle_returned"
)

// BookingCreatedEvent is published when a booking is created.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ClientID      uuid.UUID `json:"client_id"`
	VehicleID     uuid.UUID `json:"vehicle_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Days          int       `json:"days"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingUpdatedEvent is published when a booking's assignment or dates
// change.
type BookingUpdatedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ClientID   uuid.UUID `json:"client_id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Days       int       `json:"days"`
	TotalCents int64     `json:"total_cents"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCompletedEvent is published when a booking reaches completed.
type BookingCompletedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	VehicleID     uuid.UUID `json:"vehicle_id"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a booking is cancelled.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	VehicleID     uuid.UUID `json:"vehicle_id"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingDeletedEvent is published when a booking record is removed.
type BookingDeletedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// VehicleReturnedEvent is consumed from the fleet topic when a vehicle
// is checked back in; it completes the referenced booking.
type VehicleReturnedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	ReturnedAt time.Time `json:"returned_at"`
	OccurredAt time.Time `json:"occurred_at"`
}
