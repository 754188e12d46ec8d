package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for booking aggregates.
//
// Save must reject, with a vehicle-unavailable error, any active booking
// whose range overlaps an existing active booking for the same vehicle.
// That check has to be atomic with the insert: the pre-check done by the
// application layer only exists to give a friendly early answer and is
// not a substitute.
type Repository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// FindOverlapping returns active bookings for the vehicle whose date
	// ranges overlap r, excluding excludeID when non-nil (used when
	// re-validating an edit against everything but the booking itself).
	FindOverlapping(ctx context.Context, vehicleID uuid.UUID, r DateRange, excludeID *uuid.UUID) ([]*Booking, error)

	// FindByClientID retrieves bookings for a client with pagination.
	FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByVehicleID retrieves bookings for a vehicle with pagination.
	FindByVehicleID(ctx context.Context, vehicleID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// CountActiveByClientID returns the number of active bookings
	// referencing the client.
	CountActiveByClientID(ctx context.Context, clientID uuid.UUID) (int64, error)

	// CountActiveByVehicleID returns the number of active bookings
	// referencing the vehicle.
	CountActiveByVehicleID(ctx context.Context, vehicleID uuid.UUID) (int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking, enforcing the no-overlap invariant
	// atomically.
	Save(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic
	// locking, re-enforcing the no-overlap invariant.
	Update(ctx context.Context, b *Booking) error

	// Delete removes a booking unconditionally. Returns a not-found error
	// if no such booking exists.
	Delete(ctx context.Context, id uuid.UUID) error
}
