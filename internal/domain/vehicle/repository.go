package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for vehicle aggregates.
type Repository interface {
	// FindByID retrieves a vehicle by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// FindByLicensePlate retrieves a vehicle by plate, case-insensitively.
	FindByLicensePlate(ctx context.Context, plate string) (*Vehicle, error)

	// ListAll retrieves all vehicles with pagination.
	ListAll(ctx context.Context, page, limit int) ([]*Vehicle, int64, error)

	// Save persists a new vehicle.
	Save(ctx context.Context, v *Vehicle) error

	// Update persists changes to an existing vehicle with optimistic locking.
	Update(ctx context.Context, v *Vehicle) error

	// Delete removes a vehicle. Returns a not-found error if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}
