package vehicle

import (
	"time"

	"github.com/google/uuid"

	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
)

// Vehicle is the aggregate root for a fleet vehicle. The daily rate is
// the rate offered to new bookings; existing bookings keep the rate
// pinned at their creation.
type Vehicle struct {
	id             uuid.UUID
	make           string
	model          string
	year           int
	color          string
	licensePlate   string
	dailyRateCents int64
	version        int64
	createdAt      time.Time
	updatedAt      time.Time
}

// NewVehicle creates a new vehicle with validated fields. Color is
// optional.
func NewVehicle(make, model string, year int, color, licensePlate string, dailyRateCents int64) (*Vehicle, error) {
	if make == "" {
		return nil, apperr.NewMissingField("make")
	}
	if model == "" {
		return nil, apperr.NewMissingField("model")
	}
	if year < 1900 {
		return nil, apperr.NewValidation("year must be a four-digit model year")
	}
	if licensePlate == "" {
		return nil, apperr.NewMissingField("license plate")
	}
	if dailyRateCents <= 0 {
		return nil, apperr.NewValidation("daily rate must be positive")
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:             uuid.New(),
		make:           make,
		model:          model,
		year:           year,
		color:          color,
		licensePlate:   licensePlate,
		dailyRateCents: dailyRateCents,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstruct rebuilds a Vehicle from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	make, model string,
	year int,
	color, licensePlate string,
	dailyRateCents int64,
	version int64,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:             id,
		make:           make,
		model:          model,
		year:           year,
		color:          color,
		licensePlate:   licensePlate,
		dailyRateCents: dailyRateCents,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

func (v *Vehicle) ID() uuid.UUID         { return v.id }
func (v *Vehicle) Make() string          { return v.make }
func (v *Vehicle) Model() string         { return v.model }
func (v *Vehicle) Year() int             { return v.year }
func (v *Vehicle) Color() string         { return v.color }
func (v *Vehicle) LicensePlate() string  { return v.licensePlate }
func (v *Vehicle) DailyRateCents() int64 { return v.dailyRateCents }
func (v *Vehicle) Version() int64        { return v.version }
func (v *Vehicle) CreatedAt() time.Time  { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time  { return v.updatedAt }

// --- Behavior ---

// Update replaces the vehicle's editable fields. Zero values keep the
// current field; ChangeDailyRate handles the rate.
func (v *Vehicle) Update(make, model string, year int, color, licensePlate string) {
	if make != "" {
		v.make = make
	}
	if model != "" {
		v.model = model
	}
	if year >= 1900 {
		v.year = year
	}
	if color != "" {
		v.color = color
	}
	if licensePlate != "" {
		v.licensePlate = licensePlate
	}
	v.updatedAt = time.Now().UTC()
}

// ChangeDailyRate sets the rate offered to new bookings.
func (v *Vehicle) ChangeDailyRate(rateCents int64) error {
	if rateCents <= 0 {
		return apperr.NewValidation("daily rate must be positive")
	}
	v.dailyRateCents = rateCents
	v.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (v *Vehicle) IncrementVersion() {
	v.version++
	v.updatedAt = time.Now().UTC()
}
