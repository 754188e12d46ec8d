package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
)

// Input is the raw booking request before validation.
type Input struct {
	ClientID  uuid.UUID
	VehicleID uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

// ValidatedInput is a normalized booking request: dates day-truncated in
// UTC, ids carried through unmodified.
type ValidatedInput struct {
	ClientID  uuid.UUID
	VehicleID uuid.UUID
	Range     DateRange
}

// Validate checks field completeness, date ordering and the no-past-start
// rule against the given day. Pure: no I/O, deterministic for a fixed
// today.
func (in Input) Validate(today time.Time) (ValidatedInput, error) {
	if in.ClientID == uuid.Nil {
		return ValidatedInput{}, apperr.NewMissingField("client")
	}
	if in.VehicleID == uuid.Nil {
		return ValidatedInput{}, apperr.NewMissingField("vehicle")
	}
	if in.StartDate.IsZero() {
		return ValidatedInput{}, apperr.NewMissingField("start date")
	}
	if in.EndDate.IsZero() {
		return ValidatedInput{}, apperr.NewMissingField("end date")
	}

	start := Day(in.StartDate)
	end := Day(in.EndDate)
	if start.After(end) {
		return ValidatedInput{}, apperr.NewInvalidDateRange("start date must not be after end date")
	}
	if start.Before(Day(today)) {
		return ValidatedInput{}, apperr.NewPastStartDate("start date cannot be in the past")
	}

	return ValidatedInput{
		ClientID:  in.ClientID,
		VehicleID: in.VehicleID,
		Range:     DateRange{Start: start, End: end},
	}, nil
}
