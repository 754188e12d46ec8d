package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the rental booking domain. It owns
// its client/vehicle reference pair, never the records themselves, and
// pins the price derived at creation time: a later change to the
// vehicle's daily rate must not reprice an existing booking.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	clientID      uuid.UUID
	vehicleID     uuid.UUID
	dates         DateRange
	status        Status

	days           int
	dailyRateCents int64
	totalCents     int64
	currency       string

	completedAt *time.Time
	cancelledAt *time.Time
	cancelNote  string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "RN-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "RN-" + string(result), nil
}

// NewBooking creates a new active Booking from a validated request and
// the quote derived from the vehicle's rate at this moment.
func NewBooking(in ValidatedInput, quote Quote, dailyRateCents int64, currency string) (*Booking, error) {
	if dailyRateCents <= 0 {
		return nil, apperr.NewValidation("daily rate must be positive")
	}
	if currency == "" {
		return nil, apperr.NewMissingField("currency")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:             uuid.New(),
		bookingNumber:  bookingNumber,
		clientID:       in.ClientID,
		vehicleID:      in.VehicleID,
		dates:          in.Range,
		status:         StatusActive,
		days:           quote.Days,
		dailyRateCents: dailyRateCents,
		totalCents:     quote.TotalCents,
		currency:       currency,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	bookingNumber string,
	clientID, vehicleID uuid.UUID,
	dates DateRange,
	status Status,
	days int,
	dailyRateCents, totalCents int64,
	currency string,
	completedAt, cancelledAt *time.Time,
	cancelNote string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:             id,
		bookingNumber:  bookingNumber,
		clientID:       clientID,
		vehicleID:      vehicleID,
		dates:          dates,
		status:         status,
		days:           days,
		dailyRateCents: dailyRateCents,
		totalCents:     totalCents,
		currency:       currency,
		completedAt:    completedAt,
		cancelledAt:    cancelledAt,
		cancelNote:     cancelNote,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// ClientID returns the hiring client's ID.
func (b *Booking) ClientID() uuid.UUID { return b.clientID }

// VehicleID returns the booked vehicle's ID.
func (b *Booking) VehicleID() uuid.UUID { return b.vehicleID }

// Dates returns the inclusive rental date range.
func (b *Booking) Dates() DateRange { return b.dates }

// Status returns the current booking status.
func (b *Booking) Status() Status { return b.status }

// Days returns the rental day count pinned at creation.
func (b *Booking) Days() int { return b.days }

// DailyRateCents returns the per-day rate pinned at creation.
func (b *Booking) DailyRateCents() int64 { return b.dailyRateCents }

// TotalCents returns the total amount pinned at creation.
func (b *Booking) TotalCents() int64 { return b.totalCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// CompletedAt returns the completion time, or nil.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// CancelledAt returns the cancellation time, or nil.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelNote returns the cancellation reason.
func (b *Booking) CancelNote() string { return b.cancelNote }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// ChangeStatus applies the state machine. A terminal source fails before
// the target is even considered; an unreachable target fails as an
// invalid transition.
func (b *Booking) ChangeStatus(target Status) error {
	if b.status.IsTerminal() {
		return apperr.NewTerminalState(string(b.status))
	}
	if !b.status.CanTransitionTo(target) {
		return apperr.NewInvalidTransition(string(b.status), string(target))
	}

	now := time.Now().UTC()
	b.status = target
	switch target {
	case StatusCompleted:
		b.completedAt = &now
	case StatusCancelled:
		b.cancelledAt = &now
	}
	b.updatedAt = now
	return nil
}

// Complete transitions the booking from active to completed.
func (b *Booking) Complete() error {
	return b.ChangeStatus(StatusCompleted)
}

// Cancel transitions the booking from active to cancelled with a reason.
func (b *Booking) Cancel(reason string) error {
	if err := b.ChangeStatus(StatusCancelled); err != nil {
		return err
	}
	b.cancelNote = reason
	return nil
}

// Reschedule replaces the booking's assignment and range with freshly
// validated values and re-pins the price from the new quote. Status is
// never touched here; use ChangeStatus for that.
func (b *Booking) Reschedule(in ValidatedInput, quote Quote, dailyRateCents int64) {
	b.clientID = in.ClientID
	b.vehicleID = in.VehicleID
	b.dates = in.Range
	b.days = quote.Days
	b.dailyRateCents = dailyRateCents
	b.totalCents = quote.TotalCents
	b.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
