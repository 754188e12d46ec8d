package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	bookingDomain "github.com/karibu-hire/service-rental/internal/domain/booking"
	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
)

// SQLSTATE codes surfaced by the bookings table constraints.
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber  string     `gorm:"uniqueIndex;not null;size:20"`
	ClientID       uuid.UUID  `gorm:"type:uuid;index;not null"`
	VehicleID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	StartDate      time.Time  `gorm:"type:date;not null"`
	EndDate        time.Time  `gorm:"type:date;not null"`
	Status         string     `gorm:"not null;size:20;index"`
	Days           int        `gorm:"not null"`
	DailyRateCents int64      `gorm:"not null"`
	TotalCents     int64      `gorm:"not null"`
	Currency       string     `gorm:"not null;size:3;default:'KES'"`
	CompletedAt    *time.Time `gorm:""`
	CancelledAt    *time.Time `gorm:""`
	CancelNote     string     `gorm:"size:500"`
	Version        int64      `gorm:"not null;default:1"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// EnsureOverlapConstraint installs the exclusion constraint that rejects
// overlapping active bookings for the same vehicle at insert time. This
// is what makes check-then-insert safe under concurrency; the SQL
// migration applies the same constraint in production, this path covers
// dev auto-migration and tests.
func EnsureOverlapConstraint(db *gorm.DB) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_no_active_overlap`,
		`ALTER TABLE bookings ADD CONSTRAINT bookings_no_active_overlap
			EXCLUDE USING gist (
				vehicle_id WITH =,
				daterange(start_date, end_date, '[]') WITH &&
			) WHERE (status = 'active')`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to ensure overlap constraint: %w", err)
		}
	}
	return nil
}

// GormBookingRepository is the GORM-based implementation of the booking
// Repository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("booking", id.String())
		}
		return nil, apperr.NewStore("failed to find booking by ID", err)
	}
	return toDomainBooking(&model), nil
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("booking", number)
		}
		return nil, apperr.NewStore("failed to find booking by number", err)
	}
	return toDomainBooking(&model), nil
}

// FindOverlapping returns active bookings for the vehicle overlapping r,
// under inclusive-inclusive comparison, excluding excludeID when set.
func (r *GormBookingRepository) FindOverlapping(ctx context.Context, vehicleID uuid.UUID, dr bookingDomain.DateRange, excludeID *uuid.UUID) ([]*bookingDomain.Booking, error) {
	q := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Where("status = ?", string(bookingDomain.StatusActive)).
		Where("start_date <= ? AND end_date >= ?", dr.End, dr.Start)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var models []BookingModel
	if err := q.Find(&models).Error; err != nil {
		return nil, apperr.NewStore("failed to find overlapping bookings", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bookings[i] = toDomainBooking(&m)
	}
	return bookings, nil
}

// FindByClientID retrieves bookings for a client with pagination.
func (r *GormBookingRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.WithContext(ctx).Where("client_id = ?", clientID), page, limit)
}

// FindByVehicleID retrieves bookings for a vehicle with pagination.
func (r *GormBookingRepository) FindByVehicleID(ctx context.Context, vehicleID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID), page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.WithContext(ctx), page, limit)
}

func (r *GormBookingRepository) findPage(ctx context.Context, q *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.NewStore("failed to count bookings", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := q.Model(&BookingModel{}).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, apperr.NewStore("failed to list bookings", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bookings[i] = toDomainBooking(&m)
	}
	return bookings, total, nil
}

// CountActiveByClientID returns active bookings referencing the client.
func (r *GormBookingRepository) CountActiveByClientID(ctx context.Context, clientID uuid.UUID) (int64, error) {
	return r.countActive(ctx, "client_id", clientID)
}

// CountActiveByVehicleID returns active bookings referencing the vehicle.
func (r *GormBookingRepository) CountActiveByVehicleID(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	return r.countActive(ctx, "vehicle_id", vehicleID)
}

func (r *GormBookingRepository) countActive(ctx context.Context, column string, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where(column+" = ?", id).
		Where("status = ?", string(bookingDomain.StatusActive)).
		Count(&count).Error
	if err != nil {
		return 0, apperr.NewStore("failed to count active bookings", err)
	}
	return count, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, apperr.NewStore("failed to count by status", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking. The exclusion constraint makes the
// overlap check atomic with the insert, so the loser of a race gets the
// same vehicle-unavailable error as a failed pre-check.
func (r *GormBookingRepository) Save(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return mapBookingWriteError(err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)

	// IncrementVersion was called before Update, so the row must still
	// hold the previous version.
	expectedVersion := b.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"client_id":        model.ClientID,
			"vehicle_id":       model.VehicleID,
			"start_date":       model.StartDate,
			"end_date":         model.EndDate,
			"status":           model.Status,
			"days":             model.Days,
			"daily_rate_cents": model.DailyRateCents,
			"total_cents":      model.TotalCents,
			"currency":         model.Currency,
			"completed_at":     model.CompletedAt,
			"cancelled_at":     model.CancelledAt,
			"cancel_note":      model.CancelNote,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return mapBookingWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewConflict("booking was modified by another transaction")
	}
	return nil
}

// Delete removes a booking unconditionally.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return apperr.NewStore("failed to delete booking", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewNotFound("booking", id.String())
	}
	return nil
}

// mapBookingWriteError translates constraint violations into typed
// domain errors.
func mapBookingWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return apperr.NewVehicleUnavailable("vehicle is already booked for the requested dates")
		case pgUniqueViolation:
			return apperr.NewConflict("booking number already exists")
		}
	}
	return apperr.NewStore("failed to write booking", err)
}

// --- Conversion Helpers ---

func toBookingModel(b *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:             b.ID(),
		BookingNumber:  b.BookingNumber(),
		ClientID:       b.ClientID(),
		VehicleID:      b.VehicleID(),
		StartDate:      b.Dates().Start,
		EndDate:        b.Dates().End,
		Status:         string(b.Status()),
		Days:           b.Days(),
		DailyRateCents: b.DailyRateCents(),
		TotalCents:     b.TotalCents(),
		Currency:       b.Currency(),
		CompletedAt:    b.CompletedAt(),
		CancelledAt:    b.CancelledAt(),
		CancelNote:     b.CancelNote(),
		Version:        b.Version(),
		CreatedAt:      b.CreatedAt(),
		UpdatedAt:      b.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) *bookingDomain.Booking {
	return bookingDomain.Reconstruct(
		m.ID,
		m.BookingNumber,
		m.ClientID,
		m.VehicleID,
		bookingDomain.NewDateRange(m.StartDate, m.EndDate),
		bookingDomain.Status(m.Status),
		m.Days,
		m.DailyRateCents,
		m.TotalCents,
		m.Currency,
		m.CompletedAt,
		m.CancelledAt,
		m.CancelNote,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
