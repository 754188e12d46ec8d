package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	vehicleDomain "github.com/karibu-hire/service-rental/internal/domain/vehicle"
	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
)

// VehicleModel is the GORM model for the vehicles table. The
// case-insensitive unique index on lower(license_plate) comes from the
// migration.
type VehicleModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Make           string    `gorm:"not null;size:100"`
	Model          string    `gorm:"not null;size:100"`
	Year           int       `gorm:"not null"`
	Color          string    `gorm:"size:50"`
	LicensePlate   string    `gorm:"not null;size:20"`
	DailyRateCents int64     `gorm:"not null"`
	Version        int64     `gorm:"not null;default:1"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (VehicleModel) TableName() string {
	return "vehicles"
}

// EnsureVehicleUniqueIndexes installs the case-insensitive plate index
// for the dev auto-migrate path.
func EnsureVehicleUniqueIndexes(db *gorm.DB) error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicles_license_plate_ci ON vehicles (lower(license_plate))`).Error
}

// GormVehicleRepository is the GORM-based implementation of the vehicle
// Repository.
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository.
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByID retrieves a vehicle by its unique identifier.
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("vehicle", id.String())
		}
		return nil, apperr.NewStore("failed to find vehicle by ID", err)
	}
	return toDomainVehicle(&model), nil
}

// FindByLicensePlate retrieves a vehicle by plate, ignoring case.
func (r *GormVehicleRepository) FindByLicensePlate(ctx context.Context, plate string) (*vehicleDomain.Vehicle, error) {
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("lower(license_plate) = lower(?)", plate).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("vehicle", plate)
		}
		return nil, apperr.NewStore("failed to find vehicle by plate", err)
	}
	return toDomainVehicle(&model), nil
}

// ListAll retrieves all vehicles with pagination.
func (r *GormVehicleRepository) ListAll(ctx context.Context, page, limit int) ([]*vehicleDomain.Vehicle, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&VehicleModel{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.NewStore("failed to count vehicles", err)
	}

	var models []VehicleModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, apperr.NewStore("failed to list vehicles", err)
	}

	vehicles := make([]*vehicleDomain.Vehicle, len(models))
	for i, m := range models {
		vehicles[i] = toDomainVehicle(&m)
	}
	return vehicles, total, nil
}

// Save persists a new vehicle.
func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return mapVehicleWriteError(err)
	}
	return nil
}

// Update persists changes to an existing vehicle with optimistic locking.
func (r *GormVehicleRepository) Update(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)
	expectedVersion := v.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"make":             model.Make,
			"model":            model.Model,
			"year":             model.Year,
			"color":            model.Color,
			"license_plate":    model.LicensePlate,
			"daily_rate_cents": model.DailyRateCents,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return mapVehicleWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewConflict("vehicle was modified by another transaction")
	}
	return nil
}

// Delete removes a vehicle.
func (r *GormVehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&VehicleModel{})
	if result.Error != nil {
		return apperr.NewStore("failed to delete vehicle", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewNotFound("vehicle", id.String())
	}
	return nil
}

func mapVehicleWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperr.NewConflict("a vehicle with the same license plate already exists")
	}
	return apperr.NewStore("failed to write vehicle", err)
}

// --- Conversion Helpers ---

func toVehicleModel(v *vehicleDomain.Vehicle) *VehicleModel {
	return &VehicleModel{
		ID:             v.ID(),
		Make:           v.Make(),
		Model:          v.Model(),
		Year:           v.Year(),
		Color:          v.Color(),
		LicensePlate:   v.LicensePlate(),
		DailyRateCents: v.DailyRateCents(),
		Version:        v.Version(),
		CreatedAt:      v.CreatedAt(),
		UpdatedAt:      v.UpdatedAt(),
	}
}

func toDomainVehicle(m *VehicleModel) *vehicleDomain.Vehicle {
	return vehicleDomain.Reconstruct(
		m.ID,
		m.Make,
		m.Model,
		m.Year,
		m.Color,
		m.LicensePlate,
		m.DailyRateCents,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
