package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/karibu-hire/service-rental/internal/domain/access"
	bookingDomain "github.com/karibu-hire/service-rental/internal/domain/booking"
	vehicleDomain "github.com/karibu-hire/service-rental/internal/domain/vehicle"
	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
	"github.com/karibu-hire/service-rental/internal/pkg/auth"
	"github.com/karibu-hire/service-rental/internal/pkg/pagination"
)

// CreateVehicleRequest is the request DTO for adding a fleet vehicle.
type CreateVehicleRequest struct {
	Make           string `json:"make" binding:"required"`
	Model          string `json:"model" binding:"required"`
	Year           int    `json:"year" binding:"required"`
	Color          string `json:"color"`
	LicensePlate   string `json:"license_plate" binding:"required"`
	DailyRateCents int64  `json:"daily_rate_cents" binding:"required"`
}

// UpdateVehicleRequest patches a vehicle's fields; zero values keep the
// current value.
type UpdateVehicleRequest struct {
	Make           string `json:"make"`
	Model          string `json:"model"`
	Year           int    `json:"year"`
	Color          string `json:"color"`
	LicensePlate   string `json:"license_plate"`
	DailyRateCents int64  `json:"daily_rate_cents"`
}

// VehicleDTO is the API response representation of a vehicle.
type VehicleDTO struct {
	ID             uuid.UUID `json:"id"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year"`
	Color          string    `json:"color,omitempty"`
	LicensePlate   string    `json:"license_plate"`
	DailyRateCents int64     `json:"daily_rate_cents"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// VehicleService implements use cases for fleet vehicle management.
type VehicleService struct {
	vehicles vehicleDomain.Repository
	bookings bookingDomain.Repository
	policy   access.Policy
	logger   *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(
	vehicles vehicleDomain.Repository,
	bookings bookingDomain.Repository,
	policy access.Policy,
	logger *zap.Logger,
) *VehicleService {
	return &VehicleService{vehicles: vehicles, bookings: bookings, policy: policy, logger: logger}
}

// CreateVehicle adds a new vehicle, enforcing plate uniqueness
// case-insensitively.
func (s *VehicleService) CreateVehicle(ctx context.Context, role auth.Role, req CreateVehicleRequest) (*VehicleDTO, error) {
	if !s.policy.HasPermission(role, access.ModuleVehicles, access.ActionCreate) {
		return nil, apperr.NewPermissionDenied("role may not create vehicles")
	}

	veh, err := vehicleDomain.NewVehicle(req.Make, req.Model, req.Year, req.Color, req.LicensePlate, req.DailyRateCents)
	if err != nil {
		return nil, err
	}

	if err := s.checkPlateUnique(ctx, veh.LicensePlate(), nil); err != nil {
		return nil, err
	}

	if err := s.vehicles.Save(ctx, veh); err != nil {
		s.logger.Error("failed to create vehicle", zap.Error(err))
		return nil, err
	}

	s.logger.Info("vehicle added",
		zap.String("vehicle_id", veh.ID().String()),
		zap.String("plate", veh.LicensePlate()),
	)
	result := toVehicleDTO(veh)
	return &result, nil
}

// GetVehicle returns a single vehicle by ID.
func (s *VehicleService) GetVehicle(ctx context.Context, vehicleID uuid.UUID) (*VehicleDTO, error) {
	veh, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	result := toVehicleDTO(veh)
	return &result, nil
}

// ListVehicles returns a paginated list of vehicles.
func (s *VehicleService) ListVehicles(ctx context.Context, page, limit int) (*pagination.PaginatedResult[VehicleDTO], error) {
	vehicles, total, err := s.vehicles.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]VehicleDTO, len(vehicles))
	for i, veh := range vehicles {
		dtos[i] = toVehicleDTO(veh)
	}
	result := pagination.New(dtos, total, page, limit)
	return &result, nil
}

// UpdateVehicle patches a vehicle. A rate change affects new bookings
// only; existing bookings keep their pinned price.
func (s *VehicleService) UpdateVehicle(ctx context.Context, role auth.Role, vehicleID uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	if !s.policy.HasPermission(role, access.ModuleVehicles, access.ActionEdit) {
		return nil, apperr.NewPermissionDenied("role may not edit vehicles")
	}

	veh, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	veh.Update(req.Make, req.Model, req.Year, req.Color, req.LicensePlate)
	if req.DailyRateCents != 0 {
		if err := veh.ChangeDailyRate(req.DailyRateCents); err != nil {
			return nil, err
		}
	}

	selfID := veh.ID()
	if err := s.checkPlateUnique(ctx, veh.LicensePlate(), &selfID); err != nil {
		return nil, err
	}

	veh.IncrementVersion()
	if err := s.vehicles.Update(ctx, veh); err != nil {
		s.logger.Error("failed to update vehicle", zap.Error(err))
		return nil, err
	}

	s.logger.Info("vehicle updated", zap.String("vehicle_id", vehicleID.String()))
	result := toVehicleDTO(veh)
	return &result, nil
}

// DeleteVehicle removes a vehicle, refusing while active bookings still
// reference it.
func (s *VehicleService) DeleteVehicle(ctx context.Context, role auth.Role, vehicleID uuid.UUID) error {
	if !s.policy.HasPermission(role, access.ModuleVehicles, access.ActionDelete) {
		return apperr.NewPermissionDenied("role may not delete vehicles")
	}

	if _, err := s.vehicles.FindByID(ctx, vehicleID); err != nil {
		return err
	}

	active, err := s.bookings.CountActiveByVehicleID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if active > 0 {
		return apperr.NewConflict("vehicle has active bookings and cannot be deleted")
	}

	if err := s.vehicles.Delete(ctx, vehicleID); err != nil {
		return err
	}

	s.logger.Info("vehicle deleted", zap.String("vehicle_id", vehicleID.String()))
	return nil
}

func (s *VehicleService) checkPlateUnique(ctx context.Context, plate string, selfID *uuid.UUID) error {
	existing, err := s.vehicles.FindByLicensePlate(ctx, plate)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}
	if selfID == nil || existing.ID() != *selfID {
		return apperr.NewConflict("a vehicle with this license plate already exists")
	}
	return nil
}

func toVehicleDTO(veh *vehicleDomain.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:             veh.ID(),
		Make:           veh.Make(),
		Model:          veh.Model(),
		Year:           veh.Year(),
		Color:          veh.Color(),
		LicensePlate:   veh.LicensePlate(),
		DailyRateCents: veh.DailyRateCents(),
		CreatedAt:      veh.CreatedAt(),
		UpdatedAt:      veh.UpdatedAt(),
	}
}
