package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/karibu-hire/service-rental/internal/domain/access"
	bookingDomain "github.com/karibu-hire/service-rental/internal/domain/booking"
	clientDomain "github.com/karibu-hire/service-rental/internal/domain/client"
	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
	"github.com/karibu-hire/service-rental/internal/pkg/auth"
	"github.com/karibu-hire/service-rental/internal/pkg/pagination"
)

// CreateClientRequest is the request DTO for registering a client.
type CreateClientRequest struct {
	FullName      string `json:"full_name" binding:"required"`
	IDOrPassport  string `json:"id_or_passport" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	Address       string `json:"address"`
	LicenseNumber string `json:"license_number" binding:"required"`
}

// UpdateClientRequest patches a client's fields; empty fields keep the
// current value.
type UpdateClientRequest struct {
	FullName      string `json:"full_name"`
	IDOrPassport  string `json:"id_or_passport"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	LicenseNumber string `json:"license_number"`
}

// ClientDTO is the API response representation of a client.
type ClientDTO struct {
	ID            uuid.UUID `json:"id"`
	FullName      string    `json:"full_name"`
	IDOrPassport  string    `json:"id_or_passport"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address,omitempty"`
	LicenseNumber string    `json:"license_number"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ClientService implements use cases for client management.
type ClientService struct {
	clients  clientDomain.Repository
	bookings bookingDomain.Repository
	policy   access.Policy
	logger   *zap.Logger
}

// NewClientService creates a new ClientService.
func NewClientService(
	clients clientDomain.Repository,
	bookings bookingDomain.Repository,
	policy access.Policy,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{clients: clients, bookings: bookings, policy: policy, logger: logger}
}

// CreateClient registers a new client, enforcing uniqueness of the
// document number, phone and license (document and license compared
// case-insensitively).
func (s *ClientService) CreateClient(ctx context.Context, role auth.Role, req CreateClientRequest) (*ClientDTO, error) {
	if !s.policy.HasPermission(role, access.ModuleClients, access.ActionCreate) {
		return nil, apperr.NewPermissionDenied("role may not create clients")
	}

	cl, err := clientDomain.NewClient(req.FullName, req.IDOrPassport, req.Phone, req.Address, req.LicenseNumber)
	if err != nil {
		return nil, err
	}

	if err := s.checkUnique(ctx, cl, nil); err != nil {
		return nil, err
	}

	if err := s.clients.Save(ctx, cl); err != nil {
		s.logger.Error("failed to create client", zap.Error(err))
		return nil, err
	}

	s.logger.Info("client registered", zap.String("client_id", cl.ID().String()))
	result := toClientDTO(cl)
	return &result, nil
}

// GetClient returns a single client by ID.
func (s *ClientService) GetClient(ctx context.Context, clientID uuid.UUID) (*ClientDTO, error) {
	cl, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	result := toClientDTO(cl)
	return &result, nil
}

// ListClients returns a paginated list of clients.
func (s *ClientService) ListClients(ctx context.Context, page, limit int) (*pagination.PaginatedResult[ClientDTO], error) {
	clients, total, err := s.clients.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]ClientDTO, len(clients))
	for i, cl := range clients {
		dtos[i] = toClientDTO(cl)
	}
	result := pagination.New(dtos, total, page, limit)
	return &result, nil
}

// UpdateClient patches a client, re-checking uniqueness for any changed
// identifier.
func (s *ClientService) UpdateClient(ctx context.Context, role auth.Role, clientID uuid.UUID, req UpdateClientRequest) (*ClientDTO, error) {
	if !s.policy.HasPermission(role, access.ModuleClients, access.ActionEdit) {
		return nil, apperr.NewPermissionDenied("role may not edit clients")
	}

	cl, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	cl.Update(req.FullName, req.IDOrPassport, req.Phone, req.Address, req.LicenseNumber)
	selfID := cl.ID()
	if err := s.checkUnique(ctx, cl, &selfID); err != nil {
		return nil, err
	}

	cl.IncrementVersion()
	if err := s.clients.Update(ctx, cl); err != nil {
		s.logger.Error("failed to update client", zap.Error(err))
		return nil, err
	}

	s.logger.Info("client updated", zap.String("client_id", clientID.String()))
	result := toClientDTO(cl)
	return &result, nil
}

// ChangeClientStatus moves a client between active, suspended and
// banned. Suspended or banned clients cannot receive new bookings.
func (s *ClientService) ChangeClientStatus(ctx context.Context, role auth.Role, clientID uuid.UUID, status string) (*ClientDTO, error) {
	if !s.policy.HasPermission(role, access.ModuleClients, access.ActionEdit) {
		return nil, apperr.NewPermissionDenied("role may not edit clients")
	}

	cl, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if err := cl.SetStatus(clientDomain.Status(status)); err != nil {
		return nil, err
	}

	cl.IncrementVersion()
	if err := s.clients.Update(ctx, cl); err != nil {
		s.logger.Error("failed to change client status", zap.Error(err))
		return nil, err
	}

	s.logger.Info("client status changed",
		zap.String("client_id", clientID.String()),
		zap.String("status", status),
	)
	result := toClientDTO(cl)
	return &result, nil
}

// DeleteClient removes a client, refusing while active bookings still
// reference it.
func (s *ClientService) DeleteClient(ctx context.Context, role auth.Role, clientID uuid.UUID) error {
	if !s.policy.HasPermission(role, access.ModuleClients, access.ActionDelete) {
		return apperr.NewPermissionDenied("role may not delete clients")
	}

	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		return err
	}

	active, err := s.bookings.CountActiveByClientID(ctx, clientID)
	if err != nil {
		return err
	}
	if active > 0 {
		return apperr.NewConflict("client has active bookings and cannot be deleted")
	}

	if err := s.clients.Delete(ctx, clientID); err != nil {
		return err
	}

	s.logger.Info("client deleted", zap.String("client_id", clientID.String()))
	return nil
}

// checkUnique verifies no other client holds the same document, phone or
// license. selfID skips the client's own record on updates.
func (s *ClientService) checkUnique(ctx context.Context, cl *clientDomain.Client, selfID *uuid.UUID) error {
	lookups := []struct {
		find func() (*clientDomain.Client, error)
		msg  string
	}{
		{func() (*clientDomain.Client, error) { return s.clients.FindByIDOrPassport(ctx, cl.IDOrPassport()) },
			"a client with this ID or passport number already exists"},
		{func() (*clientDomain.Client, error) { return s.clients.FindByPhone(ctx, cl.Phone()) },
			"a client with this phone number already exists"},
		{func() (*clientDomain.Client, error) { return s.clients.FindByLicenseNumber(ctx, cl.LicenseNumber()) },
			"a client with this license number already exists"},
	}

	for _, l := range lookups {
		existing, err := l.find()
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				continue
			}
			return err
		}
		if selfID == nil || existing.ID() != *selfID {
			return apperr.NewConflict(l.msg)
		}
	}
	return nil
}

func toClientDTO(cl *clientDomain.Client) ClientDTO {
	return ClientDTO{
		ID:            cl.ID(),
		FullName:      cl.FullName(),
		IDOrPassport:  cl.IDOrPassport(),
		Phone:         cl.Phone(),
		Address:       cl.Address(),
		LicenseNumber: cl.LicenseNumber(),
		Status:        string(cl.Status()),
		CreatedAt:     cl.CreatedAt(),
		UpdatedAt:     cl.UpdatedAt(),
	}
}
