package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	clientDomain "github.com/karibu-hire/service-rental/internal/domain/client"
	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
)

// ClientModel is the GORM model for the clients table. The functional
// unique indexes on lower(id_or_passport) and lower(license_number) are
// created by the migration; the plain phone index is declared here.
type ClientModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName      string    `gorm:"not null;size:200"`
	IDOrPassport  string    `gorm:"not null;size:50"`
	Phone         string    `gorm:"uniqueIndex;not null;size:30"`
	Address       string    `gorm:"size:300"`
	LicenseNumber string    `gorm:"not null;size:50"`
	Status        string    `gorm:"not null;size:20;default:'active'"`
	Version       int64     `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ClientModel) TableName() string {
	return "clients"
}

// EnsureClientUniqueIndexes installs the case-insensitive unique indexes
// for the dev auto-migrate path; the SQL migration covers production.
func EnsureClientUniqueIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_id_or_passport_ci ON clients (lower(id_or_passport))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_license_number_ci ON clients (lower(license_number))`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// GormClientRepository is the GORM-based implementation of the client
// Repository.
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository.
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID retrieves a client by its unique identifier.
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*clientDomain.Client, error) {
	var model ClientModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("client", id.String())
		}
		return nil, apperr.NewStore("failed to find client by ID", err)
	}
	return toDomainClient(&model), nil
}

// FindByIDOrPassport retrieves a client by document number, ignoring case.
func (r *GormClientRepository) FindByIDOrPassport(ctx context.Context, idOrPassport string) (*clientDomain.Client, error) {
	return r.findByColumnCI(ctx, "id_or_passport", idOrPassport)
}

// FindByPhone retrieves a client by phone number.
func (r *GormClientRepository) FindByPhone(ctx context.Context, phone string) (*clientDomain.Client, error) {
	var model ClientModel
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("client", phone)
		}
		return nil, apperr.NewStore("failed to find client by phone", err)
	}
	return toDomainClient(&model), nil
}

// FindByLicenseNumber retrieves a client by license number, ignoring case.
func (r *GormClientRepository) FindByLicenseNumber(ctx context.Context, licenseNumber string) (*clientDomain.Client, error) {
	return r.findByColumnCI(ctx, "license_number", licenseNumber)
}

func (r *GormClientRepository) findByColumnCI(ctx context.Context, column, value string) (*clientDomain.Client, error) {
	var model ClientModel
	if err := r.db.WithContext(ctx).Where("lower("+column+") = lower(?)", value).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("client", value)
		}
		return nil, apperr.NewStore("failed to find client", err)
	}
	return toDomainClient(&model), nil
}

// ListAll retrieves all clients with pagination.
func (r *GormClientRepository) ListAll(ctx context.Context, page, limit int) ([]*clientDomain.Client, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ClientModel{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.NewStore("failed to count clients", err)
	}

	var models []ClientModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, apperr.NewStore("failed to list clients", err)
	}

	clients := make([]*clientDomain.Client, len(models))
	for i, m := range models {
		clients[i] = toDomainClient(&m)
	}
	return clients, total, nil
}

// Save persists a new client.
func (r *GormClientRepository) Save(ctx context.Context, c *clientDomain.Client) error {
	model := toClientModel(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return mapClientWriteError(err)
	}
	return nil
}

// Update persists changes to an existing client with optimistic locking.
func (r *GormClientRepository) Update(ctx context.Context, c *clientDomain.Client) error {
	model := toClientModel(c)
	expectedVersion := c.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ClientModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"full_name":      model.FullName,
			"id_or_passport": model.IDOrPassport,
			"phone":          model.Phone,
			"address":        model.Address,
			"license_number": model.LicenseNumber,
			"status":         model.Status,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return mapClientWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewConflict("client was modified by another transaction")
	}
	return nil
}

// Delete removes a client.
func (r *GormClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ClientModel{})
	if result.Error != nil {
		return apperr.NewStore("failed to delete client", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewNotFound("client", id.String())
	}
	return nil
}

func mapClientWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperr.NewConflict("a client with the same document, phone or license already exists")
	}
	return apperr.NewStore("failed to write client", err)
}

// --- Conversion Helpers ---

func toClientModel(c *clientDomain.Client) *ClientModel {
	return &ClientModel{
		ID:            c.ID(),
		FullName:      c.FullName(),
		IDOrPassport:  c.IDOrPassport(),
		Phone:         c.Phone(),
		Address:       c.Address(),
		LicenseNumber: c.LicenseNumber(),
		Status:        string(c.Status()),
		Version:       c.Version(),
		CreatedAt:     c.CreatedAt(),
		UpdatedAt:     c.UpdatedAt(),
	}
}

func toDomainClient(m *ClientModel) *clientDomain.Client {
	return clientDomain.Reconstruct(
		m.ID,
		m.FullName,
		m.IDOrPassport,
		m.Phone,
		m.Address,
		m.LicenseNumber,
		clientDomain.Status(m.Status),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
