package client

import (
	"time"

	"github.com/google/uuid"

	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
)

// Status represents the account state of a client.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusBanned    Status = "banned"
)

// IsValid reports whether the status is recognized.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusBanned:
		return true
	}
	return false
}

// Client is the aggregate root for a hiring client. idOrPassport, phone
// and licenseNumber are each unique across all clients; uniqueness is
// enforced case-insensitively for the document numbers at the store.
type Client struct {
	id            uuid.UUID
	fullName      string
	idOrPassport  string
	phone         string
	address       string
	licenseNumber string
	status        Status
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewClient creates a new active client with validated fields. Address
// is optional.
func NewClient(fullName, idOrPassport, phone, address, licenseNumber string) (*Client, error) {
	if fullName == "" {
		return nil, apperr.NewMissingField("full name")
	}
	if idOrPassport == "" {
		return nil, apperr.NewMissingField("ID or passport number")
	}
	if phone == "" {
		return nil, apperr.NewMissingField("phone")
	}
	if licenseNumber == "" {
		return nil, apperr.NewMissingField("license number")
	}

	now := time.Now().UTC()
	return &Client{
		id:            uuid.New(),
		fullName:      fullName,
		idOrPassport:  idOrPassport,
		phone:         phone,
		address:       address,
		licenseNumber: licenseNumber,
		status:        StatusActive,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstruct rebuilds a Client from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	fullName, idOrPassport, phone, address, licenseNumber string,
	status Status,
	version int64,
	createdAt, updatedAt time.Time,
) *Client {
	return &Client{
		id:            id,
		fullName:      fullName,
		idOrPassport:  idOrPassport,
		phone:         phone,
		address:       address,
		licenseNumber: licenseNumber,
		status:        status,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

func (c *Client) ID() uuid.UUID        { return c.id }
func (c *Client) FullName() string     { return c.fullName }
func (c *Client) IDOrPassport() string { return c.idOrPassport }
func (c *Client) Phone() string        { return c.phone }
func (c *Client) Address() string      { return c.address }
func (c *Client) LicenseNumber() string { return c.licenseNumber }
func (c *Client) Status() Status       { return c.status }
func (c *Client) Version() int64       { return c.version }
func (c *Client) CreatedAt() time.Time { return c.createdAt }
func (c *Client) UpdatedAt() time.Time { return c.updatedAt }

// --- Behavior ---

// Update replaces the client's editable fields. Empty values keep the
// current field.
func (c *Client) Update(fullName, idOrPassport, phone, address, licenseNumber string) {
	if fullName != "" {
		c.fullName = fullName
	}
	if idOrPassport != "" {
		c.idOrPassport = idOrPassport
	}
	if phone != "" {
		c.phone = phone
	}
	if address != "" {
		c.address = address
	}
	if licenseNumber != "" {
		c.licenseNumber = licenseNumber
	}
	c.updatedAt = time.Now().UTC()
}

// Suspend marks the client suspended.
func (c *Client) Suspend() {
	c.status = StatusSuspended
	c.updatedAt = time.Now().UTC()
}

// Reinstate marks the client active again.
func (c *Client) Reinstate() {
	c.status = StatusActive
	c.updatedAt = time.Now().UTC()
}

// SetStatus moves the client to the given status.
func (c *Client) SetStatus(status Status) error {
	if !status.IsValid() {
		return apperr.NewValidation("invalid client status: " + string(status))
	}
	c.status = status
	c.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (c *Client) IncrementVersion() {
	c.version++
	c.updatedAt = time.Now().UTC()
}
