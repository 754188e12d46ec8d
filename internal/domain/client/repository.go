package client

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for client aggregates.
// The lookup-by-document methods match case-insensitively so duplicate
// registrations differing only in casing are caught.
type Repository interface {
	// FindByID retrieves a client by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindByIDOrPassport retrieves a client by ID/passport number.
	FindByIDOrPassport(ctx context.Context, idOrPassport string) (*Client, error)

	// FindByPhone retrieves a client by phone number.
	FindByPhone(ctx context.Context, phone string) (*Client, error)

	// FindByLicenseNumber retrieves a client by driving license number.
	FindByLicenseNumber(ctx context.Context, licenseNumber string) (*Client, error)

	// ListAll retrieves all clients with pagination.
	ListAll(ctx context.Context, page, limit int) ([]*Client, int64, error)

	// Save persists a new client.
	Save(ctx context.Context, c *Client) error

	// Update persists changes to an existing client with optimistic locking.
	Update(ctx context.Context, c *Client) error

	// Delete removes a client. Returns a not-found error if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}
