package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karibu-hire/service-rental/internal/domain/access"
	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
	"github.com/karibu-hire/service-rental/internal/pkg/auth"
)

type clientFixture struct {
	service  *ClientService
	clients  *memClientRepo
	bookings *memBookingRepo
}

func newClientFixture(t *testing.T) *clientFixture {
	t.Helper()
	clients := newMemClientRepo()
	bookings := newMemBookingRepo()
	svc := NewClientService(clients, bookings, access.NewRolePolicy(), zap.NewNop())
	return &clientFixture{service: svc, clients: clients, bookings: bookings}
}

func validClientRequest() CreateClientRequest {
	return CreateClientRequest{
		FullName:      "Wanjiku Kamau",
		IDOrPassport:  "A1234567",
		Phone:         "+254711000111",
		Address:       "Nairobi",
		LicenseNumber: "DL-99001",
	}
}

func TestCreateClient(t *testing.T) {
	t.Run("registers an active client", func(t *testing.T) {
		f := newClientFixture(t)

		dto, err := f.service.CreateClient(context.Background(), auth.RoleStaff, validClientRequest())
		require.NoError(t, err)
		assert.Equal(t, "active", dto.Status)
		assert.Equal(t, "Wanjiku Kamau", dto.FullName)
	})

	t.Run("client role is denied", func(t *testing.T) {
		f := newClientFixture(t)

		_, err := f.service.CreateClient(context.Background(), auth.RoleClient, validClientRequest())
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})

	t.Run("duplicate document differs only in case", func(t *testing.T) {
		f := newClientFixture(t)
		_, err := f.service.CreateClient(context.Background(), auth.RoleStaff, validClientRequest())
		require.NoError(t, err)

		dup := validClientRequest()
		dup.IDOrPassport = "a1234567"
		dup.Phone = "+254722000222"
		dup.LicenseNumber = "DL-88002"
		_, err = f.service.CreateClient(context.Background(), auth.RoleStaff, dup)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("duplicate phone", func(t *testing.T) {
		f := newClientFixture(t)
		_, err := f.service.CreateClient(context.Background(), auth.RoleStaff, validClientRequest())
		require.NoError(t, err)

		dup := validClientRequest()
		dup.IDOrPassport = "B7654321"
		dup.LicenseNumber = "DL-88002"
		_, err = f.service.CreateClient(context.Background(), auth.RoleStaff, dup)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		f := newClientFixture(t)
		req := validClientRequest()
		req.Phone = ""

		_, err := f.service.CreateClient(context.Background(), auth.RoleStaff, req)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindMissingField))
	})
}

func TestUpdateClient(t *testing.T) {
	t.Run("patches fields and keeps uniqueness against itself", func(t *testing.T) {
		f := newClientFixture(t)
		dto, err := f.service.CreateClient(context.Background(), auth.RoleStaff, validClientRequest())
		require.NoError(t, err)

		// Re-submitting its own identifiers must not trip the checks.
		got, err := f.service.UpdateClient(context.Background(), auth.RoleStaff, dto.ID, UpdateClientRequest{
			FullName: "Wanjiku K. Kamau",
			Phone:    dto.Phone,
		})
		require.NoError(t, err)
		assert.Equal(t, "Wanjiku K. Kamau", got.FullName)
	})

	t.Run("taking another client's phone fails", func(t *testing.T) {
		f := newClientFixture(t)
		first, err := f.service.CreateClient(context.Background(), auth.RoleStaff, validClientRequest())
		require.NoError(t, err)

		other := validClientRequest()
		other.IDOrPassport = "B7654321"
		other.Phone = "+254722000222"
		other.LicenseNumber = "DL-88002"
		second, err := f.service.CreateClient(context.Background(), auth.RoleStaff, other)
		require.NoError(t, err)

		_, err = f.service.UpdateClient(context.Background(), auth.RoleStaff, second.ID, UpdateClientRequest{
			Phone: first.Phone,
		})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})
}

func TestChangeClientStatus(t *testing.T) {
	f := newClientFixture(t)
	dto, err := f.service.CreateClient(context.Background(), auth.RoleStaff, validClientRequest())
	require.NoError(t, err)

	got, err := f.service.ChangeClientStatus(context.Background(), auth.RoleStaff, dto.ID, "suspended")
	require.NoError(t, err)
	assert.Equal(t, "suspended", got.Status)

	got, err = f.service.ChangeClientStatus(context.Background(), auth.RoleStaff, dto.ID, "active")
	require.NoError(t, err)
	assert.Equal(t, "active", got.Status)

	_, err = f.service.ChangeClientStatus(context.Background(), auth.RoleStaff, dto.ID, "vip")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestDeleteClient(t *testing.T) {
	t.Run("deletes a client with no active bookings", func(t *testing.T) {
		f := newClientFixture(t)
		dto, err := f.service.CreateClient(context.Background(), auth.RoleDirector, validClientRequest())
		require.NoError(t, err)

		require.NoError(t, f.service.DeleteClient(context.Background(), auth.RoleDirector, dto.ID))

		_, err = f.service.GetClient(context.Background(), dto.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("refuses while active bookings reference the client", func(t *testing.T) {
		f := newClientFixture(t)
		dto, err := f.service.CreateClient(context.Background(), auth.RoleDirector, validClientRequest())
		require.NoError(t, err)

		seedActiveBookingFor(t, f.bookings, dto.ID, uuid.New())

		err = f.service.DeleteClient(context.Background(), auth.RoleDirector, dto.ID)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("staff may not delete", func(t *testing.T) {
		f := newClientFixture(t)
		dto, err := f.service.CreateClient(context.Background(), auth.RoleDirector, validClientRequest())
		require.NoError(t, err)

		err = f.service.DeleteClient(context.Background(), auth.RoleStaff, dto.ID)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})
}

func TestListClients(t *testing.T) {
	f := newClientFixture(t)
	_, err := f.service.CreateClient(context.Background(), auth.RoleStaff, validClientRequest())
	require.NoError(t, err)

	result, err := f.service.ListClients(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	assert.Len(t, result.Items, 1)
}
