package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/karibu-hire/service-rental/internal/pkg/auth"
)

func TestRolePolicy_HasPermission(t *testing.T) {
	policy := NewRolePolicy()

	tests := []struct {
		name   string
		role   auth.Role
		module string
		action string
		want   bool
	}{
		{"director deletes bookings", auth.RoleDirector, ModuleBookings, ActionDelete, true},
		{"director cancels bookings", auth.RoleDirector, ModuleBookings, ActionCancel, true},
		{"staff cancels bookings", auth.RoleStaff, ModuleBookings, ActionCancel, true},
		{"staff cannot delete bookings", auth.RoleStaff, ModuleBookings, ActionDelete, false},
		{"staff cannot delete clients", auth.RoleStaff, ModuleClients, ActionDelete, false},
		{"staff cannot create vehicles", auth.RoleStaff, ModuleVehicles, ActionCreate, false},
		{"client creates bookings", auth.RoleClient, ModuleBookings, ActionCreate, true},
		{"client cannot cancel bookings", auth.RoleClient, ModuleBookings, ActionCancel, false},
		{"client has no finance access", auth.RoleClient, ModuleFinance, ActionView, false},
		{"owner views reports", auth.RoleOwner, ModuleReports, ActionView, true},
		{"owner cannot export reports", auth.RoleOwner, ModuleReports, ActionExport, false},
		{"owner cannot create bookings", auth.RoleOwner, ModuleBookings, ActionCreate, false},
		{"unknown role denied", auth.Role("intern"), ModuleBookings, ActionView, false},
		{"unknown module denied", auth.RoleDirector, "payroll", ActionView, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.HasPermission(tt.role, tt.module, tt.action))
		})
	}
}

func TestRolePolicy_ModuleActions(t *testing.T) {
	policy := NewRolePolicy()

	assert.ElementsMatch(t,
		[]string{ActionView, ActionCreate},
		policy.ModuleActions(auth.RoleClient, ModuleBookings))
	assert.Nil(t, policy.ModuleActions(auth.Role("intern"), ModuleBookings))
	assert.Nil(t, policy.ModuleActions(auth.RoleClient, ModuleFinance))
}
