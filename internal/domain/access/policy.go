package access

import "github.com/karibu-hire/service-rental/internal/pkg/auth"

// Module and action names used across the permission table.
const (
	ModuleDashboard = "dashboard"
	ModuleClients   = "clients"
	ModuleVehicles  = "vehicles"
	ModuleBookings  = "bookings"
	ModuleFinance   = "finance"
	ModuleReports   = "reports"

	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionCancel = "cancel"
	ActionExport = "export"
)

// Policy answers whether a role may perform an action on a module. It is
// injected into services and route middleware so deployments and tests
// can swap the table.
type Policy interface {
	HasPermission(role auth.Role, module, action string) bool
}

// RolePolicy is a static role -> module -> actions table.
type RolePolicy struct {
	table map[auth.Role]map[string][]string
}

// NewRolePolicy returns the default permission table: directors hold full
// control, staff run day-to-day operations, owners and clients get
// read-mostly self-service access.
func NewRolePolicy() *RolePolicy {
	return &RolePolicy{table: map[auth.Role]map[string][]string{
		auth.RoleDirector: {
			ModuleDashboard: {ActionView, ActionExport},
			ModuleClients:   {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport},
			ModuleVehicles:  {ActionView, ActionCreate, ActionEdit, ActionDelete},
			ModuleBookings:  {ActionView, ActionCreate, ActionEdit, ActionCancel, ActionDelete},
			ModuleFinance:   {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport},
			ModuleReports:   {ActionView, ActionExport},
		},
		auth.RoleStaff: {
			ModuleDashboard: {ActionView},
			ModuleClients:   {ActionView, ActionCreate, ActionEdit},
			ModuleVehicles:  {ActionView, ActionEdit},
			ModuleBookings:  {ActionView, ActionCreate, ActionEdit, ActionCancel},
			ModuleFinance:   {ActionView, ActionCreate},
			ModuleReports:   {ActionView},
		},
		auth.RoleOwner: {
			ModuleDashboard: {ActionView},
			ModuleVehicles:  {ActionView},
			ModuleBookings:  {ActionView},
			ModuleFinance:   {ActionView},
			ModuleReports:   {ActionView},
		},
		auth.RoleClient: {
			ModuleDashboard: {ActionView},
			ModuleVehicles:  {ActionView},
			ModuleBookings:  {ActionView, ActionCreate},
		},
	}}
}

// HasPermission reports whether role may perform action on module.
func (p *RolePolicy) HasPermission(role auth.Role, module, action string) bool {
	modules, ok := p.table[role]
	if !ok {
		return false
	}
	actions, ok := modules[module]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// ModuleActions returns the actions role may perform on module.
func (p *RolePolicy) ModuleActions(role auth.Role, module string) []string {
	modules, ok := p.table[role]
	if !ok {
		return nil
	}
	return modules[module]
}
