// Package rbac answers "can this role do that" for the dashboard. Roles map to
// permission names through role_permissions bindings; the Registry resolves
// them, the Evaluator applies single/any/all checks on top, and the Seeder
// provisions the default set on first start.
package rbac

import (
	"errors"
	"sort"
	"strings"

	"gatekeeper/internal/store"
)

var (
	ErrNotFound      = store.ErrNotFound
	ErrConflict      = store.ErrConflict
	ErrProtectedRole = errors.New("role is protected")
	ErrInvalid       = errors.New("invalid input")
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

const (
	ViewDashboard     = "view_dashboard"
	ManageUsers       = "manage_users"
	EditSettings      = "edit_settings"
	ViewReports       = "view_reports"
	ManageRoles       = "manage_roles"
	ManagePermissions = "manage_permissions"

	// read-only variants the dashboard understands but does not seed
	ViewUsers       = "view_users"
	ViewRoles       = "view_roles"
	ViewPermissions = "view_permissions"
)

// Normalize canonicalises role and permission names.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func IsProtectedRole(name string) bool {
	switch Normalize(name) {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

type PermissionSet map[string]struct{}

func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		if n = Normalize(n); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func (s PermissionSet) Has(name string) bool {
	_, ok := s[Normalize(name)]
	return ok
}

func (s PermissionSet) Len() int { return len(s) }

// Names returns the set sorted.
func (s PermissionSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s PermissionSet) HasAny(names []string) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}
