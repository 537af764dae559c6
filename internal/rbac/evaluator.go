package rbac

import "context"

// Evaluator applies permission checks for a role. It never returns errors;
// anything it cannot confirm is denied.
type Evaluator struct {
	registry *Registry
}

func NewEvaluator(registry *Registry) *Evaluator {
	return &Evaluator{registry: registry}
}

func (e *Evaluator) Permissions(ctx context.Context, role string) PermissionSet {
	return e.registry.PermissionsForRole(ctx, role)
}

func (e *Evaluator) HasPermission(ctx context.Context, role, permission string) bool {
	if Normalize(role) == "" || Normalize(permission) == "" {
		return false
	}
	return e.Permissions(ctx, role).Has(permission)
}

// HasAnyPermission is false for an empty request list.
func (e *Evaluator) HasAnyPermission(ctx context.Context, role string, permissions []string) bool {
	if Normalize(role) == "" || len(permissions) == 0 {
		return false
	}
	return e.Permissions(ctx, role).HasAny(permissions)
}

// HasAllPermissions is also false for an empty request list.
func (e *Evaluator) HasAllPermissions(ctx context.Context, role string, permissions []string) bool {
	if Normalize(role) == "" || len(permissions) == 0 {
		return false
	}
	set := e.Permissions(ctx, role)
	for _, p := range permissions {
		if !set.Has(p) {
			return false
		}
	}
	return true
}
