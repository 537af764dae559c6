package rbac

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"gatekeeper/internal/logger"
)

// Source resolves the permission names bound to an exact role name.
type Source interface {
	RolePermissionNames(ctx context.Context, role string) ([]string, error)
}

// Registry is the source of truth for what a role may do. Lookups fail
// closed: any error yields the empty set.
type Registry struct {
	source Source
	cache  *Cache
	lg     *zap.SugaredLogger
}

func NewRegistry(source Source, cache *Cache, lg *zap.SugaredLogger) *Registry {
	return &Registry{source: source, cache: cache, lg: logger.OrNop(lg)}
}

func (r *Registry) PermissionsForRole(ctx context.Context, role string) PermissionSet {
	role = Normalize(role)
	if role == "" {
		return PermissionSet{}
	}
	names, err := r.cache.Load(ctx, role, r.source.RolePermissionNames)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.lg.Debugw("role not found", "role", role)
		} else {
			r.lg.Warnw("role permission lookup failed", "role", role, "error", err)
		}
		return PermissionSet{}
	}
	return NewPermissionSet(names...)
}

// Invalidate must be called after any role, permission or binding change.
func (r *Registry) Invalidate(ctx context.Context) {
	if err := r.cache.Invalidate(ctx); err != nil {
		r.lg.Errorw("rbac cache invalidation failed", "error", err)
	}
}
