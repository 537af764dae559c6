package rbac

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"
	"gatekeeper/internal/store"
)

// RoleView is a role with its bound permissions.
type RoleView struct {
	models.Role
	Permissions []models.Permission `json:"permissions"`
	Protected   bool                `json:"protected"`
}

// Admin manages roles, permissions and bindings. Every mutation invalidates
// the permission cache and leaves an audit entry.
type Admin struct {
	store    *store.Store
	registry *Registry
	lg       *zap.SugaredLogger
}

func NewAdmin(st *store.Store, registry *Registry, lg *zap.SugaredLogger) *Admin {
	return &Admin{store: st, registry: registry, lg: logger.OrNop(lg)}
}

func (a *Admin) ListRoles(ctx context.Context) ([]RoleView, error) {
	roles, err := a.store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	bound, err := a.store.RolePermissions(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]RoleView, len(roles))
	for i, r := range roles {
		perms := bound[r.ID]
		if perms == nil {
			perms = []models.Permission{}
		}
		out[i] = RoleView{Role: r, Permissions: perms, Protected: IsProtectedRole(r.Name)}
	}
	return out, nil
}

func (a *Admin) CreateRole(ctx context.Context, actorID, name, description string, permissionIDs []int64) (RoleView, error) {
	name = Normalize(name)
	if name == "" {
		return RoleView{}, fmt.Errorf("%w: role name required", ErrInvalid)
	}
	role := models.Role{Name: name, Description: description}
	var perms []models.Permission
	err := a.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateRole(ctx, &role); err != nil {
			return err
		}
		for _, pid := range permissionIDs {
			if err := tx.Bind(ctx, role.ID, pid); err != nil {
				return fmt.Errorf("bind permission %d: %w", pid, err)
			}
		}
		bound, err := tx.RolePermissions(ctx, []int64{role.ID})
		perms = bound[role.ID]
		return err
	})
	if err != nil {
		return RoleView{}, err
	}
	a.changed(ctx, actorID, "role.create", map[string]any{"role": name, "permissions": permissionIDs})
	if perms == nil {
		perms = []models.Permission{}
	}
	return RoleView{Role: role, Permissions: perms, Protected: IsProtectedRole(name)}, nil
}

// UpdateRole edits a role. Protected roles keep their name.
func (a *Admin) UpdateRole(ctx context.Context, actorID string, id int64, name, description string) (models.Role, error) {
	name = Normalize(name)
	if name == "" {
		return models.Role{}, fmt.Errorf("%w: role name required", ErrInvalid)
	}
	cur, err := a.store.RoleByID(ctx, id)
	if err != nil {
		return models.Role{}, err
	}
	if IsProtectedRole(cur.Name) && name != cur.Name {
		return models.Role{}, ErrProtectedRole
	}
	role, err := a.store.UpdateRole(ctx, id, name, description)
	if err != nil {
		return models.Role{}, err
	}
	a.changed(ctx, actorID, "role.update", map[string]any{"role_id": id, "from": cur.Name, "to": name})
	return role, nil
}

// DeleteRole removes a role and its bindings. Reserved roles are refused
// whoever asks.
func (a *Admin) DeleteRole(ctx context.Context, actorID string, id int64) error {
	role, err := a.store.RoleByID(ctx, id)
	if err != nil {
		return err
	}
	if IsProtectedRole(role.Name) {
		return ErrProtectedRole
	}
	if err := a.store.DeleteRole(ctx, id); err != nil {
		return err
	}
	a.changed(ctx, actorID, "role.delete", map[string]any{"role_id": id, "role": role.Name})
	return nil
}

func (a *Admin) Bind(ctx context.Context, actorID string, roleID, permissionID int64) error {
	if err := a.store.Bind(ctx, roleID, permissionID); err != nil {
		return err
	}
	a.changed(ctx, actorID, "role.bind", map[string]any{"role_id": roleID, "permission_id": permissionID})
	return nil
}

func (a *Admin) Unbind(ctx context.Context, actorID string, roleID, permissionID int64) error {
	if err := a.store.Unbind(ctx, roleID, permissionID); err != nil {
		return err
	}
	a.changed(ctx, actorID, "role.unbind", map[string]any{"role_id": roleID, "permission_id": permissionID})
	return nil
}

func (a *Admin) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	return a.store.ListPermissions(ctx)
}

func (a *Admin) CreatePermission(ctx context.Context, actorID, name, description string) (models.Permission, error) {
	name = Normalize(name)
	if name == "" {
		return models.Permission{}, fmt.Errorf("%w: permission name required", ErrInvalid)
	}
	p := models.Permission{Name: name, Description: description}
	if err := a.store.CreatePermission(ctx, &p); err != nil {
		return models.Permission{}, err
	}
	a.changed(ctx, actorID, "permission.create", map[string]any{"permission": name})
	return p, nil
}

func (a *Admin) UpdatePermission(ctx context.Context, actorID string, id int64, name, description string) (models.Permission, error) {
	name = Normalize(name)
	if name == "" {
		return models.Permission{}, fmt.Errorf("%w: permission name required", ErrInvalid)
	}
	p, err := a.store.UpdatePermission(ctx, id, name, description)
	if err != nil {
		return models.Permission{}, err
	}
	a.changed(ctx, actorID, "permission.update", map[string]any{"permission_id": id, "permission": name})
	return p, nil
}

func (a *Admin) DeletePermission(ctx context.Context, actorID string, id int64) error {
	if err := a.store.DeletePermission(ctx, id); err != nil {
		return err
	}
	a.changed(ctx, actorID, "permission.delete", map[string]any{"permission_id": id})
	return nil
}

func (a *Admin) changed(ctx context.Context, actorID, action string, meta map[string]any) {
	a.registry.Invalidate(ctx)
	if err := a.store.Audit(ctx, actorID, action, meta); err != nil {
		a.lg.Warnw("audit write failed", "action", action, "error", err)
	}
}
