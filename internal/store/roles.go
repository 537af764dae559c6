package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"gatekeeper/internal/models"
)

// RolePermissionNames follows role -> role_permissions -> permissions for an
// exact role name.
func (s *Store) RolePermissionNames(ctx context.Context, roleName string) ([]string, error) {
	role, err := s.RoleByName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	var names []string
	err = s.conn(ctx).Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", role.ID).
		Order("permissions.name").
		Pluck("permissions.name", &names).Error
	return names, translate(err)
}

func (s *Store) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := s.conn(ctx).Order("name").Find(&roles).Error
	return roles, translate(err)
}

func (s *Store) RoleByID(ctx context.Context, id int64) (models.Role, error) {
	var r models.Role
	err := s.conn(ctx).First(&r, "id = ?", id).Error
	return r, translate(err)
}

func (s *Store) RoleByName(ctx context.Context, name string) (models.Role, error) {
	var r models.Role
	err := s.conn(ctx).First(&r, "name = ?", name).Error
	return r, translate(err)
}

func (s *Store) RolesByNames(ctx context.Context, names []string) ([]models.Role, error) {
	var roles []models.Role
	err := s.conn(ctx).Where("name IN ?", names).Find(&roles).Error
	return roles, translate(err)
}

func (s *Store) CountRoles(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Role{}).Count(&n).Error
	return n, translate(err)
}

func (s *Store) CreateRole(ctx context.Context, r *models.Role) error {
	return translate(s.conn(ctx).Create(r).Error)
}

// InsertRoles inserts roles, skipping names that already exist, and returns
// the number of rows written.
func (s *Store) InsertRoles(ctx context.Context, roles []models.Role) (int64, error) {
	if len(roles) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&roles)
	return res.RowsAffected, translate(res.Error)
}

// UpdateRole renames and redescribes a role. Users holding the old name are
// moved to the new one in the same transaction.
func (s *Store) UpdateRole(ctx context.Context, id int64, name, description string) (models.Role, error) {
	var out models.Role
	err := s.Transaction(ctx, func(tx *Store) error {
		cur, err := tx.RoleByID(ctx, id)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := translate(tx.conn(ctx).Model(&models.Role{}).Where("id = ?", id).
			Updates(map[string]any{"name": name, "description": description, "updated_at": now}).Error); err != nil {
			return err
		}
		if cur.Name != name {
			if err := translate(tx.conn(ctx).Model(&models.User{}).Where("role = ?", cur.Name).
				Updates(map[string]any{"role": name, "updated_at": now}).Error); err != nil {
				return err
			}
		}
		out, err = tx.RoleByID(ctx, id)
		return err
	})
	return out, err
}

// DeleteRole removes the role and its bindings.
func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.conn(ctx).Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return translate(err)
		}
		res := tx.conn(ctx).Delete(&models.Role{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RolePermissions returns the permissions bound to each of the given roles.
func (s *Store) RolePermissions(ctx context.Context, roleIDs []int64) (map[int64][]models.Permission, error) {
	out := make(map[int64][]models.Permission, len(roleIDs))
	if len(roleIDs) == 0 {
		return out, nil
	}
	type row struct {
		RoleID int64
		models.Permission
	}
	var rows []row
	err := s.conn(ctx).Table("permissions").
		Select("role_permissions.role_id AS role_id, permissions.*").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id IN ?", roleIDs).
		Order("permissions.name").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, r := range rows {
		out[r.RoleID] = append(out[r.RoleID], r.Permission)
	}
	return out, nil
}

// Bind attaches a permission to a role. Binding an existing pair is a no-op.
func (s *Store) Bind(ctx context.Context, roleID, permissionID int64) error {
	if _, err := s.RoleByID(ctx, roleID); err != nil {
		return err
	}
	if _, err := s.PermissionByID(ctx, permissionID); err != nil {
		return err
	}
	_, err := s.InsertBindings(ctx, []models.RolePermission{{RoleID: roleID, PermissionID: permissionID}})
	return err
}

func (s *Store) InsertBindings(ctx context.Context, bindings []models.RolePermission) (int64, error) {
	if len(bindings) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&bindings)
	return res.RowsAffected, translate(res.Error)
}

func (s *Store) Unbind(ctx context.Context, roleID, permissionID int64) error {
	res := s.conn(ctx).Where("role_id = ? AND permission_id = ?", roleID, permissionID).Delete(&models.RolePermission{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountBindings(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.RolePermission{}).Count(&n).Error
	return n, translate(err)
}
