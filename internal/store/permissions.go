package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"gatekeeper/internal/models"
)

func (s *Store) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	err := s.conn(ctx).Order("name").Find(&perms).Error
	return perms, translate(err)
}

func (s *Store) PermissionByID(ctx context.Context, id int64) (models.Permission, error) {
	var p models.Permission
	err := s.conn(ctx).First(&p, "id = ?", id).Error
	return p, translate(err)
}

func (s *Store) PermissionsByNames(ctx context.Context, names []string) ([]models.Permission, error) {
	var perms []models.Permission
	err := s.conn(ctx).Where("name IN ?", names).Find(&perms).Error
	return perms, translate(err)
}

func (s *Store) CountPermissions(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Permission{}).Count(&n).Error
	return n, translate(err)
}

func (s *Store) CreatePermission(ctx context.Context, p *models.Permission) error {
	return translate(s.conn(ctx).Create(p).Error)
}

func (s *Store) InsertPermissions(ctx context.Context, perms []models.Permission) (int64, error) {
	if len(perms) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&perms)
	return res.RowsAffected, translate(res.Error)
}

func (s *Store) UpdatePermission(ctx context.Context, id int64, name, description string) (models.Permission, error) {
	res := s.conn(ctx).Model(&models.Permission{}).Where("id = ?", id).
		Updates(map[string]any{"name": name, "description": description, "updated_at": time.Now()})
	if res.Error != nil {
		return models.Permission{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Permission{}, ErrNotFound
	}
	return s.PermissionByID(ctx, id)
}

// DeletePermission removes the permission and every binding to it.
func (s *Store) DeletePermission(ctx context.Context, id int64) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.conn(ctx).Where("permission_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return translate(err)
		}
		res := tx.conn(ctx).Delete(&models.Permission{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
