package store

import (
	"context"
	"strings"
	"time"

	"gatekeeper/internal/models"
)

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.conn(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	return u, translate(err)
}

func (s *Store) UserByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.conn(ctx).First(&u, "id = ?", id).Error
	return u, translate(err)
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return translate(s.conn(ctx).Create(u).Error)
}

// UpdateUser applies column updates and returns the reloaded row.
func (s *Store) UpdateUser(ctx context.Context, id string, fields map[string]any) (models.User, error) {
	fields["updated_at"] = time.Now()
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.User{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.User{}, ErrNotFound
	}
	return s.UserByID(ctx, id)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.conn(ctx).Order("created_at desc").Find(&users).Error
	return users, translate(err)
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.User{}).Count(&n).Error
	return n, translate(err)
}

func (s *Store) CountUsersByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.User{}).Where("status = ?", status).Count(&n).Error
	return n, translate(err)
}
