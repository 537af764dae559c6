package store

import (
	"context"
	"time"

	"gatekeeper/internal/models"
)

func (s *Store) Audit(ctx context.Context, actorID, action string, meta map[string]any) error {
	entry := models.AuditLog{Action: action, Metadata: models.NewJSONB(meta), CreatedAt: time.Now()}
	if actorID != "" {
		entry.UserID = &actorID
	}
	return translate(s.conn(ctx).Create(&entry).Error)
}

func (s *Store) RecentAudit(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.conn(ctx).Order("created_at desc").Limit(limit).Find(&logs).Error
	return logs, translate(err)
}

func (s *Store) AuditForUser(ctx context.Context, userID string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.conn(ctx).Where("user_id = ?", userID).Order("created_at desc").Limit(limit).Find(&logs).Error
	return logs, translate(err)
}
