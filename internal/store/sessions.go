package store

import (
	"context"
	"errors"
	"time"

	"gatekeeper/internal/models"
)

func (s *Store) CreateSession(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	sess := models.Session{JTI: jti, UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	return translate(s.conn(ctx).Create(&sess).Error)
}

// RevokeSession stamps RevokedAt. Revoking an unknown or already revoked
// session is not an error.
func (s *Store) RevokeSession(ctx context.Context, jti string) error {
	now := time.Now()
	return translate(s.conn(ctx).Model(&models.Session{}).
		Where("jti = ? AND revoked_at IS NULL", jti).
		Update("revoked_at", &now).Error)
}

// SessionActive reports whether jti is known, not revoked and not expired at now.
func (s *Store) SessionActive(ctx context.Context, jti string, now time.Time) (bool, error) {
	var sess models.Session
	err := translate(s.conn(ctx).First(&sess, "jti = ?", jti).Error)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sess.RevokedAt == nil && now.Before(sess.ExpiresAt), nil
}

// PruneSessions deletes sessions that expired before cutoff, revoked or not.
func (s *Store) PruneSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.conn(ctx).Where("expires_at < ?", cutoff).Delete(&models.Session{})
	return res.RowsAffected, translate(res.Error)
}
