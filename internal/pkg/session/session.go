package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/folio-space/core/internal/models"
	jwtpkg "github.com/folio-space/core/internal/pkg/jwt"
)

const DefaultTTL = 7 * 24 * time.Hour

var ErrSessionInactive = errors.New("session expired or revoked")

// Store persists sessions and issues JWTs bound to them.
type Store struct {
	db     *gorm.DB
	tokens *jwtpkg.Manager
}

func NewStore(db *gorm.DB, tokens *jwtpkg.Manager) *Store {
	return &Store{db: db, tokens: tokens}
}

// Issue creates a DB session and signs a JWT bound to that session.
func (s *Store) Issue(ctx context.Context, userID, ip, ua string, ttl time.Duration) (string, *models.UserSession, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	sess := &models.UserSession{
		UserID:    userID,
		IP:        strings.TrimSpace(ip),
		UA:        strings.TrimSpace(ua),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Sign(userID, sess.ID, ttl)
	if err != nil {
		_ = s.db.WithContext(ctx).Delete(sess).Error
		return "", nil, err
	}
	return token, sess, nil
}

// Validate parses a token and checks that its session is still active.
func (s *Store) Validate(ctx context.Context, token string) (*jwtpkg.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	active, err := s.IsActive(ctx, claims.UserID, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrSessionInactive
	}
	return claims, nil
}

func (s *Store) IsActive(ctx context.Context, userID, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, userID, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Touch(ctx context.Context, userID, sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}
	_ = s.db.WithContext(ctx).Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, userID, time.Now()).
		Update("updated_at", time.Now()).Error
}

func (s *Store) ListActive(ctx context.Context, userID string) ([]models.UserSession, error) {
	var sessions []models.UserSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now()).
		Order("updated_at DESC, created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (s *Store) Revoke(ctx context.Context, userID, sessionID string) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", sessionID, userID).
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) RevokeAllExcept(ctx context.Context, userID, keepSessionID string) error {
	now := time.Now()
	query := s.db.WithContext(ctx).Model(&models.UserSession{}).
		Where("user_id = ? AND revoked_at IS NULL", userID)
	if strings.TrimSpace(keepSessionID) != "" {
		query = query.Where("id <> ?", keepSessionID)
	}
	return query.Update("revoked_at", &now).Error
}

// PurgeExpired hard-deletes sessions that expired or were revoked before cutoff.
func (s *Store) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().
		Where("expires_at < ? OR revoked_at < ?", cutoff, cutoff).
		Delete(&models.UserSession{})
	return res.RowsAffected, res.Error
}
