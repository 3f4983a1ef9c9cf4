package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/auto-loan-origination/internal/domains/users/domain"
	userports "github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
)

// SessionStore persists issued token ids in PostgreSQL.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore wires a PostgreSQL-backed session store. Caller owns DB lifecycle.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

type sessionRecord struct {
	TokenID   string    `gorm:"primaryKey;column:token_id;size:64"`
	UserID    int64     `gorm:"column:user_id;index;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;index;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (sessionRecord) TableName() string { return "user_sessions" }

// Save upserts a session keyed by token id.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	tokenID := strings.TrimSpace(session.TokenID)
	if tokenID == "" || session.UserID == 0 {
		return errors.New("token id and user id are required")
	}
	rec := sessionRecord{TokenID: tokenID, UserID: session.UserID, ExpiresAt: session.ExpiresAt.UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "expires_at"}),
		}).
		Create(&rec).Error
}

// Active reports whether the token id is known and unexpired.
func (s *SessionStore) Active(ctx context.Context, tokenID string, now time.Time) (bool, error) {
	if err := s.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&sessionRecord{}).
		Where("token_id = ? AND expires_at > ?", strings.TrimSpace(tokenID), now.UTC()).
		Count(&count).Error
	return count > 0, err
}

// Revoke removes one session.
func (s *SessionStore) Revoke(ctx context.Context, tokenID string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "token_id = ?", strings.TrimSpace(tokenID)).Error
}

// RevokeUser removes every session of a user.
func (s *SessionStore) RevokeUser(ctx context.Context, userID int64) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "user_id = ?", userID).Error
}

// PurgeExpired removes all expired sessions. Use for housekeeping or cron.
func (s *SessionStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&sessionRecord{})
	return result.RowsAffected, result.Error
}

func (s *SessionStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres session store not configured")
	}
	return nil
}

var _ userports.SessionStore = (*SessionStore)(nil)
