package ports

import (
	"context"
	"time"

	"github.com/Apurer/auto-loan-origination/internal/domains/users/domain"
)

// SessionStore tracks issued tokens so they can be revoked.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Active(ctx context.Context, tokenID string, now time.Time) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeUser(ctx context.Context, userID int64) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
