package domain

import "time"

// Session records an issued token so it can be revoked before it expires.
type Session struct {
	TokenID   string
	UserID    int64
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
