package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the authenticated principal of one request.
// It is created by the authentication middleware and ends when its token
// expires or is revoked at sign-out.
type Session struct {
	UserID    uuid.UUID
	TenantID  uuid.UUID
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying the session
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored in ctx, if any
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// Remaining returns how long the session stays valid
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.ExpiresAt.Before(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
