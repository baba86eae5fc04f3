package v1

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tdnguyen/auth-service/internal/core/domain"
)

// SessionService owns the session lifecycle. It is the only place that
// knows the TTL; creation and extension both derive the expire date from it
// so the sliding window always matches the initial one.
type SessionService struct {
	sessions domain.SessionRepository
	ttl      time.Duration
}

// NewSessionService creates a SessionService with the given TTL.
func NewSessionService(sessions domain.SessionRepository, ttl time.Duration) *SessionService {
	return &SessionService{sessions: sessions, ttl: ttl}
}

// Create opens a new session for the user, expiring TTL from now.
func (s *SessionService) Create(ctx context.Context, user *domain.User) (*domain.Session, error) {
	return s.sessions.Create(ctx, &domain.Session{
		User:       *user,
		ExpireDate: s.NewExpireDate(),
	})
}

// FindByID returns the session with its owner, or (nil, nil) when it does
// not exist or has expired.
func (s *SessionService) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return s.sessions.FindByID(ctx, id)
}

// ExtendExpiration resets the session's expiry clock to TTL from now.
// Returns the number of sessions affected (1 or 0).
func (s *SessionService) ExtendExpiration(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.sessions.ExtendExpiration(ctx, id, s.NewExpireDate())
}

// DeleteByOwner invalidates every session owned by the user and returns how
// many were removed.
func (s *SessionService) DeleteByOwner(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.sessions.DeleteByOwner(ctx, userID)
}

// NewExpireDate computes the expire date for a new or extended session.
func (s *SessionService) NewExpireDate() time.Time {
	return time.Now().Add(s.ttl)
}
