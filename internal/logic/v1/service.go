package v1

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tdnguyen/auth-service/internal/core/domain"
	"github.com/tdnguyen/auth-service/middleware"
)

// AuthService composes the user, credential, and session stores to
// implement signup, login, and logout. It depends on repository interfaces
// only and MUST NOT access the database or SQL directly.
type AuthService struct {
	store    domain.Store
	creds    *CredentialService
	sessions *SessionService
}

// NewAuthService creates a new AuthService with the given dependencies.
func NewAuthService(store domain.Store, creds *CredentialService, sessions *SessionService) *AuthService {
	return &AuthService{
		store:    store,
		creds:    creds,
		sessions: sessions,
	}
}

// Signup registers a new user and opens their first session.
//
// The existence check is a fast path only; the unique index on username is
// the source of truth, so a concurrent signup race resolves to exactly one
// success. User, credential, and session are created in one transaction —
// a failure partway leaves no orphan user without a login path.
func (s *AuthService) Signup(ctx context.Context, req domain.SignupRequest) (*domain.Session, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.signup", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	existing, err := s.store.Users().FindOne(ctx, domain.UserFilter{Username: &req.Username})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %q: %w", req.Username, err)
	}
	if existing != nil {
		span.SetAttributes(attribute.Bool("signup.success", false))
		return nil, fmt.Errorf("signup user %q: %w", req.Username, ErrUserExists)
	}

	var session *domain.Session
	err = s.store.WithTx(ctx, func(r domain.RepositorySet) error {
		user, err := r.Users().Create(ctx, &domain.User{
			Username: req.Username,
			Email:    req.Email,
		})
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				// Lost the race against a concurrent signup.
				return fmt.Errorf("signup user %q: %w", req.Username, ErrUserExists)
			}
			return fmt.Errorf("insert user: %w", err)
		}

		cred, err := newCredential(user.ID, req.Password)
		if err != nil {
			return err
		}
		if err := r.Credentials().Create(ctx, cred); err != nil {
			return fmt.Errorf("insert credential: %w", err)
		}

		session, err = r.Sessions().Create(ctx, &domain.Session{
			User:       *user,
			ExpireDate: s.sessions.NewExpireDate(),
		})
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user.id", session.User.ID.String()),
		attribute.Bool("signup.success", true),
	)
	span.AddEvent("user.registered")

	return session, nil
}

// Login validates the credentials and opens a new session. Every validation
// failure — unknown username, missing credential, wrong password — comes
// back as the one ErrInvalidCredentials, so the response cannot be used to
// enumerate usernames.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.Session, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	valid, err := s.creds.Validate(ctx, req.Username, req.Password)
	if err != nil && !errors.Is(err, ErrCredentialNotFound) {
		span.RecordError(err)
		return nil, err
	}
	if err != nil || !valid {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrInvalidCredentials)
	}

	user, err := s.store.Users().FindOne(ctx, domain.UserFilter{Username: &req.Username})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %q: %w", req.Username, err)
	}
	if user == nil {
		// The user vanished between validation and lookup.
		span.SetAttributes(attribute.Bool("auth.success", false))
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrInvalidCredentials)
	}

	session, err := s.sessions.Create(ctx, user)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID.String()),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")

	return session, nil
}

// Logout invalidates every session owned by the user, not only the one the
// request arrived with. Returns true iff at least one session was deleted.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) (bool, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.logout", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	affected, err := s.sessions.DeleteByOwner(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("delete sessions for user %s: %w", userID, err)
	}

	span.SetAttributes(attribute.Int64("sessions.deleted", affected))
	return affected > 0, nil
}

// UserByID returns the user's public view, or (nil, nil) when the id is
// unknown. Used by the /auth/me endpoint.
func (s *AuthService) UserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.store.Users().FindOne(ctx, domain.UserFilter{ID: &id})
}
