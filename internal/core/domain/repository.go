package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateKey is returned by repositories when an insert or update hits
// a unique constraint (e.g. the username index). The Logic layer translates
// it into its own conflict error; it must never inspect driver errors
// directly.
var ErrDuplicateKey = errors.New("duplicate key")

// UserFilter selects users by field equality. Nil fields are ignored.
type UserFilter struct {
	ID       *uuid.UUID
	Username *string
	Email    *string
}

// UserUpdate carries partial updates to a user. Nil fields are left
// unchanged.
type UserUpdate struct {
	Username *string
	Email    *string
}

// UserRepository defines the data-access contract for user records.
// Implementations live in internal/core/repository (Core layer).
// The Logic layer depends on this interface only — never on SQL or pgx
// directly.
type UserRepository interface {
	// Create inserts a new user and returns it with generated fields set.
	Create(ctx context.Context, user *User) (*User, error)

	// FindAll returns all users matching the filter.
	FindAll(ctx context.Context, filter UserFilter) ([]User, error)

	// FindOne returns the single user matching the filter.
	// Returns (nil, nil) when no user matches.
	FindOne(ctx context.Context, filter UserFilter) (*User, error)

	// Update applies the partial update and returns the number of rows
	// affected (1 or 0).
	Update(ctx context.Context, id uuid.UUID, updates UserUpdate) (int64, error)

	// Delete removes the user and returns the number of rows affected
	// (1 or 0). Credentials and sessions cascade.
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// CredentialRepository defines the data-access contract for credential
// records.
type CredentialRepository interface {
	// Create inserts the credential for its user. Fails with
	// ErrDuplicateKey when a credential already exists for that user.
	Create(ctx context.Context, cred *Credential) error

	// Update replaces the salt and hash for the user's credential and
	// returns the number of rows affected (1 or 0).
	Update(ctx context.Context, userID uuid.UUID, salt, hash string) (int64, error)

	// FindByUsername returns the credential joined to the user owning the
	// given username. Returns (nil, nil) when no credential exists.
	FindByUsername(ctx context.Context, username string) (*Credential, error)
}

// SessionRepository defines the data-access contract for session records.
type SessionRepository interface {
	// Create inserts a new session and returns it with generated fields
	// set. The owner user on the argument must be populated.
	Create(ctx context.Context, session *Session) (*Session, error)

	// FindByID returns the session together with its owner in a single
	// read. Expired sessions are treated as absent.
	// Returns (nil, nil) when no live session matches.
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// ExtendExpiration moves the session's expire date to the given
	// instant and returns the number of rows affected (1 or 0).
	ExtendExpiration(ctx context.Context, id uuid.UUID, expireDate time.Time) (int64, error)

	// DeleteByOwner removes every session owned by the user and returns
	// the number of rows deleted.
	DeleteByOwner(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ThingRepository defines the data-access contract for things.
type ThingRepository interface {
	Create(ctx context.Context, thing *Thing) (*Thing, error)
	FindAll(ctx context.Context) ([]Thing, error)
	// FindByID returns (nil, nil) when the thing does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*Thing, error)
	Update(ctx context.Context, id uuid.UUID, updates ThingUpdateRequest) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// RepositorySet groups the repositories that participate in auth
// transactions. Inside Store.WithTx all three are bound to the same
// database transaction.
type RepositorySet interface {
	Users() UserRepository
	Credentials() CredentialRepository
	Sessions() SessionRepository
}

// Store is the root data-access handle injected into the Logic layer.
// Outside WithTx the repositories run on the shared pool.
type Store interface {
	RepositorySet

	Things() ThingRepository

	// WithTx runs fn with a RepositorySet bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back
	// otherwise.
	WithTx(ctx context.Context, fn func(r RepositorySet) error) error
}
