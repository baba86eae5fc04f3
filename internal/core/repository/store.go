package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tdnguyen/auth-service/internal/core/domain"
)

// Querier is the subset of pgx operations the repositories need. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so the same repository code serves
// pooled and transactional calls.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxStore implements domain.Store on a pgx connection pool.
type PgxStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a PgxStore over the given pool.
func NewStore(pool *pgxpool.Pool) *PgxStore {
	return &PgxStore{pool: pool}
}

func (s *PgxStore) Users() domain.UserRepository {
	return NewUserRepository(s.pool)
}

func (s *PgxStore) Credentials() domain.CredentialRepository {
	return NewCredentialRepository(s.pool)
}

func (s *PgxStore) Sessions() domain.SessionRepository {
	return NewSessionRepository(s.pool)
}

func (s *PgxStore) Things() domain.ThingRepository {
	return NewThingRepository(s.pool)
}

// WithTx runs fn with repositories bound to a single transaction, committing
// when fn returns nil and rolling back otherwise.
func (s *PgxStore) WithTx(ctx context.Context, fn func(r domain.RepositorySet) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txRepositorySet{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txRepositorySet struct {
	tx pgx.Tx
}

func (r *txRepositorySet) Users() domain.UserRepository {
	return NewUserRepository(r.tx)
}

func (r *txRepositorySet) Credentials() domain.CredentialRepository {
	return NewCredentialRepository(r.tx)
}

func (r *txRepositorySet) Sessions() domain.SessionRepository {
	return NewSessionRepository(r.tx)
}

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// mapError converts driver-level constraint errors into domain sentinels so
// the Logic layer never inspects pgx errors.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, pgErr.ConstraintName)
	}
	return err
}
