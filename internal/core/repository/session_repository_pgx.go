package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tdnguyen/auth-service/internal/core/domain"
)

// PgxSessionRepository implements domain.SessionRepository using pgx.
//
// Expired sessions are never deleted eagerly; every lookup filters on
// expire_date > now(), which makes an expired session indistinguishable from
// a deleted one.
type PgxSessionRepository struct {
	db Querier
}

// NewSessionRepository creates a new PgxSessionRepository.
func NewSessionRepository(db Querier) *PgxSessionRepository {
	return &PgxSessionRepository{db: db}
}

// Create inserts a new session for session.User and returns it with
// generated fields set.
func (r *PgxSessionRepository) Create(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	query := `
		INSERT INTO sessions (user_id, expire_date)
		VALUES ($1, $2)
		RETURNING id, expire_date, create_date, update_date
	`

	created := domain.Session{User: session.User}
	err := r.db.QueryRow(ctx, query, session.User.ID, session.ExpireDate).Scan(
		&created.ID, &created.ExpireDate, &created.CreateDate, &created.UpdateDate,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &created, nil
}

// FindByID looks up a live session together with its owner in one read.
// Returns (nil, nil) when the id matches nothing or only an expired row.
func (r *PgxSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	query := `
		SELECT s.id, s.expire_date, s.create_date, s.update_date,
		       u.id, u.username, u.email, u.create_date, u.update_date
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1 AND s.expire_date > now()
	`

	var s domain.Session
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.ExpireDate, &s.CreateDate, &s.UpdateDate,
		&s.User.ID, &s.User.Username, &s.User.Email, &s.User.CreateDate, &s.User.UpdateDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ExtendExpiration moves the session's expire date forward in a single
// atomic row update. Expired rows are not revived.
func (r *PgxSessionRepository) ExtendExpiration(ctx context.Context, id uuid.UUID, expireDate time.Time) (int64, error) {
	query := `
		UPDATE sessions
		SET expire_date = $2, update_date = now()
		WHERE id = $1 AND expire_date > now()
	`

	tag, err := r.db.Exec(ctx, query, id, expireDate)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByOwner removes every session owned by the user.
func (r *PgxSessionRepository) DeleteByOwner(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
