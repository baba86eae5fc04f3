package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tdnguyen/auth-service/internal/core/domain"
)

// PgxCredentialRepository implements domain.CredentialRepository using pgx.
type PgxCredentialRepository struct {
	db Querier
}

// NewCredentialRepository creates a new PgxCredentialRepository.
func NewCredentialRepository(db Querier) *PgxCredentialRepository {
	return &PgxCredentialRepository{db: db}
}

// Create inserts the credential for its user. The primary key on user_id
// guarantees at most one credential per user; a second insert surfaces as
// domain.ErrDuplicateKey.
func (r *PgxCredentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	query := `INSERT INTO credentials (user_id, salt, hash) VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, cred.UserID, cred.Salt, cred.Hash)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// Update replaces the salt and hash for the user's credential.
func (r *PgxCredentialRepository) Update(ctx context.Context, userID uuid.UUID, salt, hash string) (int64, error) {
	query := `
		UPDATE credentials
		SET salt = $2, hash = $3, update_date = now()
		WHERE user_id = $1
	`

	tag, err := r.db.Exec(ctx, query, userID, salt, hash)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// FindByUsername returns the credential owned by the named user.
// Returns (nil, nil) when no credential exists for that username.
func (r *PgxCredentialRepository) FindByUsername(ctx context.Context, username string) (*domain.Credential, error) {
	query := `
		SELECT c.user_id, c.salt, c.hash, c.create_date, c.update_date
		FROM credentials c
		JOIN users u ON u.id = c.user_id
		WHERE u.username = $1
	`

	var c domain.Credential
	err := r.db.QueryRow(ctx, query, username).Scan(
		&c.UserID, &c.Salt, &c.Hash, &c.CreateDate, &c.UpdateDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
