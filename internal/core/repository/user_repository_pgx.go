package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tdnguyen/auth-service/internal/core/domain"
)

// PgxUserRepository implements domain.UserRepository using pgx.
type PgxUserRepository struct {
	db Querier
}

// NewUserRepository creates a new PgxUserRepository.
func NewUserRepository(db Querier) *PgxUserRepository {
	return &PgxUserRepository{db: db}
}

const userColumns = `id, username, email, create_date, update_date`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.CreateDate, &u.UpdateDate)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user. The unique index on username surfaces as
// domain.ErrDuplicateKey.
func (r *PgxUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (username, email) VALUES ($1, $2) RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRow(ctx, query, user.Username, user.Email))
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

// FindAll returns all users matching the filter.
func (r *PgxUserRepository) FindAll(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	where, args := userWhere(filter)
	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY create_date`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// FindOne returns the single user matching the filter.
// Returns (nil, nil) when no user matches.
func (r *PgxUserRepository) FindOne(ctx context.Context, filter domain.UserFilter) (*domain.User, error) {
	where, args := userWhere(filter)
	query := `SELECT ` + userColumns + ` FROM users` + where

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Update applies the partial update and returns the rows affected.
func (r *PgxUserRepository) Update(ctx context.Context, id uuid.UUID, updates domain.UserUpdate) (int64, error) {
	sets := []string{"update_date = now()"}
	args := []any{id}

	if updates.Username != nil {
		args = append(args, *updates.Username)
		sets = append(sets, fmt.Sprintf("username = $%d", len(args)))
	}
	if updates.Email != nil {
		args = append(args, *updates.Email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes the user; credentials and sessions cascade.
func (r *PgxUserRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func userWhere(filter domain.UserFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.ID != nil {
		args = append(args, *filter.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.Username != nil {
		args = append(args, *filter.Username)
		conds = append(conds, fmt.Sprintf("username = $%d", len(args)))
	}
	if filter.Email != nil {
		args = append(args, *filter.Email)
		conds = append(conds, fmt.Sprintf("email = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
