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

// PgxThingRepository implements domain.ThingRepository using pgx.
type PgxThingRepository struct {
	db Querier
}

// NewThingRepository creates a new PgxThingRepository.
func NewThingRepository(db Querier) *PgxThingRepository {
	return &PgxThingRepository{db: db}
}

const thingColumns = `id, name, description, create_date, update_date`

func scanThing(row pgx.Row) (*domain.Thing, error) {
	var t domain.Thing
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CreateDate, &t.UpdateDate)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PgxThingRepository) Create(ctx context.Context, thing *domain.Thing) (*domain.Thing, error) {
	query := `INSERT INTO things (name, description) VALUES ($1, $2) RETURNING ` + thingColumns
	return scanThing(r.db.QueryRow(ctx, query, thing.Name, thing.Description))
}

func (r *PgxThingRepository) FindAll(ctx context.Context) ([]domain.Thing, error) {
	rows, err := r.db.Query(ctx, `SELECT `+thingColumns+` FROM things ORDER BY create_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var things []domain.Thing
	for rows.Next() {
		t, err := scanThing(rows)
		if err != nil {
			return nil, err
		}
		things = append(things, *t)
	}
	return things, rows.Err()
}

// FindByID returns (nil, nil) when the thing does not exist.
func (r *PgxThingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Thing, error) {
	t, err := scanThing(r.db.QueryRow(ctx, `SELECT `+thingColumns+` FROM things WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (r *PgxThingRepository) Update(ctx context.Context, id uuid.UUID, updates domain.ThingUpdateRequest) (int64, error) {
	sets := []string{"update_date = now()"}
	args := []any{id}

	if updates.Name != nil {
		args = append(args, *updates.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if updates.Description != nil {
		args = append(args, *updates.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}

	query := `UPDATE things SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgxThingRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM things WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
