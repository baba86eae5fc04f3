package v1

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tdnguyen/auth-service/internal/core/domain"
)

// ThingService is a thin pass-through over the thing repository.
type ThingService struct {
	things domain.ThingRepository
}

// NewThingService creates a ThingService over the given repository.
func NewThingService(things domain.ThingRepository) *ThingService {
	return &ThingService{things: things}
}

func (s *ThingService) Create(ctx context.Context, req domain.ThingCreateRequest) (*domain.Thing, error) {
	return s.things.Create(ctx, &domain.Thing{
		Name:        req.Name,
		Description: req.Description,
	})
}

func (s *ThingService) FindAll(ctx context.Context) ([]domain.Thing, error) {
	return s.things.FindAll(ctx)
}

// FindByID fails with ErrThingNotFound when the id matches nothing.
func (s *ThingService) FindByID(ctx context.Context, id uuid.UUID) (*domain.Thing, error) {
	thing, err := s.things.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query thing %s: %w", id, err)
	}
	if thing == nil {
		return nil, fmt.Errorf("thing %s: %w", id, ErrThingNotFound)
	}
	return thing, nil
}

func (s *ThingService) Update(ctx context.Context, id uuid.UUID, updates domain.ThingUpdateRequest) error {
	_, err := s.things.Update(ctx, id, updates)
	return err
}

func (s *ThingService) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.things.Delete(ctx, id)
	return err
}
