package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Catalog struct {
	repo Repository
}

func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

func validate(s *Service) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive")
	}
	if s.DurationMinutes > MaxDurationMinutes {
		return fmt.Errorf("duration_minutes must not exceed %d", MaxDurationMinutes)
	}
	if s.PriceCents < 0 {
		return fmt.Errorf("price_cents must not be negative")
	}
	return nil
}

func (c *Catalog) Create(ctx context.Context, s *Service) error {
	if err := validate(s); err != nil {
		return err
	}
	return c.repo.Create(ctx, s)
}

func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (*Service, error) {
	return c.repo.GetByID(ctx, id)
}

func (c *Catalog) Update(ctx context.Context, s *Service) error {
	if err := validate(s); err != nil {
		return err
	}
	return c.repo.Update(ctx, s)
}

func (c *Catalog) Delete(ctx context.Context, id uuid.UUID) error {
	return c.repo.Delete(ctx, id)
}

func (c *Catalog) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Service, int, error) {
	return c.repo.List(ctx, activeOnly, limit, offset)
}
