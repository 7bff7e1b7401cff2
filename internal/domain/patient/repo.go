package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists patient records.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPhone(ctx context.Context, phone string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Search matches q against full name and phone, case-insensitively.
	// An empty q lists everyone.
	Search(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error)
}
