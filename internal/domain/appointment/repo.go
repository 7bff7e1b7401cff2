package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows a paginated appointment listing. Nil fields match
// everything.
type Filter struct {
	Date      *time.Time
	PatientID *uuid.UUID
	Status    *Status
}

// Repository persists appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByDay returns all appointments on the date ordered by start minute.
	ListByDay(ctx context.Context, date time.Time) ([]*Appointment, error)
	Search(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
}
