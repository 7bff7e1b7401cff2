package blockedslot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists blocked calendar windows.
type Repository interface {
	Create(ctx context.Context, b *BlockedSlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*BlockedSlot, error)
	Update(ctx context.Context, b *BlockedSlot) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByDate returns all blocks on the given day ordered by start minute.
	ListByDate(ctx context.Context, date time.Time) ([]*BlockedSlot, error)
	// ListByRange returns blocks with from <= date <= to.
	ListByRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*BlockedSlot, int, error)
}
