package blockedslot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/api/pkg/timeslot"
)

// Invalidator drops cached availability for a day whose occupancy
// changed. Satisfied by the appointment scheduler.
type Invalidator interface {
	InvalidateDate(date time.Time)
}

type Calendar struct {
	repo  Repository
	inval Invalidator
}

func NewCalendar(repo Repository) *Calendar {
	return &Calendar{repo: repo}
}

// SetInvalidator wires the availability cache. Set once at startup.
func (c *Calendar) SetInvalidator(inv Invalidator) {
	c.inval = inv
}

func (c *Calendar) invalidate(date time.Time) {
	if c.inval != nil {
		c.inval.InvalidateDate(date)
	}
}

func (c *Calendar) validate(ctx context.Context, b *BlockedSlot) error {
	iv := timeslot.Interval{Start: b.StartMinute, End: b.EndMinute}
	if !iv.Valid() {
		return fmt.Errorf("block window %d–%d is out of bounds", b.StartMinute, b.EndMinute)
	}
	b.Date = b.Date.Truncate(24 * time.Hour)

	existing, err := c.repo.ListByDate(ctx, b.Date)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == b.ID {
			continue
		}
		if iv.Overlaps(timeslot.Interval{Start: other.StartMinute, End: other.EndMinute}) {
			return fmt.Errorf("block overlaps existing block %s on %s",
				timeslot.FormatRange(timeslot.Interval{Start: other.StartMinute, End: other.EndMinute}),
				b.Date.Format("2006-01-02"))
		}
	}
	return nil
}

func (c *Calendar) Create(ctx context.Context, b *BlockedSlot) error {
	if err := c.validate(ctx, b); err != nil {
		return err
	}
	if err := c.repo.Create(ctx, b); err != nil {
		return err
	}
	c.invalidate(b.Date)
	return nil
}

func (c *Calendar) Get(ctx context.Context, id uuid.UUID) (*BlockedSlot, error) {
	return c.repo.GetByID(ctx, id)
}

func (c *Calendar) Update(ctx context.Context, b *BlockedSlot) error {
	prev, err := c.repo.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	if err := c.validate(ctx, b); err != nil {
		return err
	}
	if err := c.repo.Update(ctx, b); err != nil {
		return err
	}
	c.invalidate(prev.Date)
	if !b.Date.Equal(prev.Date) {
		c.invalidate(b.Date)
	}
	return nil
}

func (c *Calendar) Delete(ctx context.Context, id uuid.UUID) error {
	prev, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(prev.Date)
	return nil
}

func (c *Calendar) ListByDate(ctx context.Context, date time.Time) ([]*BlockedSlot, error) {
	return c.repo.ListByDate(ctx, date.Truncate(24*time.Hour))
}

func (c *Calendar) ListByRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*BlockedSlot, int, error) {
	if to.Before(from) {
		return nil, 0, fmt.Errorf("range end %s is before start %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return c.repo.ListByRange(ctx, from.Truncate(24*time.Hour), to.Truncate(24*time.Hour), limit, offset)
}
