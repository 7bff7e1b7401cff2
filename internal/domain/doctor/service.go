package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinicdesk/api/pkg/timeslot"
)

// Invalidator drops all cached availability. A schedule change shifts
// the working window of every future date, so the whole cache goes.
type Invalidator interface {
	InvalidateAll()
}

type Service struct {
	repo  Repository
	inval Invalidator
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetInvalidator wires the availability cache. Set once at startup.
func (s *Service) SetInvalidator(inv Invalidator) {
	s.inval = inv
}

func (s *Service) Profile(ctx context.Context) (*Profile, error) {
	return s.repo.GetProfile(ctx)
}

func (s *Service) SaveProfile(ctx context.Context, p *Profile) error {
	if strings.TrimSpace(p.FullName) == "" {
		return fmt.Errorf("full_name is required")
	}
	return s.repo.SaveProfile(ctx, p)
}

func (s *Service) Schedule(ctx context.Context) (WeekSchedule, error) {
	return s.repo.GetSchedule(ctx)
}

func (s *Service) SaveSchedule(ctx context.Context, sched WeekSchedule) error {
	for i, wh := range sched {
		if wh.Weekday != i {
			return fmt.Errorf("schedule entry %d has weekday %d", i, wh.Weekday)
		}
		if !wh.Enabled {
			continue
		}
		iv := timeslot.Interval{Start: wh.StartMinute, End: wh.EndMinute}
		if !iv.Valid() {
			return fmt.Errorf("weekday %d: window %d–%d is out of bounds", i, wh.StartMinute, wh.EndMinute)
		}
	}
	if err := s.repo.SaveSchedule(ctx, sched); err != nil {
		return err
	}
	if s.inval != nil {
		s.inval.InvalidateAll()
	}
	return nil
}

// HoursFor returns the bookable window for a weekday, or false when the
// doctor does not work that day.
func (s *Service) HoursFor(ctx context.Context, weekday int) (timeslot.Interval, bool, error) {
	sched, err := s.repo.GetSchedule(ctx)
	if err != nil {
		return timeslot.Interval{}, false, err
	}
	if weekday < 0 || weekday >= len(sched) {
		return timeslot.Interval{}, false, fmt.Errorf("weekday %d out of range", weekday)
	}
	wh := sched[weekday]
	if !wh.Enabled {
		return timeslot.Interval{}, false, nil
	}
	return timeslot.Interval{Start: wh.StartMinute, End: wh.EndMinute}, true, nil
}
