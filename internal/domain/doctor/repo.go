package doctor

import "context"

// Repository persists the doctor profile and weekly schedule.
type Repository interface {
	GetProfile(ctx context.Context) (*Profile, error)
	SaveProfile(ctx context.Context, p *Profile) error
	GetSchedule(ctx context.Context) (WeekSchedule, error)
	SaveSchedule(ctx context.Context, s WeekSchedule) error
}
