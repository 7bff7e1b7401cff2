package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/api/pkg/timeslot"
)

// MaxDurationMinutes caps a single service at a working day's worth of time.
const MaxDurationMinutes = 480

// Service maps to the service table: one bookable offering of the clinic.
type Service struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     *string   `db:"description" json:"description,omitempty"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	PriceCents      int64     `db:"price_cents" json:"price_cents"`
	Color           *string   `db:"color" json:"color,omitempty"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// DurationLabel renders the slot a service occupies when started at the given
// minute, e.g. "09:00–10:00" for a 60-minute service at 540.
func (s *Service) DurationLabel(startMinute int) string {
	return timeslot.FormatRange(timeslot.Interval{
		Start: startMinute,
		End:   startMinute + s.DurationMinutes,
	})
}
