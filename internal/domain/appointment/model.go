package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/api/pkg/timeslot"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusConfirmed         Status = "CONFIRMED"
	StatusRejected          Status = "REJECTED"
	StatusCancelledByDoctor Status = "CANCELLED_BY_DOCTOR"
)

// validTransitions holds the allowed status moves. Terminal statuses
// have no outgoing edges.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelledByDoctor},
	StatusConfirmed: {StatusCancelledByDoctor},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Active reports whether the appointment still occupies its slot.
// Rejected and cancelled appointments free their time.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelledByDoctor:
		return true
	}
	return false
}

// Appointment maps to the appointment table. DurationMinutes is copied
// from the service at booking time so later catalog edits do not move
// existing bookings.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	ServiceID       uuid.UUID `db:"service_id" json:"service_id"`
	Date            time.Time `db:"date" json:"date"`
	StartMinute     int       `db:"start_minute" json:"start_minute"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Status          Status    `db:"status" json:"status"`
	Comment         *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Interval is the half-open window the appointment occupies.
func (a *Appointment) Interval() timeslot.Interval {
	return timeslot.Interval{Start: a.StartMinute, End: a.StartMinute + a.DurationMinutes}
}

// TimeLabel renders the occupied window, e.g. "09:00–10:00".
func (a *Appointment) TimeLabel() string {
	return timeslot.FormatRange(a.Interval())
}
