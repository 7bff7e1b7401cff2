package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/api/internal/domain/blockedslot"
	"github.com/clinicdesk/api/internal/domain/catalog"
	"github.com/clinicdesk/api/internal/domain/patient"
	"github.com/clinicdesk/api/internal/platform/notify"
	"github.com/clinicdesk/api/pkg/timeslot"
)

// PatientSource resolves patients. Satisfied by *patient.Directory.
type PatientSource interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// ServiceSource resolves catalog services. Satisfied by *catalog.Catalog.
type ServiceSource interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
}

// BlockSource lists blocked windows. Satisfied by *blockedslot.Calendar.
type BlockSource interface {
	ListByDate(ctx context.Context, date time.Time) ([]*blockedslot.BlockedSlot, error)
}

// HoursSource gives the bookable window per weekday. Satisfied by
// *doctor.Service.
type HoursSource interface {
	HoursFor(ctx context.Context, weekday int) (timeslot.Interval, bool, error)
}

// Scheduler is the appointment booking engine: it owns conflict checks,
// status transitions, availability, and event emission.
type Scheduler struct {
	repo      Repository
	patients  PatientSource
	services  ServiceSource
	blocks    BlockSource
	hours     HoursSource
	publisher notify.Publisher
	cache     *availabilityCache
}

func NewScheduler(repo Repository, patients PatientSource, services ServiceSource,
	blocks BlockSource, hours HoursSource, publisher notify.Publisher) *Scheduler {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &Scheduler{
		repo:      repo,
		patients:  patients,
		services:  services,
		blocks:    blocks,
		hours:     hours,
		publisher: publisher,
		cache:     newAvailabilityCache(cacheSize),
	}
}

// Book creates a PENDING appointment after validating the slot.
func (s *Scheduler) Book(ctx context.Context, a *Appointment) error {
	if _, err := s.patients.Get(ctx, a.PatientID); err != nil {
		return fmt.Errorf("patient %s: %w", a.PatientID, err)
	}
	svc, err := s.services.Get(ctx, a.ServiceID)
	if err != nil {
		return fmt.Errorf("service %s: %w", a.ServiceID, err)
	}
	a.DurationMinutes = svc.DurationMinutes
	a.Status = StatusPending
	a.Date = a.Date.Truncate(24 * time.Hour)

	if err := s.checkSlot(ctx, a); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}
	s.cache.invalidate(a.Date)
	s.emit(ctx, notify.EventBooked, a)
	return nil
}

// Reschedule moves an appointment to a new date, start minute and
// optionally a new service. Status is preserved.
func (s *Scheduler) Reschedule(ctx context.Context, id uuid.UUID, date time.Time, startMinute int, serviceID uuid.UUID, comment *string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldDate := a.Date

	if serviceID != uuid.Nil && serviceID != a.ServiceID {
		svc, err := s.services.Get(ctx, serviceID)
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", serviceID, err)
		}
		a.ServiceID = serviceID
		a.DurationMinutes = svc.DurationMinutes
	}
	a.Date = date.Truncate(24 * time.Hour)
	a.StartMinute = startMinute
	if comment != nil {
		a.Comment = comment
	}

	// Inactive appointments skip the conflict checks but the window
	// still has to fit within the day.
	if iv := a.Interval(); !iv.Valid() {
		return nil, fmt.Errorf("slot %d–%d is out of bounds", iv.Start, iv.End)
	}
	if a.Status.Active() {
		if err := s.checkSlot(ctx, a); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.cache.invalidate(oldDate)
	s.cache.invalidate(a.Date)
	s.emit(ctx, notify.EventMoved, a)
	return a, nil
}

// Transition moves an appointment to a new status, enforcing the
// allowed edges.
func (s *Scheduler) Transition(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, to) {
		return nil, fmt.Errorf("cannot move appointment from %s to %s", a.Status, to)
	}
	a.Status = to
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.cache.invalidate(a.Date)

	switch to {
	case StatusConfirmed:
		s.emit(ctx, notify.EventConfirmed, a)
	case StatusRejected:
		s.emit(ctx, notify.EventRejected, a)
	case StatusCancelledByDoctor:
		s.emit(ctx, notify.EventCancelled, a)
	}
	return a, nil
}

func (s *Scheduler) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Scheduler) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(a.Date)
	s.emit(ctx, notify.EventDeleted, a)
	return nil
}

func (s *Scheduler) Day(ctx context.Context, date time.Time) ([]*Appointment, error) {
	return s.repo.ListByDay(ctx, date.Truncate(24*time.Hour))
}

func (s *Scheduler) Search(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	if f.Date != nil {
		d := f.Date.Truncate(24 * time.Hour)
		f.Date = &d
	}
	return s.repo.Search(ctx, f, limit, offset)
}

// checkSlot enforces the booking rules: the window stays inside the
// day, inside the working hours, and clear of blocks and other active
// appointments.
func (s *Scheduler) checkSlot(ctx context.Context, a *Appointment) error {
	iv := a.Interval()
	if !iv.Valid() {
		return fmt.Errorf("slot %d–%d is out of bounds", iv.Start, iv.End)
	}

	window, open, err := s.hours.HoursFor(ctx, int(a.Date.Weekday()))
	if err != nil {
		return err
	}
	if !open {
		return fmt.Errorf("the doctor does not work on %s", a.Date.Weekday())
	}
	if iv.Start < window.Start || iv.End > window.End {
		return fmt.Errorf("slot %s is outside working hours %s", timeslot.FormatRange(iv), timeslot.FormatRange(window))
	}

	blocks, err := s.blocks.ListByDate(ctx, a.Date)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		biv := timeslot.Interval{Start: b.StartMinute, End: b.EndMinute}
		if iv.Overlaps(biv) {
			return fmt.Errorf("slot %s overlaps blocked time %s", timeslot.FormatRange(iv), timeslot.FormatRange(biv))
		}
	}

	others, err := s.repo.ListByDay(ctx, a.Date)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID == a.ID || !other.Status.Active() {
			continue
		}
		if iv.Overlaps(other.Interval()) {
			return fmt.Errorf("slot %s overlaps appointment at %s", timeslot.FormatRange(iv), other.TimeLabel())
		}
	}
	return nil
}

// emit publishes a snapshot event. Lookup failures fall back to empty
// fields rather than failing the operation.
func (s *Scheduler) emit(ctx context.Context, typ notify.EventType, a *Appointment) {
	ev := notify.Event{
		Type:          typ,
		AppointmentID: a.ID,
		Date:          a.Date,
		StartMinute:   a.StartMinute,
		EndMinute:     a.StartMinute + a.DurationMinutes,
	}
	if a.Comment != nil {
		ev.Comment = *a.Comment
	}
	if p, err := s.patients.Get(ctx, a.PatientID); err == nil {
		ev.PatientName = p.FullName
		ev.PatientPhone = p.Phone
		if p.TelegramChatID != nil {
			ev.PatientChatID = *p.TelegramChatID
		}
	}
	if svc, err := s.services.Get(ctx, a.ServiceID); err == nil {
		ev.ServiceName = svc.Name
	}
	s.publisher.Publish(ev)
}
