package appointment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/api/internal/domain/blockedslot"
	"github.com/clinicdesk/api/internal/domain/catalog"
	"github.com/clinicdesk/api/internal/domain/patient"
	"github.com/clinicdesk/api/internal/platform/notify"
	"github.com/clinicdesk/api/pkg/timeslot"
)

// monday is a fixed test date; 2026-09-07 falls on a Monday.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

type mockRepo struct {
	appts map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appts[a.ID]; !ok {
		return fmt.Errorf("not found")
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.appts, id)
	return nil
}

func (m *mockRepo) ListByDay(_ context.Context, date time.Time) ([]*Appointment, error) {
	var items []*Appointment
	for _, a := range m.appts {
		if a.Date.Equal(date) {
			cp := *a
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].StartMinute < items[j].StartMinute })
	return items, nil
}

func (m *mockRepo) Search(_ context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appts {
		if f.Date != nil && !a.Date.Equal(*f.Date) {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		cp := *a
		items = append(items, &cp)
	}
	return items, len(items), nil
}

type mockPatients struct {
	patients map[uuid.UUID]*patient.Patient
}

func (m *mockPatients) Get(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

type mockServices struct {
	services map[uuid.UUID]*catalog.Service
}

func (m *mockServices) Get(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return s, nil
}

type mockBlocks struct {
	blocks []*blockedslot.BlockedSlot
}

func (m *mockBlocks) ListByDate(_ context.Context, date time.Time) ([]*blockedslot.BlockedSlot, error) {
	var items []*blockedslot.BlockedSlot
	for _, b := range m.blocks {
		if b.Date.Equal(date) {
			items = append(items, b)
		}
	}
	return items, nil
}

// mockHours works Monday through Friday; the window defaults to
// 09:00–18:00 in newFixture.
type mockHours struct {
	window timeslot.Interval
}

func (m *mockHours) HoursFor(_ context.Context, weekday int) (timeslot.Interval, bool, error) {
	if weekday == 0 || weekday == 6 {
		return timeslot.Interval{}, false, nil
	}
	return m.window, true, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *capturePublisher) Publish(ev notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) last() (notify.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return notify.Event{}, false
	}
	return p.events[len(p.events)-1], true
}

type fixture struct {
	sched     *Scheduler
	repo      *mockRepo
	blocks    *mockBlocks
	hours     *mockHours
	published *capturePublisher
	patientID uuid.UUID
	serviceID uuid.UUID
}

func newFixture() *fixture {
	chatID := int64(42)
	p := &patient.Patient{ID: uuid.New(), FullName: "Anna Petrova", Phone: "+79001234567", TelegramChatID: &chatID}
	svc := &catalog.Service{ID: uuid.New(), Name: "Consultation", DurationMinutes: 60, Active: true}

	repo := newMockRepo()
	blocks := &mockBlocks{}
	hours := &mockHours{window: timeslot.Interval{Start: 540, End: 1080}}
	pub := &capturePublisher{}
	sched := NewScheduler(repo,
		&mockPatients{patients: map[uuid.UUID]*patient.Patient{p.ID: p}},
		&mockServices{services: map[uuid.UUID]*catalog.Service{svc.ID: svc}},
		blocks, hours, pub)

	return &fixture{sched: sched, repo: repo, blocks: blocks, hours: hours, published: pub, patientID: p.ID, serviceID: svc.ID}
}

func (f *fixture) book(t *testing.T, startMinute int) *Appointment {
	t.Helper()
	a := &Appointment{PatientID: f.patientID, ServiceID: f.serviceID, Date: monday, StartMinute: startMinute}
	if err := f.sched.Book(context.Background(), a); err != nil {
		t.Fatalf("book at %d: %v", startMinute, err)
	}
	return a
}

func TestBook(t *testing.T) {
	f := newFixture()
	a := f.book(t, 540)

	if a.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", a.Status)
	}
	if a.DurationMinutes != 60 {
		t.Errorf("duration = %d, want 60 copied from the service", a.DurationMinutes)
	}
	if a.TimeLabel() != "09:00–10:00" {
		t.Errorf("label = %q, want 09:00–10:00", a.TimeLabel())
	}

	ev, ok := f.published.last()
	if !ok || ev.Type != notify.EventBooked {
		t.Fatalf("expected booked event, got %+v", ev)
	}
	if ev.PatientName != "Anna Petrova" || ev.ServiceName != "Consultation" || ev.PatientChatID != 42 {
		t.Errorf("event snapshot incomplete: %+v", ev)
	}
}

func TestBook_UnknownPatient(t *testing.T) {
	f := newFixture()
	a := &Appointment{PatientID: uuid.New(), ServiceID: f.serviceID, Date: monday, StartMinute: 540}
	if err := f.sched.Book(context.Background(), a); err == nil {
		t.Error("expected error for unknown patient")
	}
}

func TestBook_UnknownService(t *testing.T) {
	f := newFixture()
	a := &Appointment{PatientID: f.patientID, ServiceID: uuid.New(), Date: monday, StartMinute: 540}
	if err := f.sched.Book(context.Background(), a); err == nil {
		t.Error("expected error for unknown service")
	}
}

func TestBook_ClosedDay(t *testing.T) {
	f := newFixture()
	sunday := monday.AddDate(0, 0, -1)
	a := &Appointment{PatientID: f.patientID, ServiceID: f.serviceID, Date: sunday, StartMinute: 540}
	if err := f.sched.Book(context.Background(), a); err == nil {
		t.Error("expected error for a closed day")
	}
}

func TestBook_OutsideWorkingHours(t *testing.T) {
	f := newFixture()
	// 17:30 + 60min runs past the 18:00 close.
	a := &Appointment{PatientID: f.patientID, ServiceID: f.serviceID, Date: monday, StartMinute: 1050}
	if err := f.sched.Book(context.Background(), a); err == nil {
		t.Error("expected error for slot running past closing time")
	}
}

func TestBook_OverlapsBlock(t *testing.T) {
	f := newFixture()
	f.blocks.blocks = append(f.blocks.blocks, &blockedslot.BlockedSlot{Date: monday, StartMinute: 570, EndMinute: 630})

	a := &Appointment{PatientID: f.patientID, ServiceID: f.serviceID, Date: monday, StartMinute: 540}
	if err := f.sched.Book(context.Background(), a); err == nil {
		t.Error("expected error for slot overlapping blocked time")
	}
}

func TestBook_OverlapsActiveAppointment(t *testing.T) {
	f := newFixture()
	f.book(t, 540)

	a := &Appointment{PatientID: f.patientID, ServiceID: f.serviceID, Date: monday, StartMinute: 570}
	if err := f.sched.Book(context.Background(), a); err == nil {
		t.Error("expected error for overlapping active appointment")
	}
}

func TestBook_RejectedAppointmentFreesSlot(t *testing.T) {
	f := newFixture()
	first := f.book(t, 540)
	if _, err := f.sched.Transition(context.Background(), first.ID, StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	a := &Appointment{PatientID: f.patientID, ServiceID: f.serviceID, Date: monday, StartMinute: 540}
	if err := f.sched.Book(context.Background(), a); err != nil {
		t.Errorf("rejected appointment should not occupy the slot: %v", err)
	}
}

func TestBook_BackToBackAllowed(t *testing.T) {
	f := newFixture()
	f.book(t, 540)
	f.book(t, 600) // 10:00 right after the 09:00–10:00 booking
}

func TestTransition_AllowedEdges(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelledByDoctor, true},
		{StatusConfirmed, StatusCancelledByDoctor, true},
		{StatusConfirmed, StatusRejected, false},
		{StatusConfirmed, StatusPending, false},
		{StatusRejected, StatusConfirmed, false},
		{StatusCancelledByDoctor, StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTransition_EmitsEvent(t *testing.T) {
	f := newFixture()
	a := f.book(t, 540)

	got, err := f.sched.Transition(context.Background(), a.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", got.Status)
	}
	ev, _ := f.published.last()
	if ev.Type != notify.EventConfirmed {
		t.Errorf("event type = %s, want confirmed", ev.Type)
	}
}

func TestTransition_InvalidEdgeRejected(t *testing.T) {
	f := newFixture()
	a := f.book(t, 540)
	f.sched.Transition(context.Background(), a.ID, StatusRejected)

	if _, err := f.sched.Transition(context.Background(), a.ID, StatusConfirmed); err == nil {
		t.Error("expected error confirming a rejected appointment")
	}
}

func TestReschedule(t *testing.T) {
	f := newFixture()
	a := f.book(t, 540)

	moved, err := f.sched.Reschedule(context.Background(), a.ID, monday, 660, uuid.Nil, nil)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if moved.StartMinute != 660 {
		t.Errorf("start = %d, want 660", moved.StartMinute)
	}
	ev, _ := f.published.last()
	if ev.Type != notify.EventMoved {
		t.Errorf("event type = %s, want moved", ev.Type)
	}
}

func TestReschedule_DoesNotConflictWithItself(t *testing.T) {
	f := newFixture()
	a := f.book(t, 540)

	// Shift by half a slot: the new window overlaps the old one, which
	// must not count as a conflict.
	if _, err := f.sched.Reschedule(context.Background(), a.ID, monday, 570, uuid.Nil, nil); err != nil {
		t.Errorf("rescheduling over the appointment's own slot should succeed: %v", err)
	}
}

func TestReschedule_ConflictRejected(t *testing.T) {
	f := newFixture()
	f.book(t, 540)
	second := f.book(t, 660)

	if _, err := f.sched.Reschedule(context.Background(), second.ID, monday, 570, uuid.Nil, nil); err == nil {
		t.Error("expected conflict when rescheduling onto an occupied slot")
	}
}

func TestReschedule_InactiveSkipsConflicts(t *testing.T) {
	f := newFixture()
	f.book(t, 540)
	second := f.book(t, 660)
	if _, err := f.sched.Transition(context.Background(), second.ID, StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// A rejected appointment may land on an occupied slot.
	if _, err := f.sched.Reschedule(context.Background(), second.ID, monday, 540, uuid.Nil, nil); err != nil {
		t.Errorf("rescheduling a rejected appointment onto an occupied slot should succeed: %v", err)
	}
}

func TestReschedule_InactiveStillBoundsChecked(t *testing.T) {
	f := newFixture()
	a := f.book(t, 540)
	if _, err := f.sched.Transition(context.Background(), a.ID, StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// 23:30 + 60min runs past midnight.
	if _, err := f.sched.Reschedule(context.Background(), a.ID, monday, 1410, uuid.Nil, nil); err == nil {
		t.Error("expected error for a window running past midnight")
	}
}

func TestDelete_EmitsEvent(t *testing.T) {
	f := newFixture()
	a := f.book(t, 540)

	if err := f.sched.Delete(context.Background(), a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ev, _ := f.published.last()
	if ev.Type != notify.EventDeleted {
		t.Errorf("event type = %s, want deleted", ev.Type)
	}
}
