// Package notify fans appointment events out to the configured
// integrations (Telegram, Google Calendar, Google Sheets). Delivery is
// asynchronous: publishing never blocks the originating request, and a
// sink failure is retried a bounded number of times, logged, and
// recorded in the delivery log.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventType enumerates the appointment lifecycle moments that produce
// outbound notifications.
type EventType string

const (
	EventBooked    EventType = "appointment.booked"
	EventConfirmed EventType = "appointment.confirmed"
	EventRejected  EventType = "appointment.rejected"
	EventCancelled EventType = "appointment.cancelled"
	EventMoved     EventType = "appointment.moved"
	EventDeleted   EventType = "appointment.deleted"
)

// Event is a self-contained snapshot of an appointment at the moment
// something happened to it. Sinks render from these fields only, so the
// package stays free of domain imports.
type Event struct {
	ID            uuid.UUID `json:"id"`
	Type          EventType `json:"type"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientName   string    `json:"patient_name"`
	PatientPhone  string    `json:"patient_phone"`
	PatientChatID int64     `json:"patient_chat_id,omitempty"`
	ServiceName   string    `json:"service_name"`
	Date          time.Time `json:"date"`
	StartMinute   int       `json:"start_minute"`
	EndMinute     int       `json:"end_minute"`
	Comment       string    `json:"comment,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher is what the domain layer sees: fire-and-forget.
type Publisher interface {
	Publish(ev Event)
}

// NopPublisher drops every event. Used in tests and when no
// integrations are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

// Sink delivers one event to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev Event) error
}

// Delivery records one sink's outcome for one event.
type Delivery struct {
	ID        uuid.UUID     `json:"id"`
	EventID   uuid.UUID     `json:"event_id"`
	EventType EventType     `json:"event_type"`
	Sink      string        `json:"sink"`
	Status    string        `json:"status"` // "success" or "failed"
	Attempts  int           `json:"attempts"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

const (
	DeliveryStatusSuccess = "success"
	DeliveryStatusFailed  = "failed"
)

// DeliveryLog keeps the most recent deliveries in memory, newest first.
type DeliveryLog struct {
	mu      sync.RWMutex
	items   []*Delivery
	maxSize int
}

func NewDeliveryLog(maxSize int) *DeliveryLog {
	if maxSize <= 0 {
		maxSize = 500
	}
	return &DeliveryLog{maxSize: maxSize}
}

func (l *DeliveryLog) Record(d *Delivery) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]*Delivery{d}, l.items...)
	if len(l.items) > l.maxSize {
		l.items = l.items[:l.maxSize]
	}
}

func (l *DeliveryLog) List(limit, offset int) ([]*Delivery, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := len(l.items)
	if offset >= total {
		return nil, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]*Delivery, end-offset)
	copy(out, l.items[offset:end])
	return out, total
}

// Dispatcher owns the event queue and the worker that drains it.
type Dispatcher struct {
	sinks      []Sink
	log        *DeliveryLog
	logger     zerolog.Logger
	queue      chan Event
	maxRetries int
	retryDelay time.Duration
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

type DispatcherOption func(*Dispatcher)

func WithMaxRetries(n int) DispatcherOption {
	return func(d *Dispatcher) { d.maxRetries = n }
}

func WithRetryDelay(delay time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.retryDelay = delay }
}

func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) { d.queue = make(chan Event, n) }
}

func NewDispatcher(logger zerolog.Logger, log *DeliveryLog, sinks []Sink, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sinks:      sinks,
		log:        log,
		logger:     logger.With().Str("component", "notify").Logger(),
		queue:      make(chan Event, 256),
		maxRetries: 3,
		retryDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the worker goroutine. Call Stop to drain and exit.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for ev := range d.queue {
			d.dispatch(ev)
		}
	}()
}

// Stop closes the queue and waits for in-flight deliveries to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.queue) })
	d.wg.Wait()
}

// Publish enqueues an event. If the queue is full the event is dropped
// and logged rather than blocking the caller.
func (d *Dispatcher) Publish(ev Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	select {
	case d.queue <- ev:
	default:
		d.logger.Error().
			Str("event_type", string(ev.Type)).
			Stringer("appointment_id", ev.AppointmentID).
			Msg("notify queue full, dropping event")
	}
}

func (d *Dispatcher) dispatch(ev Event) {
	for _, sink := range d.sinks {
		d.deliverWithRetry(sink, ev)
	}
}

func (d *Dispatcher) deliverWithRetry(sink Sink, ev Event) {
	start := time.Now()
	var lastErr error
	attempts := 0
	for attempts < d.maxRetries {
		attempts++
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		lastErr = sink.Deliver(ctx, ev)
		cancel()
		if lastErr == nil {
			break
		}
		if attempts < d.maxRetries {
			time.Sleep(d.retryDelay)
		}
	}

	del := &Delivery{
		ID:        uuid.New(),
		EventID:   ev.ID,
		EventType: ev.Type,
		Sink:      sink.Name(),
		Status:    DeliveryStatusSuccess,
		Attempts:  attempts,
		Duration:  time.Since(start),
		CreatedAt: time.Now(),
	}
	if lastErr != nil {
		del.Status = DeliveryStatusFailed
		del.Error = lastErr.Error()
		d.logger.Error().Err(lastErr).
			Str("sink", sink.Name()).
			Str("event_type", string(ev.Type)).
			Int("attempts", attempts).
			Msg("delivery failed")
	} else {
		d.logger.Info().
			Str("sink", sink.Name()).
			Str("event_type", string(ev.Type)).
			Int("attempts", attempts).
			Msg("delivered")
	}
	d.log.Record(del)
}
