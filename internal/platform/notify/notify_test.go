package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type fakeSink struct {
	mu       sync.Mutex
	name     string
	failures int
	calls    int
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Deliver(_ context.Context, _ Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return fmt.Errorf("simulated failure %d", s.calls)
	}
	return nil
}

func (s *fakeSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestDispatcher(sinks ...Sink) (*Dispatcher, *DeliveryLog) {
	log := NewDeliveryLog(100)
	d := NewDispatcher(zerolog.Nop(), log, sinks,
		WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	return d, log
}

func TestDispatch_Success(t *testing.T) {
	sink := &fakeSink{name: "telegram"}
	d, log := newTestDispatcher(sink)
	d.Start()

	d.Publish(Event{Type: EventBooked, PatientName: "Anna"})
	d.Stop()

	if sink.callCount() != 1 {
		t.Errorf("expected 1 delivery, got %d", sink.callCount())
	}
	items, total := log.List(10, 0)
	if total != 1 || items[0].Status != DeliveryStatusSuccess {
		t.Errorf("expected one successful delivery, got total=%d", total)
	}
}

func TestDispatch_RetriesThenSucceeds(t *testing.T) {
	sink := &fakeSink{name: "calendar", failures: 2}
	d, log := newTestDispatcher(sink)
	d.Start()

	d.Publish(Event{Type: EventConfirmed})
	d.Stop()

	if sink.callCount() != 3 {
		t.Errorf("expected 3 attempts, got %d", sink.callCount())
	}
	items, _ := log.List(10, 0)
	if items[0].Status != DeliveryStatusSuccess || items[0].Attempts != 3 {
		t.Errorf("expected success after 3 attempts, got %+v", items[0])
	}
}

func TestDispatch_GivesUpAfterMaxRetries(t *testing.T) {
	sink := &fakeSink{name: "sheets", failures: 10}
	d, log := newTestDispatcher(sink)
	d.Start()

	d.Publish(Event{Type: EventRejected})
	d.Stop()

	if sink.callCount() != 3 {
		t.Errorf("expected 3 attempts, got %d", sink.callCount())
	}
	items, _ := log.List(10, 0)
	if items[0].Status != DeliveryStatusFailed || items[0].Error == "" {
		t.Errorf("expected failed delivery with error, got %+v", items[0])
	}
}

func TestDispatch_FansOutToAllSinks(t *testing.T) {
	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b"}
	d, log := newTestDispatcher(a, b)
	d.Start()

	d.Publish(Event{Type: EventBooked})
	d.Stop()

	if a.callCount() != 1 || b.callCount() != 1 {
		t.Errorf("expected both sinks called, got a=%d b=%d", a.callCount(), b.callCount())
	}
	if _, total := log.List(10, 0); total != 2 {
		t.Errorf("expected 2 delivery records, got %d", total)
	}
}

func TestPublish_QueueFullDropsInsteadOfBlocking(t *testing.T) {
	sink := &fakeSink{name: "slow"}
	log := NewDeliveryLog(10)
	d := NewDispatcher(zerolog.Nop(), log, []Sink{sink}, WithQueueSize(1))
	// Worker never started: the queue holds one event, the rest drop.

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Publish(Event{Type: EventBooked})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}

func TestDeliveryLog_Caps(t *testing.T) {
	log := NewDeliveryLog(3)
	for i := 0; i < 5; i++ {
		log.Record(&Delivery{Sink: fmt.Sprintf("s%d", i)})
	}
	items, total := log.List(10, 0)
	if total != 3 || len(items) != 3 {
		t.Fatalf("expected cap of 3, got %d", total)
	}
	if items[0].Sink != "s4" {
		t.Errorf("expected newest first, got %s", items[0].Sink)
	}
}

func TestHandler_List(t *testing.T) {
	log := NewDeliveryLog(10)
	log.Record(&Delivery{Sink: "telegram", Status: DeliveryStatusSuccess})

	h := NewHandler(log)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
