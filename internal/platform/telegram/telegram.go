// Package telegram pushes appointment notifications to the doctor's
// chat and, when the patient has a chat id on file, to the patient.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/api/internal/platform/notify"
	"github.com/clinicdesk/api/pkg/timeslot"
)

// sender is the slice of tgbotapi.BotAPI the sink uses; tests swap in
// a fake.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sink delivers appointment events as Telegram messages. Chats that
// already got an event's message are remembered, so a retried delivery
// only repeats the sends that failed.
type Sink struct {
	bot          sender
	doctorChatID int64

	mu   sync.Mutex
	sent map[uuid.UUID]map[int64]bool
}

// New connects to the Bot API with the given timeout.
func New(token string, doctorChatID int64, timeout time.Duration) (*Sink, error) {
	client := &http.Client{Timeout: timeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return &Sink{bot: bot, doctorChatID: doctorChatID}, nil
}

func (s *Sink) Name() string { return "telegram" }

func (s *Sink) Deliver(_ context.Context, ev notify.Event) error {
	text := Render(ev)
	if text == "" {
		return nil
	}
	if !s.delivered(ev, s.doctorChatID) {
		if _, err := s.bot.Send(tgbotapi.NewMessage(s.doctorChatID, text)); err != nil {
			return fmt.Errorf("send to doctor chat: %w", err)
		}
		s.mark(ev, s.doctorChatID)
	}
	if ev.PatientChatID != 0 && ev.PatientChatID != s.doctorChatID && !s.delivered(ev, ev.PatientChatID) {
		if _, err := s.bot.Send(tgbotapi.NewMessage(ev.PatientChatID, text)); err != nil {
			return fmt.Errorf("send to patient chat: %w", err)
		}
	}
	s.forget(ev)
	return nil
}

func (s *Sink) delivered(ev notify.Event, chatID int64) bool {
	if ev.ID == uuid.Nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[ev.ID][chatID]
}

func (s *Sink) mark(ev notify.Event, chatID int64) {
	if ev.ID == uuid.Nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = make(map[uuid.UUID]map[int64]bool)
	}
	if s.sent[ev.ID] == nil {
		s.sent[ev.ID] = make(map[int64]bool)
	}
	s.sent[ev.ID][chatID] = true
}

func (s *Sink) forget(ev notify.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sent, ev.ID)
}

var headlines = map[notify.EventType]string{
	notify.EventBooked:    "🗓 New booking",
	notify.EventConfirmed: "✅ Appointment confirmed",
	notify.EventRejected:  "❌ Appointment rejected",
	notify.EventCancelled: "🚫 Appointment cancelled by the doctor",
	notify.EventMoved:     "🔁 Appointment rescheduled",
}

// Render formats an event as a plain-text message. Deleted
// appointments produce no message.
func Render(ev notify.Event) string {
	head, ok := headlines[ev.Type]
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(head)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Patient: %s\n", ev.PatientName)
	if ev.PatientPhone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", ev.PatientPhone)
	}
	fmt.Fprintf(&b, "Service: %s\n", ev.ServiceName)
	fmt.Fprintf(&b, "When: %s %s\n", ev.Date.Format("02.01.2006"),
		timeslot.FormatRange(timeslot.Interval{Start: ev.StartMinute, End: ev.EndMinute}))
	if ev.Comment != "" {
		fmt.Fprintf(&b, "Comment: %s\n", ev.Comment)
	}
	return strings.TrimRight(b.String(), "\n")
}
