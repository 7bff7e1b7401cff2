package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clinicdesk/api/internal/platform/notify"
	"github.com/clinicdesk/api/pkg/timeslot"
)

// eventID derives the Calendar event id from the appointment id. The
// hex form of a UUID fits Calendar's base32hex id alphabet, so the
// mapping needs no storage.
func eventID(ev notify.Event) string {
	return strings.ReplaceAll(ev.AppointmentID.String(), "-", "")
}

// CalendarSink mirrors active appointments into the doctor's calendar.
type CalendarSink struct {
	client *CalendarClient
	loc    *time.Location
}

func NewCalendarSink(client *CalendarClient, loc *time.Location) *CalendarSink {
	return &CalendarSink{client: client, loc: loc}
}

func (s *CalendarSink) Name() string { return "google-calendar" }

func (s *CalendarSink) Deliver(ctx context.Context, ev notify.Event) error {
	switch ev.Type {
	case notify.EventRejected, notify.EventCancelled, notify.EventDeleted:
		return s.client.Delete(ctx, eventID(ev))
	}

	ce := &Event{
		ID:      eventID(ev),
		Summary: fmt.Sprintf("%s — %s", ev.ServiceName, ev.PatientName),
		Description: fmt.Sprintf("Patient: %s\nPhone: %s\n%s",
			ev.PatientName, ev.PatientPhone, ev.Comment),
		Start: EventTime{
			DateTime: timeslot.ToTime(ev.Date, ev.StartMinute, s.loc).Format(time.RFC3339),
			TimeZone: s.loc.String(),
		},
		End: EventTime{
			DateTime: timeslot.ToTime(ev.Date, ev.EndMinute, s.loc).Format(time.RFC3339),
			TimeZone: s.loc.String(),
		},
	}

	switch ev.Type {
	case notify.EventBooked:
		_, err := s.client.Insert(ctx, ce)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			// The id already exists, e.g. a redelivered event.
			return s.client.Patch(ctx, ce.ID, ce)
		}
		return err
	default: // moved, confirmed
		err := s.client.Patch(ctx, ce.ID, ce)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			_, err = s.client.Insert(ctx, ce)
		}
		return err
	}
}

// SheetsSink appends one bookkeeping row per appointment event.
type SheetsSink struct {
	client *SheetsClient
}

func NewSheetsSink(client *SheetsClient) *SheetsSink {
	return &SheetsSink{client: client}
}

func (s *SheetsSink) Name() string { return "google-sheets" }

func (s *SheetsSink) Deliver(ctx context.Context, ev notify.Event) error {
	return s.client.AppendRow(ctx, []interface{}{
		ev.OccurredAt.Format(time.RFC3339),
		string(ev.Type),
		ev.PatientName,
		ev.PatientPhone,
		ev.ServiceName,
		ev.Date.Format("2006-01-02"),
		timeslot.FormatRange(timeslot.Interval{Start: ev.StartMinute, End: ev.EndMinute}),
		ev.Comment,
	})
}
