package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/clinicdesk/api/pkg/timeslot"
)

// cacheSize caps the number of cached days; a month of calendar views
// fits comfortably.
const cacheSize = 64

// availabilityCache memoizes the free windows of a day. The free
// windows are duration-independent, so one entry serves every service;
// slot stepping happens per request.
type availabilityCache struct {
	lru *lru.Cache[string, []timeslot.Interval]
}

func newAvailabilityCache(size int) *availabilityCache {
	c, _ := lru.New[string, []timeslot.Interval](size)
	return &availabilityCache{lru: c}
}

func dateKey(date time.Time) string {
	return date.Format("2006-01-02")
}

func (c *availabilityCache) get(date time.Time) ([]timeslot.Interval, bool) {
	return c.lru.Get(dateKey(date))
}

func (c *availabilityCache) put(date time.Time, free []timeslot.Interval) {
	c.lru.Add(dateKey(date), free)
}

func (c *availabilityCache) invalidate(date time.Time) {
	c.lru.Remove(dateKey(date))
}

func (c *availabilityCache) purge() {
	c.lru.Purge()
}

// InvalidateDate drops the cached free windows of one day. Callers that
// change what occupies a day outside the scheduler (blocked slots) use
// this to keep availability current.
func (s *Scheduler) InvalidateDate(date time.Time) {
	s.cache.invalidate(date.Truncate(24 * time.Hour))
}

// InvalidateAll drops every cached day. Used when the weekly working
// schedule changes, which affects all dates at once.
func (s *Scheduler) InvalidateAll() {
	s.cache.purge()
}

// Slot is one bookable option in an availability response.
type Slot struct {
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Label       string `json:"label"`
}

// Availability returns the bookable slots for a service on a date:
// the working window minus blocked time minus active appointments,
// stepped by the service duration. Results are sorted ascending.
func (s *Scheduler) Availability(ctx context.Context, date time.Time, serviceID uuid.UUID) ([]Slot, error) {
	svc, err := s.services.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	date = date.Truncate(24 * time.Hour)

	free, ok := s.cache.get(date)
	if !ok {
		free, err = s.freeWindows(ctx, date)
		if err != nil {
			return nil, err
		}
		s.cache.put(date, free)
	}

	intervals := timeslot.Slots(free, svc.DurationMinutes, svc.DurationMinutes)
	slots := make([]Slot, 0, len(intervals))
	for _, iv := range intervals {
		slots = append(slots, Slot{
			StartMinute: iv.Start,
			EndMinute:   iv.End,
			Label:       timeslot.FormatRange(iv),
		})
	}
	return slots, nil
}

// freeWindows computes the unoccupied parts of the working window.
func (s *Scheduler) freeWindows(ctx context.Context, date time.Time) ([]timeslot.Interval, error) {
	window, open, err := s.hours.HoursFor(ctx, int(date.Weekday()))
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, nil
	}

	var busy []timeslot.Interval
	blocks, err := s.blocks.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		busy = append(busy, timeslot.Interval{Start: b.StartMinute, End: b.EndMinute})
	}

	appts, err := s.repo.ListByDay(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, a := range appts {
		if a.Status.Active() {
			busy = append(busy, a.Interval())
		}
	}

	return timeslot.Subtract(window, timeslot.Merge(busy)), nil
}
