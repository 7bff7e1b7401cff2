package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const calendarBaseURL = "https://www.googleapis.com/calendar/v3"

// CalendarClient manages events on one calendar.
type CalendarClient struct {
	tokens     *TokenSource
	calendarID string
	client     *http.Client
	baseURL    string
}

type CalendarOption func(*CalendarClient)

func WithCalendarBaseURL(u string) CalendarOption {
	return func(c *CalendarClient) { c.baseURL = u }
}

func WithCalendarHTTPClient(hc *http.Client) CalendarOption {
	return func(c *CalendarClient) { c.client = hc }
}

func NewCalendarClient(tokens *TokenSource, calendarID string, opts ...CalendarOption) *CalendarClient {
	c := &CalendarClient{
		tokens:     tokens,
		calendarID: calendarID,
		client:     &http.Client{Timeout: 15 * time.Second},
		baseURL:    calendarBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Event is the subset of the Calendar v3 event resource we write.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

func (c *CalendarClient) eventsURL(eventID string) string {
	u := c.baseURL + "/calendars/" + url.PathEscape(c.calendarID) + "/events"
	if eventID != "" {
		u += "/" + url.PathEscape(eventID)
	}
	return u
}

// Insert creates an event and returns its id.
func (c *CalendarClient) Insert(ctx context.Context, ev *Event) (string, error) {
	var created Event
	if err := c.do(ctx, http.MethodPost, c.eventsURL(""), ev, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// Patch updates the given fields of an existing event.
func (c *CalendarClient) Patch(ctx context.Context, eventID string, ev *Event) error {
	return c.do(ctx, http.MethodPatch, c.eventsURL(eventID), ev, nil)
}

// Delete removes an event. A 404 or 410 counts as already deleted.
func (c *CalendarClient) Delete(ctx context.Context, eventID string) error {
	err := c.do(ctx, http.MethodDelete, c.eventsURL(eventID), nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusGone) {
		return nil
	}
	return err
}

// APIError is a non-2xx response from a Google API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google api returned %d: %s", e.StatusCode, e.Body)
}

func (c *CalendarClient) do(ctx context.Context, method, u string, in, out interface{}) error {
	return doJSON(ctx, c.client, c.tokens, method, u, in, out)
}

func doJSON(ctx context.Context, client *http.Client, tokens *TokenSource, method, u string, in, out interface{}) error {
	token, err := tokens.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
