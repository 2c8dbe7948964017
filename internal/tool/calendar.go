package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	gcalBaseURL = "https://www.googleapis.com/calendar/v3"
	gcalTimeout = 20 * time.Second
)

// CalendarClient is a minimal Google Calendar v3 client. It holds a
// per-user OAuth access token; refresh is the credential store's concern.
type CalendarClient struct {
	AccessToken string
	CalendarID  string // empty = "primary"
	BaseURL     string // override for tests
	HTTP        *http.Client
	Location    *time.Location
}

func (c *CalendarClient) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return gcalBaseURL
}

func (c *CalendarClient) calendarID() string {
	if c.CalendarID != "" {
		return c.CalendarID
	}
	return "primary"
}

func (c *CalendarClient) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: gcalTimeout}
}

func (c *CalendarClient) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.UTC
}

func (c *CalendarClient) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base()+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("calendar API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

type gcalEvent struct {
	ID      string `json:"id,omitempty"`
	Summary string `json:"summary"`
	Start   struct {
		DateTime string `json:"dateTime,omitempty"`
		Date     string `json:"date,omitempty"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime,omitempty"`
		Date     string `json:"date,omitempty"`
	} `json:"end"`
}

func renderEvent(e gcalEvent) string {
	start := e.Start.DateTime
	if start == "" {
		start = e.Start.Date + " (all day)"
	}
	return fmt.Sprintf("[%s] %s — %s", e.ID, e.Summary, start)
}

// --- GetEvents ---

type GetEventsTool struct {
	Client *CalendarClient
}

func (t *GetEventsTool) Name() string        { return "get_events" }
func (t *GetEventsTool) Description() string { return "List calendar events for a date" }
func (t *GetEventsTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"date"},
		"properties": map[string]any{
			"date": map[string]any{"type": "string", "description": "Date in YYYY-MM-DD format"},
		},
	}
}

func (t *GetEventsTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	date := getString(params, "date")
	if date == "" {
		return "", fmt.Errorf("get_events: date is required")
	}

	day, err := time.ParseInLocation("2006-01-02", date, t.Client.location())
	if err != nil {
		return "", fmt.Errorf("get_events: invalid date %q: %w", date, err)
	}

	q := url.Values{}
	q.Set("timeMin", day.Format(time.RFC3339))
	q.Set("timeMax", day.AddDate(0, 0, 1).Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	path := fmt.Sprintf("/calendars/%s/events?%s", url.PathEscape(t.Client.calendarID()), q.Encode())
	respBody, err := t.Client.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", fmt.Errorf("get_events: %w", err)
	}

	var list struct {
		Items []gcalEvent `json:"items"`
	}
	if err := json.Unmarshal(respBody, &list); err != nil {
		return "", fmt.Errorf("get_events: parse response: %w", err)
	}
	if len(list.Items) == 0 {
		return fmt.Sprintf("No events on %s.", date), nil
	}

	var b strings.Builder
	for _, e := range list.Items {
		fmt.Fprintf(&b, "- %s\n", renderEvent(e))
	}
	return b.String(), nil
}

// --- CreateEvent ---

type CreateEventTool struct {
	Client *CalendarClient
}

func (t *CreateEventTool) Name() string        { return "create_event" }
func (t *CreateEventTool) Description() string { return "Create a calendar event" }
func (t *CreateEventTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"summary", "start", "end"},
		"properties": map[string]any{
			"summary": map[string]any{"type": "string", "description": "Event title"},
			"start":   map[string]any{"type": "string", "description": "Start time, RFC 3339 (e.g. 2026-08-29T10:00:00Z)"},
			"end":     map[string]any{"type": "string", "description": "End time, RFC 3339"},
		},
	}
}

func (t *CreateEventTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	summary := getString(params, "summary")
	start := getString(params, "start")
	end := getString(params, "end")
	if summary == "" || start == "" || end == "" {
		return "", fmt.Errorf("create_event: summary, start, and end are required")
	}
	for _, ts := range []string{start, end} {
		if _, err := time.Parse(time.RFC3339, ts); err != nil {
			return "", fmt.Errorf("create_event: invalid timestamp %q: %w", ts, err)
		}
	}

	var ev gcalEvent
	ev.Summary = summary
	ev.Start.DateTime = start
	ev.End.DateTime = end

	payload, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("create_event: %w", err)
	}

	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(t.Client.calendarID()))
	respBody, err := t.Client.do(ctx, http.MethodPost, path, strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("create_event: %w", err)
	}

	var created gcalEvent
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("create_event: parse response: %w", err)
	}
	return fmt.Sprintf("Event created: %s", renderEvent(created)), nil
}

// --- DeleteEvent ---

type DeleteEventTool struct {
	Client *CalendarClient
}

func (t *DeleteEventTool) Name() string        { return "delete_event" }
func (t *DeleteEventTool) Description() string { return "Delete a calendar event" }
func (t *DeleteEventTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"event_id"},
		"properties": map[string]any{
			"event_id": map[string]any{"type": "string", "description": "ID of the event to delete"},
		},
	}
}

func (t *DeleteEventTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	id := getString(params, "event_id")
	if id == "" {
		return "", fmt.Errorf("delete_event: event_id is required")
	}
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(t.Client.calendarID()), url.PathEscape(id))
	if _, err := t.Client.do(ctx, http.MethodDelete, path, nil); err != nil {
		return "", fmt.Errorf("delete_event: %w", err)
	}
	return fmt.Sprintf("Event %s deleted.", id), nil
}
