// Package calendar fetches today's events from an ICS feed.
package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// Event is one calendar entry prepared for the kiosk.
type Event struct {
	Start   time.Time
	Summary string
}

// DisplayString formats the event for the on-screen list.
func (e Event) DisplayString() string {
	return e.Start.Format("15:04") + " " + e.Summary
}

// Speech builds the spoken announcement from the events still ahead of
// now. Pure, so it can run on the dispatch loop against cached events.
func Speech(events []Event, now time.Time) string {
	var parts []string
	for _, e := range events {
		if e.Start.After(now) {
			parts = append(parts, fmt.Sprintf("%s at %s", e.Summary, e.Start.Format("3:04 PM")))
		}
	}
	if len(parts) == 0 {
		return "You have no events coming up."
	}
	return "Coming up: " + strings.Join(parts, ", ") + "."
}

// Provider reads an ICS feed over HTTP.
type Provider struct {
	client *http.Client
	url    string
	loc    *time.Location
}

// New creates a Provider for the given ICS URL. An empty URL disables the
// feed; fetches then return no events and no error.
func New(url string, timeout time.Duration, loc *time.Location) *Provider {
	if loc == nil {
		loc = time.Local
	}
	return &Provider{
		client: &http.Client{Timeout: timeout},
		url:    url,
		loc:    loc,
	}
}

// FetchToday returns today's events relative to now, earliest first.
// Errors are returned so the refresh task can keep the previously rendered
// list.
func (p *Provider) FetchToday(ctx context.Context, now time.Time) ([]Event, error) {
	if p.url == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar feed returned status %d", resp.StatusCode)
	}

	return p.ParseToday(resp.Body, now)
}

// ParseToday decodes an ICS stream and keeps the events that start on
// now's day, sorted by start time.
func (p *Provider) ParseToday(r io.Reader, now time.Time) ([]Event, error) {
	local := now.In(p.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	dec := ical.NewDecoder(r)
	var events []Event
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode calendar: %w", err)
		}

		for _, ev := range cal.Events() {
			start, err := ev.DateTimeStart(p.loc)
			if err != nil {
				continue
			}
			if start.Before(dayStart) || !start.Before(dayEnd) {
				continue
			}
			summary, err := ev.Props.Text(ical.PropSummary)
			if err != nil || summary == "" {
				summary = "(untitled)"
			}
			events = append(events, Event{Start: start, Summary: summary})
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}
