package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ics builds a CRLF-terminated fixture the decoder accepts.
func ics(lines ...string) string {
	all := append([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//kioskd test//EN",
	}, lines...)
	all = append(all, "END:VCALENDAR")
	return strings.Join(all, "\r\n") + "\r\n"
}

func event(uid, dtstart, summary string) []string {
	ev := []string{
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:20260829T000000Z",
		"DTSTART:" + dtstart,
	}
	if summary != "" {
		ev = append(ev, "SUMMARY:"+summary)
	}
	return append(ev, "END:VEVENT")
}

func TestParseToday(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	p := New("http://example.invalid/cal.ics", time.Second, time.UTC)

	var lines []string
	lines = append(lines, event("1", "20260830T140000Z", "Dentist")...)
	lines = append(lines, event("2", "20260830T080000Z", "Standup")...)
	lines = append(lines, event("3", "20260831T100000Z", "Tomorrow")...)
	lines = append(lines, event("4", "20260829T100000Z", "Yesterday")...)
	fixture := ics(lines...)

	events, err := p.ParseToday(strings.NewReader(fixture), now)
	require.NoError(t, err)
	require.Len(t, events, 2, "only today's events survive the filter")

	// Sorted by start time, not feed order.
	assert.Equal(t, "Standup", events[0].Summary)
	assert.Equal(t, "Dentist", events[1].Summary)
	assert.Equal(t, "08:00 Standup", events[0].DisplayString())
	assert.Equal(t, "14:00 Dentist", events[1].DisplayString())
}

func TestParseToday_UntitledEvent(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	p := New("http://example.invalid/cal.ics", time.Second, time.UTC)

	fixture := ics(event("1", "20260830T140000Z", "")...)
	events, err := p.ParseToday(strings.NewReader(fixture), now)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "(untitled)", events[0].Summary)
}

func TestParseToday_Garbage(t *testing.T) {
	p := New("http://example.invalid/cal.ics", time.Second, time.UTC)
	_, err := p.ParseToday(strings.NewReader("this is not a calendar"), time.Now())
	assert.Error(t, err)
}

func TestFetchToday(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ics(event("1", "20260830T140000Z", "Dentist")...)))
	}))
	defer srv.Close()

	p := New(srv.URL, 5*time.Second, time.UTC)
	events, err := p.FetchToday(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dentist", events[0].Summary)
}

func TestFetchToday_ErrorsPropagate(t *testing.T) {
	now := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New(srv.URL, 5*time.Second, time.UTC)
	_, err := p.FetchToday(context.Background(), now)
	assert.Error(t, err, "feed failures must surface so the task keeps prior data")
}

func TestFetchToday_DisabledFeed(t *testing.T) {
	p := New("", time.Second, time.UTC)
	events, err := p.FetchToday(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSpeech(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	events := []Event{
		{Start: time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC), Summary: "Standup"},
		{Start: time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC), Summary: "Dentist"},
		{Start: time.Date(2026, 8, 30, 15, 30, 0, 0, time.UTC), Summary: "Pickup"},
	}

	// Past events are not announced.
	got := Speech(events, now)
	assert.Equal(t, "Coming up: Dentist at 2:00 PM, Pickup at 3:30 PM.", got)

	// All events in the past.
	late := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "You have no events coming up.", Speech(events, late))

	// No events at all.
	assert.Equal(t, "You have no events coming up.", Speech(nil, now))
}
