// Package schedule holds the parsed alarm and display on/off schedule.
// The schedule is pure data: it is loaded from the alarm config file and
// swapped atomically as a whole on reload, so readers never observe a
// half-updated schedule.
package schedule

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time at minute resolution (HH:MM, 24h).
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the minute-of-day value in [0, 1439].
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Schedule is the complete alarm/display schedule. Immutable once built;
// replaced wholesale on reload.
type Schedule struct {
	AlarmTimes []TimeOfDay
	DisplayOff *TimeOfDay
	DisplayOn  *TimeOfDay
}

// AlarmStrings returns the alarm times formatted as HH:MM, in config order.
func (s *Schedule) AlarmStrings() []string {
	out := make([]string, len(s.AlarmTimes))
	for i, t := range s.AlarmTimes {
		out[i] = t.String()
	}
	return out
}

// ContainsAlarm reports whether hhmm (formatted "HH:MM") matches any
// configured alarm time.
func (s *Schedule) ContainsAlarm(hhmm string) bool {
	for _, t := range s.AlarmTimes {
		if t.String() == hhmm {
			return true
		}
	}
	return false
}

// OffMinutes returns the display-off bound as minute-of-day, or nil if unset.
func (s *Schedule) OffMinutes() *int {
	if s.DisplayOff == nil {
		return nil
	}
	m := s.DisplayOff.Minutes()
	return &m
}

// OnMinutes returns the display-on bound as minute-of-day, or nil if unset.
func (s *Schedule) OnMinutes() *int {
	if s.DisplayOn == nil {
		return nil
	}
	m := s.DisplayOn.Minutes()
	return &m
}
