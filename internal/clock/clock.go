// Package clock provides the wall-clock abstraction used by the refresh
// tasks. Everything that cares about "now" reads it through Clock so tests
// can drive time deterministically.
package clock

import (
	"fmt"
	"time"
)

// Clock abstracts time.Now().
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Snapshot is a single wall-clock reading, pre-formatted for display.
type Snapshot struct {
	Date        string // 2006-01-02
	TimeText    string // 15:04:05
	DateText    string // Monday, January 2, 2006
	HHMM        string // 15:04
	MinuteOfDay int    // 0..1439
}

// Take reads the given time into a Snapshot.
func Take(now time.Time) Snapshot {
	return Snapshot{
		Date:        now.Format("2006-01-02"),
		TimeText:    now.Format("15:04:05"),
		DateText:    now.Format("Monday, January 2, 2006"),
		HHMM:        now.Format("15:04"),
		MinuteOfDay: now.Hour()*60 + now.Minute(),
	}
}

// FixedClock returns the same instant on every call. Test helper.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time { return c.Time }

// String implements fmt.Stringer for log output.
func (s Snapshot) String() string {
	return fmt.Sprintf("%s %s", s.Date, s.TimeText)
}
