// Package alarm tracks alarm firings and sequences the sound, visual and
// spoken announcement that follow one.
package alarm

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lielu/kioskd/internal/schedule"
)

// Tracker remembers which alarm minutes have already fired today. Mutated
// only by the clock tick, so it needs no locking.
type Tracker struct {
	fired       map[string]struct{}
	lastCleared string // date of the last midnight reset
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{fired: make(map[string]struct{})}
}

// CheckAndFire reports whether an alarm should fire at now. It returns true
// at most once per (date, HH:MM) key: a second tick in the same minute is
// suppressed by the recorded key.
//
// The midnight reset runs unconditionally on every tick, after the firing
// check, so a configured 00:00 alarm still fires before the set is cleared
// for the new day. The reset happens at most once per date: repeated ticks
// within the 00:00 minute must not clear again, or a 00:00 alarm would
// re-fire. A tick has to land exactly on the 00:00 minute for the reset to
// happen at all; a process suspended across midnight keeps the previous
// day's keys until then, and alarms missed while not running never fire
// retroactively.
func (t *Tracker) CheckAndFire(now time.Time, sched *schedule.Schedule) bool {
	date := now.Format("2006-01-02")
	hhmm := now.Format("15:04")
	key := date + "-" + hhmm

	fired := false
	if sched != nil && sched.ContainsAlarm(hhmm) {
		if _, done := t.fired[key]; !done {
			t.fired[key] = struct{}{}
			log.Info().Str("time", hhmm).Msg("Alarm fired")
			fired = true
		}
	}

	if hhmm == "00:00" && t.lastCleared != date {
		t.fired = map[string]struct{}{}
		t.lastCleared = date
		if fired {
			// Keep the just-fired 00:00 key so the rest of this minute
			// stays suppressed.
			t.fired[key] = struct{}{}
		}
		log.Info().Msg("Reset fired alarms for new day")
	}

	return fired
}
