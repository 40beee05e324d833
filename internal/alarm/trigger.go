package alarm

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lielu/kioskd/internal/dispatch"
)

// Audio is the sound side of an alarm firing. Implementations run the
// actual playback off the dispatch loop; both calls are best-effort.
type Audio interface {
	PlayAlarmSound()
	Speak(text string)
}

// Indicator is the visual side. Show replaces any prior indicator; Hide is
// idempotent and hiding nothing is a no-op.
type Indicator interface {
	Show()
	Hide()
}

// Timers schedules cancellable one-shots on the dispatch loop.
type Timers interface {
	After(d time.Duration, fn func()) *dispatch.Timer
}

// Phase describes where an announcement sequence currently is. There is no
// distinct sound-playing phase: playback is handed to the audio worker in
// the same instant the visual appears, so the sequence moves straight to
// PhaseVisualShown.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseVisualShown
	PhaseAwaitingAnnouncement
)

// Trigger sequences what happens when an alarm fires: sound, a visual
// indicator with an auto-hide timer, and a delayed spoken announcement.
// Only one sequence is active at a time; re-firing replaces the previous
// sequence's timers instead of stacking indicators.
type Trigger struct {
	audio   Audio
	visual  Indicator
	timers  Timers
	speech  func() string
	hideAft time.Duration
	talkAft time.Duration

	phase      Phase
	hideTimer  *dispatch.Timer
	talkTimer  *dispatch.Timer
	visualLive bool
}

// NewTrigger creates a Trigger. speech produces the announcement text at
// announcement time, not at firing time, so it reflects current data.
func NewTrigger(audio Audio, visual Indicator, timers Timers, speech func() string, hideAfter, announceAfter time.Duration) *Trigger {
	return &Trigger{
		audio:   audio,
		visual:  visual,
		timers:  timers,
		speech:  speech,
		hideAft: hideAfter,
		talkAft: announceAfter,
	}
}

// Phase returns the current sequence phase.
func (t *Trigger) Phase() Phase {
	return t.phase
}

// Fire runs the alarm sequence. Must be called on the dispatch loop.
func (t *Trigger) Fire() {
	id := uuid.NewString()
	log.Info().Str("firing_id", id).Msg("Triggering alarm sequence")

	// Sound first; playback failure is the sink's problem, never ours.
	t.audio.PlayAlarmSound()

	// Visual replaces any prior indicator and restarts its auto-hide.
	t.hideTimer.Cancel()
	t.visual.Show()
	t.visualLive = true
	t.phase = PhaseVisualShown
	t.hideTimer = t.timers.After(t.hideAft, func() {
		t.HideVisual()
	})

	// The announcement runs on its own delay, independent of whether the
	// visual has auto-hidden by then.
	t.talkTimer.Cancel()
	t.talkTimer = t.timers.After(t.talkAft, func() {
		t.talkTimer = nil
		text := t.speech()
		log.Info().Str("firing_id", id).Msg("Announcing alarm")
		t.audio.Speak(text)
		if !t.visualLive {
			t.phase = PhaseIdle
		}
	})
}

// HideVisual removes the alarm indicator. No-op when nothing is shown.
func (t *Trigger) HideVisual() {
	t.hideTimer.Cancel()
	t.hideTimer = nil
	if !t.visualLive {
		return
	}
	t.visual.Hide()
	t.visualLive = false
	if t.talkTimer != nil {
		t.phase = PhaseAwaitingAnnouncement
	} else {
		t.phase = PhaseIdle
	}
}

// Cancel tears the sequence down: pending timers are dropped and the
// visual is hidden. Used on shutdown.
func (t *Trigger) Cancel() {
	t.talkTimer.Cancel()
	t.talkTimer = nil
	t.HideVisual()
	t.phase = PhaseIdle
}
