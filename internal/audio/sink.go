// Package audio plays the alarm sound and speaks announcements. Playback
// spawns blocking subprocesses, so all work runs on a dedicated worker
// goroutine fed through a job channel; callers never block on audio.
package audio

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Runner executes one external command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Run executes the command, discarding its output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// job is one queued playback request.
type job struct {
	kind string // "sound" or "speech"
	text string
}

// Sink is the audio side-effect adapter. Sound and speech each walk an
// ordered capability chain of players until one runs; a machine with none
// of them logs a warning and moves on.
type Sink struct {
	runner    Runner
	soundFile string

	// players are tried in order with the sound file appended.
	players []string
	// speakers are tried in order with the text appended.
	speakers []string

	jobs chan job

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSink creates a Sink for the given alarm sound file.
func NewSink(runner Runner, soundFile string) *Sink {
	return &Sink{
		runner:    runner,
		soundFile: soundFile,
		players:   []string{"aplay", "paplay", "afplay"},
		speakers:  []string{"espeak", "say"},
		jobs:      make(chan job, 8),
	}
}

// Run processes playback jobs until the context is cancelled. Call once,
// on its own goroutine.
func (s *Sink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			s.play(ctx, j)
		}
	}
}

func (s *Sink) play(parent context.Context, j job) {
	ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
	}()

	var chain []string
	var arg string
	switch j.kind {
	case "sound":
		chain, arg = s.players, s.soundFile
	case "speech":
		chain, arg = s.speakers, j.text
	}

	for _, cmd := range chain {
		if err := s.runner.Run(ctx, cmd, arg); err != nil {
			log.Debug().Str("command", cmd).Err(err).Msg("Audio player unavailable, trying next")
			continue
		}
		log.Debug().Str("command", cmd).Str("kind", j.kind).Msg("Audio playback finished")
		return
	}
	log.Warn().Str("kind", j.kind).Msg("No audio player available")
}

// enqueue drops the job with a warning when the queue is full rather than
// blocking the caller.
func (s *Sink) enqueue(j job) {
	select {
	case s.jobs <- j:
	default:
		log.Warn().Str("kind", j.kind).Msg("Audio queue full, dropping")
	}
}

// PlayAlarmSound queues the alarm sound. Best-effort.
func (s *Sink) PlayAlarmSound() {
	s.enqueue(job{kind: "sound"})
}

// Speak queues a spoken announcement.
func (s *Sink) Speak(text string) {
	if text == "" {
		return
	}
	s.enqueue(job{kind: "speech", text: text})
}

// StopAll interrupts the currently playing job, if any. Queued jobs still
// run afterwards.
func (s *Sink) StopAll() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
}
