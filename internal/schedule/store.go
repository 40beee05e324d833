package schedule

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Store holds the current schedule behind an atomic pointer. Reload swaps
// the whole schedule at once; concurrent readers see either the old or the
// new schedule, never a mix.
type Store struct {
	path    string
	current atomic.Pointer[Schedule]
}

// NewStore creates a store bound to the given schedule file and performs
// the initial load.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the active schedule. Never nil.
func (s *Store) Current() *Schedule {
	return s.current.Load()
}

// Reload re-reads the schedule file and installs the result atomically.
// On read failure the previous schedule stays in place.
func (s *Store) Reload() error {
	sched, err := LoadFile(s.path)
	if err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to reload schedule, keeping previous")
		return err
	}

	s.current.Store(sched)
	log.Info().
		Int("alarms", len(sched.AlarmTimes)).
		Bool("display_window", sched.DisplayOff != nil && sched.DisplayOn != nil).
		Msg("Schedule loaded")
	return nil
}
