package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeRunner simulates a machine where only named commands exist.
type fakeRunner struct {
	mu        sync.Mutex
	available map[string]bool
	calls     []call
	done      chan struct{}
}

type call struct {
	name string
	arg  string
}

func newFakeRunner(available ...string) *fakeRunner {
	m := make(map[string]bool, len(available))
	for _, a := range available {
		m[a] = true
	}
	return &fakeRunner{available: m, done: make(chan struct{}, 16)}
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.mu.Lock()
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	f.calls = append(f.calls, call{name: name, arg: arg})
	ok := f.available[name]
	f.mu.Unlock()

	if !ok {
		return errors.New("executable file not found in $PATH")
	}
	f.done <- struct{}{}
	return nil
}

func (f *fakeRunner) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func startSink(t *testing.T, runner Runner) *Sink {
	t.Helper()
	s := NewSink(runner, "alarm.wav")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)
	return s
}

func waitFor(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("playback never completed")
	}
}

func TestSink_PlaysThroughCapabilityChain(t *testing.T) {
	runner := newFakeRunner("paplay")
	s := startSink(t, runner)

	s.PlayAlarmSound()
	waitFor(t, runner.done)

	calls := runner.snapshot()
	if len(calls) != 2 || calls[0].name != "aplay" || calls[1].name != "paplay" {
		t.Errorf("chain = %v, want aplay then paplay", calls)
	}
	if calls[1].arg != "alarm.wav" {
		t.Errorf("player arg = %q, want alarm.wav", calls[1].arg)
	}
}

func TestSink_SpeakUsesSpeakerChain(t *testing.T) {
	runner := newFakeRunner("espeak")
	s := startSink(t, runner)

	s.Speak("wake up")
	waitFor(t, runner.done)

	calls := runner.snapshot()
	if len(calls) != 1 || calls[0].name != "espeak" || calls[0].arg != "wake up" {
		t.Errorf("calls = %v, want espeak with the text", calls)
	}
}

func TestSink_EmptySpeechIgnored(t *testing.T) {
	runner := newFakeRunner("espeak")
	s := startSink(t, runner)

	s.Speak("")
	time.Sleep(50 * time.Millisecond)
	if calls := runner.snapshot(); len(calls) != 0 {
		t.Errorf("empty speech ran commands: %v", calls)
	}
}

// No player installed: everything is tried, nothing crashes, the worker
// keeps serving later jobs.
func TestSink_NoPlayerAvailable(t *testing.T) {
	runner := newFakeRunner("espeak")
	s := startSink(t, runner)

	s.PlayAlarmSound() // no sound player exists
	s.Speak("still works")
	waitFor(t, runner.done)

	calls := runner.snapshot()
	if len(calls) < 4 {
		t.Fatalf("calls = %v, want full sound chain plus espeak", calls)
	}
	last := calls[len(calls)-1]
	if last.name != "espeak" {
		t.Errorf("worker stalled after failed sound: last call %v", last)
	}
}

// Callers never block, even with the worker stopped and the queue full.
func TestSink_EnqueueNeverBlocks(t *testing.T) {
	s := NewSink(newFakeRunner(), "alarm.wav") // worker not running

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			s.PlayAlarmSound()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
}
