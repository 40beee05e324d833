package power

import (
	"context"
	"errors"
	"testing"
)

// fakeSink records transitions and can simulate hardware failure.
type fakeSink struct {
	offCalls int
	onCalls  int
	fail     bool
}

func (f *fakeSink) ScreenOff(_ context.Context) bool {
	f.offCalls++
	return !f.fail
}

func (f *fakeSink) ScreenOn(_ context.Context) bool {
	f.onCalls++
	return !f.fail
}

func TestController_Idempotent(t *testing.T) {
	sink := &fakeSink{}
	c := NewController(sink, nil, nil)
	ctx := context.Background()

	if c.Hidden() {
		t.Fatal("controller should start visible")
	}

	// Repeated same-state decisions must not touch the hardware.
	c.Apply(ctx, false)
	c.Apply(ctx, false)
	if sink.onCalls != 0 || sink.offCalls != 0 {
		t.Errorf("no-op decisions touched hardware: on=%d off=%d", sink.onCalls, sink.offCalls)
	}

	c.Apply(ctx, true)
	c.Apply(ctx, true)
	c.Apply(ctx, true)
	if sink.offCalls != 1 {
		t.Errorf("hide transition ran %d hardware calls, want 1", sink.offCalls)
	}
	if !c.Hidden() {
		t.Error("controller should be hidden after Apply(true)")
	}

	c.Apply(ctx, false)
	c.Apply(ctx, false)
	if sink.onCalls != 1 {
		t.Errorf("show transition ran %d hardware calls, want 1", sink.onCalls)
	}
	if c.Hidden() {
		t.Error("controller should be visible after Apply(false)")
	}
}

func TestController_VisualHooksFireInOrder(t *testing.T) {
	sink := &fakeSink{}
	var trace []string
	c := NewController(sink,
		func() { trace = append(trace, "hide") },
		func() { trace = append(trace, "show") },
	)
	ctx := context.Background()

	c.Apply(ctx, true)
	c.Apply(ctx, false)
	c.Apply(ctx, true)

	want := []string{"hide", "show", "hide"}
	if len(trace) != len(want) {
		t.Fatalf("hook trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("hook trace = %v, want %v", trace, want)
		}
	}
}

// The visual state must track the policy decision even when the hardware
// call fails, so recovery on the next opposite transition stays consistent.
func TestController_HardwareFailureStillHidesVisually(t *testing.T) {
	sink := &fakeSink{fail: true}
	hides := 0
	c := NewController(sink, func() { hides++ }, nil)
	ctx := context.Background()

	c.Apply(ctx, true)

	if !c.Hidden() {
		t.Error("controller must record hidden state despite hardware failure")
	}
	if hides != 1 {
		t.Errorf("visual hide ran %d times, want 1", hides)
	}

	// Same decision again must still be a no-op: no hardware retry storm.
	c.Apply(ctx, true)
	if sink.offCalls != 1 {
		t.Errorf("failed transition retried hardware: %d calls", sink.offCalls)
	}
}

// fakeRunner simulates a platform where only one tool exists.
type fakeRunner struct {
	available string
	calls     []string
}

func (f *fakeRunner) Run(_ context.Context, name string, _ ...string) error {
	f.calls = append(f.calls, name)
	if name == f.available {
		return nil
	}
	return errors.New("executable file not found in $PATH")
}

func TestDriver_FallbackChain(t *testing.T) {
	runner := &fakeRunner{available: "xset"}
	d := NewDriver(runner)

	if ok := d.ScreenOff(context.Background()); !ok {
		t.Fatal("ScreenOff should succeed via fallback method")
	}
	if len(runner.calls) != 2 || runner.calls[0] != "vcgencmd" || runner.calls[1] != "xset" {
		t.Errorf("chain walked %v, want [vcgencmd xset]", runner.calls)
	}
}

func TestDriver_NoMethodAvailable(t *testing.T) {
	runner := &fakeRunner{available: ""}
	d := NewDriver(runner)

	if ok := d.ScreenOn(context.Background()); ok {
		t.Error("ScreenOn should report failure when no method works")
	}
}
