package power

import (
	"context"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Runner executes a single external command. It returns ErrNotAvailable
// (wrapped or direct) when the tool is missing so the chain can move on to
// the next candidate.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner invokes commands through os/exec with a per-command timeout.
type ExecRunner struct {
	Timeout time.Duration
}

// Run executes the command, discarding its output.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return exec.CommandContext(ctx, name, args...).Run()
}

// command is one candidate invocation in a platform fallback chain.
type command struct {
	name string
	args []string
}

// Driver turns the physical screen on and off by walking an ordered chain
// of platform commands until one succeeds. Calls are idempotent from the
// caller's perspective: the underlying tools no-op harmlessly when the
// screen is already in the requested state.
type Driver struct {
	runner   Runner
	limiter  *rate.Limiter
	offChain []command
	onChain  []command
}

// NewDriver creates a Driver with the default platform chains: the
// Raspberry Pi firmware tool first, then the generic X11 DPMS method.
func NewDriver(runner Runner) *Driver {
	return &Driver{
		runner: runner,
		// One hardware call per second is plenty; the power-check task only
		// transitions on state changes, the limiter guards against bugs.
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		offChain: []command{
			{"vcgencmd", []string{"display_power", "0"}},
			{"xset", []string{"dpms", "force", "off"}},
		},
		onChain: []command{
			{"vcgencmd", []string{"display_power", "1"}},
			{"xset", []string{"dpms", "force", "on"}},
		},
	}
}

// ScreenOff powers the screen down. Returns false if no supported method
// succeeded; never returns an error to the caller.
func (d *Driver) ScreenOff(ctx context.Context) bool {
	return d.walk(ctx, d.offChain, "off")
}

// ScreenOn powers the screen up.
func (d *Driver) ScreenOn(ctx context.Context) bool {
	return d.walk(ctx, d.onChain, "on")
}

func (d *Driver) walk(ctx context.Context, chain []command, action string) bool {
	if !d.limiter.Allow() {
		log.Warn().Str("action", action).Msg("Screen power call rate-limited")
		return false
	}

	for _, c := range chain {
		if err := d.runner.Run(ctx, c.name, c.args...); err != nil {
			log.Debug().
				Str("command", c.name).
				Str("action", action).
				Err(err).
				Msg("Screen power method unavailable, trying next")
			continue
		}
		log.Info().Str("command", c.name).Str("action", action).Msg("Screen power switched")
		return true
	}

	log.Warn().Str("action", action).Msg("Could not switch screen power, no supported method found")
	return false
}
