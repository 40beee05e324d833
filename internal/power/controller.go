package power

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Sink is the hardware side of a power transition. Driver satisfies it.
type Sink interface {
	ScreenOff(ctx context.Context) bool
	ScreenOn(ctx context.Context) bool
}

// Controller owns the hidden/visible state of the display. It is written
// only by the power-check task and read on the same dispatcher goroutine,
// so the flag needs no locking by construction.
//
// Apply is idempotent: a decision equal to the current state does nothing,
// which keeps the hardware from being poked on every tick.
type Controller struct {
	sink   Sink
	hidden bool

	// Visual hooks, invoked on transition. The visual hide happens even
	// when the hardware call fails, so the surface state always tracks the
	// policy decision.
	onHide func()
	onShow func()
}

// NewController creates a Controller starting in the visible state.
func NewController(sink Sink, onHide, onShow func()) *Controller {
	return &Controller{sink: sink, onHide: onHide, onShow: onShow}
}

// Hidden reports the current visibility state.
func (c *Controller) Hidden() bool {
	return c.hidden
}

// Apply transitions the display to match shouldHide. No-op when the state
// already matches.
func (c *Controller) Apply(ctx context.Context, shouldHide bool) {
	if shouldHide == c.hidden {
		return
	}
	c.hidden = shouldHide

	if shouldHide {
		if c.onHide != nil {
			c.onHide()
		}
		if ok := c.sink.ScreenOff(ctx); !ok {
			log.Warn().Msg("Screen power-off failed, display hidden visually only")
		}
		log.Info().Msg("Display hidden")
		return
	}

	if c.onShow != nil {
		c.onShow()
	}
	if ok := c.sink.ScreenOn(ctx); !ok {
		log.Warn().Msg("Screen power-on failed, display shown visually only")
	}
	log.Info().Msg("Display shown")
}
