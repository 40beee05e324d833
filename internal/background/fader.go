// Package background rotates the kiosk's background image, fading each
// new image in over the current one in discrete opacity steps. All state
// lives on the dispatch loop goroutine.
package background

import (
	"image"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lielu/kioskd/internal/dispatch"
	"github.com/lielu/kioskd/internal/render"
)

// Canvas is the slice of the render surface the fader needs. The fader
// publishes through Flush after every opacity change it makes: the once-a-
// second clock flush is far too coarse for a sub-second stepped fade.
type Canvas interface {
	CreateBackground(img image.Image, alpha float64) render.LayerID
	SetAlpha(id render.LayerID, alpha float64)
	Dispose(id render.LayerID)
	Flush()
}

// Timers schedules cancellable one-shots on the dispatch loop.
type Timers interface {
	After(d time.Duration, fn func()) *dispatch.Timer
}

// Source supplies background images.
type Source interface {
	List() []string
	Load(handle string) (image.Image, error)
}

// Fader is the stepped-opacity transition engine. At most one fade is in
// flight; starting a new one cancels the previous fade's pending step and
// adopts its target as the committed base immediately, so two fades never
// compete for the surface.
type Fader struct {
	canvas Canvas
	timers Timers
	source Source

	steps    int
	duration time.Duration
	interval time.Duration
	rng      *rand.Rand

	base    render.LayerID
	overlay render.LayerID
	step    int

	stepTimer   *dispatch.Timer
	rotateTimer *dispatch.Timer
	rotating    bool
}

// New creates a Fader. steps must be >= 1.
func New(canvas Canvas, timers Timers, source Source, steps int, duration, rotateInterval time.Duration) *Fader {
	if steps < 1 {
		steps = 1
	}
	return &Fader{
		canvas:   canvas,
		timers:   timers,
		source:   source,
		steps:    steps,
		duration: duration,
		interval: rotateInterval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fading reports whether a transition is in flight.
func (f *Fader) Fading() bool {
	return f.overlay != render.None
}

// StartTransition begins fading to img. The very first image is installed
// instantly with no animation.
func (f *Fader) StartTransition(img image.Image) {
	if f.base == render.None && f.overlay == render.None {
		f.base = f.canvas.CreateBackground(img, 1)
		f.canvas.Flush()
		return
	}

	if f.overlay != render.None {
		// Supersede the in-flight fade: drop its pending step and commit
		// its target as the new base without animation.
		f.stepTimer.Cancel()
		f.stepTimer = nil
		f.canvas.SetAlpha(f.overlay, 1)
		f.canvas.Dispose(f.base)
		f.base = f.overlay
		f.overlay = render.None
	}

	f.overlay = f.canvas.CreateBackground(img, 0)
	f.step = 0
	f.advance()
}

// advance runs one fade step, publishes the frame, and schedules the next
// step, or commits.
func (f *Fader) advance() {
	f.step++
	f.canvas.SetAlpha(f.overlay, float64(f.step)/float64(f.steps))

	if f.step >= f.steps {
		f.commit()
		return
	}
	f.canvas.Flush()
	f.stepTimer = f.timers.After(f.duration/time.Duration(f.steps), f.advance)
}

// commit promotes the overlay to base and discards the old base layer.
func (f *Fader) commit() {
	f.canvas.Dispose(f.base)
	f.base = f.overlay
	f.overlay = render.None
	f.stepTimer = nil
	f.canvas.Flush()
	log.Debug().Msg("Background fade completed")
}

// StartRotation begins periodic random background changes. The first
// rotation happens immediately.
func (f *Fader) StartRotation() {
	if f.rotating {
		return
	}
	f.rotating = true
	log.Info().Msg("Starting background rotation")
	f.rotate()
}

// StopRotation stops rotation and cancels any in-flight fade step. The
// surface is left on whatever layer was last committed or adopted.
func (f *Fader) StopRotation() {
	f.rotating = false
	f.rotateTimer.Cancel()
	f.rotateTimer = nil
	if f.overlay != render.None {
		f.stepTimer.Cancel()
		f.stepTimer = nil
		f.canvas.SetAlpha(f.overlay, 1)
		f.canvas.Dispose(f.base)
		f.base = f.overlay
		f.overlay = render.None
		f.canvas.Flush()
	}
	log.Info().Msg("Background rotation stopped")
}

// rotate picks a random image and fades to it, then re-arms. An empty
// source skips silently and retries on the next interval.
func (f *Fader) rotate() {
	if !f.rotating {
		return
	}

	if handles := f.source.List(); len(handles) > 0 {
		handle := handles[f.rng.Intn(len(handles))]
		img, err := f.source.Load(handle)
		if err != nil {
			log.Error().Str("image", handle).Err(err).Msg("Failed to load background image")
		} else {
			f.StartTransition(img)
		}
	}

	f.rotateTimer = f.timers.After(f.interval, f.rotate)
}
