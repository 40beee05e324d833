package app

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lielu/kioskd/internal/alarm"
	"github.com/lielu/kioskd/internal/background"
	"github.com/lielu/kioskd/internal/calendar"
	kclock "github.com/lielu/kioskd/internal/clock"
	"github.com/lielu/kioskd/internal/config"
	"github.com/lielu/kioskd/internal/dispatch"
	"github.com/lielu/kioskd/internal/images"
	"github.com/lielu/kioskd/internal/power"
	"github.com/lielu/kioskd/internal/render"
	"github.com/lielu/kioskd/internal/schedule"
	"github.com/lielu/kioskd/internal/weather"
)

// EventsProvider supplies today's calendar events.
type EventsProvider interface {
	FetchToday(ctx context.Context, now time.Time) ([]calendar.Event, error)
}

// WeatherProvider supplies the current weather report. Implementations
// never fail: they fall back to last-known-good or a placeholder.
type WeatherProvider interface {
	FetchCurrent(ctx context.Context) weather.Report
}

// ChatProvider supplies the chat feed display text.
type ChatProvider interface {
	DisplayText() string
}

// KioskService owns the refresh tasks and the display state machine. All
// of its state is touched exclusively on the dispatch loop.
type KioskService struct {
	cfg *config.Config

	loop       *dispatch.Loop
	surface    *render.Surface
	store      *schedule.Store
	clk        kclock.Clock
	tracker    *alarm.Tracker
	trigger    *alarm.Trigger
	controller *power.Controller
	fader      *background.Fader

	events  EventsProvider
	weather WeatherProvider
	chat    ChatProvider

	ctx context.Context

	// layer handles, created once on startup
	clockText   render.LayerID
	dateText    render.LayerID
	alarmsText  render.LayerID
	eventsText  render.LayerID
	chatText    render.LayerID
	weatherText render.LayerID
	weatherIcon render.LayerID

	lastEvents  []calendar.Event
	eventsBusy  bool
	weatherBusy bool

	icons       map[string]image.Image
	iconMissing map[string]bool
}

// NewKioskService wires the kiosk's periodic tasks together.
func NewKioskService(
	cfg *config.Config,
	loop *dispatch.Loop,
	surface *render.Surface,
	store *schedule.Store,
	clk kclock.Clock,
	powerSink power.Sink,
	audioSink alarm.Audio,
	events EventsProvider,
	weatherProv WeatherProvider,
	chat ChatProvider,
	source background.Source,
) *KioskService {
	k := &KioskService{
		cfg:         cfg,
		loop:        loop,
		surface:     surface,
		store:       store,
		clk:         clk,
		tracker:     alarm.NewTracker(),
		events:      events,
		weather:     weatherProv,
		chat:        chat,
		icons:       make(map[string]image.Image),
		iconMissing: make(map[string]bool),
	}

	k.controller = power.NewController(powerSink,
		func() { // hide
			surface.SetForegroundHidden(true)
			surface.Flush()
		},
		func() { // show
			surface.SetForegroundHidden(false)
			surface.Flush()
		},
	)

	indicator := &alarmIndicator{surface: surface}
	k.trigger = alarm.NewTrigger(
		audioSink,
		indicator,
		loop,
		func() string { return calendar.Speech(k.lastEvents, k.clk.Now()) },
		cfg.Alarm.VisualTimeout.Duration(),
		cfg.Alarm.AnnounceDelay.Duration(),
	)

	k.fader = background.New(
		surface,
		loop,
		source,
		cfg.Background.FadeSteps,
		cfg.Background.FadeDuration.Duration(),
		cfg.Background.RotateInterval.Duration(),
	)

	return k
}

// Start creates the UI layers and registers the periodic tasks. The
// dispatch loop itself is driven by the caller.
func (k *KioskService) Start(ctx context.Context) {
	k.ctx = ctx

	k.loop.Post(k.createLayers)
	k.loop.Post(k.fader.StartRotation)

	r := k.cfg.Refresh
	k.loop.Every("clock", r.Clock.Duration(), k.tickClock)
	k.loop.Every("alarms", r.Alarms.Duration(), k.tickAlarms)
	k.loop.Every("events", r.Events.Duration(), k.tickEvents)
	k.loop.Every("weather", r.Weather.Duration(), k.tickWeather)
	k.loop.Every("chat", r.Chat.Duration(), k.tickChat)
	k.loop.Every("power_check", r.PowerCheck.Duration(), k.tickPowerCheck)
}

// Hidden reports the display power state machine's current decision.
func (k *KioskService) Hidden() bool {
	return k.controller.Hidden()
}

// ReloadSchedule re-reads the schedule file and refreshes the alarm list
// immediately so the change is visible before the next alarms tick.
func (k *KioskService) ReloadSchedule() error {
	if err := k.store.Reload(); err != nil {
		return err
	}
	k.loop.Post(k.tickAlarms)
	log.Info().Msg("Schedule reloaded")
	return nil
}

// StopRotation halts the background rotation. Posted to the loop since
// fader state lives there.
func (k *KioskService) StopRotation() {
	k.loop.Post(k.fader.StopRotation)
}

// createLayers lays out the fixed text pairs of the kiosk screen.
func (k *KioskService) createLayers() {
	w, h := k.surface.Size()
	m := float64(k.cfg.Display.Margin)
	fw, fh := float64(w), float64(h)

	shadow := render.TextStyle{ShadowOffset: 2}

	styled := func(size float64) render.TextStyle {
		s := shadow
		s.Size = size
		return s
	}

	k.clockText = k.surface.CreateText(fw-m, m/2, render.AnchorNE, styled(120))
	k.dateText = k.surface.CreateText(fw-m, m+120, render.AnchorNE, styled(36))
	k.alarmsText = k.surface.CreateText(m, m, render.AnchorNW, styled(24))
	k.chatText = k.surface.CreateText(m, fh/2-50, render.AnchorNW, styled(32))
	k.eventsText = k.surface.CreateText(m, fh-m, render.AnchorSW, styled(32))

	iconSpace := float64(k.cfg.Weather.IconSize) + 16
	k.weatherText = k.surface.CreateText(fw-m-iconSpace, fh-m, render.AnchorSE, styled(28))
}

// tickClock runs every second regardless of hidden state: it feeds the
// alarm tracker and publishes the frame.
func (k *KioskService) tickClock() {
	now := k.clk.Now()
	snap := kclock.Take(now)

	k.surface.SetText(k.clockText, snap.TimeText)
	k.surface.SetText(k.dateText, snap.DateText)

	if k.tracker.CheckAndFire(now, k.store.Current()) {
		k.trigger.Fire()
	}

	k.surface.Flush()
}

// tickAlarms refreshes the alarm summary list.
func (k *KioskService) tickAlarms() {
	if k.controller.Hidden() {
		return
	}
	sched := k.store.Current()
	k.surface.SetText(k.alarmsText, alarm.Summary(sched.AlarmTimes, k.cfg.Alarm.MaxShown))
}

// tickEvents fetches today's events off-loop and posts the render write
// back. A fetch still in flight skips the tick instead of piling up.
func (k *KioskService) tickEvents() {
	if k.controller.Hidden() || k.eventsBusy {
		return
	}
	k.eventsBusy = true
	now := k.clk.Now()

	go func() {
		evts, err := k.events.FetchToday(k.ctx, now)
		k.loop.Post(func() {
			k.eventsBusy = false
			if err != nil {
				// Keep the previously rendered list.
				log.Error().Err(err).Msg("Failed to fetch events")
				return
			}
			k.lastEvents = evts

			limit := k.cfg.Calendar.MaxEvents
			if len(evts) > limit {
				evts = evts[:limit]
			}
			lines := make([]string, len(evts))
			for i, e := range evts {
				lines[i] = e.DisplayString()
			}
			k.surface.SetText(k.eventsText, strings.Join(lines, "\n"))
		})
	}()
}

// tickWeather always fetches (the last-known-good cache stays warm while
// hidden) but skips the visual write when the display is hidden.
func (k *KioskService) tickWeather() {
	if k.weatherBusy {
		return
	}
	k.weatherBusy = true

	go func() {
		rep := k.weather.FetchCurrent(k.ctx)
		k.loop.Post(func() {
			k.weatherBusy = false
			if k.controller.Hidden() {
				return
			}
			k.surface.SetText(k.weatherText, rep.Text)
			k.updateWeatherIcon(rep.IconID)
		})
	}()
}

func (k *KioskService) updateWeatherIcon(iconID string) {
	img := k.loadIcon(iconID)
	if img == nil {
		return
	}
	if k.weatherIcon == render.None {
		w, h := k.surface.Size()
		m := float64(k.cfg.Display.Margin)
		k.weatherIcon = k.surface.CreateImage(img, float64(w)-m, float64(h)-m, render.AnchorSE)
		return
	}
	k.surface.SetImage(k.weatherIcon, img)
}

// loadIcon loads and caches a weather icon, falling back to the clear
// icon when the requested one is missing.
func (k *KioskService) loadIcon(iconID string) image.Image {
	if img, ok := k.icons[iconID]; ok {
		return img
	}
	if k.iconMissing[iconID] {
		return k.icons["clear"]
	}

	size := k.cfg.Weather.IconSize
	path := filepath.Join(k.cfg.Weather.IconsDir, iconID+".png")
	img, err := images.LoadScaled(path, size, size)
	if err != nil {
		log.Warn().Str("icon", iconID).Err(err).Msg("Weather icon not available")
		k.iconMissing[iconID] = true
		if iconID != "clear" {
			return k.loadIcon("clear")
		}
		return nil
	}
	k.icons[iconID] = img
	return img
}

// tickChat refreshes the chat feed text.
func (k *KioskService) tickChat() {
	if k.controller.Hidden() {
		return
	}
	k.surface.SetText(k.chatText, k.chat.DisplayText())
}

// tickPowerCheck applies the display power policy. Always runs, hidden or
// not: it is the only writer of the hidden flag.
func (k *KioskService) tickPowerCheck() {
	snap := kclock.Take(k.clk.Now())
	sched := k.store.Current()
	should := power.ShouldHide(snap.MinuteOfDay, sched.OffMinutes(), sched.OnMinutes())
	k.controller.Apply(k.ctx, should)
}

// alarmIndicator is the surface-backed alarm visual. Show replaces any
// prior indicator; Hide disposes it.
type alarmIndicator struct {
	surface *render.Surface
	id      render.LayerID
}

func (a *alarmIndicator) Show() {
	if a.id != render.None {
		a.surface.Dispose(a.id)
	}
	w, h := a.surface.Size()
	a.id = a.surface.CreateText(float64(w)/2, float64(h)/2, render.AnchorCenter, render.TextStyle{
		Size:  72,
		Color: color.RGBA{R: 0xff, A: 0xff},
	})
	a.surface.SetText(a.id, "⏰ ALARM ⏰")
}

func (a *alarmIndicator) Hide() {
	if a.id == render.None {
		return
	}
	a.surface.Dispose(a.id)
	a.id = render.None
}
