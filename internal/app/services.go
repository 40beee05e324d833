package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lielu/kioskd/internal/audio"
	"github.com/lielu/kioskd/internal/calendar"
	"github.com/lielu/kioskd/internal/chat"
	kclock "github.com/lielu/kioskd/internal/clock"
	"github.com/lielu/kioskd/internal/config"
	"github.com/lielu/kioskd/internal/db"
	"github.com/lielu/kioskd/internal/dispatch"
	"github.com/lielu/kioskd/internal/images"
	"github.com/lielu/kioskd/internal/kv"
	"github.com/lielu/kioskd/internal/power"
	"github.com/lielu/kioskd/internal/render"
	"github.com/lielu/kioskd/internal/schedule"
	"github.com/lielu/kioskd/internal/weather"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB      *db.DB
	Loop    *dispatch.Loop
	Surface *render.Surface
	Store   *schedule.Store

	// Side-effect adapters
	Audio    *audio.Sink
	ChatFeed *chat.Feed // nil when chat is not configured

	// High-level services
	Kiosk  *KioskService
	Health *HealthService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	store, err := schedule.NewStore(cfg.Schedule.Path)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Store = store

	// Render surface
	var out render.Output = render.NullOutput{}
	if cfg.Display.OutputPath != "" {
		out = &render.FileOutput{Path: cfg.Display.OutputPath}
	}
	fonts := render.LoadFonts(cfg.Display.FontPath)
	s.Surface = render.NewSurface(cfg.Display.Width, cfg.Display.Height, fonts, out)

	s.Loop = dispatch.New()
	s.Audio = audio.NewSink(audio.ExecRunner{}, cfg.Alarm.SoundFile)

	// Data providers
	weatherProv := weather.New(
		cfg.Weather.Latitude,
		cfg.Weather.Longitude,
		cfg.Weather.TemperatureUnit,
		cfg.Weather.Timezone,
		cfg.Weather.HTTPTimeout.Duration(),
		kv.NewSQLiteBucket(database.DB, "weather"),
	)
	eventsProv := calendar.New(cfg.Calendar.URL, cfg.Calendar.HTTPTimeout.Duration(), time.Local)

	var chatProv ChatProvider = chat.Disabled{}
	if cfg.Chat.IsEnabled() {
		s.ChatFeed = chat.NewFeed(cfg.Chat.Broker, cfg.Chat.Topic, chat.ClientID("kioskd"),
			kv.NewSQLiteBucket(database.DB, "chat"))
		chatProv = s.ChatFeed
	} else {
		log.Info().Msg("Chat feed not configured")
	}

	source := images.NewDirSource(cfg.Background.Dir, cfg.Display.Width, cfg.Display.Height)
	driver := power.NewDriver(power.ExecRunner{})

	s.Kiosk = NewKioskService(
		cfg,
		s.Loop,
		s.Surface,
		s.Store,
		kclock.RealClock{},
		driver,
		s.Audio,
		eventsProv,
		weatherProv,
		chatProv,
		source,
	)

	s.Health = NewHealthService(cfg, s.Kiosk.ReloadSchedule)

	return s, nil
}

// Start starts all services in the correct order.
func (s *Services) Start(ctx context.Context) error {
	go func() {
		if err := s.Loop.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Dispatch loop error")
		}
	}()
	go s.Audio.Run(ctx)

	if s.ChatFeed != nil {
		s.ChatFeed.Start()
	}

	s.Kiosk.Start(ctx)
	s.Health.Start(ctx)

	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Audio != nil {
		s.Audio.StopAll()
	}
	if s.ChatFeed != nil {
		s.ChatFeed.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
