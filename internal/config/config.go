package config

import (
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Display     DisplayConfig     `yaml:"display"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Background  BackgroundConfig  `yaml:"background"`
	Alarm       AlarmConfig       `yaml:"alarm"`
	Weather     WeatherConfig     `yaml:"weather"`
	Calendar    CalendarConfig    `yaml:"calendar"`
	Chat        ChatConfig        `yaml:"chat"`
	Database    DatabaseConfig    `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
	Healthcheck HealthcheckConfig `yaml:"healthcheck"`

	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DisplayConfig contains render surface settings
type DisplayConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	FontPath   string `yaml:"font_path"`
	OutputPath string `yaml:"output_path"` // frame PNG path; empty = no output
	Margin     int    `yaml:"margin"`      // pixels from screen edges
}

// ScheduleConfig locates the alarm/display schedule file
type ScheduleConfig struct {
	Path string `yaml:"path"`
}

// RefreshConfig contains the periodic task intervals
type RefreshConfig struct {
	Clock      Duration `yaml:"clock"`
	Alarms     Duration `yaml:"alarms"`
	Events     Duration `yaml:"events"`
	Weather    Duration `yaml:"weather"`
	Chat       Duration `yaml:"chat"`
	PowerCheck Duration `yaml:"power_check"`
}

// BackgroundConfig contains background rotation and fade settings
type BackgroundConfig struct {
	Dir            string   `yaml:"dir"`
	RotateInterval Duration `yaml:"rotate_interval"`
	FadeSteps      int      `yaml:"fade_steps"`
	FadeDuration   Duration `yaml:"fade_duration"`
}

// AlarmConfig contains alarm sequence settings
type AlarmConfig struct {
	SoundFile     string   `yaml:"sound_file"`
	VisualTimeout Duration `yaml:"visual_timeout"` // auto-hide of the visual indicator
	AnnounceDelay Duration `yaml:"announce_delay"` // TTS delay after firing
	MaxShown      int      `yaml:"max_shown"`      // alarms listed on screen
}

// WeatherConfig contains Open-Meteo fetch settings
type WeatherConfig struct {
	Latitude        float64  `yaml:"latitude"`
	Longitude       float64  `yaml:"longitude"`
	TemperatureUnit string   `yaml:"temperature_unit"`
	Timezone        string   `yaml:"timezone"`
	HTTPTimeout     Duration `yaml:"http_timeout"`
	IconsDir        string   `yaml:"icons_dir"`
	IconSize        int      `yaml:"icon_size"`
}

// CalendarConfig contains the ICS feed settings
type CalendarConfig struct {
	URL         string   `yaml:"url"`
	HTTPTimeout Duration `yaml:"http_timeout"`
	MaxEvents   int      `yaml:"max_events"`
}

// ChatConfig contains MQTT chat feed settings
type ChatConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

// IsEnabled reports whether a broker and topic are configured.
func (c *ChatConfig) IsEnabled() bool {
	return c.Broker != "" && c.Topic != ""
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// GetLevel returns the configured log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// HealthcheckConfig contains the admin/health server settings
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// GetShutdownTimeout returns the shutdown timeout with default
func (c *Config) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == 0 {
		return 5 * time.Second
	}
	return c.ShutdownTimeout.Duration()
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied, used when no
// config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	// Display defaults
	if c.Display.Width == 0 {
		c.Display.Width = 1920
	}
	if c.Display.Height == 0 {
		c.Display.Height = 1080
	}
	if c.Display.Margin == 0 {
		c.Display.Margin = 40
	}

	// Schedule defaults
	if c.Schedule.Path == "" {
		c.Schedule.Path = "alarm_config.txt"
	}

	// Refresh intervals
	if c.Refresh.Clock == 0 {
		c.Refresh.Clock = Duration(time.Second)
	}
	if c.Refresh.Alarms == 0 {
		c.Refresh.Alarms = Duration(60 * time.Second)
	}
	if c.Refresh.Events == 0 {
		c.Refresh.Events = Duration(10 * time.Second)
	}
	if c.Refresh.Weather == 0 {
		c.Refresh.Weather = Duration(time.Hour)
	}
	if c.Refresh.Chat == 0 {
		c.Refresh.Chat = Duration(10 * time.Second)
	}
	if c.Refresh.PowerCheck == 0 {
		c.Refresh.PowerCheck = Duration(60 * time.Second)
	}

	// Background defaults
	if c.Background.Dir == "" {
		c.Background.Dir = "backgrounds"
	}
	if c.Background.RotateInterval == 0 {
		c.Background.RotateInterval = Duration(30 * time.Second)
	}
	if c.Background.FadeSteps == 0 {
		c.Background.FadeSteps = 20
	}
	if c.Background.FadeDuration == 0 {
		c.Background.FadeDuration = Duration(time.Second)
	}

	// Alarm defaults
	if c.Alarm.SoundFile == "" {
		c.Alarm.SoundFile = "alarm.wav"
	}
	if c.Alarm.VisualTimeout == 0 {
		c.Alarm.VisualTimeout = Duration(10 * time.Second)
	}
	if c.Alarm.AnnounceDelay == 0 {
		c.Alarm.AnnounceDelay = Duration(2 * time.Second)
	}
	if c.Alarm.MaxShown == 0 {
		c.Alarm.MaxShown = 3
	}

	// Weather defaults (Dallas, TX)
	if c.Weather.Latitude == 0 && c.Weather.Longitude == 0 {
		c.Weather.Latitude = 32.7767
		c.Weather.Longitude = -96.7970
	}
	if c.Weather.TemperatureUnit == "" {
		c.Weather.TemperatureUnit = "fahrenheit"
	}
	if c.Weather.Timezone == "" {
		c.Weather.Timezone = "America/Chicago"
	}
	if c.Weather.HTTPTimeout == 0 {
		c.Weather.HTTPTimeout = Duration(10 * time.Second)
	}
	if c.Weather.IconsDir == "" {
		c.Weather.IconsDir = "weather_icons"
	}
	if c.Weather.IconSize == 0 {
		c.Weather.IconSize = 48
	}

	// Calendar defaults
	if c.Calendar.HTTPTimeout == 0 {
		c.Calendar.HTTPTimeout = Duration(10 * time.Second)
	}
	if c.Calendar.MaxEvents == 0 {
		c.Calendar.MaxEvents = 5
	}

	// Database defaults
	if c.Database.Path == "" {
		c.Database.Path = "./kioskd.sqlite"
	}

	// Healthcheck defaults
	if c.Healthcheck.Port == 0 {
		c.Healthcheck.Port = 9090
	}
	if c.Healthcheck.Host == "" {
		c.Healthcheck.Host = "0.0.0.0"
	}

	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
