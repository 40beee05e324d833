package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
display:
  width: 800
  height: 480
  output_path: /tmp/frame.png
refresh:
  clock: 500ms
  weather: 30m
weather:
  latitude: 48.8566
  longitude: 2.3522
  temperature_unit: celsius
chat:
  broker: tcp://localhost:1883
  topic: kiosk/chat
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Display.Width != 800 || cfg.Display.Height != 480 {
		t.Errorf("display = %dx%d, want 800x480", cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Refresh.Clock.Duration() != 500*time.Millisecond {
		t.Errorf("clock interval = %v, want 500ms", cfg.Refresh.Clock.Duration())
	}
	if cfg.Refresh.Weather.Duration() != 30*time.Minute {
		t.Errorf("weather interval = %v, want 30m", cfg.Refresh.Weather.Duration())
	}
	if cfg.Weather.Latitude != 48.8566 {
		t.Errorf("latitude = %v", cfg.Weather.Latitude)
	}
	if !cfg.Chat.IsEnabled() {
		t.Error("chat should be enabled with broker and topic set")
	}
	if cfg.Log.GetLevel() != "debug" {
		t.Errorf("log level = %q", cfg.Log.GetLevel())
	}

	// Unset fields still get defaults.
	if cfg.Refresh.Alarms.Duration() != 60*time.Second {
		t.Errorf("alarms interval default = %v", cfg.Refresh.Alarms.Duration())
	}
	if cfg.Alarm.MaxShown != 3 {
		t.Errorf("max shown default = %d", cfg.Alarm.MaxShown)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "refresh:\n  clock: soon\n")
	if _, err := Load(path); err == nil {
		t.Error("invalid duration must fail the load")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Display.Width != 1920 || cfg.Display.Height != 1080 {
		t.Errorf("default display = %dx%d", cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Schedule.Path != "alarm_config.txt" {
		t.Errorf("default schedule path = %q", cfg.Schedule.Path)
	}
	if cfg.Refresh.Clock.Duration() != time.Second {
		t.Errorf("default clock interval = %v", cfg.Refresh.Clock.Duration())
	}
	if cfg.Refresh.PowerCheck.Duration() != 60*time.Second {
		t.Errorf("default power-check interval = %v", cfg.Refresh.PowerCheck.Duration())
	}
	if cfg.Background.FadeSteps != 20 {
		t.Errorf("default fade steps = %d", cfg.Background.FadeSteps)
	}
	if cfg.Chat.IsEnabled() {
		t.Error("chat must be disabled by default")
	}
	if cfg.GetShutdownTimeout() != 5*time.Second {
		t.Errorf("default shutdown timeout = %v", cfg.GetShutdownTimeout())
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("KIOSKD_TEST_BROKER", "tcp://broker:1883")
	defer os.Unsetenv("KIOSKD_TEST_BROKER")

	path := writeConfig(t, `
chat:
  broker: ${KIOSKD_TEST_BROKER}
  topic: ${KIOSKD_TEST_TOPIC:kiosk/chat}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chat.Broker != "tcp://broker:1883" {
		t.Errorf("broker = %q, want env value", cfg.Chat.Broker)
	}
	if cfg.Chat.Topic != "kiosk/chat" {
		t.Errorf("topic = %q, want fallback default", cfg.Chat.Topic)
	}
}
