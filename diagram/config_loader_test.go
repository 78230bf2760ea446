package diagram

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CORNERSTONES_STORE", "MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_USERNAME", "MQTT_PASSWORD", "MQTT_PUBLISH_PREFIX"} {
		t.Setenv(k, "")
	}
}

// ---------------------------------------------------------------------------
// LoadConfig
// ---------------------------------------------------------------------------

func TestLoadConfig_Full(t *testing.T) {
	clearConfigEnv(t)
	path := writeTestConfig(t, `
diagram:
  centerRadius: 100
  middleRadius: 140
  outerRadius: 250
  progressStep: 20
  strokeWidth: 3
  rankingStrokeWidth: 18
  labelInset: 15
template:
  themeCount: 4
  sliceCount: 5
  color: "#CCCCCC"
  rankingColor: purple
  indicators: 2
storage:
  path: /tmp/ws.json
  sqlite: /tmp/ws.db
  userId: alice
mqtt:
  broker: tcp://localhost:1883
  publishPrefix: diagrams
  clientId: desk
sync:
  interval: 500ms
http:
  port: 9090
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Diagram.OuterRadius != 250 {
		t.Errorf("outerRadius = %v, want 250", cfg.Diagram.OuterRadius)
	}
	if cfg.Diagram.LabelInset != 15 {
		t.Errorf("labelInset = %v, want 15", cfg.Diagram.LabelInset)
	}
	if cfg.Template.ThemeCount != 4 || cfg.Template.SliceCount != 5 {
		t.Errorf("template = %+v", cfg.Template)
	}
	if cfg.Storage.SQLite != "/tmp/ws.db" || cfg.Storage.UserID != "alice" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" || cfg.MQTT.PublishPrefix != "diagrams" {
		t.Errorf("mqtt = %+v", cfg.MQTT)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("http.port = %d, want 9090", cfg.HTTP.Port)
	}
	interval, err := cfg.SyncInterval()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, interval)
	assert.Equal(t, GroupDefaults{SliceCount: 5, Color: "#CCCCCC", RankingColor: "purple"}, cfg.Template.GroupDefaults())
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	clearConfigEnv(t)
	path := writeTestConfig(t, `
template:
  themeCount: 2
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Diagram, cfg.Diagram)
	assert.Equal(t, 2, cfg.Template.ThemeCount)
	assert.Equal(t, DefaultSliceCount, cfg.Template.SliceCount)
	assert.Equal(t, DefaultColor, cfg.Template.Color)
	assert.Equal(t, DefaultStorePath, cfg.Storage.Path)
	assert.Equal(t, DefaultHTTPPort, cfg.HTTP.Port)
	assert.Equal(t, DefaultPublishPrefix, cfg.MQTT.PublishPrefix)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeTestConfig(t, "diagram: [not, a, map"))
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CORNERSTONES_STORE", "/data/ws.json")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("MQTT_USERNAME", "user")
	t.Setenv("MQTT_PASSWORD", "secret")
	t.Setenv("MQTT_PUBLISH_PREFIX", "office")

	cfg, err := LoadConfig(writeTestConfig(t, "storage:\n  path: ignored.json\n"))
	require.NoError(t, err)
	assert.Equal(t, "/data/ws.json", cfg.Storage.Path)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "user", cfg.MQTT.Username)
	assert.Equal(t, "secret", cfg.MQTT.Password)
	assert.Equal(t, "office", cfg.MQTT.PublishPrefix)
}

func TestLoadConfigOrDefault(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	t.Setenv("MQTT_BROKER", "tcp://env:1883")
	cfg, err = LoadConfigOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "tcp://env:1883", cfg.MQTT.Broker)

	cfg, err = LoadConfigOrDefault(writeTestConfig(t, "http:\n  port: 7000\n"))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.HTTP.Port)
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unordered radii", func(c *Config) { c.Diagram.MiddleRadius = 400 }},
		{"zero center", func(c *Config) { c.Diagram.CenterRadius = 0 }},
		{"negative stroke", func(c *Config) { c.Diagram.StrokeWidth = -1 }},
		{"too many groups", func(c *Config) { c.Template.ThemeCount = 11 }},
		{"too few slices", func(c *Config) { c.Template.SliceCount = 0 }},
		{"too many slices", func(c *Config) { c.Template.SliceCount = 21 }},
		{"bad color", func(c *Config) { c.Template.Color = "#XYZ" }},
		{"bad ranking color", func(c *Config) { c.Template.RankingColor = "blurple" }},
		{"bad interval", func(c *Config) { c.Sync.Interval = "soon" }},
		{"negative interval", func(c *Config) { c.Sync.Interval = "-1s" }},
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }},
	}

	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestConfig_SyncIntervalDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.Interval = ""
	d, err := cfg.SyncInterval()
	require.NoError(t, err)
	assert.Equal(t, DefaultSyncInterval, d)
}

// ---------------------------------------------------------------------------
// SaveConfig
// ---------------------------------------------------------------------------

func TestSaveConfig_RoundTrip(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Template.ThemeCount = 6
	cfg.Storage.SQLite = "ws.db"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
