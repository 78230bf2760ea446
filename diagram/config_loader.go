package diagram

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the ambient sections of the config
const (
	DefaultStorePath     = "cornerstones.json"
	DefaultSyncInterval  = 3 * time.Second
	DefaultHTTPPort      = 8080
	DefaultPublishPrefix = "cornerstones"
	DefaultClientID      = "cornerstones"
)

// DefaultConfig returns a configuration with every field set to its default
func DefaultConfig() *Config {
	d := DefaultGroupDefaults()
	return &Config{
		Diagram: DefaultRadiusConfig(),
		Template: TemplateConfig{
			ThemeCount:   DefaultThemeCount,
			SliceCount:   d.SliceCount,
			Color:        d.Color,
			RankingColor: d.RankingColor,
			Indicators:   1,
		},
		Storage: StorageConfig{Path: DefaultStorePath},
		MQTT: MQTTConfig{
			PublishPrefix: DefaultPublishPrefix,
			ClientID:      DefaultClientID,
		},
		Sync: SyncConfig{Interval: DefaultSyncInterval.String()},
		HTTP: HTTPConfig{Port: DefaultHTTPPort},
	}
}

// LoadConfig loads the configuration from a YAML file. Missing fields take
// their defaults and environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	config.applyDefaults()
	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfigOrDefault loads path when it exists and falls back to defaults
// (with environment overrides) when it does not
func LoadConfigOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}
	config := DefaultConfig()
	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config fields from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CORNERSTONES_STORE"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
	if v := os.Getenv("MQTT_CLIENT_ID"); v != "" {
		c.MQTT.ClientID = v
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		c.MQTT.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		c.MQTT.Password = v
	}
	if v := os.Getenv("MQTT_PUBLISH_PREFIX"); v != "" {
		c.MQTT.PublishPrefix = v
	}
}

// Validate checks ring geometry and template limits
func (c *Config) Validate() error {
	d := c.Diagram
	if d.CenterRadius <= 0 || d.MiddleRadius <= d.CenterRadius || d.OuterRadius <= d.MiddleRadius {
		return fmt.Errorf("diagram radii must satisfy 0 < centerRadius < middleRadius < outerRadius (got %g, %g, %g)",
			d.CenterRadius, d.MiddleRadius, d.OuterRadius)
	}
	if d.ProgressStep < 0 || d.StrokeWidth < 0 || d.RankingStrokeWidth < 0 {
		return fmt.Errorf("diagram widths must not be negative")
	}

	t := c.Template
	if t.ThemeCount < MinGroups || t.ThemeCount > MaxGroups {
		return fmt.Errorf("template.themeCount must be in [%d, %d], got %d", MinGroups, MaxGroups, t.ThemeCount)
	}
	if t.SliceCount < MinSlices || t.SliceCount > MaxSlices {
		return fmt.Errorf("template.sliceCount must be in [%d, %d], got %d", MinSlices, MaxSlices, t.SliceCount)
	}
	if !ValidColor(t.Color) {
		return fmt.Errorf("template.color %q is not a color", t.Color)
	}
	if !ValidColor(t.RankingColor) {
		return fmt.Errorf("template.rankingColor %q is not a color", t.RankingColor)
	}

	if _, err := c.SyncInterval(); err != nil {
		return err
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	return nil
}

// SyncInterval parses the debounce interval
func (c *Config) SyncInterval() (time.Duration, error) {
	if c.Sync.Interval == "" {
		return DefaultSyncInterval, nil
	}
	d, err := time.ParseDuration(c.Sync.Interval)
	if err != nil {
		return 0, fmt.Errorf("sync.interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("sync.interval must be positive, got %s", d)
	}
	return d, nil
}

// applyDefaults fills fields a partial YAML document zeroed out
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Diagram.LabelInset == 0 {
		c.Diagram.LabelInset = def.Diagram.LabelInset
	}
	if c.Template.ThemeCount == 0 {
		c.Template.ThemeCount = def.Template.ThemeCount
	}
	if c.Template.SliceCount == 0 {
		c.Template.SliceCount = def.Template.SliceCount
	}
	if c.Template.Color == "" {
		c.Template.Color = def.Template.Color
	}
	if c.Template.RankingColor == "" {
		c.Template.RankingColor = def.Template.RankingColor
	}
	if c.Template.Indicators == 0 {
		c.Template.Indicators = def.Template.Indicators
	}
	if c.Storage.Path == "" {
		c.Storage.Path = def.Storage.Path
	}
	if c.MQTT.PublishPrefix == "" {
		c.MQTT.PublishPrefix = def.MQTT.PublishPrefix
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = def.HTTP.Port
	}
}
