package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the rgb7seg controller.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Settings    DatabaseConfig    `yaml:"settings"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Logging     LoggingConfig     `yaml:"logging"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	SensorBus   SensorBusConfig   `yaml:"sensorbus"`
	Inputs      []InputConfig     `yaml:"inputs"`
	Update      UpdateConfig      `yaml:"update"`
	Network     NetworkConfig     `yaml:"network"`
	TimeSync    TimeSyncConfig    `yaml:"timesync"`
}

// DeviceConfig identifies this controller on the message bus.
type DeviceConfig struct {
	// AppName is the application segment of every topic.
	AppName string `yaml:"app_name"`

	// ID forces the six-digit hex device identifier.
	// When empty it is derived from the MAC address of Interface.
	ID string `yaml:"id"`

	// Interface is the network interface whose MAC supplies the device ID.
	// When empty the first non-loopback interface with a MAC is used.
	Interface string `yaml:"interface"`
}

// DatabaseConfig contains SQLite settings for the persisted settings store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	Prefix    string              `yaml:"prefix"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// CoordinatorConfig contains event loop settings.
type CoordinatorConfig struct {
	// StatisticsInterval is both the queue wait timeout and the
	// statistics publish period.
	// Default: 1800s
	StatisticsInterval time.Duration `yaml:"statistics_interval"`

	// QueueCapacity bounds the event queue. Posts beyond it are dropped.
	// Default: 10
	QueueCapacity int `yaml:"queue_capacity"`

	// RollbackGrace is the minimum baseline age before a staged update
	// is confirmed.
	// Default: 20s
	RollbackGrace time.Duration `yaml:"rollback_grace"`
}

// SensorBusConfig contains 1-Wire temperature bus settings.
type SensorBusConfig struct {
	Enabled bool `yaml:"enabled"`

	// Bus is the periph 1-Wire bus name. Empty selects the first bus.
	Bus string `yaml:"bus"`

	// Resolution is the DS18B20 conversion resolution in bits (9-12).
	Resolution int `yaml:"resolution"`

	PollInterval time.Duration `yaml:"poll_interval"`

	// MaxSensors caps the number of sensors kept after a scan.
	MaxSensors int `yaml:"max_sensors"`
}

// InputConfig describes one GPIO pin posting digital-state events.
type InputConfig struct {
	// Pin is the periph pin name (e.g. "GPIO17").
	Pin string `yaml:"pin"`

	// Channel is the source number carried by the posted events.
	Channel int `yaml:"channel"`

	// PullUp enables the internal pull-up instead of pull-down.
	PullUp bool `yaml:"pull_up"`
}

// UpdateConfig contains firmware image staging settings.
type UpdateConfig struct {
	// BaseURL is prefixed to the filename received in otaupdate commands.
	BaseURL string `yaml:"base_url"`

	// StagingDir receives downloaded images.
	StagingDir string `yaml:"staging_dir"`

	// ConfirmFile is written when the running image is confirmed good.
	ConfirmFile string `yaml:"confirm_file"`

	Timeout time.Duration `yaml:"timeout"`
}

// NetworkConfig contains link watcher settings.
type NetworkConfig struct {
	// Interface restricts the link check to one interface. Empty checks all.
	Interface    string        `yaml:"interface"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// TimeSyncConfig contains wall-clock trust settings.
type TimeSyncConfig struct {
	// MinEpoch is the earliest Unix time considered plausible.
	MinEpoch int64 `yaml:"min_epoch"`

	// MarkerFile, when set, must exist before the clock counts as synchronised
	// (e.g. /run/systemd/timesync/synchronized).
	MarkerFile   string        `yaml:"marker_file"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RGB7SEG_SECTION_KEY
// For example: RGB7SEG_MQTT_HOST, RGB7SEG_SETTINGS_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			AppName: "rgb7seg",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Port: 1883,
			},
			Prefix: "home/esp",
			QoS:    0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Settings: DatabaseConfig{
			Path:        "./data/settings.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Coordinator: CoordinatorConfig{
			StatisticsInterval: 1800 * time.Second,
			QueueCapacity:      10,
			RollbackGrace:      20 * time.Second,
		},
		SensorBus: SensorBusConfig{
			Enabled:      true,
			Resolution:   12,
			PollInterval: 60 * time.Second,
			MaxSensors:   10,
		},
		Update: UpdateConfig{
			StagingDir:  "./data/update",
			ConfirmFile: "./data/update/confirmed",
			Timeout:     5 * time.Minute,
		},
		Network: NetworkConfig{
			PollInterval: 5 * time.Second,
		},
		TimeSync: TimeSyncConfig{
			MinEpoch:     1650000000,
			PollInterval: 2 * time.Second,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RGB7SEG_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}

	if v := os.Getenv("RGB7SEG_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RGB7SEG_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RGB7SEG_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("RGB7SEG_MQTT_PREFIX"); v != "" {
		cfg.MQTT.Prefix = v
	}

	if v := os.Getenv("RGB7SEG_SETTINGS_PATH"); v != "" {
		cfg.Settings.Path = v
	}

	if v := os.Getenv("RGB7SEG_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.AppName == "" {
		errs = append(errs, "device.app_name is required")
	}
	if c.Device.ID != "" && !isHexID(c.Device.ID) {
		errs = append(errs, "device.id must be six hex digits")
	}

	// No stored broker means no network credentials. The configuration
	// portal for that case is not part of this daemon.
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required (set RGB7SEG_MQTT_HOST)")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Prefix == "" {
		errs = append(errs, "mqtt.prefix is required")
	}

	if c.Settings.Path == "" {
		errs = append(errs, "settings.path is required")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Coordinator.StatisticsInterval <= 0 {
		errs = append(errs, "coordinator.statistics_interval must be positive")
	}
	if c.Coordinator.QueueCapacity < 1 {
		errs = append(errs, "coordinator.queue_capacity must be at least 1")
	}
	if c.Coordinator.RollbackGrace < 0 {
		errs = append(errs, "coordinator.rollback_grace cannot be negative")
	}

	if c.SensorBus.Enabled {
		if c.SensorBus.Resolution < 9 || c.SensorBus.Resolution > 12 {
			errs = append(errs, "sensorbus.resolution must be between 9 and 12")
		}
		if c.SensorBus.PollInterval <= 0 {
			errs = append(errs, "sensorbus.poll_interval must be positive")
		}
		if c.SensorBus.MaxSensors < 1 {
			errs = append(errs, "sensorbus.max_sensors must be at least 1")
		}
	}

	for i, in := range c.Inputs {
		if in.Pin == "" {
			errs = append(errs, fmt.Sprintf("inputs[%d].pin is required", i))
		}
	}

	if c.Update.StagingDir == "" {
		errs = append(errs, "update.staging_dir is required")
	}
	if c.Update.ConfirmFile == "" {
		errs = append(errs, "update.confirm_file is required")
	}

	if c.Network.PollInterval <= 0 {
		errs = append(errs, "network.poll_interval must be positive")
	}
	if c.TimeSync.PollInterval <= 0 {
		errs = append(errs, "timesync.poll_interval must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// isHexID reports whether s is exactly six hex digits.
func isHexID(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range strings.ToLower(s) {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
