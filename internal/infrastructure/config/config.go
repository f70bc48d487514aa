package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the MDOF daemon.
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	Pipeline Pipeline       `yaml:"pipeline"`
	Datalog  DatalogConfig  `yaml:"datalog"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Pipeline contains settings for the input-to-visualisation pipeline.
type Pipeline struct {
	// DocumentPath is the path to the pipeline document (ontology, devices,
	// transformations, calibration, visualisations). See internal/registry.
	DocumentPath string `yaml:"document_path"`

	// Visualisation selects the active visualisation target by name.
	// If empty, the document's "selected" field is used.
	Visualisation string `yaml:"visualisation"`

	// Devices lists device names to activate. If empty, every device
	// declared in the document is activated.
	Devices []string `yaml:"devices"`

	// PollInterval is the delay between device polls in milliseconds.
	PollInterval int `yaml:"poll_interval"`

	// Driver selects the input driver backend ("synth" is the only
	// backend compiled into mdofd; hardware backends register here).
	Driver string `yaml:"driver"`
}

// DatalogConfig contains settings for the dispatch history datalog.
type DatalogConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT telemetry settings. Telemetry is optional;
// when disabled the sessions run without status publishing.
type MQTTConfig struct {
	Enabled   bool             `yaml:"enabled"`
	Broker    MQTTBrokerConfig `yaml:"broker"`
	Auth      MQTTAuthConfig   `yaml:"auth"`
	QoS       int              `yaml:"qos"`
	BaseTopic string           `yaml:"base_topic"`
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

// InfluxDBConfig contains InfluxDB sample-metrics settings.
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

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MDOF_SECTION_KEY
// For example: MDOF_DATALOG_PATH, MDOF_MQTT_HOST.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

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

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Pipeline: Pipeline{
			DocumentPath: "./configs/pipeline.yaml",
			PollInterval: 20,
			Driver:       "synth",
		},
		Datalog: DatalogConfig{
			Enabled:     false,
			Path:        "./data/mdof.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "mdofd",
			},
			QoS:       1,
			BaseTopic: "mdof",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides.
// Environment variables follow the pattern: MDOF_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	// Pipeline
	if v := os.Getenv("MDOF_PIPELINE_DOCUMENT"); v != "" {
		cfg.Pipeline.DocumentPath = v
	}
	if v := os.Getenv("MDOF_PIPELINE_VISUALISATION"); v != "" {
		cfg.Pipeline.Visualisation = v
	}

	// Datalog
	if v := os.Getenv("MDOF_DATALOG_PATH"); v != "" {
		cfg.Datalog.Path = v
	}

	// MQTT
	if v := os.Getenv("MDOF_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MDOF_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("MDOF_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MDOF_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("MDOF_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Pipeline.DocumentPath == "" {
		errs = append(errs, "pipeline.document_path is required")
	}
	if c.Pipeline.PollInterval < 1 {
		errs = append(errs, "pipeline.poll_interval must be at least 1ms")
	}

	if c.Datalog.Enabled && c.Datalog.Path == "" {
		errs = append(errs, "datalog.path is required when datalog is enabled")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set MDOF_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetPollInterval returns the poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Pipeline.PollInterval) * time.Millisecond
}
