package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/logging"
)

// Config is the root configuration structure for the Gray Logic Home
// Assistant bridge. All configuration is loaded from YAML and can be
// overridden by environment variables.
type Config struct {
	Site      SiteConfig     `yaml:"site"`
	Hub       HubConfig      `yaml:"hub"`
	Registry  RegistryConfig `yaml:"registry"`
	Polling   PollingConfig  `yaml:"polling"`
	Database  DatabaseConfig `yaml:"database"`
	History   HistoryConfig  `yaml:"history"`
	MQTT      MQTTConfig     `yaml:"mqtt"`
	API       APIConfig      `yaml:"api"`
	WebSocket WSConfig       `yaml:"websocket"`
	InfluxDB  InfluxDBConfig `yaml:"influxdb"`
	Logging   logging.Config `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// HubConfig contains Home Assistant connection settings.
//
// Host, Port, and Token are all required: the bridge refuses to start
// without them because every hub request needs the resolved base URL and
// the bearer token.
type HubConfig struct {
	// Host is the Home Assistant hostname or IP address (no scheme).
	Host string `yaml:"host"`

	// Port is the Home Assistant HTTP port. Default: 8123
	Port int `yaml:"port"`

	// Token is a long-lived access token created in the HA user profile.
	Token string `yaml:"token"`

	// TLS selects https for hub requests.
	TLS bool `yaml:"tls"`

	// RequestTimeout is the per-request timeout in seconds. Default: 10
	RequestTimeout int `yaml:"request_timeout"`
}

// String implements fmt.Stringer with the token redacted.
func (h HubConfig) String() string {
	token := ""
	if h.Token != "" {
		token = "[REDACTED]"
	}
	return fmt.Sprintf("HubConfig{Host:%q, Port:%d, Token:%s, TLS:%t, RequestTimeout:%d}",
		h.Host, h.Port, token, h.TLS, h.RequestTimeout)
}

// MarshalJSON implements json.Marshaler to redact the token in JSON output.
// This prevents accidental token exposure in logs or API responses.
func (h HubConfig) MarshalJSON() ([]byte, error) {
	type redacted HubConfig
	safe := redacted(h)
	if safe.Token != "" {
		safe.Token = "[REDACTED]"
	}
	return json.Marshal(safe)
}

// BaseURL returns the hub base URL derived from host, port, and TLS.
func (h HubConfig) BaseURL() string {
	scheme := "http"
	if h.TLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, h.Host, h.Port)
}

// GetRequestTimeout returns the hub request timeout as a Duration.
func (h HubConfig) GetRequestTimeout() time.Duration {
	if h.RequestTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(h.RequestTimeout) * time.Second
}

// RegistryConfig locates the register definitions file.
type RegistryConfig struct {
	// Path is the YAML file declaring point-to-entity register bindings.
	Path string `yaml:"path"`
}

// PollingConfig controls the scrape loop.
type PollingConfig struct {
	// Interval is the scrape period in seconds. Default: 60, minimum: 1
	Interval int `yaml:"interval"`
}

// GetScrapeInterval returns the scrape interval as a Duration, clamped to
// a one second minimum.
func (p PollingConfig) GetScrapeInterval() time.Duration {
	if p.Interval < 1 {
		return time.Second
	}
	return time.Duration(p.Interval) * time.Second
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// HistoryConfig controls the local point history trail.
type HistoryConfig struct {
	// Enabled turns SQLite history recording on. Default: true
	Enabled bool `yaml:"enabled"`

	// RetentionDays is how long history rows are kept. Default: 30
	RetentionDays int `yaml:"retention_days"`
}

// GetRetention returns the history retention window as a Duration.
func (h HistoryConfig) GetRetention() time.Duration {
	days := h.RetentionDays
	if days < 1 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
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

// String implements fmt.Stringer with the password redacted.
func (a MQTTAuthConfig) String() string {
	password := ""
	if a.Password != "" {
		password = "[REDACTED]"
	}
	return fmt.Sprintf("MQTTAuthConfig{Username:%q, Password:%s}", a.Username, password)
}

// MarshalJSON implements json.Marshaler to redact the password in JSON output.
func (a MQTTAuthConfig) MarshalJSON() ([]byte, error) {
	type redacted MQTTAuthConfig
	safe := redacted(a)
	if safe.Password != "" {
		safe.Password = "[REDACTED]"
	}
	return json.Marshal(safe)
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	Auth     APIAuthConfig    `yaml:"auth"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// APIAuthConfig contains API authentication settings.
//
// The bridge uses a single static bearer token, mirroring the hub's own
// access model. Multi-user authentication belongs to the upstream core,
// not a protocol bridge.
type APIAuthConfig struct {
	Token string `yaml:"token"`
}

// String implements fmt.Stringer with the token redacted.
func (a APIAuthConfig) String() string {
	token := ""
	if a.Token != "" {
		token = "[REDACTED]"
	}
	return fmt.Sprintf("APIAuthConfig{Token:%s}", token)
}

// MarshalJSON implements json.Marshaler to redact the token in JSON output.
func (a APIAuthConfig) MarshalJSON() ([]byte, error) {
	type redacted APIAuthConfig
	safe := redacted(a)
	if safe.Token != "" {
		safe.Token = "[REDACTED]"
	}
	return json.Marshal(safe)
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WSConfig contains WebSocket server settings.
type WSConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
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

// String implements fmt.Stringer with the token redacted.
func (i InfluxDBConfig) String() string {
	token := ""
	if i.Token != "" {
		token = "[REDACTED]"
	}
	return fmt.Sprintf("InfluxDBConfig{Enabled:%t, URL:%q, Token:%s, Org:%q, Bucket:%q}",
		i.Enabled, i.URL, token, i.Org, i.Bucket)
}

// MarshalJSON implements json.Marshaler to redact the token in JSON output.
func (i InfluxDBConfig) MarshalJSON() ([]byte, error) {
	type redacted InfluxDBConfig
	safe := redacted(i)
	if safe.Token != "" {
		safe.Token = "[REDACTED]"
	}
	return json.Marshal(safe)
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_HASS_SECTION_KEY
// For example: GRAYLOGIC_HASS_HUB_TOKEN, GRAYLOGIC_HASS_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Gray Logic",
		},
		Hub: HubConfig{
			Port:           8123,
			RequestTimeout: 10,
		},
		Registry: RegistryConfig{
			Path: "./configs/registry.yaml",
		},
		Polling: PollingConfig{
			Interval: 60,
		},
		Database: DatabaseConfig{
			Path:        "./data/graylogic-hass.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-hass",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8126,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WSConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_HASS_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Hub
	if v := os.Getenv("GRAYLOGIC_HASS_HUB_HOST"); v != "" {
		cfg.Hub.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_HASS_HUB_TOKEN"); v != "" {
		cfg.Hub.Token = v
	}

	// Registry
	if v := os.Getenv("GRAYLOGIC_HASS_REGISTRY_PATH"); v != "" {
		cfg.Registry.Path = v
	}

	// Database
	if v := os.Getenv("GRAYLOGIC_HASS_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_HASS_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_HASS_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_HASS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYLOGIC_HASS_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_HASS_API_TOKEN"); v != "" {
		cfg.API.Auth.Token = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_HASS_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Hub validation: host, port, and token are all mandatory. A missing
	// value here is a fatal setup error, not something detected lazily on
	// the first hub request.
	if c.Hub.Host == "" {
		errs = append(errs, "hub.host is required")
	}
	if c.Hub.Port < 1 || c.Hub.Port > 65535 {
		errs = append(errs, "hub.port must be between 1 and 65535")
	}
	if c.Hub.Token == "" {
		errs = append(errs, "hub.token is required (set GRAYLOGIC_HASS_HUB_TOKEN environment variable)")
	}
	if c.Hub.RequestTimeout < 1 {
		errs = append(errs, "hub.request_timeout must be at least 1 second")
	}

	// Registry validation
	if c.Registry.Path == "" {
		errs = append(errs, "registry.path is required")
	}

	// Polling validation
	if c.Polling.Interval < 1 {
		errs = append(errs, "polling.interval must be at least 1 second")
	}

	// Database validation (only needed when history is recorded)
	if c.History.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when history is enabled")
	}

	// MQTT validation
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// API token is REQUIRED. The bridge issues writes to physical devices;
	// an unauthenticated write surface is not acceptable even on a LAN.
	const minAPITokenLength = 16
	if c.API.Auth.Token == "" {
		errs = append(errs, "api.auth.token is required (set GRAYLOGIC_HASS_API_TOKEN environment variable)")
	} else if len(c.API.Auth.Token) < minAPITokenLength {
		errs = append(errs, "api.auth.token must be at least 16 characters")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
