package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the door twin bridge.
// Values come from defaults, an optional YAML file and environment variables.
type Config struct {
	MQTT      MQTTConfig      `yaml:"mqtt"`
	HTTP      HTTPConfig      `yaml:"http"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection and publish settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	TLS       MQTTTLSConfig       `yaml:"tls"`
	Topic     string              `yaml:"topic"`
	QoS       int                 `yaml:"qos"`
	Retain    bool                `yaml:"retain"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// MQTTTLSConfig contains the mutual TLS credential bundle.
type MQTTTLSConfig struct {
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`

	// Insecure disables broker hostname verification. The certificate chain
	// is still verified against CACert. Lab use only.
	Insecure bool `yaml:"insecure"`
}

// MQTTReconnectConfig contains connect backoff settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// HTTPConfig contains the control-surface listener settings.
type HTTPConfig struct {
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Timeouts HTTPTimeoutConfig `yaml:"timeouts"`
}

// HTTPTimeoutConfig contains HTTP timeout settings (seconds).
type HTTPTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains state push settings.
type WebSocketConfig struct {
	Path         string `yaml:"path"`
	PingInterval int    `yaml:"ping_interval"`
	PongTimeout  int    `yaml:"pong_timeout"`
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

// Environment variable names. The MQTT and HTTP keys are shared with the
// rest of the deployment (broker provisioning scripts, the TCU) and must
// not be renamed.
const (
	EnvMQTTHost       = "MQTT_HOST"
	EnvMQTTPort       = "MQTT_PORT"
	EnvMQTTTopic      = "MQTT_TOPIC"
	EnvMQTTCACert     = "MQTT_CA_CERT"
	EnvMQTTClientCert = "MQTT_CLIENT_CERT"
	EnvMQTTClientKey  = "MQTT_CLIENT_KEY"
	EnvMQTTClientID   = "MQTT_CLIENT_ID"
	EnvTLSInsecure    = "TLS_INSECURE"
	EnvMQTTQoS        = "MQTT_QOS"
	EnvMQTTRetain     = "MQTT_RETAIN"
	EnvHTTPHost       = "HTTP_HOST"
	EnvHTTPPort       = "HTTP_PORT"

	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
	EnvLogOutput = "LOG_OUTPUT"

	EnvInfluxEnabled = "INFLUXDB_ENABLED"
	EnvInfluxURL     = "INFLUXDB_URL"
	EnvInfluxToken   = "INFLUXDB_TOKEN"
	EnvInfluxOrg     = "INFLUXDB_ORG"
	EnvInfluxBucket  = "INFLUXDB_BUCKET"
)

// Load builds the configuration.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values, when path is non-empty
//  3. Environment variables (override file values)
//
// Parameters:
//   - path: Path to a YAML configuration file, or "" for environment only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, an environment value is
//     malformed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with the documented defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "127.0.0.1",
				Port:     8883,
				ClientID: "digitat-twin",
			},
			TLS: MQTTTLSConfig{
				CACert:     "./ca.crt",
				ClientCert: "./digitaltwin.crt",
				ClientKey:  "./digitaltwin.key",
			},
			Topic:  "status/door",
			QoS:    1,
			Retain: false,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     30,
			},
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 8000,
			Timeouts: HTTPTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:         "/api/ws",
			PingInterval: 30,
			PongTimeout:  10,
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

// applyEnvOverrides applies environment variable overrides to the configuration.
// Unset or empty variables leave the current value untouched.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
			return
		}
		*dst = n
	}
	// Only the literal "true" (any case) enables a flag.
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = strings.EqualFold(strings.TrimSpace(v), "true")
		}
	}

	// MQTT
	setString(EnvMQTTHost, &cfg.MQTT.Broker.Host)
	setInt(EnvMQTTPort, &cfg.MQTT.Broker.Port)
	setString(EnvMQTTTopic, &cfg.MQTT.Topic)
	setString(EnvMQTTCACert, &cfg.MQTT.TLS.CACert)
	setString(EnvMQTTClientCert, &cfg.MQTT.TLS.ClientCert)
	setString(EnvMQTTClientKey, &cfg.MQTT.TLS.ClientKey)
	setString(EnvMQTTClientID, &cfg.MQTT.Broker.ClientID)
	setBool(EnvTLSInsecure, &cfg.MQTT.TLS.Insecure)
	setInt(EnvMQTTQoS, &cfg.MQTT.QoS)
	setBool(EnvMQTTRetain, &cfg.MQTT.Retain)

	// HTTP
	setString(EnvHTTPHost, &cfg.HTTP.Host)
	setInt(EnvHTTPPort, &cfg.HTTP.Port)

	// Logging
	setString(EnvLogLevel, &cfg.Logging.Level)
	setString(EnvLogFormat, &cfg.Logging.Format)
	setString(EnvLogOutput, &cfg.Logging.Output)

	// InfluxDB
	setBool(EnvInfluxEnabled, &cfg.InfluxDB.Enabled)
	setString(EnvInfluxURL, &cfg.InfluxDB.URL)
	setString(EnvInfluxToken, &cfg.InfluxDB.Token)
	setString(EnvInfluxOrg, &cfg.InfluxDB.Org)
	setString(EnvInfluxBucket, &cfg.InfluxDB.Bucket)

	return errors.Join(errs...)
}

// Validate checks the configuration for errors.
//
// Credential files are not opened here; their presence is checked by the
// MQTT layer right before the TLS context is built.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.Topic == "" {
		errs = append(errs, "mqtt.topic is required")
	} else if strings.ContainsAny(c.MQTT.Topic, "+#") {
		errs = append(errs, "mqtt.topic must not contain wildcards")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.TLS.CACert == "" || c.MQTT.TLS.ClientCert == "" || c.MQTT.TLS.ClientKey == "" {
		errs = append(errs, "mqtt.tls.ca_cert, client_cert and client_key are required")
	}
	if c.MQTT.Reconnect.InitialDelay < 1 {
		errs = append(errs, "mqtt.reconnect.initial_delay must be at least 1")
	}
	if c.MQTT.Reconnect.MaxDelay < c.MQTT.Reconnect.InitialDelay {
		errs = append(errs, "mqtt.reconnect.max_delay must not be less than initial_delay")
	}

	// HTTP validation
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, "http.port must be between 1 and 65535")
	}

	// InfluxDB validation (only when enabled)
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// Address returns the broker address in host:port form.
func (b MQTTBrokerConfig) Address() string {
	return fmt.Sprintf("%s:%d", b.Host, b.Port)
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Idle) * time.Second
}
