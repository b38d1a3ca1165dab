package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/doortwin/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout bounds a single network connect + CONNACK exchange.
	defaultConnectTimeout = 10 * time.Second

	// defaultConnectWait is how long ConnectWithRetry waits for the
	// asynchronous connect outcome before backing off.
	defaultConnectWait = 2 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// defaultMaxReconnectInterval caps paho's internal reconnect backoff,
	// matching the startup backoff ceiling.
	defaultMaxReconnectInterval = 30 * time.Second

	// protocolVersion311 selects MQTT 3.1.1.
	protocolVersion311 = 4

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2
)

// SessionConfig describes the broker session.
type SessionConfig struct {
	Host     string
	Port     int
	ClientID string

	ConnectTimeout       time.Duration
	PublishTimeout       time.Duration
	KeepAlive            time.Duration
	MaxReconnectInterval time.Duration
}

// SessionConfigFromConfig builds a SessionConfig with default timings.
func SessionConfigFromConfig(cfg config.MQTTConfig) SessionConfig {
	return SessionConfig{
		Host:                 cfg.Broker.Host,
		Port:                 cfg.Broker.Port,
		ClientID:             cfg.Broker.ClientID,
		ConnectTimeout:       defaultConnectTimeout,
		PublishTimeout:       defaultPublishTimeout,
		KeepAlive:            defaultKeepAlive,
		MaxReconnectInterval: time.Duration(cfg.Reconnect.MaxDelay) * time.Second,
	}
}

// withDefaults fills zero durations.
func (c SessionConfig) withDefaults() SessionConfig {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = defaultPublishTimeout
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = defaultKeepAlive
	}
	if c.MaxReconnectInterval <= 0 {
		c.MaxReconnectInterval = defaultMaxReconnectInterval
	}
	return c
}

// brokerURL returns the ssl:// URL for the broker.
func (c SessionConfig) brokerURL() string {
	return fmt.Sprintf("ssl://%s:%d", c.Host, c.Port)
}

// buildClientOptions creates paho MQTT options for the session.
//
// This configures:
//   - ssl:// broker URL with the supplied mutual TLS configuration
//   - Client ID for identification
//   - MQTT 3.1.1, clean session
//   - paho's own auto-reconnect for dropped sessions; the initial connect
//     is retried by the Manager, not by paho
//   - Lifecycle handlers
func buildClientOptions(cfg SessionConfig, tlsConfig *tls.Config, h Handlers) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(cfg.brokerURL())
	opts.SetClientID(cfg.ClientID)
	opts.SetProtocolVersion(protocolVersion311)

	// Clean session - no persistent session on broker
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(cfg.MaxReconnectInterval)

	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetKeepAlive(cfg.KeepAlive)

	opts.SetTLSConfig(tlsConfig)

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		h.OnConnect(CodeSuccess, nil)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		h.OnDisconnect(CodeConnectionLost, err)
	})

	return opts
}
