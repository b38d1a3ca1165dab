// tcu - vehicle-side door command bridge
//
// tcu subscribes to the door topic over mutual TLS MQTT and forwards each
// "lock" or "unlock" payload to the CAN bus as a single-byte frame on ID
// 0x200. Bring the interface up first, e.g.:
//
//	sudo ip link set can0 up type can bitrate 125000
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/doortwin/internal/bridges/can"
	"github.com/nerrad567/doortwin/internal/infrastructure/config"
	"github.com/nerrad567/doortwin/internal/infrastructure/logging"
	"github.com/nerrad567/doortwin/internal/infrastructure/mqtt"
	"github.com/nerrad567/doortwin/internal/twin"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
)

// options holds the command-line flags.
type options struct {
	host      string
	port      int
	caFile    string
	certFile  string
	keyFile   string
	canIf     string
	topic     string
	clientID  string
	qos       int
	insecure  bool
	logLevel  string
	logFormat string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "tcu",
		Short: "Forward door commands from MQTT to the CAN bus",
		Long: `Forward door commands from MQTT to the CAN bus.

tcu connects to the broker over mutual TLS, subscribes to the door topic and
writes lock (0x30) or unlock (0x31) to CAN ID 0x200. Unknown payloads are
logged and ignored.`,
		Example: `  sudo tcu --host broker.local --port 8883 \
    --cafile /etc/ssl/certs/ca.crt \
    --cert /etc/ssl/certs/client.crt \
    --key /etc/ssl/private/client.key \
    --canif can0`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTCU(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.host, "host", "", "Broker host")
	f.IntVar(&opts.port, "port", 8883, "Broker port")
	f.StringVar(&opts.caFile, "cafile", "", "CA certificate used to verify the broker")
	f.StringVar(&opts.certFile, "cert", "", "Client certificate")
	f.StringVar(&opts.keyFile, "key", "", "Client private key")
	f.StringVar(&opts.canIf, "canif", "can0", "SocketCAN interface")
	f.StringVar(&opts.topic, "topic", "status/door", "Door command topic")
	f.StringVar(&opts.clientID, "client-id", "door-tcu", "MQTT client ID")
	f.IntVar(&opts.qos, "qos", 1, "Subscription QoS (0-2)")
	f.BoolVar(&opts.insecure, "insecure", false, "Skip broker hostname verification (lab use only)")
	f.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	f.StringVar(&opts.logFormat, "log-format", "text", "Log format (text|json)")

	for _, name := range []string{"host", "cafile", "cert", "key"} {
		//nolint:errcheck // flag names are defined above
		cmd.MarkFlagRequired(name)
	}

	return cmd
}

// mqttConfig maps the flags onto the shared MQTT configuration.
func (o *options) mqttConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     o.host,
			Port:     o.port,
			ClientID: o.clientID,
		},
		TLS: config.MQTTTLSConfig{
			CACert:     o.caFile,
			ClientCert: o.certFile,
			ClientKey:  o.keyFile,
			Insecure:   o.insecure,
		},
		Topic: o.topic,
		QoS:   o.qos,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     30,
		},
	}
}

func (o *options) validate() error {
	if o.port < 1 || o.port > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535")
	}
	if o.qos < 0 || o.qos > 2 {
		return fmt.Errorf("--qos must be 0, 1, or 2")
	}
	if err := mqtt.ValidateTopic(o.topic); err != nil {
		return fmt.Errorf("--topic: %w", err)
	}
	return nil
}

// runTCU opens the CAN socket, subscribes and blocks until ctx is done.
//
// Returns:
//   - error: Invalid flags, missing TLS files, CAN open failure or a
//     broker connect failure; nil on signal
func runTCU(ctx context.Context, opts *options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	log := logging.New(config.LoggingConfig{Level: opts.logLevel, Format: opts.logFormat, Output: "stdout"}, version).
		With("component", "tcu")

	mqttCfg := opts.mqttConfig()
	mqttOpts := mqtt.OptionsFromConfig(mqttCfg)
	if err := mqttOpts.Credentials.Check(); err != nil {
		return err
	}

	sock, err := can.OpenSocket(opts.canIf)
	if err != nil {
		return fmt.Errorf("opening CAN interface %s: %w", opts.canIf, err)
	}
	defer sock.Close()
	log.Info("CAN interface opened", "interface", opts.canIf)

	manager := mqtt.NewManager(mqttOpts, mqtt.NewPahoSession(mqtt.SessionConfigFromConfig(mqttCfg)), twin.NewState())
	manager.SetLogger(log.With("component", "mqtt"))
	defer manager.Close()

	bridge, err := can.NewBridge(can.BridgeOptions{
		Topic:      opts.topic,
		QoS:        mqttOpts.QoS,
		Subscriber: manager,
		Writer:     sock,
	})
	if err != nil {
		return fmt.Errorf("creating CAN bridge: %w", err)
	}
	bridge.SetLogger(log)

	// Tracked now, sent on every (re)connect.
	if err := bridge.Start(); err != nil {
		return err
	}

	if err := manager.ConnectWithRetry(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("connecting to MQTT: %w", err)
	}

	log.Info("running", "broker", mqttOpts.Broker, "topic", opts.topic)
	<-ctx.Done()

	stats := bridge.Stats()
	log.Info("shutting down", "sent", stats.Sent, "failed", stats.Failed, "unknown", stats.Unknown)
	return nil
}
