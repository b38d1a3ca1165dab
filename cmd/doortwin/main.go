// doortwin - door lock digital twin
//
// This is the main entry point for the doortwin service. It connects to an
// MQTT broker over mutual TLS, serves a small control page and JSON API,
// and publishes "lock" and "unlock" on the door topic. The twin records the
// last value the broker accepted and the broker connection state.
//
// Configuration comes from environment variables (MQTT_HOST, MQTT_PORT,
// MQTT_TOPIC, MQTT_CA_CERT, ...) with an optional YAML file named by
// DOORTWIN_CONFIG.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nerrad567/doortwin/internal/api"
	"github.com/nerrad567/doortwin/internal/infrastructure/config"
	"github.com/nerrad567/doortwin/internal/infrastructure/influxdb"
	"github.com/nerrad567/doortwin/internal/infrastructure/logging"
	"github.com/nerrad567/doortwin/internal/infrastructure/metrics"
	"github.com/nerrad567/doortwin/internal/infrastructure/mqtt"
	"github.com/nerrad567/doortwin/internal/twin"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Environment variables read only by this binary.
const (
	envConfigPath = "DOORTWIN_CONFIG"
	envPanelDir   = "DOORTWIN_PANEL_DIR"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Startup order:
//  1. Load configuration and build the logger
//  2. Connect to the broker, retrying with backoff until connected
//  3. Start the HTTP server
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown (including a signal during startup),
//     or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting doortwin",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := os.Getenv(envConfigPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"broker", cfg.MQTT.Broker.Address(),
		"topic", cfg.MQTT.Topic,
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	state := twin.NewState()
	promMetrics := metrics.New()

	session := mqtt.NewPahoSession(mqtt.SessionConfigFromConfig(cfg.MQTT))
	manager := mqtt.NewManager(mqtt.OptionsFromConfig(cfg.MQTT), session, state)
	manager.SetLogger(log.With("component", "mqtt"))
	manager.SetMetrics(promMetrics)

	recorders := twin.Recorders{promMetrics}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB, cfg.MQTT.Broker.ClientID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		state.Watch(connectionRecorder(influxClient))
		recorders = append(recorders, influxClient)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	service := twin.NewService(state, manager)
	service.SetLogger(log.With("component", "twin"))
	service.SetActuationRecorder(recorders)

	server, err := api.New(api.Deps{
		Config:   cfg.HTTP,
		WS:       cfg.WebSocket,
		Logger:   log,
		Service:  service,
		Metrics:  promMetrics,
		PanelDir: os.Getenv(envPanelDir),
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	shutdown := shutdownFunc(log, server, manager, influxClient)
	defer shutdown()

	if err := manager.ConnectWithRetry(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("shutdown signal received during startup")
			return nil
		}
		return fmt.Errorf("connecting to MQTT: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	log.Info("initialisation complete", "http", server.Addr())

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// shutdownFunc returns an idempotent teardown for everything run started.
// Order: stop accepting HTTP, then drop the broker session, then flush
// InfluxDB so the final disconnect is recorded.
func shutdownFunc(log *logging.Logger, server *api.Server, manager *mqtt.Manager, influxClient *influxdb.Client) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := server.Close(); err != nil {
				log.Error("error closing API server", "error", err)
			}

			log.Info("disconnecting from MQTT")
			manager.Close()

			if influxClient != nil {
				log.Info("closing InfluxDB connection")
				if err := influxClient.Close(); err != nil {
					log.Error("error closing InfluxDB", "error", err)
				}
			}

			log.Info("shutdown complete")
		})
	}
}

// connectionWriter records broker connection transitions.
type connectionWriter interface {
	WriteConnection(connected bool, code mqtt.ResultCode, at time.Time)
}

// connectionRecorder returns a State watcher that writes a point only when
// the connection flag or result code changes, not on door value changes.
func connectionRecorder(w connectionWriter) func(twin.Snapshot) {
	var (
		mu       sync.Mutex
		seen     bool
		lastConn bool
		lastCode mqtt.ResultCode
	)

	return func(snap twin.Snapshot) {
		if snap.LastResultCode == nil {
			return
		}
		code := *snap.LastResultCode

		mu.Lock()
		changed := !seen || snap.Connected != lastConn || code != lastCode
		seen, lastConn, lastCode = true, snap.Connected, code
		mu.Unlock()

		if changed {
			w.WriteConnection(snap.Connected, code, time.Now())
		}
	}
}
