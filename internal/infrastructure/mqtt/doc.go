// Package mqtt manages the mutually authenticated broker session of the
// door twin.
//
// This package manages:
//   - Loading the TLS credential bundle (CA, client certificate, client key)
//   - Startup connect with capped exponential backoff
//   - Lifecycle callbacks that record connection state
//   - Best-effort publishing with one opportunistic reconnect
//   - Tracked subscriptions restored on every connect
//
// # Architecture
//
// The Manager holds the lifecycle policy. The Session carries the network
// work and is implemented on paho.mqtt.golang by PahoSession. Outcomes are
// reported as ResultCode values rather than errors, since a failed publish
// is an expected condition the caller shows to its user.
//
//	HTTP handler -> Manager.Publish -> Session.Publish -> broker (ssl://)
//	paho callbacks -> Handlers -> Manager -> StateRecorder
//
// # Security Considerations
//
//   - The broker is always reached over TLS with a client certificate
//   - Missing credential files stop startup; there is no plaintext fallback
//   - Credentials.Insecure skips hostname checks only; the chain is still
//     verified against the configured CA
//
// # Usage
//
//	state := twin.NewState()
//	session := mqtt.NewPahoSession(mqtt.SessionConfigFromConfig(cfg.MQTT))
//	manager := mqtt.NewManager(mqtt.OptionsFromConfig(cfg.MQTT), session, state)
//	manager.SetLogger(log)
//	defer manager.Close()
//
//	if err := manager.ConnectWithRetry(ctx); err != nil {
//	    return err
//	}
//	code := manager.Publish("lock")
package mqtt
