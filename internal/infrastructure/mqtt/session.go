package mqtt

import (
	"crypto/tls"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handlers receives session lifecycle events.
//
// Handlers are invoked from client library goroutines and must be safe for
// concurrent use.
type Handlers struct {
	// OnConnect reports the outcome of a connect attempt. CodeSuccess means
	// the broker accepted the session.
	OnConnect func(code ResultCode, err error)

	// OnDisconnect reports the end of a session. CodeSuccess means a
	// requested disconnect.
	OnDisconnect func(code ResultCode, err error)
}

// Session is a single broker session that survives reconnects.
//
// Connect and Reconnect do not block on the network; their outcome is
// delivered through Handlers.OnConnect.
type Session interface {
	// Start prepares the session and installs the handlers. No network
	// activity happens until Connect.
	Start(tlsConfig *tls.Config, h Handlers) error

	// Connect begins a connect attempt.
	Connect() error

	// Reconnect begins a connect attempt on an existing session.
	Reconnect() error

	// Publish sends payload and waits for the client library to report
	// the outcome.
	Publish(topic string, qos byte, retained bool, payload []byte) ResultCode

	// Subscribe registers a message callback on a topic filter.
	Subscribe(topic string, qos byte, callback func(topic string, payload []byte)) error

	// Stop disconnects and releases the session. Safe to call more than once.
	Stop()
}

// PahoSession implements Session on paho.mqtt.golang.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type PahoSession struct {
	cfg SessionConfig

	mu       sync.RWMutex
	client   pahomqtt.Client
	handlers Handlers
	stopped  bool

	stopOnce sync.Once
}

// NewPahoSession creates an unstarted paho session.
func NewPahoSession(cfg SessionConfig) *PahoSession {
	return &PahoSession{cfg: cfg.withDefaults()}
}

// Start builds the paho client with mutual TLS and the lifecycle handlers.
func (s *PahoSession) Start(tlsConfig *tls.Config, h Handlers) error {
	if tlsConfig == nil {
		return fmt.Errorf("%w: TLS configuration required", ErrConnectionFailed)
	}
	if h.OnConnect == nil || h.OnDisconnect == nil {
		return fmt.Errorf("%w: lifecycle handlers required", ErrConnectionFailed)
	}

	opts := buildClientOptions(s.cfg, tlsConfig, h)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = pahomqtt.NewClient(opts)
	s.handlers = h
	return nil
}

// Connect starts an asynchronous connect. A failed attempt is reported
// through OnConnect once the client library gives up on it.
func (s *PahoSession) Connect() error {
	client, h, err := s.started()
	if err != nil {
		return err
	}

	token := client.Connect()
	go func() {
		token.Wait()
		err := token.Error()
		if err == nil {
			// Success is reported by the OnConnect handler.
			return
		}
		if client.IsConnectionOpen() {
			return
		}

		code := classifyError(err)
		if ct, ok := token.(*pahomqtt.ConnectToken); ok {
			code = classifyConnect(ct.ReturnCode(), err)
		}
		h.OnConnect(code, err)
	}()

	return nil
}

// Reconnect starts a connect on the existing client. While paho is already
// reconnecting on its own this is a no-op.
func (s *PahoSession) Reconnect() error {
	return s.Connect()
}

// Publish sends a message and waits up to the publish timeout.
func (s *PahoSession) Publish(topic string, qos byte, retained bool, payload []byte) ResultCode {
	client, _, err := s.started()
	if err != nil {
		return CodeNoConnection
	}

	token := client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(s.cfg.PublishTimeout) {
		return CodeTimeout
	}
	return classifyError(token.Error())
}

// Subscribe registers callback on topic and waits for the broker's SUBACK.
func (s *PahoSession) Subscribe(topic string, qos byte, callback func(topic string, payload []byte)) error {
	client, _, err := s.started()
	if err != nil {
		return err
	}

	token := client.Subscribe(topic, qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		callback(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(s.cfg.PublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, s.cfg.PublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// Stop disconnects with a quiesce period and reports a clean disconnect.
func (s *PahoSession) Stop() {
	s.stopOnce.Do(func() {
		client, h, err := s.started()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		client.Disconnect(defaultDisconnectQuiesce)
		h.OnDisconnect(CodeSuccess, nil)
	})
}

// IsConnected reports paho's view of the connection.
func (s *PahoSession) IsConnected() bool {
	client, _, err := s.started()
	if err != nil {
		return false
	}
	return client.IsConnected()
}

func (s *PahoSession) started() (pahomqtt.Client, Handlers, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, Handlers{}, ErrSessionNotStarted
	}
	if s.stopped {
		return nil, Handlers{}, ErrSessionClosed
	}
	return s.client, s.handlers, nil
}
