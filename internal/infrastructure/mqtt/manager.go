package mqtt

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/doortwin/internal/infrastructure/config"
)

// StateRecorder receives connection outcomes and answers whether the
// session is currently live.
type StateRecorder interface {
	RecordConnection(connected bool, code ResultCode)
	Connected() bool
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives connection and publish counters.
type Metrics interface {
	ConnectAttempt()
	ReconnectAttempt()
	ConnectionState(connected bool)
	PublishResult(code ResultCode)
}

// Options configures a Manager.
type Options struct {
	// Broker is host:port, used in log fields.
	Broker string

	Topic  string
	QoS    byte
	Retain bool

	Credentials Credentials

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// ConnectWait bounds how long one attempt waits for its outcome.
	ConnectWait time.Duration
}

// OptionsFromConfig builds Manager options from configuration.
func OptionsFromConfig(cfg config.MQTTConfig) Options {
	return Options{
		Broker:         net.JoinHostPort(cfg.Broker.Host, strconv.Itoa(cfg.Broker.Port)),
		Topic:          cfg.Topic,
		QoS:            byte(cfg.QoS), //nolint:gosec // validated 0..2
		Retain:         cfg.Retain,
		Credentials:    CredentialsFromConfig(cfg.TLS),
		InitialBackoff: time.Duration(cfg.Reconnect.InitialDelay) * time.Second,
		MaxBackoff:     time.Duration(cfg.Reconnect.MaxDelay) * time.Second,
		ConnectWait:    defaultConnectWait,
	}
}

func (o Options) withDefaults() Options {
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = defaultMaxReconnectInterval
	}
	if o.ConnectWait <= 0 {
		o.ConnectWait = defaultConnectWait
	}
	return o
}

// Manager owns the broker session lifecycle: startup connect with retry,
// lifecycle callbacks, best-effort publishing and tracked subscriptions.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscriptions are automatically restored on reconnection.
type Manager struct {
	opts    Options
	session Session
	state   StateRecorder

	// attempt is the connect attempt currently awaiting an outcome.
	attempt   *connectAttempt
	attemptMu sync.Mutex

	// subscriptions tracks active subscriptions for re-subscription on reconnect.
	subscriptions map[string]subscription
	subMu         sync.RWMutex

	logger   Logger
	metrics  Metrics
	hooksMu  sync.RWMutex
	sleep    func(ctx context.Context, d time.Duration) error
	closeOne sync.Once

	// outcomeSeen is set once the broker has answered a connect attempt.
	outcomeSeen atomic.Bool
}

// NewManager creates a Manager around session. Connection outcomes are
// written to state.
func NewManager(opts Options, session Session, state StateRecorder) *Manager {
	return &Manager{
		opts:          opts.withDefaults(),
		session:       session,
		state:         state,
		subscriptions: make(map[string]subscription),
		logger:        noopLogger{},
		metrics:       noopMetrics{},
		sleep:         sleepContext,
	}
}

// SetLogger sets the logger. A nil logger disables logging.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.hooksMu.Lock()
	m.logger = logger
	m.hooksMu.Unlock()
}

// SetMetrics sets the metrics sink. A nil sink disables metrics.
func (m *Manager) SetMetrics(metrics Metrics) {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	m.hooksMu.Lock()
	m.metrics = metrics
	m.hooksMu.Unlock()
}

// Topic returns the configured publish topic.
func (m *Manager) Topic() string {
	return m.opts.Topic
}

// Broker returns the broker address.
func (m *Manager) Broker() string {
	return m.opts.Broker
}

// ConnectWithRetry starts the session and blocks until the broker accepts it.
//
// It performs the following:
//  1. Builds the mutual TLS configuration (missing files fail here, before
//     any session activity)
//  2. Starts the session with the lifecycle handlers installed
//  3. Attempts a connect and waits up to ConnectWait for its outcome
//  4. If still disconnected, sleeps the current backoff and retries
//
// Backoff starts at InitialBackoff and doubles up to MaxBackoff. Attempts
// continue until connected.
//
// Parameters:
//   - ctx: Cancels the retry loop (shutdown during startup)
//
// Returns:
//   - error: nil once connected; ErrMissingCredentials, ErrInvalidCredentials,
//     ErrConnectionFailed or ctx.Err() otherwise
func (m *Manager) ConnectWithRetry(ctx context.Context) error {
	tlsConfig, err := m.opts.Credentials.TLSConfig()
	if err != nil {
		return err
	}
	if m.opts.Credentials.Insecure {
		m.getLogger().Warn("TLS hostname verification disabled; do not use outside a lab",
			"broker", m.opts.Broker,
		)
	}

	handlers := Handlers{
		OnConnect:    m.handleConnect,
		OnDisconnect: m.handleDisconnect,
	}
	if err := m.session.Start(tlsConfig, handlers); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	backoff := NewBackoff(m.opts.InitialBackoff, m.opts.MaxBackoff)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.getMetrics().ConnectAttempt()
		pending := m.beginAttempt()

		m.getLogger().Info("connecting to broker",
			"broker", m.opts.Broker,
			"attempt", attempt,
		)
		if err := m.session.Connect(); err != nil {
			m.getLogger().Error("connect attempt failed",
				"broker", m.opts.Broker,
				"attempt", attempt,
				"error", err,
			)
		} else if err := pending.wait(ctx, m.opts.ConnectWait); err != nil {
			return err
		}

		if m.state.Connected() {
			return nil
		}

		delay := backoff.Next()
		m.getLogger().Warn("broker not connected, retrying",
			"broker", m.opts.Broker,
			"attempt", attempt,
			"delay", delay,
		)
		if err := m.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// HealthCheck verifies the broker session is live.
//
// Returns:
//   - error: nil if healthy, ErrNotConnected or the context error otherwise
func (m *Manager) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !m.state.Connected() {
		return ErrNotConnected
	}
	return nil
}

// Close stops the session. Safe to call more than once. The state keeps
// no result code if no connect attempt ever completed.
func (m *Manager) Close() {
	m.closeOne.Do(func() {
		m.session.Stop()
		if m.outcomeSeen.Load() {
			m.state.RecordConnection(false, CodeSuccess)
		}
		m.getMetrics().ConnectionState(false)
	})
}

// handleConnect is called with the outcome of every connect attempt,
// including paho's own reconnects.
func (m *Manager) handleConnect(code ResultCode, err error) {
	m.outcomeSeen.Store(true)
	m.state.RecordConnection(code.OK(), code)
	m.getMetrics().ConnectionState(code.OK())

	if code.OK() {
		m.getLogger().Info("connected to broker", "broker", m.opts.Broker)
	} else {
		m.getLogger().Error("connect failed",
			"broker", m.opts.Broker,
			"code", int(code),
			"reason", code.String(),
			"error", err,
		)
	}

	m.resolveAttempt(code)

	if code.OK() {
		m.restoreSubscriptions()
	}
}

// handleDisconnect is called when the session ends. It never reconnects.
func (m *Manager) handleDisconnect(code ResultCode, err error) {
	if code.OK() && !m.outcomeSeen.Load() {
		// Stopped before any attempt completed.
		m.resolveAttempt(code)
		return
	}
	m.outcomeSeen.Store(true)
	m.state.RecordConnection(false, code)
	m.getMetrics().ConnectionState(false)

	if code.OK() {
		m.getLogger().Info("disconnected from broker", "broker", m.opts.Broker)
	} else {
		m.getLogger().Error("unexpected disconnect",
			"broker", m.opts.Broker,
			"code", int(code),
			"reason", code.String(),
			"error", err,
		)
	}

	m.resolveAttempt(code)
}

// connectAttempt is resolved once by the first lifecycle callback after
// a connect is issued.
type connectAttempt struct {
	done chan struct{}
	once sync.Once
	code ResultCode
}

func (a *connectAttempt) resolve(code ResultCode) {
	a.once.Do(func() {
		a.code = code
		close(a.done)
	})
}

// wait blocks until the attempt resolves, the timeout expires or ctx ends.
// Only context cancellation is returned as an error.
func (a *connectAttempt) wait(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-a.done:
		return nil
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) beginAttempt() *connectAttempt {
	a := &connectAttempt{done: make(chan struct{})}
	m.attemptMu.Lock()
	m.attempt = a
	m.attemptMu.Unlock()
	return a
}

func (m *Manager) resolveAttempt(code ResultCode) {
	m.attemptMu.Lock()
	a := m.attempt
	m.attempt = nil
	m.attemptMu.Unlock()

	if a != nil {
		a.resolve(code)
	}
}

func (m *Manager) getLogger() Logger {
	m.hooksMu.RLock()
	defer m.hooksMu.RUnlock()
	return m.logger
}

func (m *Manager) getMetrics() Metrics {
	m.hooksMu.RLock()
	defer m.hooksMu.RUnlock()
	return m.metrics
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) ConnectAttempt()          {}
func (noopMetrics) ReconnectAttempt()        {}
func (noopMetrics) ConnectionState(bool)     {}
func (noopMetrics) PublishResult(ResultCode) {}
