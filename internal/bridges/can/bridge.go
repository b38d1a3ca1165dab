package can

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/doortwin/internal/infrastructure/mqtt"
)

// Subscriber registers a handler for a topic. Satisfied by *mqtt.Manager,
// which restores the subscription after every reconnect.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

var _ Subscriber = (*mqtt.Manager)(nil)

// FrameWriter puts a frame on the bus. Satisfied by *Socket.
type FrameWriter interface {
	WriteFrame(f Frame) error
}

// Logger interface for optional logging support.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Stats counts messages handled by the bridge.
type Stats struct {
	Sent    uint64
	Failed  uint64
	Unknown uint64
}

// Bridge translates door payloads received over MQTT into CAN frames.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	subscriber Subscriber
	writer     FrameWriter
	topic      string
	qos        byte

	sent    atomic.Uint64
	failed  atomic.Uint64
	unknown atomic.Uint64

	logger   Logger
	loggerMu sync.RWMutex
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	Topic      string
	QoS        byte
	Subscriber Subscriber
	Writer     FrameWriter
}

// NewBridge creates a bridge. It does not subscribe until Start.
//
// Returns:
//   - error: If the subscriber or writer is missing, or the topic is invalid
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.Subscriber == nil {
		return nil, errors.New("can: subscriber is required")
	}
	if opts.Writer == nil {
		return nil, errors.New("can: frame writer is required")
	}
	if err := mqtt.ValidateTopic(opts.Topic); err != nil {
		return nil, err
	}

	return &Bridge{
		subscriber: opts.Subscriber,
		writer:     opts.Writer,
		topic:      opts.Topic,
		qos:        opts.QoS,
		logger:     noopLogger{},
	}, nil
}

// SetLogger sets the logger.
func (b *Bridge) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

// Start subscribes to the door topic.
func (b *Bridge) Start() error {
	if err := b.subscriber.Subscribe(b.topic, b.qos, b.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.topic, err)
	}
	b.getLogger().Info("CAN bridge subscribed", "topic", b.topic)
	return nil
}

// HandleMessage converts one payload into a frame and writes it.
// Unknown payloads are logged and dropped without error.
func (b *Bridge) HandleMessage(topic string, payload []byte) error {
	logger := b.getLogger()
	value := strings.TrimSpace(string(payload))
	logger.Info("door command received", "topic", topic, "payload", value)

	frame, err := ParseCommand(payload)
	if err != nil {
		b.unknown.Add(1)
		logger.Warn("unknown door payload", "topic", topic, "payload", value)
		return nil
	}

	if err := b.writer.WriteFrame(frame); err != nil {
		b.failed.Add(1)
		logger.Error("CAN write failed", "frame", frame.String(), "error", err)
		return err
	}

	b.sent.Add(1)
	logger.Info("CAN frame sent", "frame", frame.String(), "command", strings.ToLower(value))
	return nil
}

// Stats returns a snapshot of the message counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Sent:    b.sent.Load(),
		Failed:  b.failed.Load(),
		Unknown: b.unknown.Load(),
	}
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
