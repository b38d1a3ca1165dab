package twin

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/doortwin/internal/infrastructure/mqtt"
)

// Publisher sends a door value to the broker.
// Satisfied by *mqtt.Manager.
type Publisher interface {
	Publish(value string) mqtt.ResultCode
	Topic() string
}

var _ Publisher = (*mqtt.Manager)(nil)

// ActuationRecorder receives every actuation outcome, accepted or not.
type ActuationRecorder interface {
	WriteActuation(value string, code mqtt.ResultCode, at time.Time)
}

// Recorders fans one actuation outcome out to several recorders.
type Recorders []ActuationRecorder

// WriteActuation calls every non-nil recorder in order.
func (rs Recorders) WriteActuation(value string, code mqtt.ResultCode, at time.Time) {
	for _, r := range rs {
		if r != nil {
			r.WriteActuation(value, code, at)
		}
	}
}

// Logger interface for optional logging support.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Result is the outcome of an actuation.
type Result struct {
	Topic string
	Value string
	Code  mqtt.ResultCode
}

// OK reports whether the broker accepted the publish.
func (r Result) OK() bool {
	return r.Code.OK()
}

// Service turns lock and unlock intents into publishes and keeps State's
// door value in step with what the broker accepted.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Concurrent actuations are
//     not ordered relative to each other.
type Service struct {
	state     *State
	publisher Publisher

	mu       sync.RWMutex
	recorder ActuationRecorder
	logger   Logger
	now      func() time.Time
}

// NewService creates a Service publishing through publisher.
func NewService(state *State, publisher Publisher) *Service {
	return &Service{
		state:     state,
		publisher: publisher,
		logger:    noopLogger{},
		now:       time.Now,
	}
}

// SetLogger sets the logger.
func (s *Service) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

// SetActuationRecorder sets an optional sink for actuation outcomes.
func (s *Service) SetActuationRecorder(recorder ActuationRecorder) {
	s.mu.Lock()
	s.recorder = recorder
	s.mu.Unlock()
}

// State returns the state the service writes to.
func (s *Service) State() *State {
	return s.state
}

// Topic returns the broker topic actuations are published on.
func (s *Service) Topic() string {
	if s.publisher == nil {
		return ""
	}
	return s.publisher.Topic()
}

// Lock publishes "lock".
func (s *Service) Lock() (Result, error) {
	return s.Actuate(ValueLock)
}

// Unlock publishes "unlock".
func (s *Service) Unlock() (Result, error) {
	return s.Actuate(ValueUnlock)
}

// Actuate publishes value and, only if the broker accepted it, records it
// as the current door value with the current time.
//
// Parameters:
//   - value: "lock" or "unlock" (case-insensitive)
//
// Returns:
//   - Result: Topic, normalised value and publish result code
//   - error: ErrInvalidValue or ErrNoPublisher; broker failures are
//     reported in Result.Code, not as errors
func (s *Service) Actuate(value string) (Result, error) {
	value, err := ParseValue(value)
	if err != nil {
		return Result{}, err
	}
	if s.publisher == nil {
		return Result{}, ErrNoPublisher
	}

	code := s.publisher.Publish(value)
	at := s.now()
	result := Result{Topic: s.publisher.Topic(), Value: value, Code: code}

	s.mu.RLock()
	recorder := s.recorder
	logger := s.logger
	s.mu.RUnlock()

	if recorder != nil {
		recorder.WriteActuation(value, code, at)
	}

	if !code.OK() {
		logger.Warn("actuation not accepted",
			"value", value,
			"code", int(code),
			"reason", code.String(),
		)
		return result, nil
	}

	s.state.RecordValue(value, at)
	logger.Info("actuation accepted", "value", value, "topic", result.Topic)
	return result, nil
}

// ParseValue normalises a door value. Only lock and unlock are accepted.
func ParseValue(value string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case ValueLock, ValueUnlock:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}
