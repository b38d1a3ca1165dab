package mqtt

import (
	"fmt"
	"strings"
)

// subscription holds subscription details for re-subscription on reconnect.
type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked in separate goroutines by the paho library.
// They should not block for extended periods.
//
// Returns:
//   - error: Logged but does not affect message acknowledgment
type MessageHandler func(topic string, payload []byte) error

// Subscribe registers a handler for messages on the specified topic.
//
// Topics can include MQTT wildcards (+ and #). The subscription is tracked
// and restored after every successful connect, so it may be registered
// before ConnectWithRetry returns.
//
// Parameters:
//   - topic: The topic filter to subscribe to
//   - qos: Maximum QoS level for received messages (0, 1, or 2)
//   - handler: Callback function invoked for each message
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (m *Manager) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if err := validateFilter(topic); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	m.subMu.Lock()
	m.subscriptions[topic] = subscription{topic: topic, qos: qos, handler: handler}
	m.subMu.Unlock()

	if !m.state.Connected() {
		return nil
	}

	if err := m.session.Subscribe(topic, qos, m.wrapHandler(handler)); err != nil {
		m.subMu.Lock()
		delete(m.subscriptions, topic)
		m.subMu.Unlock()
		return err
	}
	return nil
}

// SubscriptionCount returns the number of tracked subscriptions.
func (m *Manager) SubscriptionCount() int {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	return len(m.subscriptions)
}

// HasSubscription checks if a subscription exists for the given topic.
//
// Note: This checks only the exact topic string, not pattern matching.
func (m *Manager) HasSubscription(topic string) bool {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	_, exists := m.subscriptions[topic]
	return exists
}

// restoreSubscriptions re-subscribes to all tracked topics after a connect.
func (m *Manager) restoreSubscriptions() {
	m.subMu.RLock()
	subs := make([]subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.subMu.RUnlock()

	for _, sub := range subs {
		if err := m.session.Subscribe(sub.topic, sub.qos, m.wrapHandler(sub.handler)); err != nil {
			m.getLogger().Warn("restoring subscription failed",
				"topic", sub.topic,
				"error", err,
			)
		}
	}
}

// wrapHandler wraps a MessageHandler with panic recovery and logging.
func (m *Manager) wrapHandler(handler MessageHandler) func(topic string, payload []byte) {
	return func(topic string, payload []byte) {
		defer func() {
			if r := recover(); r != nil {
				m.getLogger().Error("MQTT handler panic recovered",
					"topic", topic,
					"panic", r,
				)
			}
		}()

		if err := handler(topic, payload); err != nil {
			m.getLogger().Warn("MQTT handler returned error",
				"topic", topic,
				"error", err,
			)
		}
	}
}

// ValidateTopic checks a publish topic: non-empty and free of wildcards.
func ValidateTopic(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcards not allowed in %q", ErrInvalidTopic, topic)
	}
	return nil
}

// validateFilter checks a subscription filter. "#" is only valid as the
// last level and "+" must fill a whole level.
func validateFilter(filter string) error {
	if filter == "" {
		return ErrInvalidTopic
	}

	levels := strings.Split(filter, "/")
	for i, level := range levels {
		switch {
		case strings.Contains(level, "#") && (level != "#" || i != len(levels)-1):
			return fmt.Errorf("%w: misplaced # in %q", ErrInvalidTopic, filter)
		case strings.Contains(level, "+") && level != "+":
			return fmt.Errorf("%w: misplaced + in %q", ErrInvalidTopic, filter)
		}
	}
	return nil
}
