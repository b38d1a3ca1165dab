package mqtt

// Publish sends value on the configured topic with the configured QoS and
// retain flag.
//
// If the session is known to be down, exactly one non-blocking reconnect
// is requested first. Its error is logged and otherwise ignored, and the
// publish is attempted regardless. Broker failures are reported only
// through the returned code.
//
// Returns:
//   - ResultCode: CodeSuccess, or the client library's failure code
//     (CodeNoConnection while disconnected, CodeTimeout if the library did
//     not finish within the publish timeout)
//
// Example:
//
//	if code := manager.Publish("lock"); !code.OK() {
//	    log.Printf("publish failed: %s", code)
//	}
func (m *Manager) Publish(value string) ResultCode {
	if !m.state.Connected() {
		m.getMetrics().ReconnectAttempt()
		if err := m.session.Reconnect(); err != nil {
			m.getLogger().Warn("reconnect before publish failed",
				"broker", m.opts.Broker,
				"error", err,
			)
		}
	}

	code := m.session.Publish(m.opts.Topic, m.opts.QoS, m.opts.Retain, []byte(value))
	m.getMetrics().PublishResult(code)

	if code.OK() {
		m.getLogger().Info("published",
			"topic", m.opts.Topic,
			"value", value,
			"qos", m.opts.QoS,
			"retain", m.opts.Retain,
		)
	} else {
		m.getLogger().Error("publish failed",
			"topic", m.opts.Topic,
			"value", value,
			"code", int(code),
			"reason", code.String(),
		)
	}

	return code
}
