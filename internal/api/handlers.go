package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/doortwin/internal/twin"
)

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status         string `json:"status"`
	MQTTConnected  bool   `json:"mqtt_connected"`
	MQTTLastRC     *int   `json:"mqtt_last_rc"`
	MQTTLastReason string `json:"mqtt_last_reason"`
	Topic          string `json:"topic"`
}

// stateResponse is the body of GET /api/state and the payload of "state"
// WebSocket events.
type stateResponse struct {
	OK            bool    `json:"ok"`
	State         string  `json:"state"`
	UpdatedAt     *string `json:"updated_at"`
	MQTTConnected bool    `json:"mqtt_connected"`
	Topic         string  `json:"topic"`
}

// publishedResponse is the body of a successful lock or unlock.
type publishedResponse struct {
	OK        bool      `json:"ok"`
	Published published `json:"published"`
}

type published struct {
	Topic string `json:"topic"`
	State string `json:"state"`
}

// handleHealth reports broker connectivity and the last connect outcome.
// mqtt_last_rc is null until the first outcome is known.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()

	resp := healthResponse{
		Status:         "ok",
		MQTTConnected:  snap.Connected,
		MQTTLastReason: snap.LastReason,
		Topic:          s.service.Topic(),
	}
	if snap.LastResultCode != nil {
		rc := int(*snap.LastResultCode)
		resp.MQTTLastRC = &rc
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLock(w http.ResponseWriter, _ *http.Request) {
	s.actuate(w, twin.ValueLock)
}

func (s *Server) handleUnlock(w http.ResponseWriter, _ *http.Request) {
	s.actuate(w, twin.ValueUnlock)
}

// actuate publishes value and maps the result onto the response.
func (s *Server) actuate(w http.ResponseWriter, value string) {
	result, err := s.service.Actuate(value)
	switch {
	case errors.Is(err, twin.ErrInvalidValue):
		writeActuationError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("actuation failed", "value", value, "error", err)
		writeActuationError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	if !result.OK() {
		writeActuationError(w, http.StatusBadGateway, result.Code.String())
		return
	}

	writeJSON(w, http.StatusOK, publishedResponse{
		OK:        true,
		Published: published{Topic: result.Topic, State: result.Value},
	})
}

// handleState returns the current door value.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stateResponse(s.state.Snapshot()))
}

func (s *Server) stateResponse(snap twin.Snapshot) stateResponse {
	resp := stateResponse{
		OK:            true,
		State:         snap.Value,
		MQTTConnected: snap.Connected,
		Topic:         s.service.Topic(),
	}
	if snap.UpdatedAt != nil {
		at := snap.UpdatedAt.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &at
	}
	return resp
}
