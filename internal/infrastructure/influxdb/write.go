package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/doortwin/internal/infrastructure/mqtt"
)

// Measurement names.
const (
	MeasurementActuation  = "door_actuation"
	MeasurementConnection = "broker_connection"
)

// WriteActuation records a lock/unlock attempt and its publish result.
//
// Tags: client_id, value. Fields: code, accepted.
// The write is non-blocking; points are batched and sent asynchronously.
func (c *Client) WriteActuation(value string, code mqtt.ResultCode, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementActuation,
		map[string]string{
			"client_id": c.clientID,
			"value":     value,
		},
		map[string]interface{}{
			"code":     int64(code),
			"accepted": code.OK(),
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteConnection records a broker connection transition.
//
// Tags: client_id. Fields: connected, code, reason.
func (c *Client) WriteConnection(connected bool, code mqtt.ResultCode, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementConnection,
		map[string]string{
			"client_id": c.clientID,
		},
		map[string]interface{}{
			"connected": connected,
			"code":      int64(code),
			"reason":    code.String(),
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}
