// Package influxdb records door twin events in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. The sink is
// optional and disabled by default; when enabled it writes two
// measurements:
//   - door_actuation: every lock/unlock attempt with its publish result
//   - broker_connection: every change of the broker connection state
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, cfg.MQTT.Broker.ClientID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteActuation("lock", mqtt.CodeSuccess, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered to the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
