// Package api implements the HTTP control surface and WebSocket state push
// for the door twin.
//
// This package provides:
//   - GET / and /assets/*: the embedded control page
//   - GET /health: broker connectivity and last connect outcome
//   - POST /api/lock and POST /api/unlock: publish a door value
//   - GET /api/state: current door value and last update time
//   - GET /api/ws: WebSocket pushing "state" events on every change
//   - GET /metrics: Prometheus exposition (when metrics are configured)
//   - Middleware stack (request ID, logging, recovery, metrics, body limit)
//
// # Architecture
//
// Handlers read from twin.State and actuate through twin.Service. They never
// touch the broker session directly. A failed publish is answered with 502
// and the broker's result message; the stored door value is left untouched.
//
// # Lifecycle
//
//	server, err := api.New(deps)
//	if err := server.Start(ctx); err != nil {
//	    return err
//	}
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
