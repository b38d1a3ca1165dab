// Package can bridges door commands from MQTT onto a CAN bus.
//
// The vehicle-side telematics unit subscribes to the door topic and turns
// each "lock" or "unlock" payload into a single-byte classic CAN frame:
//
//	lock   -> ID 0x200, data [0x30]
//	unlock -> ID 0x200, data [0x31]
//
// Payloads are trimmed and matched case-insensitively. Anything else is
// logged as a warning and dropped.
//
// Frames are written to a raw SocketCAN socket (Linux only). On other
// platforms OpenSocket returns ErrUnsupported.
package can
