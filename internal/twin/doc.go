// Package twin holds the digital twin of the door: the live broker
// connection state and the last actuation that the broker accepted.
//
// State is written from two sides. The MQTT lifecycle callbacks record
// connection outcomes through RecordConnection, and Service records the
// door value after a successful publish. HTTP handlers and the websocket
// hub only read it, through Snapshot.
//
// The door value reflects what was published, not what the vehicle did.
// Nothing confirms the TCU acted on it.
package twin
