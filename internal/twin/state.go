package twin

import (
	"sync"
	"time"

	"github.com/nerrad567/doortwin/internal/infrastructure/mqtt"
)

// Door values.
const (
	ValueLock    = "lock"
	ValueUnlock  = "unlock"
	ValueUnknown = "unknown"
)

var _ mqtt.StateRecorder = (*State)(nil)

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	Connected bool

	// LastResultCode is nil until the first connect outcome.
	LastResultCode *mqtt.ResultCode
	LastReason     string

	Value string

	// UpdatedAt is nil until the first accepted actuation.
	UpdatedAt *time.Time
}

// State is the process-wide twin state.
//
// Invariant: Connected implies LastResultCode == mqtt.CodeSuccess.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Watchers are called outside the data lock, in the writer's goroutine.
//   - Watchers see snapshots in write order and must not block or write
//     to the State.
type State struct {
	// notifyMu serialises write plus delivery. Lock order: notifyMu, then mu.
	notifyMu sync.Mutex

	mu         sync.RWMutex
	connected  bool
	lastCode   *mqtt.ResultCode
	lastReason string
	value      string
	updatedAt  *time.Time

	watchMu  sync.RWMutex
	watchers []func(Snapshot)
}

// NewState returns a disconnected State with an unknown door value.
func NewState() *State {
	return &State{value: ValueUnknown}
}

// RecordConnection stores a connection outcome. A non-success code never
// marks the state connected.
func (s *State) RecordConnection(connected bool, code mqtt.ResultCode) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.connected = connected && code.OK()
	s.lastCode = &code
	s.lastReason = code.String()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// RecordValue stores an accepted door value and when it was accepted.
func (s *State) RecordValue(value string, at time.Time) {
	at = at.UTC()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.value = value
	s.updatedAt = &at
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Connected reports whether the broker session is live.
func (s *State) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Watch registers fn to receive a snapshot after every change.
func (s *State) Watch(fn func(Snapshot)) {
	s.watchMu.Lock()
	s.watchers = append(s.watchers, fn)
	s.watchMu.Unlock()
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{
		Connected:  s.connected,
		LastReason: s.lastReason,
		Value:      s.value,
	}
	if s.lastCode != nil {
		code := *s.lastCode
		snap.LastResultCode = &code
	}
	if s.updatedAt != nil {
		at := *s.updatedAt
		snap.UpdatedAt = &at
	}
	return snap
}

func (s *State) notify(snap Snapshot) {
	s.watchMu.RLock()
	watchers := s.watchers
	s.watchMu.RUnlock()

	for _, fn := range watchers {
		fn(snap)
	}
}
