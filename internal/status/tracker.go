// internal/status/tracker.go
package status

// Tracker owns the status state of one group.
// It is driven by poll outcomes and a 1 Hz tick and reports whether the
// snapshot changed. Not safe for concurrent use; one orchestrator owns it.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown.
func NewTracker(devices int) *Tracker {
	n := uint16(0xFFFF)
	if devices < 0xFFFF {
		n = uint16(devices)
	}
	return &Tracker{snap: Snapshot{Health: HealthUnknown, DeviceCount: n}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Success records a good poll. Recovery resets error code and seconds.
func (t *Tracker) Success() (Snapshot, bool) {
	changed := false

	if t.snap.Health != HealthOK {
		t.snap.Health = HealthOK
		changed = true
	}
	if t.snap.LastErrorCode != 0 {
		t.snap.LastErrorCode = 0
		changed = true
	}
	if t.snap.SecondsInError != 0 {
		t.snap.SecondsInError = 0
		changed = true
	}

	return t.snap, changed
}

// Failure records a failed poll with its raw code.
// seconds_in_error only advances on Tick.
func (t *Tracker) Failure(code uint16) (Snapshot, bool) {
	changed := false

	if t.snap.Health != HealthError {
		t.snap.Health = HealthError
		changed = true
	}
	if t.snap.LastErrorCode != code {
		t.snap.LastErrorCode = code
		changed = true
	}
	return t.snap, changed
}

// Tick advances seconds_in_error while not OK. It saturates, never wraps.
func (t *Tracker) Tick() (Snapshot, bool) {
	if t.snap.Health == HealthOK || t.snap.SecondsInError >= MaxSecondsInError {
		return t.snap, false
	}
	t.snap.SecondsInError++
	return t.snap, true
}
