// Package input defines how stabilized flight commands reach the mixer. A
// Source owns a receiver or telemetry link and publishes coherent snapshots
// of the stabilized channels; the control loop takes one snapshot per cycle
// so every rule in that cycle sees the same values.
package input

import (
	"sync"

	"github.com/tailless/flightmix/mixer"
)

// A Snapshot is one coherent set of stabilized inputs in the canonical
// [-1000, +1000] range, indexed by channel. It implements mixer.Reader.
type Snapshot [mixer.NumInputChannels]int16

// Read returns the snapshot's value for a channel.
func (s *Snapshot) Read(ch mixer.InputChannel) int16 {
	if int(ch) >= len(s) {
		return 0
	}
	return s[ch]
}

// Set stores a value for a channel, saturating it to the canonical range.
func (s *Snapshot) Set(ch mixer.InputChannel, v int32) {
	if int(ch) >= len(s) {
		return
	}
	s[ch] = Clamp(v)
}

// Clamp saturates a value to the canonical input range.
func Clamp(v int32) int16 {
	if v < -mixer.FullScale {
		return -mixer.FullScale
	}
	if v > mixer.FullScale {
		return mixer.FullScale
	}
	return int16(v)
}

// Failsafe is the snapshot a source should publish when its link is lost:
// throttle at the bottom of the range, every attitude command neutral.
func Failsafe() Snapshot {
	var s Snapshot
	s[mixer.StabilizedThrottle] = -mixer.FullScale
	return s
}

// A Source publishes the most recent coherent snapshot of stabilized inputs.
type Source interface {
	Snapshot() Snapshot
	Close() error
}

// Static is a Source that returns whatever snapshot was last stored in it,
// for bench rigs and tests.
type Static struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewStatic returns a Static source primed with the given snapshot.
func NewStatic(snap Snapshot) *Static {
	return &Static{snap: snap}
}

// Store replaces the published snapshot.
func (s *Static) Store(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// Snapshot returns the stored snapshot.
func (s *Static) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Close is a no-op.
func (s *Static) Close() error { return nil }
