package mavlink

import (
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/tailless/flightmix/input"
	"github.com/tailless/flightmix/mixer"
)

func newBenchSource(t *testing.T) *Source {
	t.Helper()
	return &Source{logger: golog.NewTestLogger(t), snap: input.Failsafe()}
}

func TestManualControl(t *testing.T) {
	s := newBenchSource(t)
	s.handleMessage(&common.MessageManualControl{X: 200, Y: -300, Z: 1000, R: 400})
	snap := s.Snapshot()
	test.That(t, snap.Read(mixer.StabilizedPitch), test.ShouldEqual, int16(200))
	test.That(t, snap.Read(mixer.StabilizedRoll), test.ShouldEqual, int16(-300))
	test.That(t, snap.Read(mixer.StabilizedThrottle), test.ShouldEqual, int16(1000))
	test.That(t, snap.Read(mixer.StabilizedYaw), test.ShouldEqual, int16(400))

	s.handleMessage(&common.MessageManualControl{Z: 500})
	snap = s.Snapshot()
	test.That(t, snap.Read(mixer.StabilizedThrottle), test.ShouldEqual, int16(0))
}

func TestRcChannelsOverride(t *testing.T) {
	s := newBenchSource(t)
	s.handleMessage(&common.MessageRcChannelsOverride{
		Chan1Raw: 2000,
		Chan2Raw: 1000,
		Chan3Raw: 1750,
		Chan4Raw: 0, // released channel maps to neutral
	})
	snap := s.Snapshot()
	test.That(t, snap.Read(mixer.StabilizedRoll), test.ShouldEqual, int16(1000))
	test.That(t, snap.Read(mixer.StabilizedPitch), test.ShouldEqual, int16(-1000))
	test.That(t, snap.Read(mixer.StabilizedThrottle), test.ShouldEqual, int16(500))
	test.That(t, snap.Read(mixer.StabilizedYaw), test.ShouldEqual, int16(0))
}

func TestIgnoresUnrelatedMessages(t *testing.T) {
	s := newBenchSource(t)
	s.handleMessage(&common.MessageHeartbeat{})
	test.That(t, s.lastSeen.IsZero(), test.ShouldBeTrue)
	test.That(t, s.Snapshot(), test.ShouldResemble, input.Failsafe())
}

func TestSnapshotGoesStale(t *testing.T) {
	s := newBenchSource(t)
	s.handleMessage(&common.MessageManualControl{Z: 1000})
	snap := s.Snapshot()
	test.That(t, snap.Read(mixer.StabilizedThrottle), test.ShouldEqual, int16(1000))

	s.mu.Lock()
	s.lastSeen = time.Now().Add(-2 * staleAfter)
	s.mu.Unlock()
	test.That(t, s.Snapshot(), test.ShouldResemble, input.Failsafe())
}
