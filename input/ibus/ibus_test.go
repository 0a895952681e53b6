package ibus

import (
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/tailless/flightmix/input"
	"github.com/tailless/flightmix/mixer"
)

func buildFrame(channels [numChannels]uint16) [frameSize]byte {
	var frame [frameSize]byte
	frame[0] = header1
	frame[1] = header2
	for i, ch := range channels {
		frame[2+2*i] = byte(ch)
		frame[3+2*i] = byte(ch >> 8)
	}
	var sum uint16
	for _, b := range frame[:frameSize-2] {
		sum += uint16(b)
	}
	checksum := 0xFFFF - sum
	frame[frameSize-2] = byte(checksum)
	frame[frameSize-1] = byte(checksum >> 8)
	return frame
}

func neutralChannels() [numChannels]uint16 {
	var channels [numChannels]uint16
	for i := range channels {
		channels[i] = neutralUs
	}
	return channels
}

func newBenchSource(t *testing.T) *Source {
	t.Helper()
	return &Source{
		logger:     golog.NewTestLogger(t),
		rollCh:     aetr[0],
		pitchCh:    aetr[1],
		throttleCh: aetr[2],
		yawCh:      aetr[3],
		snap:       input.Failsafe(),
	}
}

func TestAcceptFrame(t *testing.T) {
	s := newBenchSource(t)

	channels := neutralChannels()
	channels[0] = 2000 // roll hard right
	channels[1] = 1000 // pitch full down
	channels[2] = 1750 // three quarter throttle
	channels[3] = 1500 // yaw centered
	s.acceptFrame(buildFrame(channels))

	snap := s.Snapshot()
	test.That(t, snap.Read(mixer.StabilizedRoll), test.ShouldEqual, int16(1000))
	test.That(t, snap.Read(mixer.StabilizedPitch), test.ShouldEqual, int16(-1000))
	test.That(t, snap.Read(mixer.StabilizedThrottle), test.ShouldEqual, int16(500))
	test.That(t, snap.Read(mixer.StabilizedYaw), test.ShouldEqual, int16(0))
}

func TestAcceptFrameBadChecksum(t *testing.T) {
	s := newBenchSource(t)
	frame := buildFrame(neutralChannels())
	frame[frameSize-1] ^= 0xFF
	s.acceptFrame(frame)
	test.That(t, s.lastFrame.IsZero(), test.ShouldBeTrue)
	test.That(t, s.Snapshot(), test.ShouldResemble, input.Failsafe())
}

func TestSnapshotGoesStale(t *testing.T) {
	s := newBenchSource(t)
	channels := neutralChannels()
	channels[2] = 2000
	s.acceptFrame(buildFrame(channels))
	snap := s.Snapshot()
	test.That(t, snap.Read(mixer.StabilizedThrottle), test.ShouldEqual, int16(1000))

	s.mu.Lock()
	s.lastFrame = time.Now().Add(-2 * staleAfter)
	s.mu.Unlock()
	test.That(t, s.Snapshot(), test.ShouldResemble, input.Failsafe())
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  Config
		err  string
	}{
		{"valid", Config{Port: "/dev/ttyUSB0"}, ""},
		{"remapped", Config{Port: "/dev/ttyUSB0", ChannelMap: []int{3, 2, 1, 0}}, ""},
		{"missing port", Config{}, `"port" is required`},
		{"negative baud", Config{Port: "/dev/ttyUSB0", Baud: -1}, "baud cannot be negative"},
		{"short map", Config{Port: "/dev/ttyUSB0", ChannelMap: []int{0, 1}}, "channel_map must list 4 channels"},
		{"map out of range", Config{Port: "/dev/ttyUSB0", ChannelMap: []int{0, 1, 2, 14}}, "out of range"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate("ibus")
			if tc.err == "" {
				test.That(t, err, test.ShouldBeNil)
			} else {
				test.That(t, err, test.ShouldNotBeNil)
				test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
			}
		})
	}
}
