package settings

import (
	"testing"

	"go.viam.com/test"

	"github.com/tailless/flightmix/mixer"
)

func TestDefault(t *testing.T) {
	s := Default()
	test.That(t, s.Mixer, test.ShouldEqual, "TWINWING")
	test.That(t, s.MotorMix, test.ShouldBeEmpty)
	test.That(t, s.ServoMix, test.ShouldBeEmpty)
	test.That(t, s.Validate(), test.ShouldBeNil)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		mut  func(*Settings)
		err  string
	}{
		{"missing tag", func(s *Settings) { s.Mixer = "" }, "mixer tag required"},
		{
			"weight too large",
			func(s *Settings) { s.MotorMix = []MotorMix{{Throttle: 1001}} },
			"mmix 0: throttle weight 1001 out of range",
		},
		{
			"weight too small",
			func(s *Settings) { s.MotorMix = []MotorMix{{Yaw: -1200}} },
			"mmix 0: yaw weight -1200 out of range",
		},
		{
			"bad servo address",
			func(s *Settings) { s.ServoMix = []ServoMix{{Servo: 16, Min: -100, Max: 100}} },
			"smix 0: servo address 16 out of range",
		},
		{
			"bad selector",
			func(s *Settings) { s.ServoMix = []ServoMix{{Servo: 3, Source: 4, Min: -100, Max: 100}} },
			"smix 0: unknown input selector 4",
		},
		{
			"bad rate",
			func(s *Settings) { s.ServoMix = []ServoMix{{Servo: 3, Rate: 150, Min: -100, Max: 100}} },
			"smix 0: rate 150 out of range",
		},
		{
			"min above max",
			func(s *Settings) { s.ServoMix = []ServoMix{{Servo: 3, Min: 50, Max: -50}} },
			"smix 0: min 50 greater than max -50",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := Default()
			tc.mut(s)
			err := s.Validate()
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}
}

func TestValidateReportsEverything(t *testing.T) {
	s := &Settings{
		MotorMix: []MotorMix{{Throttle: 2000}},
		ServoMix: []ServoMix{{Servo: -1}},
	}
	err := s.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "mixer tag required")
	test.That(t, err.Error(), test.ShouldContainSubstring, "throttle weight 2000")
	test.That(t, err.Error(), test.ShouldContainSubstring, "servo address -1")
}

func TestSetMotorMixGrowsTable(t *testing.T) {
	s := Default()
	test.That(t, s.SetMotorMix(2, MotorMix{Throttle: 1000}), test.ShouldBeNil)
	test.That(t, s.MotorMix, test.ShouldHaveLength, 3)
	test.That(t, s.MotorMix[0], test.ShouldResemble, MotorMix{})
	test.That(t, s.MotorMix[2].Throttle, test.ShouldEqual, int16(1000))

	test.That(t, s.SetMotorMix(mixer.MaxMotors, MotorMix{}), test.ShouldNotBeNil)
	test.That(t, s.SetMotorMix(-1, MotorMix{}), test.ShouldNotBeNil)

	s.ResetMotorMix()
	test.That(t, s.MotorMix, test.ShouldBeEmpty)
}

func TestSetServoMixGrowsTable(t *testing.T) {
	s := Default()
	test.That(t, s.SetServoMix(1, ServoMix{Servo: 4, Source: 1, Rate: 50, Min: -100, Max: 100}), test.ShouldBeNil)
	test.That(t, s.ServoMix, test.ShouldHaveLength, 2)
	// Filler rows must still validate.
	test.That(t, s.Validate(), test.ShouldBeNil)

	test.That(t, s.SetServoMix(-1, ServoMix{}), test.ShouldNotBeNil)

	s.ResetServoMix()
	test.That(t, s.ServoMix, test.ShouldBeEmpty)
}

func TestSelectorChannel(t *testing.T) {
	for sel, want := range map[int]mixer.InputChannel{
		0: mixer.StabilizedRoll,
		1: mixer.StabilizedPitch,
		2: mixer.StabilizedYaw,
		3: mixer.StabilizedThrottle,
	} {
		ch, ok := SelectorChannel(sel)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, ch, test.ShouldEqual, want)
	}
	_, ok := SelectorChannel(4)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = SelectorChannel(-1)
	test.That(t, ok, test.ShouldBeFalse)
}
