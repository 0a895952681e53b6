// Package settings holds the persisted mixer configuration: the selected
// airframe tag, the motor mix rows and the servo mix rows edited through the
// field CLI. Weights are stored in the same ×1000 fixed point the mixer uses
// so the on-disk format and the CLI stay in step.
package settings

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/tailless/flightmix/mixer"
)

// MotorMix is one motor's contribution weights, ×1000 fixed point
// (1000 = +100%). The slot is the row's position in the MotorMix slice.
type MotorMix struct {
	Throttle int16 `json:"throttle"`
	Roll     int16 `json:"roll"`
	Pitch    int16 `json:"pitch"`
	Yaw      int16 `json:"yaw"`
}

// ServoMix is one servo rule as entered through smix. Servo addresses the
// global servo bank; Source is an input selector (0=ROLL, 1=PITCH, 2=YAW,
// 3=THROTTLE); Rate is a percent in [-100, 100]. Speed, Min and Max are
// servo throw parameters persisted for the actuator driver; the mix engine
// does not consume them.
type ServoMix struct {
	Servo  int   `json:"servo"`
	Source int   `json:"source"`
	Rate   int16 `json:"rate"`
	Speed  int16 `json:"speed"`
	Min    int16 `json:"min"`
	Max    int16 `json:"max"`
}

// Settings is the persisted mixer state.
type Settings struct {
	Mixer    string     `json:"mixer"`
	MotorMix []MotorMix `json:"mmix,omitempty"`
	ServoMix []ServoMix `json:"smix,omitempty"`
}

// CustomTag selects the airframe built from the persisted mmix/smix rows.
const CustomTag = "CUSTOM"

// Default returns the settings a fresh board boots with: the compiled-in
// twin wing and empty custom tables.
func Default() *Settings {
	return &Settings{Mixer: "TWINWING"}
}

const (
	weightLimit = mixer.FullScale
	rateLimit   = 100
	// smix servo addresses span a wider bank than one airframe's dense
	// slots; see the airframes package for how addresses are re-based.
	servoBankSize = 2 * mixer.MaxServos
)

// Validate checks every row for range errors. It reports all problems found.
func (s *Settings) Validate() error {
	var err error
	if s.Mixer == "" {
		err = multierr.Append(err, errors.New("mixer tag required"))
	}
	if len(s.MotorMix) > mixer.MaxMotors {
		err = multierr.Append(err, errors.Errorf("%d motor mix rows exceeds limit %d", len(s.MotorMix), mixer.MaxMotors))
	}
	for i, m := range s.MotorMix {
		for _, w := range []struct {
			name string
			v    int16
		}{
			{"throttle", m.Throttle},
			{"roll", m.Roll},
			{"pitch", m.Pitch},
			{"yaw", m.Yaw},
		} {
			if w.v < -weightLimit || w.v > weightLimit {
				err = multierr.Append(err, errors.Errorf("mmix %d: %s weight %d out of range [-%d,%d]",
					i, w.name, w.v, weightLimit, weightLimit))
			}
		}
	}
	if len(s.ServoMix) > mixer.MaxServos*len(inputSelectors) {
		err = multierr.Append(err, errors.Errorf("%d servo mix rows exceeds limit %d",
			len(s.ServoMix), mixer.MaxServos*len(inputSelectors)))
	}
	for i, r := range s.ServoMix {
		if r.Servo < 0 || r.Servo >= servoBankSize {
			err = multierr.Append(err, errors.Errorf("smix %d: servo address %d out of range [0,%d)", i, r.Servo, servoBankSize))
		}
		if _, ok := SelectorChannel(r.Source); !ok {
			err = multierr.Append(err, errors.Errorf("smix %d: unknown input selector %d", i, r.Source))
		}
		if r.Rate < -rateLimit || r.Rate > rateLimit {
			err = multierr.Append(err, errors.Errorf("smix %d: rate %d out of range [-%d,%d]", i, r.Rate, rateLimit, rateLimit))
		}
		if r.Min > r.Max {
			err = multierr.Append(err, errors.Errorf("smix %d: min %d greater than max %d", i, r.Min, r.Max))
		}
	}
	return err
}

var inputSelectors = []mixer.InputChannel{
	mixer.StabilizedRoll,
	mixer.StabilizedPitch,
	mixer.StabilizedYaw,
	mixer.StabilizedThrottle,
}

// SelectorChannel maps an smix input selector to its stabilized channel.
func SelectorChannel(sel int) (mixer.InputChannel, bool) {
	if sel < 0 || sel >= len(inputSelectors) {
		return 0, false
	}
	return inputSelectors[sel], true
}

// SetMotorMix stores one motor's weights, growing the table with zero rows
// as needed so that row positions stay aligned with motor slots.
func (s *Settings) SetMotorMix(slot int, m MotorMix) error {
	if slot < 0 || slot >= mixer.MaxMotors {
		return errors.Errorf("motor slot %d out of range [0,%d)", slot, mixer.MaxMotors)
	}
	for len(s.MotorMix) <= slot {
		s.MotorMix = append(s.MotorMix, MotorMix{})
	}
	s.MotorMix[slot] = m
	return nil
}

// SetServoMix stores one servo rule at the given rule index, growing the
// table with inert rows as needed.
func (s *Settings) SetServoMix(rule int, r ServoMix) error {
	if rule < 0 || rule >= mixer.MaxServos*len(inputSelectors) {
		return errors.Errorf("servo rule index %d out of range [0,%d)", rule, mixer.MaxServos*len(inputSelectors))
	}
	for len(s.ServoMix) <= rule {
		s.ServoMix = append(s.ServoMix, ServoMix{Min: -rateLimit, Max: rateLimit})
	}
	s.ServoMix[rule] = r
	return nil
}

// ResetMotorMix clears the custom motor table.
func (s *Settings) ResetMotorMix() { s.MotorMix = nil }

// ResetServoMix clears the custom servo table.
func (s *Settings) ResetServoMix() { s.ServoMix = nil }
