// Package mixer translates stabilized flight commands (throttle, roll, pitch,
// yaw) into per-actuator commands for a fixed airframe geometry. An airframe
// is described by an ordered table of rules; each rule adds a weighted share
// of one stabilized input to one motor or servo output slot.
//
// All values use a signed ×1000 fixed-point convention: 1000 represents 100%
// of full scale. Stabilized inputs arrive in [-1000, +1000]; motor outputs
// are clamped to [0, 1000] and servo outputs to [-1000, +1000].
package mixer

import "github.com/pkg/errors"

// FullScale is 100% of the canonical range in fixed-point units.
const FullScale = 1000

// InputChannel identifies one stabilized command source. The numeric values
// double as the selector encoding used by the smix configuration surface.
type InputChannel uint8

// Stabilized command sources. Aux channels exist for pass-through rules on
// airframes that route a raw receiver channel to a servo; the twin wing does
// not use them.
const (
	StabilizedRoll InputChannel = iota
	StabilizedPitch
	StabilizedYaw
	StabilizedThrottle
	AuxChannel1
	AuxChannel2

	// NumInputChannels is the size of an input snapshot.
	NumInputChannels = int(iota)
)

func (c InputChannel) String() string {
	switch c {
	case StabilizedRoll:
		return "STABILIZED_ROLL"
	case StabilizedPitch:
		return "STABILIZED_PITCH"
	case StabilizedYaw:
		return "STABILIZED_YAW"
	case StabilizedThrottle:
		return "STABILIZED_THROTTLE"
	case AuxChannel1:
		return "AUX1"
	case AuxChannel2:
		return "AUX2"
	}
	return "UNKNOWN"
}

// RuleKind selects which output bank a rule targets. The clamp policy is a
// property of the kind: motors cannot produce reverse thrust, servos deflect
// both ways.
type RuleKind uint8

// The two rule kinds.
const (
	Motor RuleKind = iota
	Servo
)

func (k RuleKind) String() string {
	if k == Motor {
		return "MOTOR"
	}
	return "SERVO"
}

// Bounds returns the post-mix clamp range for outputs of this kind.
func (k RuleKind) Bounds() (lo, hi int16) {
	if k == Motor {
		return 0, FullScale
	}
	return -FullScale, FullScale
}

// Clamp saturates an accumulated sum to the kind's output range.
func (k RuleKind) Clamp(v int32) int16 {
	lo, hi := k.Bounds()
	if v < int32(lo) {
		return lo
	}
	if v > int32(hi) {
		return hi
	}
	return int16(v)
}

// A Rule is one additive contribution of a single input to a single output
// slot. Rate is a signed milli-fraction of the input (1000 = +100%); Offset
// is a constant bias in output units, applied once per rule. A rule with a
// zero rate and a nonzero offset is legal and contributes only the constant.
type Rule struct {
	Kind   RuleKind
	Index  int
	Input  InputChannel
	Rate   int32
	Offset int32
}

func (r Rule) validate(motorCount, servoCount int) error {
	switch r.Kind {
	case Motor:
		if r.Index < 0 || r.Index >= motorCount {
			return errors.Errorf("motor index %d out of range [0,%d)", r.Index, motorCount)
		}
	case Servo:
		if r.Index < 0 || r.Index >= servoCount {
			return errors.Errorf("servo index %d out of range [0,%d)", r.Index, servoCount)
		}
	default:
		return errors.Errorf("unknown rule kind %d", r.Kind)
	}
	if int(r.Input) >= NumInputChannels {
		return errors.Errorf("unknown input channel %d", r.Input)
	}
	return nil
}
