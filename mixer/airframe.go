package mixer

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Hardware bank limits shared by every supported target.
const (
	MaxMotors = 8
	MaxServos = 8
)

// A Descriptor declares an airframe: how many motors and servos it has and
// the rule table that drives them. Descriptors are plain data; Load validates
// one into an Airframe usable by the engine.
type Descriptor struct {
	Tag        string
	MotorCount int
	ServoCount int
	Rules      []Rule
}

// An Airframe is a validated, immutable airframe descriptor. It is safe to
// share between concurrent readers.
type Airframe struct {
	tag        string
	motorCount int
	servoCount int
	rules      []Rule
}

// Load validates a descriptor and returns the airframe handle the engine
// evaluates. Every problem found is reported; a descriptor with any invalid
// rule is rejected whole rather than partially loaded.
func Load(desc Descriptor) (*Airframe, error) {
	var err error
	if desc.MotorCount < 0 || desc.MotorCount > MaxMotors {
		err = multierr.Append(err, errors.Errorf("motor count %d out of range [0,%d]", desc.MotorCount, MaxMotors))
	}
	if desc.ServoCount < 0 || desc.ServoCount > MaxServos {
		err = multierr.Append(err, errors.Errorf("servo count %d out of range [0,%d]", desc.ServoCount, MaxServos))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "airframe %q", desc.Tag)
	}
	for i, r := range desc.Rules {
		if rErr := r.validate(desc.MotorCount, desc.ServoCount); rErr != nil {
			err = multierr.Append(err, errors.Wrapf(rErr, "rule %d", i))
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "airframe %q", desc.Tag)
	}
	af := &Airframe{
		tag:        desc.Tag,
		motorCount: desc.MotorCount,
		servoCount: desc.ServoCount,
		rules:      make([]Rule, len(desc.Rules)),
	}
	copy(af.rules, desc.Rules)
	return af, nil
}

// Tag returns the airframe's registry tag.
func (a *Airframe) Tag() string { return a.tag }

// MotorCount returns the number of motor output slots.
func (a *Airframe) MotorCount() int { return a.motorCount }

// ServoCount returns the number of servo output slots.
func (a *Airframe) ServoCount() int { return a.servoCount }

// Rules returns a copy of the rule table in evaluation order.
func (a *Airframe) Rules() []Rule {
	out := make([]Rule, len(a.rules))
	copy(out, a.rules)
	return out
}
