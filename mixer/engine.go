package mixer

// A Reader supplies one stabilized input value in [-1000, +1000]. The
// stabilizer has already applied rate curves, expo and corrections; the
// engine performs no filtering of its own.
type Reader interface {
	Read(InputChannel) int16
}

// ReadFunc adapts a plain function to the Reader interface.
type ReadFunc func(InputChannel) int16

// Read calls f.
func (f ReadFunc) Read(ch InputChannel) int16 { return f(ch) }

// Outputs holds the post-clamp actuator commands produced by one evaluation.
// The arrays are exclusively owned by the caller; the engine only ever writes
// into them.
type Outputs struct {
	Motors []int16
	Servos []int16
}

// NewOutputs allocates output arrays sized for the given airframe.
func NewOutputs(af *Airframe) *Outputs {
	return &Outputs{
		Motors: make([]int16, af.MotorCount()),
		Servos: make([]int16, af.ServoCount()),
	}
}

// Accumulate evaluates the airframe's rules in table order, summing raw
// pre-clamp contributions into the supplied slots. Slots are zeroed first.
// Each rule contributes rate*input/1000 + offset using truncated integer
// division; the 32-bit accumulators cannot overflow for in-range inputs.
//
// Evaluation order is fixed so that clamp edge behavior reproduces bit-exactly
// across platforms, which log replay and hardware-in-the-loop rigs rely on.
func Accumulate(af *Airframe, in Reader, motors, servos []int32) {
	for i := range motors {
		motors[i] = 0
	}
	for i := range servos {
		servos[i] = 0
	}
	for _, r := range af.rules {
		contrib := r.Rate*int32(in.Read(r.Input))/FullScale + r.Offset
		if r.Kind == Motor {
			motors[r.Index] += contrib
		} else {
			servos[r.Index] += contrib
		}
	}
}

// Mix evaluates the airframe against one input snapshot and writes clamped
// commands into out. It is a pure function of (rules, snapshot): it holds no
// state between cycles, never fails, and does not allocate, so it is safe to
// call from a hard real-time control loop. out must be sized by NewOutputs
// or to the airframe's counts.
func Mix(af *Airframe, in Reader, out *Outputs) {
	var motors [MaxMotors]int32
	var servos [MaxServos]int32
	Accumulate(af, in, motors[:af.motorCount], servos[:af.servoCount])
	for i := 0; i < af.motorCount; i++ {
		out.Motors[i] = Motor.Clamp(motors[i])
	}
	for i := 0; i < af.servoCount; i++ {
		out.Servos[i] = Servo.Clamp(servos[i])
	}
}
