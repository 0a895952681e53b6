package actuator

import (
	"context"
	"testing"

	"go.viam.com/test"

	"github.com/tailless/flightmix/mixer"
)

type pulseRecorder struct {
	widths map[int]uint
}

func (p *pulseRecorder) SetPulseWidth(_ context.Context, channel int, us uint) error {
	if p.widths == nil {
		p.widths = map[int]uint{}
	}
	p.widths[channel] = us
	return nil
}

func TestPWMSinkMapping(t *testing.T) {
	rec := &pulseRecorder{}
	sink, err := NewPWMSink(PWMConfig{Motors: 2, Servos: 2}, rec)
	test.That(t, err, test.ShouldBeNil)

	err = sink.WriteOutputs(context.Background(), &mixer.Outputs{
		Motors: []int16{0, 1000},
		Servos: []int16{-1000, 1000},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rec.widths[0], test.ShouldEqual, uint(1000))
	test.That(t, rec.widths[1], test.ShouldEqual, uint(2000))
	test.That(t, rec.widths[2], test.ShouldEqual, uint(1000))
	test.That(t, rec.widths[3], test.ShouldEqual, uint(2000))

	err = sink.WriteOutputs(context.Background(), &mixer.Outputs{
		Motors: []int16{500, 750},
		Servos: []int16{0, -500},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rec.widths[0], test.ShouldEqual, uint(1500))
	test.That(t, rec.widths[1], test.ShouldEqual, uint(1750))
	test.That(t, rec.widths[2], test.ShouldEqual, uint(1500))
	test.That(t, rec.widths[3], test.ShouldEqual, uint(1250))
}

func TestPWMConfigValidate(t *testing.T) {
	_, err := NewPWMSink(PWMConfig{Motors: mixer.MaxMotors + 1}, &pulseRecorder{})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPWMSink(PWMConfig{Servos: -1}, &pulseRecorder{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	out := &mixer.Outputs{Motors: []int16{250}, Servos: []int16{-250}}
	test.That(t, rec.WriteOutputs(context.Background(), out), test.ShouldBeNil)

	// Mutating the loop-owned arrays must not reach the recording.
	out.Motors[0] = 999
	last := rec.Last()
	test.That(t, last.Motors, test.ShouldResemble, []int16{250})
	test.That(t, last.Servos, test.ShouldResemble, []int16{-250})
	test.That(t, rec.Cycles(), test.ShouldEqual, 1)
}
