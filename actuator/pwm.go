package actuator

import (
	"context"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/tailless/flightmix/mixer"
)

const (
	minWidthUs = 1000 // 1ms pulse for full negative deflection / motor stop
	maxWidthUs = 2000 // 2ms pulse for full positive deflection / full thrust
)

// A PulseWriter sets the pulse width of one hardware output channel. Motor
// channels come first, then servo channels.
type PulseWriter interface {
	SetPulseWidth(ctx context.Context, channel int, us uint) error
}

// PWMConfig sizes a PWM sink.
type PWMConfig struct {
	Motors int `json:"motors"`
	Servos int `json:"servos"`
}

// Validate ensures all parts of the config are valid.
func (cfg *PWMConfig) Validate(path string) error {
	if cfg.Motors < 0 || cfg.Motors > mixer.MaxMotors {
		return utils.NewConfigValidationError(path, errors.Errorf("motors must be in [0,%d]", mixer.MaxMotors))
	}
	if cfg.Servos < 0 || cfg.Servos > mixer.MaxServos {
		return utils.NewConfigValidationError(path, errors.Errorf("servos must be in [0,%d]", mixer.MaxServos))
	}
	return nil
}

// PWMSink maps canonical outputs onto the 1000..2000µs pulse band: motor
// [0,1000] spans the whole band, servo [-1000,+1000] centers on 1500µs.
type PWMSink struct {
	cfg    PWMConfig
	writer PulseWriter
}

// NewPWMSink returns a sink writing through the given pulse writer.
func NewPWMSink(cfg PWMConfig, writer PulseWriter) (*PWMSink, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return &PWMSink{cfg: cfg, writer: writer}, nil
}

// WriteOutputs pushes one cycle's outputs to the hardware channels.
func (p *PWMSink) WriteOutputs(ctx context.Context, out *mixer.Outputs) error {
	for i, v := range out.Motors {
		if i >= p.cfg.Motors {
			break
		}
		if err := p.writer.SetPulseWidth(ctx, i, motorPulseUs(v)); err != nil {
			return errors.Wrapf(err, "motor %d", i)
		}
	}
	for j, v := range out.Servos {
		if j >= p.cfg.Servos {
			break
		}
		if err := p.writer.SetPulseWidth(ctx, p.cfg.Motors+j, servoPulseUs(v)); err != nil {
			return errors.Wrapf(err, "servo %d", j)
		}
	}
	return nil
}

func motorPulseUs(v int16) uint {
	return uint(minWidthUs + int(v)*(maxWidthUs-minWidthUs)/mixer.FullScale)
}

func servoPulseUs(v int16) uint {
	return uint(minWidthUs + (int(v)+mixer.FullScale)*(maxWidthUs-minWidthUs)/(2*mixer.FullScale))
}
