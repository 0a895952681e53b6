package airframes

import (
	"github.com/pkg/errors"

	"github.com/tailless/flightmix/mixer"
	"github.com/tailless/flightmix/settings"
)

// FromSettings builds the CUSTOM airframe descriptor out of persisted
// mmix/smix rows.
//
// Motor rows are dense: row i drives motor slot i, and each nonzero weight
// expands to one rule in throttle, roll, pitch, yaw order. Trailing all-zero
// rows do not add motor slots.
//
// Servo rows address the global servo bank, which is wider than one
// airframe's slot array (the field convention puts elevons at bank addresses
// 3 and 4). Addresses are re-based so the lowest used address becomes slot 0;
// rows must therefore address a contiguous region no wider than the servo
// bank limit. Rates are percents and scale ×10 to the engine's milli units.
func FromSettings(s *settings.Settings) (mixer.Descriptor, error) {
	if err := s.Validate(); err != nil {
		return mixer.Descriptor{}, errors.Wrap(err, "custom mixer")
	}

	motorRows := s.MotorMix
	for len(motorRows) > 0 && isZeroMotorRow(motorRows[len(motorRows)-1]) {
		motorRows = motorRows[:len(motorRows)-1]
	}

	desc := mixer.Descriptor{Tag: settings.CustomTag, MotorCount: len(motorRows)}
	for slot, m := range motorRows {
		for _, w := range []struct {
			input mixer.InputChannel
			rate  int16
		}{
			{mixer.StabilizedThrottle, m.Throttle},
			{mixer.StabilizedRoll, m.Roll},
			{mixer.StabilizedPitch, m.Pitch},
			{mixer.StabilizedYaw, m.Yaw},
		} {
			if w.rate == 0 {
				continue
			}
			desc.Rules = append(desc.Rules, mixer.Rule{
				Kind:  mixer.Motor,
				Index: slot,
				Input: w.input,
				Rate:  int32(w.rate),
			})
		}
	}

	base := -1
	top := -1
	for _, r := range s.ServoMix {
		if r.Rate == 0 {
			continue
		}
		if base == -1 || r.Servo < base {
			base = r.Servo
		}
		if r.Servo > top {
			top = r.Servo
		}
	}
	if base != -1 {
		desc.ServoCount = top - base + 1
		if desc.ServoCount > mixer.MaxServos {
			return mixer.Descriptor{}, errors.Errorf(
				"custom mixer: servo rows span addresses %d..%d, wider than the %d-slot bank", base, top, mixer.MaxServos)
		}
		for _, r := range s.ServoMix {
			if r.Rate == 0 {
				continue
			}
			ch, _ := settings.SelectorChannel(r.Source)
			desc.Rules = append(desc.Rules, mixer.Rule{
				Kind:  mixer.Servo,
				Index: r.Servo - base,
				Input: ch,
				Rate:  int32(r.Rate) * 10,
			})
		}
	}

	return desc, nil
}

// LoadSelected resolves the settings' mixer tag to a validated airframe,
// using FromSettings for the CUSTOM tag and the registry for everything else.
func LoadSelected(s *settings.Settings) (*mixer.Airframe, error) {
	if s.Mixer == settings.CustomTag {
		desc, err := FromSettings(s)
		if err != nil {
			return nil, err
		}
		return mixer.Load(desc)
	}
	return Load(s.Mixer)
}

func isZeroMotorRow(m settings.MotorMix) bool {
	return m.Throttle == 0 && m.Roll == 0 && m.Pitch == 0 && m.Yaw == 0
}
