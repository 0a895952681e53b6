package airframes

import "github.com/tailless/flightmix/mixer"

// TwinWing is the registry tag of the compiled-in twin-engine flying wing.
const TwinWing = "TWINWING"

// Twin-engine flying wing: differential thrust for yaw, elevons for pitch and
// roll. Motor 0 is the left motor, motor 1 the right; servo 0 is the left
// elevon, servo 1 the right. Right yaw reduces left thrust and adds right
// thrust; nose-up pitch raises both elevons; right roll raises the left
// elevon and lowers the right.
var twinWing = mixer.Descriptor{
	Tag:        TwinWing,
	MotorCount: 2,
	ServoCount: 2,
	Rules: []mixer.Rule{
		{Kind: mixer.Motor, Index: 0, Input: mixer.StabilizedThrottle, Rate: 1000},
		{Kind: mixer.Motor, Index: 0, Input: mixer.StabilizedYaw, Rate: -500},
		{Kind: mixer.Motor, Index: 1, Input: mixer.StabilizedThrottle, Rate: 1000},
		{Kind: mixer.Motor, Index: 1, Input: mixer.StabilizedYaw, Rate: 500},
		{Kind: mixer.Servo, Index: 0, Input: mixer.StabilizedPitch, Rate: 500},
		{Kind: mixer.Servo, Index: 0, Input: mixer.StabilizedRoll, Rate: -500},
		{Kind: mixer.Servo, Index: 1, Input: mixer.StabilizedPitch, Rate: 500},
		{Kind: mixer.Servo, Index: 1, Input: mixer.StabilizedRoll, Rate: 500},
	},
}

func init() {
	Register(twinWing)
}
