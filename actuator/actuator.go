// Package actuator consumes the mixer's post-clamp outputs. Sinks own the
// remap from canonical fixed-point units to whatever the hardware speaks;
// the mixer itself never sees pulse widths or protocol frames.
package actuator

import (
	"context"

	"github.com/tailless/flightmix/mixer"
)

// A Sink receives the clamped outputs of one mix cycle. Implementations must
// not retain the Outputs value past the call; the arrays belong to the loop.
type Sink interface {
	WriteOutputs(ctx context.Context, out *mixer.Outputs) error
}
