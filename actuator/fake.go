package actuator

import (
	"context"
	"sync"

	"github.com/tailless/flightmix/mixer"
)

// Recorder is a Sink for tests and bench rigs: it copies every cycle's
// outputs and remembers the latest.
type Recorder struct {
	mu     sync.Mutex
	cycles int
	last   mixer.Outputs
}

// WriteOutputs records the outputs.
func (r *Recorder) WriteOutputs(_ context.Context, out *mixer.Outputs) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles++
	r.last.Motors = append(r.last.Motors[:0], out.Motors...)
	r.last.Servos = append(r.last.Servos[:0], out.Servos...)
	return nil
}

// Cycles returns how many cycles have been written.
func (r *Recorder) Cycles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycles
}

// Last returns a copy of the most recently written outputs.
func (r *Recorder) Last() mixer.Outputs {
	r.mu.Lock()
	defer r.mu.Unlock()
	return mixer.Outputs{
		Motors: append([]int16(nil), r.last.Motors...),
		Servos: append([]int16(nil), r.last.Servos...),
	}
}
