// Package mavlink publishes stabilized input snapshots from a MAVLink link,
// for bench rigs and hardware-in-the-loop runs where the commands come from
// a ground station instead of an RC receiver. MANUAL_CONTROL and
// RC_CHANNELS_OVERRIDE messages both feed the snapshot.
package mavlink

import (
	"context"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"github.com/tailless/flightmix/input"
	"github.com/tailless/flightmix/mixer"
)

const staleAfter = 500 * time.Millisecond

// Source consumes a gomavlib node's event stream in the background and keeps
// the most recent coherent snapshot. The source does not own the node; the
// caller configures its endpoints and closes it after closing the source.
type Source struct {
	node    *gomavlib.Node
	logger  golog.Logger
	workers *utils.StoppableWorkers

	mu       sync.Mutex
	snap     input.Snapshot
	lastSeen time.Time
}

// NewSource begins consuming events from the node.
func NewSource(node *gomavlib.Node, logger golog.Logger) *Source {
	s := &Source{
		node:   node,
		logger: logger,
		snap:   input.Failsafe(),
	}
	s.workers = utils.NewBackgroundStoppableWorkers(s.eventLoop)
	return s
}

func (s *Source) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-s.node.Events():
			if !ok {
				s.logger.Debug("mavlink event stream closed")
				return
			}
			frame, ok := evt.(*gomavlib.EventFrame)
			if !ok {
				continue
			}
			s.handleMessage(frame.Frame.GetMessage())
		}
	}
}

func (s *Source) handleMessage(msg any) {
	var snap input.Snapshot
	switch m := msg.(type) {
	case *common.MessageManualControl:
		// x/y/r arrive in [-1000, 1000]; z (thrust) arrives in [0, 1000]
		// and is stretched onto the full canonical range.
		snap.Set(mixer.StabilizedPitch, int32(m.X))
		snap.Set(mixer.StabilizedRoll, int32(m.Y))
		snap.Set(mixer.StabilizedYaw, int32(m.R))
		snap.Set(mixer.StabilizedThrottle, int32(m.Z)*2-mixer.FullScale)
	case *common.MessageRcChannelsOverride:
		snap.Set(mixer.StabilizedRoll, canonical(m.Chan1Raw))
		snap.Set(mixer.StabilizedPitch, canonical(m.Chan2Raw))
		snap.Set(mixer.StabilizedThrottle, canonical(m.Chan3Raw))
		snap.Set(mixer.StabilizedYaw, canonical(m.Chan4Raw))
	default:
		return
	}
	s.mu.Lock()
	s.snap = snap
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// canonical maps an RC override microsecond value (1000..2000, 1500 neutral)
// to the mixer's [-1000, +1000] range. Zero means "channel released" and
// maps to neutral.
func canonical(us uint16) int32 {
	if us == 0 {
		return 0
	}
	return (int32(us) - 1500) * 2
}

// Snapshot returns the most recent commands, or the failsafe snapshot if the
// link has gone quiet.
func (s *Source) Snapshot() input.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastSeen) > staleAfter {
		return input.Failsafe()
	}
	return s.snap
}

// Close stops consuming events.
func (s *Source) Close() error {
	s.workers.Stop()
	return nil
}
