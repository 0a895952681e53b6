// Package loop runs the mixer at a fixed rate: each tick it takes one
// coherent input snapshot, evaluates the airframe's rule table and hands the
// clamped outputs to the actuator sink.
package loop

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"github.com/tailless/flightmix/actuator"
	"github.com/tailless/flightmix/input"
	"github.com/tailless/flightmix/mixer"
)

// Config holds the loop rate.
type Config struct {
	// Frequency is the cycle rate in Hz.
	Frequency float64 `json:"frequency"`
}

const maxFrequency = 2000.0

// A Loop drives one airframe from one input source into one sink. The
// airframe can be swapped between cycles (a settings watcher does this when
// the operator saves a new custom mixer); within a cycle it is fixed.
type Loop struct {
	cfg    Config
	logger golog.Logger
	clk    clock.Clock
	src    input.Source
	sink   actuator.Sink

	mu  sync.RWMutex
	af  *mixer.Airframe
	out *mixer.Outputs

	running                 atomic.Bool
	cancelCtx               context.Context
	cancel                  context.CancelFunc
	activeBackgroundWorkers sync.WaitGroup
}

// Option configures a Loop beyond its required collaborators.
type Option func(*Loop)

// WithClock substitutes the wall clock, letting tests drive ticks manually.
func WithClock(clk clock.Clock) Option {
	return func(l *Loop) { l.clk = clk }
}

// New constructs a stopped loop.
func New(cfg Config, af *mixer.Airframe, src input.Source, sink actuator.Sink, logger golog.Logger, opts ...Option) (*Loop, error) {
	if cfg.Frequency <= 0 || cfg.Frequency > maxFrequency {
		return nil, errors.Errorf("loop frequency must be in (0,%.0f] Hz, got %f", maxFrequency, cfg.Frequency)
	}
	if af == nil {
		return nil, errors.New("loop needs an airframe")
	}
	cancelCtx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		cfg:       cfg,
		logger:    logger,
		clk:       clock.New(),
		src:       src,
		sink:      sink,
		af:        af,
		out:       mixer.NewOutputs(af),
		cancelCtx: cancelCtx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Start begins cycling. It returns an error if the loop already runs.
func (l *Loop) Start() error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("loop already running")
	}
	dt := l.clk.Ticker(durationForHz(l.cfg.Frequency))
	l.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(func() {
		defer dt.Stop()
		for {
			select {
			case <-l.cancelCtx.Done():
				return
			case <-dt.C:
				l.cycle()
			}
		}
	}, l.activeBackgroundWorkers.Done)
	return nil
}

func (l *Loop) cycle() {
	snap := l.src.Snapshot()
	l.mu.RLock()
	af, out := l.af, l.out
	l.mu.RUnlock()
	mixer.Mix(af, &snap, out)
	if err := l.sink.WriteOutputs(l.cancelCtx, out); err != nil && l.cancelCtx.Err() == nil {
		l.logger.Errorw("actuator write failed", "error", err)
	}
}

// SwapAirframe installs a new airframe before the next cycle. The airframe
// must already be validated; output arrays are resized to fit it.
func (l *Loop) SwapAirframe(af *mixer.Airframe) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.af = af
	l.out = mixer.NewOutputs(af)
}

// Airframe returns the airframe currently being evaluated.
func (l *Loop) Airframe() *mixer.Airframe {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.af
}

// Stop halts cycling and waits for the worker to exit.
func (l *Loop) Stop() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	l.cancel()
	l.activeBackgroundWorkers.Wait()
}

func durationForHz(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}
