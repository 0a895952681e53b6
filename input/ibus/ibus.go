// Package ibus reads FlySky iBus receiver frames from a serial port and
// publishes them as stabilized input snapshots.
//
// An iBus servo frame is 32 bytes: a 0x20 length byte and a 0x40 command
// byte, fourteen little-endian channel values in receiver microseconds, and
// a little-endian checksum equal to 0xFFFF minus the sum of all preceding
// bytes.
package ibus

import (
	"context"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.viam.com/utils"

	"github.com/tailless/flightmix/input"
	"github.com/tailless/flightmix/mixer"
)

const (
	header1     = 0x20
	header2     = 0x40
	numChannels = 14
	frameSize   = 2 + numChannels*2 + 2

	defaultBaudRate = 115200

	neutralUs = 1500

	// A receiver that stops framing for this long is treated as gone and
	// the source reports the failsafe snapshot.
	staleAfter = 500 * time.Millisecond
)

// Config describes the serial link and how receiver channels map onto
// stabilized inputs.
type Config struct {
	Port string `json:"port"`
	Baud int    `json:"baud,omitempty"`
	// ChannelMap lists the zero-based receiver channel carrying each of
	// roll, pitch, throttle, yaw. Empty means the AETR convention.
	ChannelMap []int `json:"channel_map,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Port == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "port")
	}
	if cfg.Baud < 0 {
		return utils.NewConfigValidationError(path, errors.New("baud cannot be negative"))
	}
	if len(cfg.ChannelMap) != 0 && len(cfg.ChannelMap) != 4 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("channel_map must list 4 channels, got %d", len(cfg.ChannelMap)))
	}
	for _, ch := range cfg.ChannelMap {
		if ch < 0 || ch >= numChannels {
			return utils.NewConfigValidationError(path,
				errors.Errorf("channel_map entry %d out of range [0,%d)", ch, numChannels))
		}
	}
	return nil
}

// aetr is the default receiver channel order: aileron, elevator, throttle,
// rudder.
var aetr = []int{0, 1, 2, 3}

type frameState int

const (
	waitingForHeader1 frameState = iota
	waitingForHeader2
	readingPayload
)

// Source decodes iBus frames off a serial port in the background and keeps
// the most recent coherent snapshot.
type Source struct {
	port    serial.Port
	logger  golog.Logger
	workers *utils.StoppableWorkers

	rollCh, pitchCh, throttleCh, yawCh int

	mu        sync.Mutex
	snap      input.Snapshot
	lastFrame time.Time
}

// NewSource opens the configured serial port and begins decoding frames.
func NewSource(cfg Config, logger golog.Logger) (*Source, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = defaultBaudRate
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open ibus port %q", cfg.Port)
	}
	chMap := cfg.ChannelMap
	if len(chMap) == 0 {
		chMap = aetr
	}
	s := &Source{
		port:       port,
		logger:     logger,
		rollCh:     chMap[0],
		pitchCh:    chMap[1],
		throttleCh: chMap[2],
		yawCh:      chMap[3],
		snap:       input.Failsafe(),
	}
	s.workers = utils.NewBackgroundStoppableWorkers(s.readLoop)
	return s, nil
}

func (s *Source) readLoop(ctx context.Context) {
	var frame [frameSize]byte
	state := waitingForHeader1
	idx := 0
	buf := make([]byte, 64)
	for ctx.Err() == nil {
		n, err := s.port.Read(buf)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Errorw("ibus read failed", "error", err)
			}
			return
		}
		for _, b := range buf[:n] {
			switch state {
			case waitingForHeader1:
				if b == header1 {
					frame[0] = b
					state = waitingForHeader2
				}
			case waitingForHeader2:
				if b == header2 {
					frame[1] = b
					idx = 2
					state = readingPayload
				} else {
					state = waitingForHeader1
				}
			case readingPayload:
				frame[idx] = b
				idx++
				if idx == frameSize {
					s.acceptFrame(frame)
					state = waitingForHeader1
				}
			}
		}
	}
}

func (s *Source) acceptFrame(frame [frameSize]byte) {
	var sum uint16
	for _, b := range frame[:frameSize-2] {
		sum += uint16(b)
	}
	checksum := uint16(frame[frameSize-2]) | uint16(frame[frameSize-1])<<8
	if checksum != 0xFFFF-sum {
		s.logger.Debugw("dropping ibus frame with bad checksum", "got", checksum, "want", 0xFFFF-sum)
		return
	}
	channels := decodeChannels(frame)
	var snap input.Snapshot
	snap.Set(mixer.StabilizedRoll, canonical(channels[s.rollCh]))
	snap.Set(mixer.StabilizedPitch, canonical(channels[s.pitchCh]))
	snap.Set(mixer.StabilizedThrottle, canonical(channels[s.throttleCh]))
	snap.Set(mixer.StabilizedYaw, canonical(channels[s.yawCh]))
	s.mu.Lock()
	s.snap = snap
	s.lastFrame = time.Now()
	s.mu.Unlock()
}

func decodeChannels(frame [frameSize]byte) [numChannels]uint16 {
	var channels [numChannels]uint16
	for i := 0; i < numChannels; i++ {
		channels[i] = uint16(frame[2+2*i]) | uint16(frame[3+2*i])<<8
	}
	return channels
}

// canonical maps a receiver microsecond value (1000..2000, 1500 neutral) to
// the mixer's [-1000, +1000] range.
func canonical(us uint16) int32 {
	return (int32(us) - neutralUs) * 2
}

// Snapshot returns the most recent decoded inputs, or the failsafe snapshot
// if the receiver has gone quiet.
func (s *Source) Snapshot() input.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastFrame) > staleAfter {
		return input.Failsafe()
	}
	return s.snap
}

// Close stops the decoder and releases the serial port.
func (s *Source) Close() error {
	err := s.port.Close()
	s.workers.Stop()
	return err
}
