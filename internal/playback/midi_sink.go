// Package playback forwards chord events to a MIDI output, or to a
// synthesized fallback tone when no MIDI output is available.
package playback

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/multierr"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

var (
	// ErrDeviceUnavailable means no MIDI output could be opened at startup.
	ErrDeviceUnavailable = errors.New("MIDI device unavailable")
	// ErrDeviceSend wraps a failed write to the MIDI output.
	ErrDeviceSend = errors.New("MIDI send failed")
	// ErrSinkClosed is returned by calls made after Close.
	ErrSinkClosed = errors.New("sink closed")
)

// MIDISink sends chords as note-on/note-off messages on one channel.
//
// Notes are reference counted: when two sounding chords share a note, the
// note-off is only sent once the last of them stops.
type MIDISink struct {
	mu       sync.Mutex
	client   contracts.ClientMIDI
	channel  uint8
	velocity uint8
	logger   contracts.Logger
	held     map[uint8]int
	closed   bool
}

// NewMIDISink wraps an already selected client and sends the program change
// for cfg.Program.
func NewMIDISink(client contracts.ClientMIDI, cfg contracts.OutputConfig, logger contracts.Logger) (*MIDISink, error) {
	if cfg.Channel > 15 {
		return nil, fmt.Errorf("MIDI channel %d out of range", cfg.Channel)
	}
	velocity := cfg.Velocity
	if velocity == 0 || velocity > 127 {
		velocity = 127
	}
	s := &MIDISink{
		client:   client,
		channel:  cfg.Channel,
		velocity: velocity,
		logger:   logger,
		held:     make(map[uint8]int),
	}
	if err := client.Send(midi.ProgramChange(cfg.Channel, cfg.Program&0x7f)); err != nil {
		return nil, fmt.Errorf("%w: program change: %v", ErrDeviceSend, err)
	}
	return s, nil
}

// NoteOn sends a note-on for every note of chord.
func (s *MIDISink) NoteOn(_ contracts.Slot, chord contracts.ChordDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}

	var err error
	for _, n := range chord.Notes {
		s.held[n]++
		if e := s.client.Send(midi.NoteOn(s.channel, n, s.velocity)); e != nil {
			err = multierr.Append(err, fmt.Errorf("%w: note on %d: %v", ErrDeviceSend, n, e))
		}
	}
	return err
}

// NoteOff sends a note-off for every note of chord that no other chord holds.
func (s *MIDISink) NoteOff(_ contracts.Slot, chord contracts.ChordDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}

	var err error
	for _, n := range chord.Notes {
		switch s.held[n] {
		case 0:
			continue
		case 1:
			delete(s.held, n)
		default:
			s.held[n]--
			continue
		}
		if e := s.client.Send(midi.NoteOffVelocity(s.channel, n, s.velocity)); e != nil {
			err = multierr.Append(err, fmt.Errorf("%w: note off %d: %v", ErrDeviceSend, n, e))
		}
	}
	return err
}

// Mode reports MIDIMode.
func (s *MIDISink) Mode() contracts.SinkMode { return contracts.MIDIMode }

// Close releases every note still held and stops the client.
func (s *MIDISink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	notes := make([]int, 0, len(s.held))
	for n := range s.held {
		notes = append(notes, int(n))
	}
	sort.Ints(notes)

	var err error
	for _, n := range notes {
		if e := s.client.Send(midi.NoteOffVelocity(s.channel, uint8(n), s.velocity)); e != nil {
			err = multierr.Append(err, fmt.Errorf("%w: note off %d: %v", ErrDeviceSend, n, e))
		}
	}
	s.held = map[uint8]int{}
	if len(notes) > 0 {
		s.logger.Info("released held notes on close", s.logger.Field().Int("notes", len(notes)))
	}
	return multierr.Append(err, s.client.Stop())
}
