// Package sustain implements the per-slot chord state machine and its
// cancellable delayed note-off.
//
// Each slot is Idle, Sounding or Releasing. A release arms a one-shot timer;
// an onset while Releasing cancels it without touching the device. Every arm
// and cancel bumps the slot's generation, and a timer callback only acts when
// its captured generation still matches, so a callback that lost the race
// with a cancel is discarded.
package sustain

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// State is the playback state of one slot.
type State int

const (
	// Idle: not sounding, no timer.
	Idle State = iota
	// Sounding: note-on sent, finger up.
	Sounding
	// Releasing: finger down, note-off pending on the sustain timer.
	Releasing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sounding:
		return "sounding"
	case Releasing:
		return "releasing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrInvalidSustain is returned for a non-positive sustain time.
var ErrInvalidSustain = errors.New("sustain time must be positive")

// ChordLookup resolves the chord played by a slot.
type ChordLookup interface {
	Lookup(slot contracts.Slot) contracts.ChordDefinition
}

type slotState struct {
	state   State
	pending contracts.Timer
	gen     uint64
}

// Scheduler owns the state of every slot. All methods are safe for concurrent
// use; device calls happen under the scheduler lock and are therefore serialized.
type Scheduler struct {
	mu       sync.Mutex
	slots    [contracts.NumSlots]slotState
	active   map[string]int
	chords   ChordLookup
	sink     contracts.Sink
	clock    contracts.Clock
	sustain  time.Duration
	logger   contracts.Logger
	observer contracts.Observer
}

// Config wires a Scheduler to its collaborators. Observer may be nil.
type Config struct {
	Chords   ChordLookup
	Sink     contracts.Sink
	Clock    contracts.Clock
	Sustain  time.Duration
	Logger   contracts.Logger
	Observer contracts.Observer
}

// New returns a Scheduler with every slot Idle.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Sustain <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSustain, cfg.Sustain)
	}
	if cfg.Chords == nil || cfg.Sink == nil || cfg.Clock == nil || cfg.Logger == nil {
		return nil, errors.New("sustain: chords, sink, clock and logger are required")
	}
	return &Scheduler{
		active:   make(map[string]int),
		chords:   cfg.Chords,
		sink:     cfg.Sink,
		clock:    cfg.Clock,
		sustain:  cfg.Sustain,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}, nil
}

// Onset handles a finger going up.
func (s *Scheduler) Onset(slot contracts.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &s.slots[slot.Index()]
	switch st.state {
	case Idle:
		st.state = Sounding
		chord := s.chords.Lookup(slot)
		s.active[chord.Name]++
		s.logger.Debug("chord on",
			s.logger.Field().String("slot", slot.String()),
			s.logger.Field().String("chord", chord.Name))
		s.send(slot, chord, s.sink.NoteOn, "note on")
		s.emit(contracts.ChordStarted, slot, chord.Name)
	case Releasing:
		// Still audible: keep the note, drop the pending note-off.
		s.cancel(st)
		st.state = Sounding
		s.logger.Debug("release cancelled by re-trigger",
			s.logger.Field().String("slot", slot.String()))
		if s.sink.Mode() == contracts.ToneMode {
			// A tone has already died out; every onset gets its own.
			s.send(slot, s.chords.Lookup(slot), s.sink.NoteOn, "note on")
		}
	case Sounding:
	}
}

// Release handles a finger going down: the note-off is deferred by the sustain time.
func (s *Scheduler) Release(slot contracts.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &s.slots[slot.Index()]
	if st.state != Sounding {
		return
	}
	st.state = Releasing
	s.arm(slot, st)
}

// ForceStop silences slot immediately, whatever its state. Stopping an Idle
// slot does nothing.
func (s *Scheduler) ForceStop(slot contracts.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop(slot, &s.slots[slot.Index()])
}

// StopAll force-stops every slot in fixed order.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range contracts.AllSlots() {
		s.stop(slot, &s.slots[slot.Index()])
	}
}

// State returns the current state of slot.
func (s *Scheduler) State(slot contracts.Slot) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[slot.Index()].state
}

// Pending reports whether a release timer is armed for slot.
func (s *Scheduler) Pending(slot contracts.Slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[slot.Index()].pending != nil
}

// Active returns the sorted names of chords currently sounding.
func (s *Scheduler) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.active))
	for name := range s.active {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SustainTime returns the configured delay between release and note-off.
func (s *Scheduler) SustainTime() time.Duration { return s.sustain }

// arm replaces any pending timer of st with a fresh one. s.mu must be held.
func (s *Scheduler) arm(slot contracts.Slot, st *slotState) {
	s.cancel(st)
	gen := st.gen
	st.pending = s.clock.AfterFunc(s.sustain, func() { s.expire(slot, gen) })
	s.logger.Debug("release armed",
		s.logger.Field().String("slot", slot.String()),
		s.logger.Field().Duration("sustain", s.sustain))
}

// cancel stops the pending timer, if any, and invalidates its generation. s.mu must be held.
func (s *Scheduler) cancel(st *slotState) {
	st.gen++
	if st.pending != nil {
		st.pending.Stop()
		st.pending = nil
	}
}

// expire runs on the timer goroutine.
func (s *Scheduler) expire(slot contracts.Slot, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &s.slots[slot.Index()]
	if st.gen != gen || st.state != Releasing {
		s.logger.Debug("stale release discarded", s.logger.Field().String("slot", slot.String()))
		return
	}
	st.pending = nil
	st.gen++
	st.state = Idle
	s.off(slot)
}

// stop forces st to Idle. s.mu must be held.
func (s *Scheduler) stop(slot contracts.Slot, st *slotState) {
	if st.state == Idle {
		return
	}
	s.cancel(st)
	st.state = Idle
	s.off(slot)
}

// off sends the note-off and updates the active set. s.mu must be held.
func (s *Scheduler) off(slot contracts.Slot) {
	chord := s.chords.Lookup(slot)
	if s.active[chord.Name] <= 1 {
		delete(s.active, chord.Name)
	} else {
		s.active[chord.Name]--
	}
	s.logger.Debug("chord off",
		s.logger.Field().String("slot", slot.String()),
		s.logger.Field().String("chord", chord.Name))
	s.send(slot, chord, s.sink.NoteOff, "note off")
	s.emit(contracts.ChordStopped, slot, chord.Name)
}

// send calls the sink and reports failures without touching slot state.
func (s *Scheduler) send(slot contracts.Slot, chord contracts.ChordDefinition,
	call func(contracts.Slot, contracts.ChordDefinition) error, what string) {
	if err := call(slot, chord); err != nil {
		s.logger.Error("device call failed",
			s.logger.Field().String("call", what),
			s.logger.Field().String("slot", slot.String()),
			s.logger.Field().String("chord", chord.Name),
			s.logger.Field().Error("error", err))
		if s.observer != nil {
			s.observer.OnEvent(contracts.Event{
				Kind:    contracts.DeviceError,
				Slot:    slot,
				Name:    chord.Name,
				Message: fmt.Sprintf("%s %s: %v", what, chord.Name, err),
				At:      s.clock.Now(),
			})
		}
	}
}

func (s *Scheduler) emit(kind contracts.EventKind, slot contracts.Slot, name string) {
	if s.observer == nil {
		return
	}
	s.observer.OnEvent(contracts.Event{Kind: kind, Slot: slot, Name: name, At: s.clock.Now()})
}
