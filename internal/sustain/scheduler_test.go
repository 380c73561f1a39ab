package sustain

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leandrodaf/airpiano/internal/chord"
	"github.com/leandrodaf/airpiano/internal/clock"
	"github.com/leandrodaf/airpiano/internal/logger"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	on    bool
	notes []uint8
	at    time.Duration
}

type recordingSink struct {
	mu      sync.Mutex
	clock   contracts.Clock
	start   time.Time
	calls   []call
	failOn  error
	failOff error
	mode    contracts.SinkMode
}

func (r *recordingSink) record(on bool, c contracts.ChordDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{on: on, notes: c.Notes, at: r.clock.Now().Sub(r.start)})
}

func (r *recordingSink) NoteOn(_ contracts.Slot, c contracts.ChordDefinition) error {
	r.record(true, c)
	return r.failOn
}

func (r *recordingSink) NoteOff(_ contracts.Slot, c contracts.ChordDefinition) error {
	r.record(false, c)
	return r.failOff
}

func (r *recordingSink) Mode() contracts.SinkMode { return r.mode }
func (r *recordingSink) Close() error             { return nil }

func (r *recordingSink) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func (r *recordingSink) offs() []call {
	var out []call
	for _, c := range r.snapshot() {
		if !c.on {
			out = append(out, c)
		}
	}
	return out
}

var (
	start      = time.Unix(1000, 0)
	rightThumb = contracts.Slot{Side: contracts.Right, Finger: contracts.Thumb}
	leftThumb  = contracts.Slot{Side: contracts.Left, Finger: contracts.Thumb}
	leftIndex  = contracts.Slot{Side: contracts.Left, Finger: contracts.Index}
	dMajor     = []uint8{62, 66, 69}
)

func newTestScheduler(t *testing.T, observer contracts.Observer) (*Scheduler, *recordingSink, *clock.Fake) {
	t.Helper()
	reg, err := chord.NewRegistry(chord.DefaultTable())
	require.NoError(t, err)
	fake := clock.NewFake(start)
	sink := &recordingSink{clock: fake, start: start}
	s, err := New(Config{
		Chords:   reg,
		Sink:     sink,
		Clock:    fake,
		Sustain:  2 * time.Second,
		Logger:   logger.NewNop(),
		Observer: observer,
	})
	require.NoError(t, err)
	return s, sink, fake
}

func TestNewRejectsNonPositiveSustain(t *testing.T) {
	reg, err := chord.NewRegistry(chord.DefaultTable())
	require.NoError(t, err)
	_, err = New(Config{Chords: reg, Sink: &recordingSink{}, Clock: clock.Real(), Logger: logger.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidSustain)
}

func TestReleaseSendsSingleNoteOffAfterSustain(t *testing.T) {
	s, sink, fake := newTestScheduler(t, nil)

	s.Onset(rightThumb)
	assert.Equal(t, []call{{on: true, notes: dMajor, at: 0}}, sink.snapshot())
	assert.Equal(t, Sounding, s.State(rightThumb))

	fake.Advance(500 * time.Millisecond)
	s.Release(rightThumb)
	assert.Len(t, sink.snapshot(), 1, "release must not touch the device")
	assert.Equal(t, Releasing, s.State(rightThumb))
	assert.Equal(t, []string{"D Major"}, s.Active())

	fake.Advance(1999 * time.Millisecond)
	assert.Empty(t, sink.offs(), "note-off before sustain elapsed")

	fake.Advance(101 * time.Millisecond) // t = 2.6s
	offs := sink.offs()
	require.Len(t, offs, 1)
	assert.Equal(t, dMajor, offs[0].notes)
	assert.Equal(t, 2500*time.Millisecond, offs[0].at)
	assert.Equal(t, Idle, s.State(rightThumb))
	assert.False(t, s.Pending(rightThumb))
	assert.Empty(t, s.Active())
}

func TestRetriggerDuringSustainCancelsNoteOff(t *testing.T) {
	s, sink, fake := newTestScheduler(t, nil)

	s.Onset(rightThumb)
	fake.Advance(500 * time.Millisecond)
	s.Release(rightThumb) // armed for 2.5s
	fake.Advance(500 * time.Millisecond)
	s.Onset(rightThumb) // t = 1.0s
	assert.Equal(t, Sounding, s.State(rightThumb))
	assert.False(t, s.Pending(rightThumb))
	fake.Advance(200 * time.Millisecond)
	s.Release(rightThumb) // t = 1.2s, armed for 3.2s

	fake.Advance(1500 * time.Millisecond) // t = 2.7s
	assert.Empty(t, sink.offs(), "cancelled timer fired a stale note-off")

	fake.Advance(time.Second) // t = 3.7s
	offs := sink.offs()
	require.Len(t, offs, 1)
	assert.Equal(t, 3200*time.Millisecond, offs[0].at)

	ons := 0
	for _, c := range sink.snapshot() {
		if c.on {
			ons++
		}
	}
	assert.Equal(t, 1, ons, "re-trigger while sustaining must not resend note-on")
}

func TestToneModeRetriggerPlaysEveryOnset(t *testing.T) {
	s, sink, fake := newTestScheduler(t, nil)
	sink.mode = contracts.ToneMode

	for i := 0; i < 3; i++ {
		s.Onset(rightThumb)
		fake.Advance(300 * time.Millisecond)
		s.Release(rightThumb)
		fake.Advance(300 * time.Millisecond)
	}

	calls := sink.snapshot()
	require.Len(t, calls, 3)
	for _, c := range calls {
		assert.True(t, c.on)
		assert.Equal(t, dMajor, c.notes)
	}
	assert.Equal(t, []string{"D Major"}, s.Active(), "retrigger must not count the chord twice")

	fake.Advance(2 * time.Second)
	assert.Len(t, sink.offs(), 1)
	assert.Empty(t, s.Active())
}

func TestOnsetAfterFullReleasePlaysAgain(t *testing.T) {
	s, sink, fake := newTestScheduler(t, nil)

	s.Onset(leftIndex)
	s.Release(leftIndex)
	fake.Advance(3 * time.Second)
	s.Onset(leftIndex)

	calls := sink.snapshot()
	require.Len(t, calls, 3)
	assert.True(t, calls[0].on)
	assert.False(t, calls[1].on)
	assert.True(t, calls[2].on)
}

func TestStaleExpiryIsDiscarded(t *testing.T) {
	s, sink, _ := newTestScheduler(t, nil)

	s.Onset(rightThumb)
	s.Release(rightThumb)
	s.mu.Lock()
	lostGen := s.slots[rightThumb.Index()].gen
	s.mu.Unlock()

	s.Onset(rightThumb)
	s.Release(rightThumb)

	// A callback from the first arm that lost the race with the cancel.
	s.expire(rightThumb, lostGen)
	assert.Empty(t, sink.offs())
	assert.Equal(t, Releasing, s.State(rightThumb))
	assert.True(t, s.Pending(rightThumb))
}

func TestForceStopIsImmediateAndIdempotent(t *testing.T) {
	s, sink, fake := newTestScheduler(t, nil)

	s.Onset(rightThumb)
	s.Onset(leftIndex)
	s.Release(leftIndex)

	s.ForceStop(leftIndex)
	s.ForceStop(rightThumb)
	assert.Len(t, sink.offs(), 2)
	assert.Equal(t, Idle, s.State(leftIndex))
	assert.False(t, s.Pending(leftIndex))

	s.ForceStop(leftIndex)
	s.ForceStop(rightThumb)
	s.StopAll()
	fake.Advance(10 * time.Second)
	assert.Len(t, sink.offs(), 2, "stopping idle slots must not reach the device")
	assert.Equal(t, 0, fake.Pending())
}

func TestSharedChordNameStaysActiveWhileEitherHandSounds(t *testing.T) {
	s, _, fake := newTestScheduler(t, nil)

	s.Onset(leftThumb)
	s.Onset(rightThumb)
	s.Release(leftThumb)
	fake.Advance(3 * time.Second)

	assert.Equal(t, []string{"D Major"}, s.Active())
	s.ForceStop(rightThumb)
	assert.Empty(t, s.Active())
}

func TestDeviceFailureDoesNotAlterState(t *testing.T) {
	var events []contracts.Event
	obs := contracts.ObserverFunc(func(e contracts.Event) { events = append(events, e) })
	s, sink, fake := newTestScheduler(t, obs)
	sink.failOn = errors.New("port closed")
	sink.failOff = errors.New("port closed")

	s.Onset(rightThumb)
	assert.Equal(t, Sounding, s.State(rightThumb))
	s.Release(rightThumb)
	fake.Advance(2 * time.Second)
	assert.Equal(t, Idle, s.State(rightThumb))
	assert.Len(t, sink.snapshot(), 2, "failed calls are not retried")

	var kinds []contracts.EventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []contracts.EventKind{
		contracts.DeviceError, contracts.ChordStarted,
		contracts.DeviceError, contracts.ChordStopped,
	}, kinds)
	assert.Contains(t, events[0].Message, "port closed")
}

func TestObserverSeesStartAndStop(t *testing.T) {
	var events []contracts.Event
	obs := contracts.ObserverFunc(func(e contracts.Event) { events = append(events, e) })
	s, _, fake := newTestScheduler(t, obs)

	s.Onset(leftIndex)
	s.Release(leftIndex)
	fake.Advance(2 * time.Second)

	require.Len(t, events, 2)
	assert.Equal(t, contracts.ChordStarted, events[0].Kind)
	assert.Equal(t, "E Minor", events[0].Name)
	assert.Equal(t, contracts.ChordStopped, events[1].Kind)
	assert.Equal(t, start.Add(2*time.Second), events[1].At)
}

func TestPendingIffReleasingUnderRandomInput(t *testing.T) {
	s, sink, fake := newTestScheduler(t, nil)
	rng := rand.New(rand.NewSource(7))
	slots := contracts.AllSlots()

	for i := 0; i < 2000; i++ {
		slot := slots[rng.Intn(len(slots))]
		switch rng.Intn(5) {
		case 0, 1:
			s.Onset(slot)
		case 2, 3:
			s.Release(slot)
		case 4:
			if rng.Intn(10) == 0 {
				s.ForceStop(slot)
			}
		}
		fake.Advance(time.Duration(rng.Intn(800)) * time.Millisecond)

		for _, sl := range slots {
			assert.Equal(t, s.State(sl) == Releasing, s.Pending(sl), "slot %s step %d", sl, i)
		}
	}

	// Every note-on is matched by at most one note-off and vice versa.
	s.StopAll()
	var ons, offs int
	for _, c := range sink.snapshot() {
		if c.on {
			ons++
		} else {
			offs++
		}
	}
	assert.Equal(t, ons, offs)
}

func TestRealClockReleaseFires(t *testing.T) {
	reg, err := chord.NewRegistry(chord.DefaultTable())
	require.NoError(t, err)
	wall := clock.Real()
	sink := &recordingSink{clock: wall, start: wall.Now()}
	s, err := New(Config{Chords: reg, Sink: sink, Clock: wall, Sustain: 20 * time.Millisecond, Logger: logger.NewNop()})
	require.NoError(t, err)

	s.Onset(rightThumb)
	s.Release(rightThumb)
	assert.Eventually(t, func() bool { return s.State(rightThumb) == Idle }, time.Second, 5*time.Millisecond)

	offs := sink.offs()
	require.Len(t, offs, 1)
	assert.GreaterOrEqual(t, offs[0].at, 20*time.Millisecond)
}
