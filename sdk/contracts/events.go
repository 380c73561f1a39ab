package contracts

import "time"

// EventKind classifies an observability event.
type EventKind int

const (
	// ChordStarted is emitted when a slot starts sounding.
	ChordStarted EventKind = iota
	// ChordStopped is emitted when the note-off for a slot has been sent.
	ChordStopped
	// DeviceError is emitted when the playback device rejects a call.
	DeviceError
	// SourceStall is emitted when the frame source has produced nothing for too long.
	SourceStall
)

func (k EventKind) String() string {
	switch k {
	case ChordStarted:
		return "chord_started"
	case ChordStopped:
		return "chord_stopped"
	case DeviceError:
		return "device_error"
	case SourceStall:
		return "source_stall"
	}
	return "unknown"
}

// Event is delivered to an Observer. Name is set for chord events, Message for
// device errors and stalls.
type Event struct {
	Kind    EventKind
	Slot    Slot
	Name    string
	Message string
	At      time.Time
}

// Observer receives observability events (HUD, logs). OnEvent may be called
// from timer goroutines while engine locks are held: it must not block and must
// not call back into the engine.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnEvent calls f(e).
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// MultiObserver fans events out to every observer in order.
type MultiObserver []Observer

// OnEvent forwards e to each observer.
func (m MultiObserver) OnEvent(e Event) {
	for _, o := range m {
		if o != nil {
			o.OnEvent(e)
		}
	}
}
