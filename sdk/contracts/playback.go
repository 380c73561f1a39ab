package contracts

import "context"

// SinkMode reports which playback path a Sink drives.
type SinkMode int

const (
	// MIDIMode forwards note-on/note-off to a MIDI output device.
	MIDIMode SinkMode = iota
	// ToneMode plays a short synthesized tone per onset; there is no note-off.
	ToneMode
)

func (m SinkMode) String() string {
	if m == ToneMode {
		return "tone"
	}
	return "midi"
}

// Sink receives chord events and forwards them to the playback device.
type Sink interface {
	NoteOn(slot Slot, chord ChordDefinition) error
	NoteOff(slot Slot, chord ChordDefinition) error
	Mode() SinkMode
	Close() error
}

// Source yields one frame per poll. ok is false when no frame is available
// this poll (a stall). io.EOF signals that the source is exhausted.
type Source interface {
	Next(ctx context.Context) (frame Frame, ok bool, err error)
}
