package contracts

// ChordDefinition is the set of notes played by one slot and its display name.
type ChordDefinition struct {
	Name  string  // Display name, e.g. "D Major".
	Notes []uint8 // MIDI note numbers (0-127), in play order. Never empty.
}

// ChordTable maps every slot to the chord it plays.
type ChordTable map[Slot]ChordDefinition

// ToneTable maps a finger to the frequency (Hz) of its fallback tone.
type ToneTable map[Finger]float64
