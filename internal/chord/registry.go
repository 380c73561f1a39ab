// Package chord holds the static slot to chord table.
package chord

import (
	"errors"
	"fmt"
	"sort"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// ErrIncompleteTable is returned when a table does not define a valid chord for every slot.
var ErrIncompleteTable = errors.New("incomplete chord table")

// D major scale triads, the same for both hands.
var dMajor = [contracts.NumFingers]contracts.ChordDefinition{
	contracts.Thumb:  {Name: "D Major", Notes: []uint8{62, 66, 69}},
	contracts.Index:  {Name: "E Minor", Notes: []uint8{64, 67, 71}},
	contracts.Middle: {Name: "F# Minor", Notes: []uint8{66, 69, 73}},
	contracts.Ring:   {Name: "G Major", Notes: []uint8{67, 71, 74}},
	contracts.Pinky:  {Name: "A Major", Notes: []uint8{69, 73, 76}},
}

// DefaultTable returns a fresh copy of the D major table for all ten slots.
func DefaultTable() contracts.ChordTable {
	t := make(contracts.ChordTable, contracts.NumSlots)
	for _, slot := range contracts.AllSlots() {
		t[slot] = clone(dMajor[slot.Finger])
	}
	return t
}

// Registry is a read-only slot to chord lookup. It is safe for concurrent use.
type Registry struct {
	chords [contracts.NumSlots]contracts.ChordDefinition
}

// NewRegistry validates table and freezes it. Every slot must map to a chord
// with a name and at least one note in 0..127.
func NewRegistry(table contracts.ChordTable) (*Registry, error) {
	r := &Registry{}
	var missing []string
	for _, slot := range contracts.AllSlots() {
		def, ok := table[slot]
		if !ok {
			missing = append(missing, slot.String())
			continue
		}
		if err := validate(def); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrIncompleteTable, slot, err)
		}
		r.chords[slot.Index()] = clone(def)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing %v", ErrIncompleteTable, missing)
	}
	return r, nil
}

// Merge returns the default table with overrides applied on top.
func Merge(overrides contracts.ChordTable) contracts.ChordTable {
	t := DefaultTable()
	for slot, def := range overrides {
		t[slot] = clone(def)
	}
	return t
}

// Lookup returns the chord for slot. The returned notes must not be modified.
func (r *Registry) Lookup(slot contracts.Slot) contracts.ChordDefinition {
	return r.chords[slot.Index()]
}

// Table returns a copy of the registry contents.
func (r *Registry) Table() contracts.ChordTable {
	t := make(contracts.ChordTable, contracts.NumSlots)
	for _, slot := range contracts.AllSlots() {
		t[slot] = clone(r.chords[slot.Index()])
	}
	return t
}

func validate(def contracts.ChordDefinition) error {
	if def.Name == "" {
		return errors.New("empty name")
	}
	if len(def.Notes) == 0 {
		return errors.New("no notes")
	}
	for _, n := range def.Notes {
		if n > 127 {
			return fmt.Errorf("note %d out of range", n)
		}
	}
	return nil
}

func clone(def contracts.ChordDefinition) contracts.ChordDefinition {
	notes := make([]uint8, len(def.Notes))
	copy(notes, def.Notes)
	return contracts.ChordDefinition{Name: def.Name, Notes: notes}
}
