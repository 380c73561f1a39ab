package gesture

import "github.com/leandrodaf/airpiano/sdk/contracts"

// TransitionKind is the direction of a debounced finger change.
type TransitionKind int

const (
	// Onset means the finger went from down to up.
	Onset TransitionKind = iota
	// Release means the finger went from up to down.
	Release
)

func (k TransitionKind) String() string {
	if k == Release {
		return "release"
	}
	return "onset"
}

// Transition is emitted once per slot state change.
type Transition struct {
	Kind TransitionKind
	Slot contracts.Slot
}

// Debouncer remembers the last known state of every slot and reports changes.
// It is not safe for concurrent use; the frame loop owns it.
type Debouncer struct {
	up [contracts.NumSlots]bool
}

// NewDebouncer returns a debouncer with every finger down.
func NewDebouncer() *Debouncer {
	return &Debouncer{}
}

// Update compares one frame's finger vectors with the previous state.
//
// A side missing from vectors counts as all fingers down, so losing a hand
// releases every slot on that side. Sides listed in held keep their previous
// state for this frame. Transitions are ordered left before right, thumb to
// pinky.
func (d *Debouncer) Update(vectors map[contracts.Side]contracts.FingerVector, held ...contracts.Side) []Transition {
	var out []Transition
	for _, side := range contracts.Sides {
		if containsSide(held, side) {
			continue
		}
		v := vectors[side] // zero value: all down
		for _, f := range contracts.Fingers {
			slot := contracts.Slot{Side: side, Finger: f}
			i := slot.Index()
			switch {
			case v[f] && !d.up[i]:
				out = append(out, Transition{Kind: Onset, Slot: slot})
			case !v[f] && d.up[i]:
				out = append(out, Transition{Kind: Release, Slot: slot})
			default:
				continue
			}
			d.up[i] = v[f]
		}
	}
	return out
}

// IsUp returns the last known state of slot.
func (d *Debouncer) IsUp(slot contracts.Slot) bool {
	return d.up[slot.Index()]
}

// Reset marks every finger as down without emitting transitions.
func (d *Debouncer) Reset() {
	d.up = [contracts.NumSlots]bool{}
}

func containsSide(sides []contracts.Side, s contracts.Side) bool {
	for _, x := range sides {
		if x == s {
			return true
		}
	}
	return false
}
