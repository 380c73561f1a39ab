package contracts

import "fmt"

// Side identifies which hand an observation belongs to.
type Side int

const (
	// Left is the performer's left hand.
	Left Side = iota
	// Right is the performer's right hand.
	Right
)

// Sides lists both hand sides in processing order.
var Sides = [...]Side{Left, Right}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// ParseSide accepts "left"/"right" in any case used by hand detectors ("Left", "LEFT").
func ParseSide(name string) (Side, error) {
	switch name {
	case "left", "Left", "LEFT":
		return Left, nil
	case "right", "Right", "RIGHT":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown hand side %q", name)
}

// Finger identifies one finger of a hand.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// NumFingers is the number of fingers tracked per hand.
const NumFingers = 5

// Fingers lists the fingers in vector order.
var Fingers = [NumFingers]Finger{Thumb, Index, Middle, Ring, Pinky}

var fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || int(f) >= NumFingers {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// ParseFinger maps a lower-case finger name to a Finger.
func ParseFinger(name string) (Finger, error) {
	for i, n := range fingerNames {
		if n == name {
			return Finger(i), nil
		}
	}
	return 0, fmt.Errorf("unknown finger %q", name)
}

// Slot is one controllable gesture: a finger on a given hand.
type Slot struct {
	Side   Side
	Finger Finger
}

// NumSlots is the fixed number of slots (2 sides x 5 fingers).
const NumSlots = 2 * NumFingers

func (s Slot) String() string {
	return s.Side.String() + "/" + s.Finger.String()
}

// Index returns the slot's position in [0, NumSlots).
func (s Slot) Index() int {
	return int(s.Side)*NumFingers + int(s.Finger)
}

// AllSlots returns every slot in fixed order: left thumb..pinky, then right thumb..pinky.
func AllSlots() []Slot {
	slots := make([]Slot, 0, NumSlots)
	for _, side := range Sides {
		for _, f := range Fingers {
			slots = append(slots, Slot{Side: side, Finger: f})
		}
	}
	return slots
}

// NumKeypoints is the number of landmarks a hand detector reports per hand.
const NumKeypoints = 21

// Keypoint is one landmark in image coordinates (y grows downwards).
type Keypoint struct {
	X float64
	Y float64
}

// HandObservation is one detected hand in a frame.
type HandObservation struct {
	Side      Side
	Keypoints []Keypoint
}

// FingerVector holds the up/down state of each finger, indexed by Finger.
type FingerVector [NumFingers]bool

// Frame is one batch of observations: zero, one or two visible hands.
type Frame struct {
	Hands []HandObservation
}
