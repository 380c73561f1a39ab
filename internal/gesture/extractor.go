// Package gesture turns hand keypoints into per-finger up/down states and
// debounces them into onset and release transitions.
package gesture

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// ErrMalformedObservation is returned when a hand does not carry exactly
// contracts.NumKeypoints keypoints.
var ErrMalformedObservation = errors.New("malformed hand observation")

// Landmark indices of each fingertip and the joint it is compared against,
// in Thumb..Pinky order.
var (
	tipIDs   = [contracts.NumFingers]int{4, 8, 12, 16, 20}
	jointIDs = [contracts.NumFingers]int{3, 6, 10, 14, 18}
)

// FingersUp reports which fingers of one hand are raised.
//
// The thumb is compared on the x axis and the direction flips with the hand
// side; the other fingers are up when the tip is above (smaller y) the joint.
func FingersUp(obs contracts.HandObservation) (contracts.FingerVector, error) {
	var v contracts.FingerVector
	if len(obs.Keypoints) != contracts.NumKeypoints {
		return v, fmt.Errorf("%w: %s hand has %d keypoints, want %d",
			ErrMalformedObservation, obs.Side, len(obs.Keypoints), contracts.NumKeypoints)
	}

	kp := obs.Keypoints
	tip, joint := kp[tipIDs[contracts.Thumb]], kp[jointIDs[contracts.Thumb]]
	switch obs.Side {
	case contracts.Right:
		v[contracts.Thumb] = tip.X > joint.X
	case contracts.Left:
		v[contracts.Thumb] = tip.X < joint.X
	default:
		return v, fmt.Errorf("%w: unknown side %s", ErrMalformedObservation, obs.Side)
	}

	for _, f := range contracts.Fingers[1:] {
		v[f] = kp[tipIDs[f]].Y < kp[jointIDs[f]].Y
	}
	return v, nil
}
