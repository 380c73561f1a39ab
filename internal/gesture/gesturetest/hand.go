// Package gesturetest builds synthetic hand observations for tests.
package gesturetest

import "github.com/leandrodaf/airpiano/sdk/contracts"

var (
	tips   = [contracts.NumFingers]int{4, 8, 12, 16, 20}
	joints = [contracts.NumFingers]int{3, 6, 10, 14, 18}
)

// Hand returns a well-formed observation of side with only the listed
// fingers raised.
func Hand(side contracts.Side, raised ...contracts.Finger) contracts.HandObservation {
	kp := make([]contracts.Keypoint, contracts.NumKeypoints)
	for i := range kp {
		kp[i] = contracts.Keypoint{X: 0.5, Y: 0.5}
	}
	for _, f := range contracts.Fingers {
		up := false
		for _, r := range raised {
			up = up || r == f
		}
		if f == contracts.Thumb {
			// A raised right thumb points right of its joint, a left one left.
			dx := -0.1
			if up {
				dx = 0.1
			}
			if side == contracts.Left {
				dx = -dx
			}
			kp[tips[f]].X = kp[joints[f]].X + dx
			continue
		}
		if up {
			kp[tips[f]].Y = 0.2
		} else {
			kp[tips[f]].Y = 0.7
		}
	}
	return contracts.HandObservation{Side: side, Keypoints: kp}
}

// Frame bundles hands into a frame.
func Frame(hands ...contracts.HandObservation) contracts.Frame {
	return contracts.Frame{Hands: hands}
}
