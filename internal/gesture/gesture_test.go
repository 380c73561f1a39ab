package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// hand builds 21 keypoints with every finger curled, then raises the listed fingers.
func hand(side contracts.Side, raised ...contracts.Finger) contracts.HandObservation {
	kp := make([]contracts.Keypoint, contracts.NumKeypoints)
	for i := range kp {
		kp[i] = contracts.Keypoint{X: 100, Y: 100}
	}
	// Curled thumb: tip on the palm side of the joint.
	if side == contracts.Right {
		kp[4].X = 90
	} else {
		kp[4].X = 110
	}
	for _, f := range []contracts.Finger{contracts.Index, contracts.Middle, contracts.Ring, contracts.Pinky} {
		kp[tipIDs[f]].Y = 120
	}
	for _, f := range raised {
		if f == contracts.Thumb {
			if side == contracts.Right {
				kp[4].X = 130
			} else {
				kp[4].X = 70
			}
			continue
		}
		kp[tipIDs[f]].Y = 40
	}
	return contracts.HandObservation{Side: side, Keypoints: kp}
}

func TestFingersUpRightHand(t *testing.T) {
	v, err := FingersUp(hand(contracts.Right, contracts.Thumb, contracts.Middle))
	require.NoError(t, err)
	assert.Equal(t, contracts.FingerVector{true, false, true, false, false}, v)
}

func TestFingersUpThumbDirectionFlipsWithSide(t *testing.T) {
	obs := hand(contracts.Right, contracts.Thumb)

	v, err := FingersUp(obs)
	require.NoError(t, err)
	assert.True(t, v[contracts.Thumb])

	// Same coordinates read as a left hand: the thumb points inwards.
	obs.Side = contracts.Left
	v, err = FingersUp(obs)
	require.NoError(t, err)
	assert.False(t, v[contracts.Thumb])

	v, err = FingersUp(hand(contracts.Left, contracts.Thumb, contracts.Pinky))
	require.NoError(t, err)
	assert.Equal(t, contracts.FingerVector{true, false, false, false, true}, v)
}

func TestFingersUpTipLevelWithJointIsDown(t *testing.T) {
	obs := hand(contracts.Left)
	obs.Keypoints[8].Y = obs.Keypoints[6].Y
	v, err := FingersUp(obs)
	require.NoError(t, err)
	assert.False(t, v[contracts.Index])
}

func TestFingersUpRejectsWrongKeypointCount(t *testing.T) {
	for _, n := range []int{0, 20, 22} {
		obs := contracts.HandObservation{Side: contracts.Right, Keypoints: make([]contracts.Keypoint, n)}
		_, err := FingersUp(obs)
		assert.ErrorIs(t, err, ErrMalformedObservation, "keypoints=%d", n)
	}
}

func vectors(pairs ...any) map[contracts.Side]contracts.FingerVector {
	m := map[contracts.Side]contracts.FingerVector{}
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i].(contracts.Side)] = pairs[i+1].(contracts.FingerVector)
	}
	return m
}

func TestDebouncerEmitsOnlyOnChange(t *testing.T) {
	d := NewDebouncer()
	rightThumb := contracts.Slot{Side: contracts.Right, Finger: contracts.Thumb}

	got := d.Update(vectors(contracts.Right, contracts.FingerVector{true}))
	assert.Equal(t, []Transition{{Kind: Onset, Slot: rightThumb}}, got)
	assert.True(t, d.IsUp(rightThumb))

	assert.Empty(t, d.Update(vectors(contracts.Right, contracts.FingerVector{true})))

	got = d.Update(vectors(contracts.Right, contracts.FingerVector{}))
	assert.Equal(t, []Transition{{Kind: Release, Slot: rightThumb}}, got)
	assert.False(t, d.IsUp(rightThumb))

	assert.Empty(t, d.Update(vectors(contracts.Right, contracts.FingerVector{})))
}

func TestDebouncerMissingSideReleasesOnlyThatSide(t *testing.T) {
	d := NewDebouncer()
	d.Update(vectors(
		contracts.Left, contracts.FingerVector{false, true},
		contracts.Right, contracts.FingerVector{false, false, false, false, true},
	))

	got := d.Update(vectors(contracts.Right, contracts.FingerVector{false, false, false, false, true}))
	assert.Equal(t, []Transition{
		{Kind: Release, Slot: contracts.Slot{Side: contracts.Left, Finger: contracts.Index}},
	}, got)

	got = d.Update(nil)
	assert.Equal(t, []Transition{
		{Kind: Release, Slot: contracts.Slot{Side: contracts.Right, Finger: contracts.Pinky}},
	}, got)
}

func TestDebouncerOrderIsStable(t *testing.T) {
	d := NewDebouncer()
	all := contracts.FingerVector{true, true, true, true, true}
	got := d.Update(vectors(contracts.Right, all, contracts.Left, all))

	require.Len(t, got, contracts.NumSlots)
	for i, slot := range contracts.AllSlots() {
		assert.Equal(t, Transition{Kind: Onset, Slot: slot}, got[i])
	}
}

func TestDebouncerHeldSideKeepsState(t *testing.T) {
	d := NewDebouncer()
	d.Update(vectors(contracts.Left, contracts.FingerVector{true}))

	got := d.Update(nil, contracts.Left)
	assert.Empty(t, got)
	assert.True(t, d.IsUp(contracts.Slot{Side: contracts.Left, Finger: contracts.Thumb}))
}

func TestDebouncerReset(t *testing.T) {
	d := NewDebouncer()
	d.Update(vectors(contracts.Left, contracts.FingerVector{true, true}))
	d.Reset()
	assert.Empty(t, d.Update(nil))
	assert.Len(t, d.Update(vectors(contracts.Left, contracts.FingerVector{true})), 1)
}
