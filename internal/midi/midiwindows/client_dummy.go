//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// ErrWinMMUnavailable is returned outside Windows.
var ErrWinMMUnavailable = errors.New("winmm MIDI output requires Windows")

type winmmStub struct{}

// NewMIDIClient returns a client whose every call reports ErrWinMMUnavailable.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Debug("winmm stand-in created")
	return winmmStub{}, nil
}

// ListDevices reports that no winmm outputs exist here.
func (winmmStub) ListDevices() ([]contracts.DeviceInfo, error) { return nil, ErrWinMMUnavailable }

// SelectDevice always fails.
func (winmmStub) SelectDevice(int) error { return ErrWinMMUnavailable }

// Send always fails.
func (winmmStub) Send([]byte) error { return ErrWinMMUnavailable }

// Stop has nothing to release.
func (winmmStub) Stop() error { return nil }
