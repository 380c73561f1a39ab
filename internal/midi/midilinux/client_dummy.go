//go:build !linux || !cgo
// +build !linux !cgo

package midilinux

import (
	"errors"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// ErrRtMIDIUnavailable is returned when the binary was built without cgo or
// for another system.
var ErrRtMIDIUnavailable = errors.New("rtmidi output requires linux with cgo")

type noRtMIDI struct{}

// NewMIDIClient returns a client that has no outputs.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Debug("rtmidi stand-in created")
	return noRtMIDI{}, nil
}

func (noRtMIDI) ListDevices() ([]contracts.DeviceInfo, error) { return nil, ErrRtMIDIUnavailable }
func (noRtMIDI) SelectDevice(int) error                       { return ErrRtMIDIUnavailable }
func (noRtMIDI) Send([]byte) error                            { return ErrRtMIDIUnavailable }
func (noRtMIDI) Stop() error                                  { return nil }
