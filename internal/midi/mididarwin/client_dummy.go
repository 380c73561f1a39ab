//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// ErrCoreMIDIUnavailable is returned by every call of the stand-in client.
var ErrCoreMIDIUnavailable = errors.New("CoreMIDI is only available on macOS")

// unavailableClient lets the package build off macOS. Playback selection
// treats its errors as "no MIDI output" and falls back to tones.
type unavailableClient struct{}

func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Debug("CoreMIDI stand-in created", options.Logger.Field().String("goos", runtime.GOOS))
	return &unavailableClient{}, nil
}

func (m *unavailableClient) ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, fmt.Errorf("%w (running on %s)", ErrCoreMIDIUnavailable, runtime.GOOS)
}

func (m *unavailableClient) SelectDevice(int) error { return ErrCoreMIDIUnavailable }

func (m *unavailableClient) Send([]byte) error { return ErrCoreMIDIUnavailable }

func (m *unavailableClient) Stop() error { return nil }
