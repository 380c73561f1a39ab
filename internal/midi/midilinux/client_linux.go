//go:build linux && cgo
// +build linux,cgo

package midilinux

import (
	"errors"
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/multierr"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

var (
	ErrNoMIDIDevices     = errors.New("no MIDI outputs found")
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
	ErrNoDeviceSelected  = errors.New("no MIDI device selected")
)

// ClientMid manages MIDI output on Linux through ALSA (rtmidi).
type ClientMid struct {
	logger contracts.Logger
	drv    *rtmididrv.Driver
	out    drivers.Out // Opened output, nil until SelectDevice succeeds.
	mu     sync.Mutex
}

// NewMIDIClient initializes the rtmidi driver.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	options.Logger.Info("MIDI client created for Linux")
	return &ClientMid{logger: options.Logger, drv: drv}, nil
}

// ListDevices lists the ALSA sequencer outputs.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	outs, err := m.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	if len(outs) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	devices := make([]contracts.DeviceInfo, len(outs))
	for i, out := range outs {
		devices[i] = contracts.DeviceInfo{ID: i, Name: out.String(), EntityName: out.String()}
	}
	return devices, nil
}

// SelectDevice opens output deviceID, closing any previous one.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	outs, err := m.drv.Outs()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI outputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(outs) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}
	if m.out != nil {
		_ = m.out.Close()
		m.out = nil
	}
	out := outs[deviceID]
	if err := out.Open(); err != nil {
		return fmt.Errorf("open %q: %w", out.String(), err)
	}
	m.out = out
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", out.String()))
	return nil
}

// Send writes one message to the open output.
func (m *ClientMid) Send(message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.out == nil {
		return ErrNoDeviceSelected
	}
	return m.out.Send(message)
}

// Stop closes the output and the driver.
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.out != nil {
		err = m.out.Close()
		m.out = nil
	}
	if m.drv != nil {
		err = multierr.Append(err, m.drv.Close())
		m.drv = nil
	}
	m.logger.Info("MIDI output stopped")
	return err
}
