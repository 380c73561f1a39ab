//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/airpiano/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI output issues.
var (
	ErrNoMIDIDevices       = errors.New("no MIDI destinations found")
	ErrInvalidMIDIDevice   = errors.New("invalid MIDI device")
	ErrCreateOutputPort    = errors.New("error creating output port")
	ErrNoDeviceSelected    = errors.New("no MIDI device selected")
	ErrMIDISendFailed      = errors.New("error sending MIDI message")
	ErrClientAlreadyClosed = errors.New("MIDI client already stopped")
)

// ClientMid manages MIDI output on Darwin (macOS) systems through CoreMIDI.
type ClientMid struct {
	logger         contracts.Logger
	client         coremidi.Client           // CoreMIDI client instance for MIDI operations.
	outputPort     coremidi.OutputPort       // Output port messages are sent through.
	destination    *coremidi.Destination     // Selected destination, nil until SelectDevice succeeds.
	coreMIDIConfig *contracts.CoreMIDIConfig // Configuration for MIDI client.
	mu             sync.Mutex                // Serializes sends and selection.
	stopped        bool
}

// NewMIDIClient initializes a new ClientMid for sending MIDI on macOS.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	port, err := coremidi.NewOutputPort(client, "Output Port")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	options.Logger.Info("MIDI client successfully created")

	return &ClientMid{
		logger:         options.Logger,
		client:         client,
		outputPort:     port,
		coreMIDIConfig: options.CoreMIDIConfig,
	}, nil
}

// ListDevices retrieves and returns available MIDI destinations.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(destinations) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(destinations))
	for i, destination := range destinations {
		entity := destination.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         destination.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice selects a MIDI destination by ID.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrClientAlreadyClosed
	}
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if deviceID < 0 || deviceID >= len(destinations) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}

	destination := destinations[deviceID]
	m.destination = &destination
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", destination.Name()))
	return nil
}

// Send writes one short message to the selected destination.
func (m *ClientMid) Send(message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrClientAlreadyClosed
	}
	if m.destination == nil {
		return ErrNoDeviceSelected
	}
	packet := coremidi.NewPacket(message, 0)
	if err := packet.Send(&m.outputPort, m.destination); err != nil {
		return fmt.Errorf("%w: %v", ErrMIDISendFailed, err)
	}
	return nil
}

// Stop releases the selected destination. Further sends fail.
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil
	}
	m.stopped = true
	m.destination = nil
	m.logger.Info("MIDI output stopped")
	return nil
}
