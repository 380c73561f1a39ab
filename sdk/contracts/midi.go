package contracts

// ClientMIDI defines an interface for MIDI output operations.
type ClientMIDI interface {
	Stop() error                        // Closes the selected output and releases resources.
	ListDevices() ([]DeviceInfo, error) // Lists all available MIDI output devices.
	SelectDevice(deviceID int) error    // Opens a MIDI output device by its ID.
	Send(message []byte) error          // Sends one complete short MIDI message to the selected device.
}
