package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/airpiano/internal/midi/mididarwin"
	"github.com/leandrodaf/airpiano/internal/midi/midilinux"
	"github.com/leandrodaf/airpiano/internal/midi/midiwindows"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// ErrUnsupportedOS is returned when the operating system is not supported by the MIDI client.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// clientInitializers maps OS names to corresponding MIDI output client initializers.
var clientInitializers = map[string]func(*contracts.ClientOptions) (contracts.ClientMIDI, error){
	"darwin":  mididarwin.NewMIDIClient,  // macOS (Darwin) CoreMIDI output.
	"windows": midiwindows.NewMIDIClient, // Windows winmm output.
	"linux":   midilinux.NewMIDIClient,   // Linux ALSA output through rtmidi.
}

// NewClient initializes a MIDI output client based on the current operating system.
// It returns ErrUnsupportedOS if there is no backend for runtime.GOOS.
//
// opts *contracts.ClientOptions: Configuration options for the MIDI client.
//
// Returns:
//   - contracts.ClientMIDI: An instance of the MIDI client.
//   - error: An error if the operating system is unsupported or if initialization fails.
func NewClient(opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	return newClientFor(runtime.GOOS, opts)
}

func newClientFor(goos string, opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	if initializer, exists := clientInitializers[goos]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
}
