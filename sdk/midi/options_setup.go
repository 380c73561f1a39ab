package midi

import (
	"github.com/leandrodaf/airpiano/internal/logger"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// DefaultClientName is the name the application registers with the OS MIDI service.
const DefaultClientName = "airpiano"

// ApplyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
func ApplyDefaultOptions(opts ...contracts.Option) contracts.ClientOptions {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Set defaults if options are not provided
	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
		options.Logger.SetLevel(options.LogLevel) // Only a logger we own takes the level option
		if options.LogFilePath != "" {
			options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
		}
	}

	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: DefaultClientName}
	}
	if options.Output == nil {
		options.Output = &contracts.OutputConfig{}
	}
	if options.Output.Velocity == 0 {
		options.Output.Velocity = 127
	}
	return *options
}
