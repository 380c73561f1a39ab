package airpiano

import (
	"time"

	"github.com/leandrodaf/airpiano/internal/clock"
	"github.com/leandrodaf/airpiano/sdk/contracts"
	"github.com/leandrodaf/airpiano/sdk/midi"
)

// Engine defaults.
const (
	DefaultSustainTime = 2 * time.Second
	DefaultStallFrames = 30
)

// applyDefaultOptions layers the engine defaults on top of the MIDI client defaults.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: The finalized options with defaults applied.
func applyDefaultOptions(opts ...contracts.Option) contracts.ClientOptions {
	options := midi.ApplyDefaultOptions(opts...)

	if options.SustainTime == 0 {
		options.SustainTime = DefaultSustainTime
	}
	if options.StallFrames == 0 {
		options.StallFrames = DefaultStallFrames
	}
	if options.Tone == nil {
		options.Tone = &contracts.ToneConfig{}
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	return options
}
