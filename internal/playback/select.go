package playback

import (
	"fmt"
	"strings"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// Options controls sink selection.
type Options struct {
	Logger contracts.Logger
	Output contracts.OutputConfig
	Tone   contracts.ToneConfig

	// Client is used as is when set. Otherwise NewClient is called.
	Client    contracts.ClientMIDI
	NewClient func() (contracts.ClientMIDI, error)

	// NewAudio opens the fallback audio device. Defaults to NewOtoOutput.
	NewAudio func(sampleRate int) (AudioOutput, error)
}

// New picks the sink once: a MIDISink when an output device can be opened,
// otherwise a ToneSink. It never fails; device problems are logged once and
// degrade to the fallback.
func New(o Options) contracts.Sink {
	if !o.Output.Disabled {
		sink, err := openMIDI(o)
		if err == nil {
			return sink
		}
		o.Logger.Warn("no MIDI output, falling back to tones",
			o.Logger.Field().Error("error", err))
	}
	return newFallback(o)
}

func openMIDI(o Options) (*MIDISink, error) {
	client := o.Client
	if client == nil {
		if o.NewClient == nil {
			return nil, fmt.Errorf("%w: no MIDI backend", ErrDeviceUnavailable)
		}
		var err error
		if client, err = o.NewClient(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
	}

	devices, err := client.ListDevices()
	if err != nil || len(devices) == 0 {
		_ = client.Stop()
		if err == nil {
			err = fmt.Errorf("no output devices")
		}
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	device := PickDevice(devices, o.Output.Device)
	if o.Output.Device != "" && !matches(device.Name, o.Output.Device) {
		o.Logger.Warn("preferred MIDI output not found, using first device",
			o.Logger.Field().String("wanted", o.Output.Device),
			o.Logger.Field().String("device", device.Name))
	}
	if err := client.SelectDevice(device.ID); err != nil {
		_ = client.Stop()
		return nil, fmt.Errorf("%w: select %q: %v", ErrDeviceUnavailable, device.Name, err)
	}

	sink, err := NewMIDISink(client, o.Output, o.Logger)
	if err != nil {
		_ = client.Stop()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	o.Logger.Info("MIDI output ready",
		o.Logger.Field().String("device", device.Name),
		o.Logger.Field().Uint8("channel", o.Output.Channel))
	return sink, nil
}

func newFallback(o Options) *ToneSink {
	if o.Tone.Disabled {
		o.Logger.Info("fallback tones disabled, running silent")
		return NewToneSink(silentOutput{}, o.Tone)
	}
	rate := o.Tone.SampleRate
	if rate <= 0 {
		rate = DefaultToneSampleRate
	}
	open := o.NewAudio
	if open == nil {
		open = func(r int) (AudioOutput, error) { return NewOtoOutput(r) }
	}
	out, err := open(rate)
	if err != nil {
		o.Logger.Warn("no audio output, running silent", o.Logger.Field().Error("error", err))
		return NewToneSink(silentOutput{}, o.Tone)
	}
	return NewToneSink(out, o.Tone)
}

// PickDevice returns the first device whose name contains pattern
// (case-insensitive), or the first device when nothing matches.
// devices must not be empty.
func PickDevice(devices []contracts.DeviceInfo, pattern string) contracts.DeviceInfo {
	if pattern != "" {
		for _, d := range devices {
			if matches(d.Name, pattern) {
				return d
			}
		}
	}
	return devices[0]
}

func matches(name, pattern string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(pattern))
}
