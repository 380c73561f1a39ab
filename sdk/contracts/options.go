package contracts

import "time"

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// OutputConfig describes how chords are sent to the MIDI output.
type OutputConfig struct {
	Device   string // Case-insensitive substring of the preferred device name. Empty picks the first device.
	Channel  uint8  // MIDI channel, 0-15.
	Velocity uint8  // Note-on and note-off velocity, 1-127.
	Program  uint8  // Instrument selected once the device is opened.
	Disabled bool   // Skip the MIDI device entirely and use the fallback tone.
}

// ToneConfig describes the fallback tone generator.
type ToneConfig struct {
	Frequencies ToneTable     // Hz per finger.
	Duration    time.Duration // Length of each tone.
	SampleRate  int           // Samples per second.
	Disabled    bool          // Run silently instead of opening an audio device.
}

// Timer is a cancellable pending action.
type Timer interface {
	// Stop prevents the action from running. It returns false if the action
	// already ran or was already stopped.
	Stop() bool
}

// Clock schedules delayed actions.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// ClientOptions defines the configuration options for the MIDI client and the engine.
type ClientOptions struct {
	Logger         Logger          // Logger for logging events and errors.
	LogLevel       LogLevel        // Level of logging to use.
	LogFilePath    string          // File path for logging if file logging is enabled.
	CoreMIDIConfig *CoreMIDIConfig // Configuration specific to CoreMIDI.

	Output      *OutputConfig // MIDI output settings.
	Tone        *ToneConfig   // Fallback tone settings.
	Chords      ChordTable    // Slot -> chord; missing slots use the default table.
	SustainTime time.Duration // Delay between release and note-off.
	StallFrames int           // Consecutive empty polls before a SourceStall warning.
	IdleFrames  int           // Consecutive frames without hands before everything is stopped. 0 disables.
	Observer    Observer      // Receives chord and device events.
	Clock       Clock         // Time source for sustain timers.
	Client      ClientMIDI    // Pre-built MIDI client; skips OS client discovery.
	Sink        Sink          // Pre-built sink; skips device selection entirely.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile sends logs to the given file instead of the console.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI client.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithOutputConfig sets the MIDI output settings.
func WithOutputConfig(config OutputConfig) Option {
	return func(opts *ClientOptions) {
		opts.Output = &config
	}
}

// WithToneConfig sets the fallback tone settings.
func WithToneConfig(config ToneConfig) Option {
	return func(opts *ClientOptions) {
		opts.Tone = &config
	}
}

// WithChordTable overrides chords per slot.
func WithChordTable(table ChordTable) Option {
	return func(opts *ClientOptions) {
		opts.Chords = table
	}
}

// WithSustainTime sets the delay between a finger going down and the note-off.
func WithSustainTime(d time.Duration) Option {
	return func(opts *ClientOptions) {
		opts.SustainTime = d
	}
}

// WithStallFrames sets how many empty polls are tolerated before a stall warning.
func WithStallFrames(n int) Option {
	return func(opts *ClientOptions) {
		opts.StallFrames = n
	}
}

// WithIdleFrames sets how many consecutive frames without hands stop every chord.
func WithIdleFrames(n int) Option {
	return func(opts *ClientOptions) {
		opts.IdleFrames = n
	}
}

// WithObserver registers an observer for chord and device events.
func WithObserver(o Observer) Option {
	return func(opts *ClientOptions) {
		opts.Observer = o
	}
}

// WithClock replaces the wall clock used for sustain timers.
func WithClock(c Clock) Option {
	return func(opts *ClientOptions) {
		opts.Clock = c
	}
}

// WithClient uses an already constructed MIDI client.
func WithClient(c ClientMIDI) Option {
	return func(opts *ClientOptions) {
		opts.Client = c
	}
}

// WithSink uses an already constructed sink.
func WithSink(s Sink) Option {
	return func(opts *ClientOptions) {
		opts.Sink = s
	}
}
