// Package config loads the airpiano YAML configuration and maps it onto
// engine options.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/leandrodaf/airpiano/internal/chord"
	"github.com/leandrodaf/airpiano/internal/playback"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// Config holds all airpiano configuration.
type Config struct {
	// Delay between a finger going down and the note-off, e.g. "2s".
	SustainTime string `yaml:"sustain_time"`

	// side -> finger -> chord. Slots left out keep the D major default.
	Chords map[string]map[string]ChordConfig `yaml:"chords"`

	Output  OutputConfig  `yaml:"output"`
	Tone    ToneConfig    `yaml:"tone"`
	Source  SourceConfig  `yaml:"source"`
	Logging LoggingConfig `yaml:"logging"`
}

// ChordConfig is one chord of the table.
type ChordConfig struct {
	Name  string `yaml:"name"`
	Notes []int  `yaml:"notes"`
}

// OutputConfig configures the MIDI output.
type OutputConfig struct {
	Device     string `yaml:"device"` // substring of the device name, empty = first
	Channel    int    `yaml:"channel"`
	Velocity   int    `yaml:"velocity"`
	Program    int    `yaml:"program"`
	ClientName string `yaml:"client_name"`
	Disabled   bool   `yaml:"disabled"`
}

// ToneConfig configures the fallback tone.
type ToneConfig struct {
	Frequencies map[string]float64 `yaml:"frequencies"` // finger -> Hz
	Duration    string             `yaml:"duration"`
	SampleRate  int                `yaml:"sample_rate"`
	Disabled    bool               `yaml:"disabled"`
}

// SourceConfig configures how frames are read.
type SourceConfig struct {
	StallThreshold int    `yaml:"stall_threshold"`
	IdleFrames     int    `yaml:"idle_frames"`
	PollTimeout    string `yaml:"poll_timeout"`
	Realtime       bool   `yaml:"realtime"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty logs to the console
}

// Default returns the built-in configuration.
func Default() *Config {
	chords := make(map[string]map[string]ChordConfig, len(contracts.Sides))
	for slot, def := range chord.DefaultTable() {
		side := slot.Side.String()
		if chords[side] == nil {
			chords[side] = make(map[string]ChordConfig, contracts.NumFingers)
		}
		notes := make([]int, len(def.Notes))
		for i, n := range def.Notes {
			notes[i] = int(n)
		}
		chords[side][slot.Finger.String()] = ChordConfig{Name: def.Name, Notes: notes}
	}

	tones := make(map[string]float64, contracts.NumFingers)
	for f, hz := range playback.DefaultTones() {
		tones[f.String()] = hz
	}

	return &Config{
		SustainTime: "2s",
		Chords:      chords,
		Output: OutputConfig{
			Channel:    0,
			Velocity:   127,
			Program:    0,
			ClientName: "airpiano",
		},
		Tone: ToneConfig{
			Frequencies: tones,
			Duration:    playback.DefaultToneDuration.String(),
			SampleRate:  playback.DefaultToneSampleRate,
		},
		Source: SourceConfig{
			StallThreshold: 30,
			IdleFrames:     90,
			PollTimeout:    "100ms",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path on top of the defaults. A missing file yields the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AIRPIANO_MIDI_DEVICE"); v != "" {
		c.Output.Device = v
	}
	if v := os.Getenv("AIRPIANO_SUSTAIN_TIME"); v != "" {
		c.SustainTime = v
	}
	if v := os.Getenv("AIRPIANO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var err error

	if d, e := time.ParseDuration(c.SustainTime); e != nil {
		err = multierr.Append(err, fmt.Errorf("sustain_time: %w", e))
	} else if d <= 0 {
		err = multierr.Append(err, fmt.Errorf("sustain_time must be positive, got %s", d))
	}

	if _, e := c.chordTable(); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := c.toneTable(); e != nil {
		err = multierr.Append(err, e)
	}
	if c.Tone.Duration != "" {
		if _, e := time.ParseDuration(c.Tone.Duration); e != nil {
			err = multierr.Append(err, fmt.Errorf("tone.duration: %w", e))
		}
	}
	if c.Source.PollTimeout != "" {
		if _, e := time.ParseDuration(c.Source.PollTimeout); e != nil {
			err = multierr.Append(err, fmt.Errorf("source.poll_timeout: %w", e))
		}
	}

	if c.Output.Channel < 0 || c.Output.Channel > 15 {
		err = multierr.Append(err, fmt.Errorf("output.channel %d out of range 0-15", c.Output.Channel))
	}
	if c.Output.Velocity < 1 || c.Output.Velocity > 127 {
		err = multierr.Append(err, fmt.Errorf("output.velocity %d out of range 1-127", c.Output.Velocity))
	}
	if c.Output.Program < 0 || c.Output.Program > 127 {
		err = multierr.Append(err, fmt.Errorf("output.program %d out of range 0-127", c.Output.Program))
	}
	if c.Source.StallThreshold < 0 || c.Source.IdleFrames < 0 {
		err = multierr.Append(err, fmt.Errorf("source thresholds must not be negative"))
	}
	if _, ok := contracts.ParseLogLevel(c.Logging.Level); !ok {
		err = multierr.Append(err, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	return err
}

// GetSustainTime returns the parsed sustain time. Call Validate first.
func (c *Config) GetSustainTime() time.Duration {
	d, _ := time.ParseDuration(c.SustainTime)
	return d
}

// GetPollTimeout returns the parsed source poll timeout, zero when unset.
func (c *Config) GetPollTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Source.PollTimeout)
	return d
}

// Options validates the configuration and maps it onto engine options.
func (c *Config) Options() ([]contracts.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	table, _ := c.chordTable()
	tones, _ := c.toneTable()
	toneDuration, _ := time.ParseDuration(c.Tone.Duration)
	level, _ := contracts.ParseLogLevel(c.Logging.Level)

	opts := []contracts.Option{
		contracts.WithSustainTime(c.GetSustainTime()),
		contracts.WithChordTable(table),
		contracts.WithStallFrames(c.Source.StallThreshold),
		contracts.WithIdleFrames(c.Source.IdleFrames),
		contracts.WithLogLevel(level),
		contracts.WithOutputConfig(contracts.OutputConfig{
			Device:   c.Output.Device,
			Channel:  uint8(c.Output.Channel),
			Velocity: uint8(c.Output.Velocity),
			Program:  uint8(c.Output.Program),
			Disabled: c.Output.Disabled,
		}),
		contracts.WithToneConfig(contracts.ToneConfig{
			Frequencies: tones,
			Duration:    toneDuration,
			SampleRate:  c.Tone.SampleRate,
			Disabled:    c.Tone.Disabled,
		}),
	}
	if c.Output.ClientName != "" {
		opts = append(opts, contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: c.Output.ClientName}))
	}
	if c.Logging.File != "" {
		opts = append(opts, contracts.WithLogFile(c.Logging.File))
	}
	return opts, nil
}

func (c *Config) chordTable() (contracts.ChordTable, error) {
	table := make(contracts.ChordTable)
	var err error
	for sideName, fingers := range c.Chords {
		side, e := contracts.ParseSide(sideName)
		if e != nil {
			err = multierr.Append(err, fmt.Errorf("chords: %w", e))
			continue
		}
		for fingerName, cc := range fingers {
			finger, e := contracts.ParseFinger(fingerName)
			if e != nil {
				err = multierr.Append(err, fmt.Errorf("chords.%s: %w", sideName, e))
				continue
			}
			def, e := cc.definition()
			if e != nil {
				err = multierr.Append(err, fmt.Errorf("chords.%s.%s: %w", sideName, fingerName, e))
				continue
			}
			table[contracts.Slot{Side: side, Finger: finger}] = def
		}
	}
	if err != nil {
		return nil, err
	}
	if _, e := chord.NewRegistry(chord.Merge(table)); e != nil {
		return nil, e
	}
	return table, nil
}

func (cc ChordConfig) definition() (contracts.ChordDefinition, error) {
	notes := make([]uint8, len(cc.Notes))
	for i, n := range cc.Notes {
		if n < 0 || n > 127 {
			return contracts.ChordDefinition{}, fmt.Errorf("note %d out of range 0-127", n)
		}
		notes[i] = uint8(n)
	}
	return contracts.ChordDefinition{Name: cc.Name, Notes: notes}, nil
}

func (c *Config) toneTable() (contracts.ToneTable, error) {
	tones := make(contracts.ToneTable, len(c.Tone.Frequencies))
	var err error
	for name, hz := range c.Tone.Frequencies {
		f, e := contracts.ParseFinger(name)
		if e != nil {
			err = multierr.Append(err, fmt.Errorf("tone.frequencies: %w", e))
			continue
		}
		if hz <= 0 {
			err = multierr.Append(err, fmt.Errorf("tone.frequencies.%s must be positive", name))
			continue
		}
		tones[f] = hz
	}
	return tones, err
}
