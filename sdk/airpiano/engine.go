// Package airpiano is the public entry point: it assembles the gesture
// pipeline, the sustain scheduler and the playback sink into an Engine.
package airpiano

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/leandrodaf/airpiano/internal/chord"
	"github.com/leandrodaf/airpiano/internal/frameloop"
	"github.com/leandrodaf/airpiano/internal/observe"
	"github.com/leandrodaf/airpiano/internal/playback"
	"github.com/leandrodaf/airpiano/internal/sustain"
	"github.com/leandrodaf/airpiano/sdk/contracts"
	"github.com/leandrodaf/airpiano/sdk/midi"
)

// Engine turns hand frames into chords. Step and Run must be driven from a
// single goroutine; Close must be called once they have returned.
type Engine struct {
	session   string
	logger    contracts.Logger
	registry  *chord.Registry
	sink      contracts.Sink
	scheduler *sustain.Scheduler
	driver    *frameloop.Driver
	status    *observe.LogObserver

	closeOnce sync.Once
	closeErr  error
}

// NewEngine builds an Engine. Without WithSink the MIDI output is opened here;
// when that fails the engine falls back to tones and still succeeds.
//
// opts ...contracts.Option: A variadic list of option functions to customize the engine.
//
// Returns:
//   - *Engine: A ready engine with every slot idle.
//   - error: An error if the chord table or timings are invalid.
func NewEngine(opts ...contracts.Option) (*Engine, error) {
	options := applyDefaultOptions(opts...)

	session := uuid.New().String()
	log := options.Logger.With(options.Logger.Field().String("session", session))

	registry, err := chord.NewRegistry(chord.Merge(options.Chords))
	if err != nil {
		return nil, err
	}

	sink := options.Sink
	if sink == nil {
		sink = playback.New(playback.Options{
			Logger: log,
			Output: *options.Output,
			Tone:   *options.Tone,
			Client: options.Client,
			NewClient: func() (contracts.ClientMIDI, error) {
				return midi.NewClient(&options)
			},
		})
	}

	status := observe.NewLogObserver(log, 0)
	observer := contracts.MultiObserver{status}
	if options.Observer != nil {
		observer = append(observer, options.Observer)
	}

	scheduler, err := sustain.New(sustain.Config{
		Chords:   registry,
		Sink:     sink,
		Clock:    options.Clock,
		Sustain:  options.SustainTime,
		Logger:   log,
		Observer: observer,
	})
	if err != nil {
		return nil, multierr.Append(err, closeOwned(options.Sink, sink))
	}

	driver, err := frameloop.New(frameloop.Config{
		Scheduler:      scheduler,
		Logger:         log,
		Observer:       observer,
		Clock:          options.Clock,
		StallThreshold: options.StallFrames,
		IdleFrames:     options.IdleFrames,
	})
	if err != nil {
		return nil, multierr.Append(err, closeOwned(options.Sink, sink))
	}

	log.Info("airpiano ready",
		log.Field().String("mode", sink.Mode().String()),
		log.Field().Duration("sustain", options.SustainTime),
		log.Field().Strings("chords", summary(registry)))

	return &Engine{
		session:   session,
		logger:    log,
		registry:  registry,
		sink:      sink,
		scheduler: scheduler,
		driver:    driver,
		status:    status,
	}, nil
}

// closeOwned closes sink only when the engine created it.
func closeOwned(given, sink contracts.Sink) error {
	if given != nil {
		return nil
	}
	return sink.Close()
}

// Step processes one frame.
func (e *Engine) Step(frame contracts.Frame) { e.driver.Step(frame) }

// Run drives the engine from source until ctx is done or the source is exhausted.
func (e *Engine) Run(ctx context.Context, source contracts.Source) error {
	return e.driver.Run(ctx, source)
}

// Active returns the names of the chords currently sounding, sorted.
func (e *Engine) Active() []string { return e.scheduler.Active() }

// State returns the playback state of one slot.
func (e *Engine) State(slot contracts.Slot) sustain.State { return e.scheduler.State(slot) }

// Mode reports which playback path was selected.
func (e *Engine) Mode() contracts.SinkMode { return e.sink.Mode() }

// Chords returns a copy of the chord table in use.
func (e *Engine) Chords() contracts.ChordTable { return e.registry.Table() }

// Session returns the id tagged on every log line of this engine.
func (e *Engine) Session() string { return e.session }

// Close stops every chord and releases the sink. Later calls return the
// result of the first one.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.driver.Close()
		e.closeErr = e.sink.Close()
		e.status.Flush()
		e.logger.Info("airpiano stopped", e.logger.Field().Uint64("frames", e.driver.Frames()))
		if s, ok := e.logger.(interface{ Sync() error }); ok {
			// stderr cannot be synced on every platform.
			_ = s.Sync()
		}
	})
	return e.closeErr
}

// summary renders the table as "right/thumb=D Major[62 66 69]" entries.
func summary(r *chord.Registry) []string {
	out := make([]string, 0, contracts.NumSlots)
	for _, slot := range contracts.AllSlots() {
		def := r.Lookup(slot)
		out = append(out, fmt.Sprintf("%s=%s%v", slot, def.Name, def.Notes))
	}
	return out
}
