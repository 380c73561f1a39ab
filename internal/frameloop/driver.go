// Package frameloop drives the gesture pipeline one frame at a time:
// extract finger vectors, debounce them, and hand the transitions to the
// sustain scheduler.
package frameloop

import (
	"context"
	"errors"
	"io"

	"github.com/leandrodaf/airpiano/internal/gesture"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// Scheduler receives debounced transitions.
type Scheduler interface {
	Onset(slot contracts.Slot)
	Release(slot contracts.Slot)
	StopAll()
}

// Config wires a Driver. Observer may be nil. A zero StallThreshold or
// IdleFrames disables the corresponding check.
type Config struct {
	Scheduler      Scheduler
	Logger         contracts.Logger
	Observer       contracts.Observer
	Clock          contracts.Clock
	StallThreshold int
	IdleFrames     int
}

// Driver is the single owner of the debouncer. Step, Run and Close must be
// called from one goroutine.
type Driver struct {
	debouncer      *gesture.Debouncer
	scheduler      Scheduler
	logger         contracts.Logger
	observer       contracts.Observer
	clock          contracts.Clock
	stallThreshold int
	idleFrames     int

	stalls int
	idle   int
	frames uint64
}

// New returns a Driver with every finger down.
func New(cfg Config) (*Driver, error) {
	if cfg.Scheduler == nil || cfg.Logger == nil || cfg.Clock == nil {
		return nil, errors.New("frameloop: scheduler, logger and clock are required")
	}
	if cfg.StallThreshold < 0 || cfg.IdleFrames < 0 {
		return nil, errors.New("frameloop: thresholds must not be negative")
	}
	return &Driver{
		debouncer:      gesture.NewDebouncer(),
		scheduler:      cfg.Scheduler,
		logger:         cfg.Logger,
		observer:       cfg.Observer,
		clock:          cfg.Clock,
		stallThreshold: cfg.StallThreshold,
		idleFrames:     cfg.IdleFrames,
	}, nil
}

// Step processes one frame.
//
// A malformed hand is dropped and its side keeps the previous finger state.
// When a side appears twice only the first observation is used.
func (d *Driver) Step(frame contracts.Frame) {
	d.frames++
	d.stalls = 0

	vectors := make(map[contracts.Side]contracts.FingerVector, len(frame.Hands))
	var held []contracts.Side
	for _, obs := range frame.Hands {
		if _, dup := vectors[obs.Side]; dup || containsSide(held, obs.Side) {
			d.logger.Warn("duplicate hand in frame, keeping the first",
				d.logger.Field().String("side", obs.Side.String()),
				d.logger.Field().Uint64("frame", d.frames))
			continue
		}
		v, err := gesture.FingersUp(obs)
		if err != nil {
			d.logger.Warn("dropping hand observation",
				d.logger.Field().Error("error", err),
				d.logger.Field().Uint64("frame", d.frames))
			// Unknown sides have no slots to hold.
			if obs.Side == contracts.Left || obs.Side == contracts.Right {
				held = append(held, obs.Side)
			}
			continue
		}
		vectors[obs.Side] = v
	}

	for _, t := range d.debouncer.Update(vectors, held...) {
		switch t.Kind {
		case gesture.Onset:
			d.scheduler.Onset(t.Slot)
		case gesture.Release:
			d.scheduler.Release(t.Slot)
		}
	}

	d.trackIdle(len(frame.Hands) == 0)
}

func (d *Driver) trackIdle(empty bool) {
	if !empty {
		d.idle = 0
		return
	}
	d.idle++
	if d.idleFrames > 0 && d.idle == d.idleFrames {
		d.logger.Info("no hands in view, stopping all chords",
			d.logger.Field().Int("frames", d.idle))
		d.scheduler.StopAll()
	}
}

// Stall records a poll that produced no frame. Once StallThreshold
// consecutive polls came back empty a single SourceStall is reported; the
// count restarts with the next frame.
func (d *Driver) Stall() {
	d.stalls++
	if d.stallThreshold == 0 || d.stalls != d.stallThreshold {
		return
	}
	d.logger.Warn("frame source stalled", d.logger.Field().Int("polls", d.stalls))
	if d.observer != nil {
		d.observer.OnEvent(contracts.Event{
			Kind:    contracts.SourceStall,
			Message: "no frame for consecutive polls",
			At:      d.clock.Now(),
		})
	}
}

// Run polls source until ctx is done or the source is exhausted. Decode
// errors from the source are logged and count as a stall. Run returns nil on
// exhaustion or cancellation.
func (d *Driver) Run(ctx context.Context, source contracts.Source) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		frame, ok, err := source.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			d.logger.Info("frame source exhausted", d.logger.Field().Uint64("frames", d.frames))
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		case err != nil:
			d.logger.Warn("bad frame from source", d.logger.Field().Error("error", err))
			d.Stall()
		case !ok:
			d.Stall()
		default:
			d.Step(frame)
		}
	}
}

// Close stops every chord immediately and forgets all finger state.
func (d *Driver) Close() {
	d.scheduler.StopAll()
	d.debouncer.Reset()
	d.idle = 0
	d.stalls = 0
}

// Frames returns the number of frames processed so far.
func (d *Driver) Frames() uint64 { return d.frames }

func containsSide(sides []contracts.Side, s contracts.Side) bool {
	for _, x := range sides {
		if x == s {
			return true
		}
	}
	return false
}
