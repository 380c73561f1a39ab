// Package observe turns engine events into log output.
package observe

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// DefaultStatusDelay is how long the chord set must stay unchanged before the
// status line is logged.
const DefaultStatusDelay = 150 * time.Millisecond

// LogObserver logs device errors and stalls as they happen and a coalesced
// "playing" line whenever the set of sounding chords settles.
type LogObserver struct {
	logger   contracts.Logger
	debounce func(func())

	mu      sync.Mutex
	playing map[string]int
	flushed bool
}

// NewLogObserver returns an observer that logs to logger. A non-positive
// delay uses DefaultStatusDelay.
func NewLogObserver(logger contracts.Logger, delay time.Duration) *LogObserver {
	if delay <= 0 {
		delay = DefaultStatusDelay
	}
	return &LogObserver{
		logger:   logger,
		debounce: debounce.New(delay),
		playing:  make(map[string]int),
	}
}

// OnEvent implements contracts.Observer. It never blocks.
func (o *LogObserver) OnEvent(e contracts.Event) {
	switch e.Kind {
	case contracts.ChordStarted:
		o.mu.Lock()
		o.playing[e.Name]++
		o.mu.Unlock()
		o.schedule()
	case contracts.ChordStopped:
		o.mu.Lock()
		if o.playing[e.Name] <= 1 {
			delete(o.playing, e.Name)
		} else {
			o.playing[e.Name]--
		}
		o.mu.Unlock()
		o.schedule()
	case contracts.DeviceError:
		o.logger.Error("playback device error",
			o.logger.Field().String("slot", e.Slot.String()),
			o.logger.Field().String("error", e.Message))
	case contracts.SourceStall:
		o.logger.Warn("no frames from source", o.logger.Field().String("detail", e.Message))
	}
}

// Playing returns the sounding chord names, sorted.
func (o *LogObserver) Playing() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.playing))
	for n := range o.playing {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Flush drops the pending status line and logs the current one right away.
// Later chord events no longer produce status lines, so nothing is written
// once the logger has been synced.
func (o *LogObserver) Flush() {
	o.mu.Lock()
	if o.flushed {
		o.mu.Unlock()
		return
	}
	o.flushed = true
	o.mu.Unlock()
	o.debounce(func() {})
	o.log(o.Playing())
}

func (o *LogObserver) isFlushed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.flushed
}

func (o *LogObserver) schedule() {
	if !o.isFlushed() {
		o.debounce(o.status)
	}
}

func (o *LogObserver) status() {
	if o.isFlushed() {
		return
	}
	o.log(o.Playing())
}

func (o *LogObserver) log(names []string) {
	if len(names) == 0 {
		o.logger.Info("playing: none")
		return
	}
	o.logger.Info("playing: "+strings.Join(names, ", "), o.logger.Field().Strings("chords", names))
}
