package playback

import (
	"sync"
	"time"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// ToneSink is the percussive fallback: one short tone per onset, keyed by
// finger. It has no sustain and NoteOff does nothing.
type ToneSink struct {
	mu       sync.Mutex
	out      AudioOutput
	tones    contracts.ToneTable
	duration time.Duration
	rate     int
	cache    map[contracts.Finger][]byte
	closed   bool
}

// NewToneSink renders tones lazily at cfg's sample rate and plays them on out.
func NewToneSink(out AudioOutput, cfg contracts.ToneConfig) *ToneSink {
	tones := DefaultTones()
	for f, hz := range cfg.Frequencies {
		tones[f] = hz
	}
	d := cfg.Duration
	if d <= 0 {
		d = DefaultToneDuration
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = DefaultToneSampleRate
	}
	return &ToneSink{
		out:      out,
		tones:    tones,
		duration: d,
		rate:     rate,
		cache:    make(map[contracts.Finger][]byte),
	}
}

// NoteOn plays the tone of the slot's finger.
func (s *ToneSink) NoteOn(slot contracts.Slot, _ contracts.ChordDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	pcm, ok := s.cache[slot.Finger]
	if !ok {
		pcm = Synthesize(s.tones[slot.Finger], s.duration, s.rate)
		s.cache[slot.Finger] = pcm
	}
	if len(pcm) == 0 {
		return nil
	}
	return s.out.Play(pcm)
}

// NoteOff is a no-op: fallback tones decay on their own.
func (s *ToneSink) NoteOff(contracts.Slot, contracts.ChordDefinition) error { return nil }

// Mode reports ToneMode.
func (s *ToneSink) Mode() contracts.SinkMode { return contracts.ToneMode }

// Close stops any tone still playing.
func (s *ToneSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.out.Close()
}
