package playback

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/multierr"
)

// AudioOutput plays PCM buffers without blocking.
type AudioOutput interface {
	Play(pcm []byte) error
	Close() error
}

// OtoOutput plays stereo 16-bit PCM through the system audio device.
type OtoOutput struct {
	mu      sync.Mutex
	ctx     *oto.Context
	players []*oto.Player
}

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// NewOtoOutput opens the audio device at sampleRate. Only the first call's
// sample rate is honoured; later calls share the same device.
func NewOtoOutput(sampleRate int) (*OtoOutput, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: toneChannels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoErr = fmt.Errorf("open audio device: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
	})
	if otoErr != nil {
		return nil, otoErr
	}
	return &OtoOutput{ctx: otoCtx}, nil
}

// Play starts pcm and returns immediately. Finished players are reclaimed on
// the next call.
func (o *OtoOutput) Play(pcm []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	live := o.players[:0]
	for _, p := range o.players {
		if p.IsPlaying() {
			live = append(live, p)
			continue
		}
		_ = p.Close()
	}
	o.players = live

	p := o.ctx.NewPlayer(bytes.NewReader(pcm))
	p.Play()
	o.players = append(o.players, p)
	return nil
}

// Close stops every player still sounding.
func (o *OtoOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var err error
	for _, p := range o.players {
		err = multierr.Append(err, p.Close())
	}
	o.players = nil
	return err
}

// silentOutput drops everything; used when no audio device can be opened.
type silentOutput struct{}

func (silentOutput) Play([]byte) error { return nil }
func (silentOutput) Close() error      { return nil }
