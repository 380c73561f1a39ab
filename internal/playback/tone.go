package playback

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// Fallback tone defaults.
const (
	DefaultToneSampleRate = 22050
	DefaultToneDuration   = 300 * time.Millisecond
	toneChannels          = 2
	bytesPerSample        = 2
	fadeFraction          = 0.1
)

// DefaultTones returns C4..G4, one pitch per finger.
func DefaultTones() contracts.ToneTable {
	return contracts.ToneTable{
		contracts.Thumb:  262,
		contracts.Index:  294,
		contracts.Middle: 330,
		contracts.Ring:   349,
		contracts.Pinky:  392,
	}
}

// Synthesize renders a sine tone as interleaved stereo signed 16-bit
// little-endian PCM. The first and last 10% of frames are faded to avoid clicks.
func Synthesize(freq float64, d time.Duration, sampleRate int) []byte {
	frames := int(d.Seconds() * float64(sampleRate))
	if frames <= 0 || freq <= 0 {
		return nil
	}
	out := make([]byte, frames*toneChannels*bytesPerSample)
	fade := float64(frames) * fadeFraction
	for i := 0; i < frames; i++ {
		gain := math.Min(1, math.Min(float64(i)/fade, float64(frames-i)/fade))
		v := math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)) * gain
		sample := uint16(int16(v * math.MaxInt16))
		off := i * toneChannels * bytesPerSample
		binary.LittleEndian.PutUint16(out[off:], sample)
		binary.LittleEndian.PutUint16(out[off+bytesPerSample:], sample)
	}
	return out
}
