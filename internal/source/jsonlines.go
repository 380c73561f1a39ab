// Package source reads hand observations produced by an external landmark
// detector. The wire format is one JSON object per line:
//
//	{"t": 0.033, "hands": [{"side": "right", "keypoints": [[x, y], ...]}]}
//
// An empty line or the literal null means the detector had nothing for that
// poll.
package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/leandrodaf/airpiano/internal/logger"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// ErrDecode wraps a line that could not be turned into a frame.
var ErrDecode = errors.New("decode frame")

// DefaultPollTimeout is how long Next waits for a line before reporting a stall.
const DefaultPollTimeout = 100 * time.Millisecond

const maxLineSize = 1 << 20

type wireHand struct {
	Side      string      `json:"side"`
	Keypoints [][]float64 `json:"keypoints"`
}

type wireFrame struct {
	T     *float64   `json:"t"`
	Hands []wireHand `json:"hands"`
}

type line struct {
	data []byte
	err  error
}

// JSONLines is a contracts.Source over a line-delimited JSON stream.
type JSONLines struct {
	lines    chan line
	done     chan struct{}
	once     sync.Once
	poll     time.Duration
	realtime bool
	logger   contracts.Logger

	started bool
	origin  time.Time
	t0      float64
	n       int
}

// Option configures a JSONLines source.
type Option func(*JSONLines)

// WithPollTimeout sets how long Next waits for input before returning a
// stall. Zero waits forever.
func WithPollTimeout(d time.Duration) Option {
	return func(s *JSONLines) { s.poll = d }
}

// WithRealtime paces frames by their "t" field instead of returning them as
// fast as they are read. Frames without "t" are not delayed.
func WithRealtime() Option {
	return func(s *JSONLines) { s.realtime = true }
}

// WithLogger reports hands that are skipped while decoding.
func WithLogger(l contracts.Logger) Option {
	return func(s *JSONLines) { s.logger = l }
}

// NewJSONLines starts reading r in the background. Close must be called to
// release the reader when the stream is not consumed to the end.
func NewJSONLines(r io.Reader, opts ...Option) *JSONLines {
	s := &JSONLines{
		lines: make(chan line),
		done:  make(chan struct{}),
		poll:   DefaultPollTimeout,
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.read(r)
	return s
}

func (s *JSONLines) read(r io.Reader) {
	defer close(s.lines)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		data := append([]byte(nil), sc.Bytes()...)
		select {
		case s.lines <- line{data: data}:
		case <-s.done:
			return
		}
	}
	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case s.lines <- line{err: err}:
	case <-s.done:
	}
}

// Next returns the next frame. ok is false when the detector reported
// nothing, when no line arrived within the poll timeout, or when the line
// could not be decoded (err is then non-nil and wraps ErrDecode).
func (s *JSONLines) Next(ctx context.Context) (contracts.Frame, bool, error) {
	var timeout <-chan time.Time
	if s.poll > 0 {
		t := time.NewTimer(s.poll)
		defer t.Stop()
		timeout = t.C
	}

	var l line
	var open bool
	select {
	case <-ctx.Done():
		return contracts.Frame{}, false, ctx.Err()
	case <-timeout:
		return contracts.Frame{}, false, nil
	case l, open = <-s.lines:
	}
	if !open {
		return contracts.Frame{}, false, io.EOF
	}
	if l.err != nil {
		return contracts.Frame{}, false, l.err
	}
	s.n++

	data := bytes.TrimSpace(l.data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return contracts.Frame{}, false, nil
	}

	var wf wireFrame
	if err := json.Unmarshal(data, &wf); err != nil {
		return contracts.Frame{}, false, fmt.Errorf("%w: line %d: %v", ErrDecode, s.n, err)
	}
	frame := s.toFrame(wf)

	if s.realtime && wf.T != nil {
		if err := s.pace(ctx, *wf.T); err != nil {
			return contracts.Frame{}, false, err
		}
	}
	return frame, true, nil
}

// pace blocks until the wall time offset since the first frame matches t.
func (s *JSONLines) pace(ctx context.Context, t float64) error {
	if !s.started {
		s.started = true
		s.origin = time.Now()
		s.t0 = t
		return nil
	}
	due := s.origin.Add(time.Duration((t - s.t0) * float64(time.Second)))
	wait := time.Until(due)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close stops the background reader. It does not close the underlying reader.
func (s *JSONLines) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// A hand with an unknown side is dropped. A keypoint that is not an [x, y]
// pair leaves the hand without keypoints so the extractor rejects it as
// malformed. Either way the rest of the frame is kept.
func (s *JSONLines) toFrame(wf wireFrame) contracts.Frame {
	frame := contracts.Frame{Hands: make([]contracts.HandObservation, 0, len(wf.Hands))}
	for _, h := range wf.Hands {
		side, err := contracts.ParseSide(h.Side)
		if err != nil {
			s.logger.Warn("hand skipped",
				s.logger.Field().Int("line", s.n),
				s.logger.Field().Error("error", err))
			continue
		}
		obs := contracts.HandObservation{Side: side, Keypoints: make([]contracts.Keypoint, 0, len(h.Keypoints))}
		for _, kp := range h.Keypoints {
			if len(kp) != 2 {
				obs.Keypoints = nil
				break
			}
			obs.Keypoints = append(obs.Keypoints, contracts.Keypoint{X: kp[0], Y: kp[1]})
		}
		frame.Hands = append(frame.Hands, obs)
	}
	return frame
}
