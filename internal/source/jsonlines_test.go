package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/leandrodaf/airpiano/internal/logger"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func keypoints(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("[%d.5,%d]", i, i*2)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestNextDecodesFrames(t *testing.T) {
	input := strings.Join([]string{
		`{"t":0,"hands":[{"side":"right","keypoints":` + keypoints(21) + `}]}`,
		``,
		`null`,
		`{"hands":[]}`,
	}, "\n")
	s := NewJSONLines(strings.NewReader(input))
	defer s.Close()
	ctx := context.Background()

	f, ok, err := s.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, f.Hands, 1)
	assert.Equal(t, contracts.Right, f.Hands[0].Side)
	require.Len(t, f.Hands[0].Keypoints, 21)
	assert.Equal(t, contracts.Keypoint{X: 3.5, Y: 6}, f.Hands[0].Keypoints[3])

	for i := 0; i < 2; i++ {
		_, ok, err = s.Next(ctx)
		require.NoError(t, err)
		assert.False(t, ok, "empty and null lines are stalls")
	}

	f, ok, err = s.Next(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.Hands)

	_, _, err = s.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, _, err = s.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestNextReportsBadLines(t *testing.T) {
	input := strings.Join([]string{
		`{"hands":[`,
		`{"hands":[{"side":"middle","keypoints":[]}]}`,
		`{"hands":[{"side":"left","keypoints":[[1,2],[3]]}]}`,
	}, "\n")
	s := NewJSONLines(strings.NewReader(input))
	defer s.Close()
	ctx := context.Background()

	_, ok, err := s.Next(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "line 1")

	f, ok, err := s.Next(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.Hands, "a hand with an unknown side is dropped")

	f, ok, err = s.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, f.Hands[0].Keypoints, "a bad keypoint leaves the hand for the extractor to reject")
}

func TestUnknownSideKeepsTheOtherHand(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	core, logs := observer.New(level)
	input := `{"hands":[{"side":"middle","keypoints":[]},{"side":"left","keypoints":` + keypoints(21) + `}]}`
	s := NewJSONLines(strings.NewReader(input), WithLogger(logger.Wrap(zap.New(core), level)))
	defer s.Close()

	f, ok, err := s.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, f.Hands, 1)
	assert.Equal(t, contracts.Left, f.Hands[0].Side)
	assert.Len(t, f.Hands[0].Keypoints, 21)

	warned := logs.FilterMessage("hand skipped").All()
	require.Len(t, warned, 1)
	assert.EqualValues(t, 1, warned[0].ContextMap()["line"])
}

type blockingReader struct {
	release chan struct{}
}

func (r blockingReader) Read([]byte) (int, error) {
	<-r.release
	return 0, io.EOF
}

func TestNextStallsWhenNothingArrives(t *testing.T) {
	r := blockingReader{release: make(chan struct{})}
	s := NewJSONLines(r, WithPollTimeout(5*time.Millisecond))
	defer func() {
		close(r.release)
		s.Close()
	}()

	_, ok, err := s.Next(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.poll = 0
	_, _, err = s.Next(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRealtimePacing(t *testing.T) {
	input := `{"t":10.00,"hands":[]}` + "\n" + `{"t":10.05,"hands":[]}` + "\n" + `{"hands":[]}`
	s := NewJSONLines(strings.NewReader(input), WithRealtime())
	defer s.Close()
	ctx := context.Background()

	begin := time.Now()
	for i := 0; i < 3; i++ {
		_, ok, err := s.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.GreaterOrEqual(t, time.Since(begin), 45*time.Millisecond)
}

func TestCloseReleasesReader(t *testing.T) {
	s := NewJSONLines(strings.NewReader("{}\n{}\n{}\n"))
	_, ok, err := s.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
