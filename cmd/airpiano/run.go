package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/leandrodaf/airpiano/internal/source"
	"github.com/leandrodaf/airpiano/sdk/airpiano"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

var (
	inputPath string
	realtime  bool
	device    string
	noMIDI    bool
)

// runCmd drives the engine from a landmark stream
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play chords from a hand landmark stream",
	Long: `Reads frames from stdin (or --input) until the stream ends or the process
is interrupted. Each line is

  {"t": 0.033, "hands": [{"side": "right", "keypoints": [[x, y], ...21 pairs]}]}

An empty line or null means the tracker saw nothing in that frame.

Example:
  hand-tracker | airpiano run --device loopMIDI
  airpiano run --input session.jsonl --realtime`,
	Args: cobra.NoArgs,
	RunE: runEngine,
}

func init() {
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "JSON lines file to read, - for stdin")
	runCmd.Flags().BoolVar(&realtime, "realtime", false, `replay frames at the pace of their "t" field`)
	runCmd.Flags().StringVarP(&device, "device", "d", "", "MIDI output name to prefer (substring, case-insensitive)")
	runCmd.Flags().BoolVar(&noMIDI, "no-midi", false, "skip MIDI and play fallback tones")
}

func runEngine(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if device != "" {
		cfg.Output.Device = device
	}
	if noMIDI {
		cfg.Output.Disabled = true
	}
	if realtime {
		cfg.Source.Realtime = true
	}

	log := newLogger(cfg)
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	engine, err := airpiano.NewEngine(append(opts, contracts.WithLogger(log))...)
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	in, err := openInput(inputPath)
	if err != nil {
		return multierr.Append(err, engine.Close())
	}

	srcOpts := []source.Option{source.WithPollTimeout(cfg.GetPollTimeout()), source.WithLogger(log)}
	if cfg.Source.Realtime {
		srcOpts = append(srcOpts, source.WithRealtime())
	}
	src := source.NewJSONLines(in, srcOpts...)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return engine.Run(gctx, src)
	})
	g.Go(func() error {
		// An interrupt must not wait for the next input line.
		err := closeOnDone(gctx, src, in)
		log.Debug("input closed", log.Field().Error("error", err))
		return err
	})

	err = g.Wait()
	return multierr.Append(err, engine.Close())
}

// closeOnDone blocks until ctx is done, then closes every closer.
func closeOnDone(ctx context.Context, closers ...io.Closer) error {
	<-ctx.Done()
	var err error
	for _, c := range closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}
